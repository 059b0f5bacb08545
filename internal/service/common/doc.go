// Package common holds helpers shared by several services.
//
// It detects the current system actor (hostname/username) and guards a
// project against concurrent release runs with a marker file.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
