// Package config defines release settings and provides helpers to load,
// validate and save them in YAML format.
//
// Secrets for the remote transports are never persisted; they come from the
// environment, optionally seeded from a project .env file.
package config
