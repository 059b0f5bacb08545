// Package buildinfo exposes build metadata of the avg-release binary.
//
// Version, Commit and BuildTime are injected via ldflags; local builds fall
// back to module information recorded by the Go toolchain.
package buildinfo
