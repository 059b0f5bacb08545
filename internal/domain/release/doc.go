// Package release contains core domain types for the release pipeline.
//
// It defines platforms and their selectors, version bump kinds, build
// targets and results, the bundle manifest and the error taxonomy shared by
// every pipeline step.
package release
