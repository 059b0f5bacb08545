// Package releaser runs the release pipeline of a project:
// version bump, concurrent platform builds, bundle assembly, optional
// deployment and the release archive.
package releaser
