// Package versioning computes and persists the next release version.
//
// Increments follow the npm semver rules the project has always used, so a
// prepatch of 1.2.3 with the "alpha" identifier yields 1.2.4-alpha.0.
package versioning
