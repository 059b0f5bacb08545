// Package assembler builds the staging tree of a release: it points every
// platform's engine config at the released version, copies the platform
// outputs into the bundle and writes the bundle manifest.
package assembler
