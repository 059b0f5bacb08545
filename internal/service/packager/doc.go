// Package packager writes the release archive of an assembled staging tree.
package packager
