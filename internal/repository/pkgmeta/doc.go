// Package pkgmeta persists the version record stored in a project's
// package.json.
//
// Only the version field is ever touched; key order, indentation and every
// other field are preserved. Writes replace the whole file atomically.
package pkgmeta
