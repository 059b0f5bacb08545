// Package builder starts one external build process per platform and joins
// their completion.
//
// Dispatch returns a Task per platform; AwaitAll is the barrier that either
// yields every result or fails on the first unsuccessful build.
package builder
