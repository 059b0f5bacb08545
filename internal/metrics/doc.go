// Package metrics records release run metrics and writes them as a
// Prometheus node-exporter textfile.
//
// A nil *Recorder is valid and records nothing.
package metrics
