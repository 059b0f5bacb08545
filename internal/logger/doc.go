// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder and an optional rotated JSON file sink,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and a line writer for forwarding subprocess output.
//
// Pipeline steps accept a context and extract the logger from it, so every
// line of a run carries the run id and the step name.
package logger
