// Package errors provides structured, coded errors for kinesis.
//
// Every engine failure that is not a plain host error carries a code that
// maps to a registered template:
//
//   - identifier (K1xx): identifier misuse such as double release
//   - lifecycle (K2xx): controller state machine misuse
//   - host (K3xx): the rendering surface refused a mutation
//   - config (K4xx): invalid kinesis.json / kinesis.yaml
//   - protocol (K5xx): malformed wire frames
//
// Identifier and lifecycle errors are programming errors. The engine raises
// them with panic and never recovers them:
//
//	panic(errors.New(errors.CodeDoubleRelease).WithDetail("id 7"))
//
// Use Format for terminal output and FormatCompact for logs.
package errors
