// Package memdom is an in-memory host.Surface.
//
// It backs the test suites, the render command of the CLI, and snapshot
// publishing. Every operation is counted so tests can assert exactly which
// mutations a render cycle performed, and a Fault hook lets tests make the
// surface refuse a specific mutation.
package memdom
