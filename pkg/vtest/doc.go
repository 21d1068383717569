// Package vtest provides testing helpers for kinesis components.
//
// A Harness mounts a component into an in-memory document and drives it the
// way a browser would: find an element, raise an event on it, and assert on
// the resulting tree.
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.Mount(t, demo.Counter())
//	    h.Click("increment")
//	    h.ExpectText("p", "The current count is 1")
//	}
//
// Every helper fails the test through t instead of returning errors.
package vtest
