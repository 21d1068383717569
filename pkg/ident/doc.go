// Package ident allocates and tracks identifiers for render positions.
//
// An ID names one position in a component instance's render output. The
// position itself is described by a Scope: the owning instance's ID plus a
// Path of child indices relative to that instance's render root. The same
// Scope keeps the same ID across render passes for as long as the owning
// instance is mounted, and an ID is never handed out twice.
//
// A Registry belongs to exactly one controller. Misuse (double release,
// release of an unknown ID, allocation under a released owner) is a
// programming error and panics with an *errors.KinesisError.
package ident
