// Package host defines the capability set the engine needs from a concrete
// rendering surface (a DOM or equivalent).
//
// The engine never inspects a Node; it only hands nodes back to the Surface
// that created them. Surfaces report refusals as errors; the controller turns
// them into *Error values and rolls the tree back to its last committed state.
package host
