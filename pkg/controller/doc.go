// Package controller drives one mounted component tree through its
// lifecycle: mount, event-driven update cycles, and unmount.
//
// A cycle runs in three steps. The dispatcher resolves an event and runs the
// owning instance's handler; the reconciler diffs that instance's new render
// output against its last one and stages the result in a Patch; Commit
// applies the patch's host operations in order and only then makes the
// cache, binding and instance changes visible.
//
// If the host surface refuses an operation, the operations already applied
// are undone in reverse, identifier changes are rolled back, and the handler's
// state update is discarded. The caller gets a *host.Error and the tree is
// exactly as the previous cycle left it.
//
// A Controller is single-threaded. Callers that receive events concurrently
// must serialize calls themselves.
package controller
