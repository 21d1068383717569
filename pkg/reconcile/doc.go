// Package reconcile maps a component's new render output onto the live tree
// its previous output produced.
//
// Reconciliation is position-indexed. A position's identity is its place in
// its parent's render output, never the value behind it: list items are
// matched by index, so reordering the data behind a list reuses each
// position's prior node for whatever item now sits there. That is a known
// limitation of the scheme, not an error.
//
// A pass never touches the live tree. New subtrees are built detached, and
// every mutation of live nodes (insertions, removals, text and attribute
// rewrites, listener registrations) is recorded in a Patch together with the
// cache writes, binding changes and instance lifecycle changes that must
// accompany it. The controller commits a Patch as a unit. Identifier
// allocations and releases go straight to the registry, which journals them
// so an aborted pass can be rolled back.
package reconcile
