// Package cache remembers which live host nodes each render position
// produced, so later passes update them in place instead of recreating them.
//
// The cache is the single source of truth for "does this identifier have a
// live node". Entries also record where their nodes sit among their host
// parent's children, expressed through sibling and container identifiers
// rather than absolute indices, so an entry's position stays correct when
// earlier siblings grow or shrink.
package cache

import (
	"github.com/vango-dev/kinesis/pkg/host"
	"github.com/vango-dev/kinesis/pkg/ident"
	"github.com/vango-dev/kinesis/pkg/vdom"
)

// Entry is what one render position last produced.
type Entry struct {
	// Kind is the variant that produced the nodes.
	Kind vdom.Kind

	// Nodes are the host nodes this position contributes to Parent, in
	// order. Elements and text contribute one; fragments contribute the
	// flattened nodes of their children.
	Nodes []host.Node

	// Parent is the host node Nodes are children of.
	Parent host.Node

	// Prev and Next are the sibling positions within the same enclosing
	// position.
	Prev, Next ident.ID

	// Container is the enclosing fragment position whose nodes share
	// Parent, or zero when the enclosing position is an element or the
	// mount point.
	Container ident.ID

	// Base is the index of the first node when Prev and Container are zero.
	Base int

	// Text is the content last written to a text node.
	Text string

	// Attrs holds the attribute values last written to an element.
	Attrs map[string]string

	// Listening lists the event kinds a listener was registered for.
	Listening []string
}

// Listens reports whether a listener for kind was registered.
func (e Entry) Listens(kind string) bool {
	for _, k := range e.Listening {
		if k == kind {
			return true
		}
	}
	return false
}

// Node returns the single node of an element or text entry.
func (e Entry) Node() host.Node {
	if len(e.Nodes) == 0 {
		return nil
	}
	return e.Nodes[0]
}

// Cache maps identifiers to entries. It is owned by one controller and is
// not safe for concurrent use.
type Cache struct {
	entries map[ident.ID]Entry
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[ident.ID]Entry)}
}

// Get returns the entry for id.
func (c *Cache) Get(id ident.ID) (Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Node returns the first live node for id.
func (c *Cache) Node(id ident.ID) (host.Node, bool) {
	e, ok := c.entries[id]
	if !ok || len(e.Nodes) == 0 {
		return nil, false
	}
	return e.Nodes[0], true
}

// Has reports whether id has an entry.
func (c *Cache) Has(id ident.ID) bool {
	_, ok := c.entries[id]
	return ok
}

// Put records e for id, replacing any previous entry.
func (c *Cache) Put(id ident.ID, e Entry) {
	c.entries[id] = e
}

// Remove forgets id.
func (c *Cache) Remove(id ident.ID) {
	delete(c.entries, id)
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Offset returns the index among Parent's children of id's first node,
// derived from the nodes of preceding siblings and enclosing containers.
func (c *Cache) Offset(id ident.ID) int {
	off := 0
	for {
		e, ok := c.entries[id]
		if !ok {
			return off
		}
		switch {
		case e.Prev != 0:
			off += len(c.entries[e.Prev].Nodes)
			id = e.Prev
		case e.Container != 0:
			id = e.Container
		default:
			return off + e.Base
		}
	}
}

// Propagate replaces, in every container enclosing id, the oldLen nodes id
// used to contribute with nodes. Call it after id's own entry was updated
// outside a pass over its containers.
func (c *Cache) Propagate(id ident.ID, oldLen int, nodes []host.Node) {
	e, ok := c.entries[id]
	if !ok {
		return
	}
	for e.Container != 0 {
		cont, ok := c.entries[e.Container]
		if !ok {
			return
		}
		rel := c.Offset(id) - c.Offset(e.Container)
		cont.Nodes = splice(cont.Nodes, rel, oldLen, nodes)
		c.entries[e.Container] = cont
		id, e = e.Container, cont
	}
}

func splice(dst []host.Node, at, n int, with []host.Node) []host.Node {
	if at < 0 {
		at = 0
	}
	if at > len(dst) {
		at = len(dst)
	}
	end := at + n
	if end > len(dst) {
		end = len(dst)
	}
	out := make([]host.Node, 0, len(dst)-(end-at)+len(with))
	out = append(out, dst[:at]...)
	out = append(out, with...)
	return append(out, dst[end:]...)
}
