package reconcile

import (
	"fmt"

	"github.com/vango-dev/kinesis/pkg/cache"
	"github.com/vango-dev/kinesis/pkg/host"
	"github.com/vango-dev/kinesis/pkg/ident"
	"github.com/vango-dev/kinesis/pkg/vdom"
)

// OpKind is the type of a live-tree mutation.
type OpKind uint8

const (
	OpInsert  OpKind = iota + 1 // Insert a node into a live parent
	OpRemove                    // Remove a node from a live parent
	OpSetText                   // Rewrite a dynamic text node
	OpSetAttr                   // Rewrite a dynamic attribute
	OpListen                    // Register a listener on a live node
)

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "Insert"
	case OpRemove:
		return "Remove"
	case OpSetText:
		return "SetText"
	case OpSetAttr:
		return "SetAttr"
	case OpListen:
		return "Listen"
	default:
		return "Unknown"
	}
}

// Op is one live-tree mutation. Ops are applied in order; Index is the
// child index at the time the op runs.
type Op struct {
	Kind   OpKind
	ID     ident.ID  // Position the op belongs to
	Parent host.Node // For Insert/Remove
	Node   host.Node // Target node
	Index  int       // For Insert/Remove
	Key    string    // Attribute key or event kind
	Value  string    // New text or attribute value

	// Old and HadOld describe the value being overwritten, for rollback.
	Old    string
	HadOld bool
}

// String returns a short description for logs and test failures.
func (o Op) String() string {
	switch o.Kind {
	case OpInsert, OpRemove:
		return fmt.Sprintf("%s %s @%d", o.Kind, o.ID, o.Index)
	case OpSetText:
		return fmt.Sprintf("%s %s %q", o.Kind, o.ID, o.Value)
	case OpSetAttr:
		return fmt.Sprintf("%s %s %s=%q", o.Kind, o.ID, o.Key, o.Value)
	default:
		return fmt.Sprintf("%s %s %s", o.Kind, o.ID, o.Key)
	}
}

// Propagation asks the committer to splice a re-rendered instance's new
// nodes into its enclosing fragment entries.
type Propagation struct {
	ID     ident.ID
	OldLen int
	Nodes  []host.Node
}

// Patch is the staged result of one reconciliation pass.
type Patch struct {
	// Ops are the live-tree mutations, in application order.
	Ops []Op

	// Puts are cache entries to write, Removes cache entries to drop.
	Puts    map[ident.ID]cache.Entry
	Removes []ident.ID

	// Bindings are the event bindings of every reconciled element;
	// Unbinds are elements whose bindings must be dropped.
	Bindings map[ident.ID][]vdom.Binding
	Unbinds  []ident.ID

	// Mounted and Unmounted are instance lifecycle changes.
	Mounted   []*Instance
	Unmounted []*Instance

	// Outputs and Components are the render outputs and definitions to
	// record on surviving or new instances.
	Outputs    map[*Instance]*vdom.VNode
	Components map[*Instance]vdom.Component

	// Root is the adopted root position of a Root pass; nil when the pass
	// removed it.
	Root *vdom.VNode

	// Propagate lists instance positions re-rendered on their own.
	Propagate []Propagation

	// Created counts host nodes built during the pass.
	Created int

	// Built lists the element and text nodes created during the pass, and
	// Dropped the nodes of released element and text positions. A committer
	// forgets Dropped once the patch is committed and Built when it is
	// abandoned.
	Built   []host.Node
	Dropped []host.Node

	// Released counts identifiers released during the pass.
	Released int
}

func newPatch() *Patch {
	return &Patch{
		Puts:       make(map[ident.ID]cache.Entry),
		Bindings:   make(map[ident.ID][]vdom.Binding),
		Outputs:    make(map[*Instance]*vdom.VNode),
		Components: make(map[*Instance]vdom.Component),
	}
}

// Empty reports whether the patch mutates nothing in the live tree.
func (p *Patch) Empty() bool {
	return len(p.Ops) == 0
}

// Count returns how many ops of kind the patch holds.
func (p *Patch) Count(kind OpKind) int {
	n := 0
	for _, op := range p.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

func (p *Patch) add(op Op) {
	p.Ops = append(p.Ops, op)
}

func (p *Patch) put(id ident.ID, e cache.Entry) {
	p.Puts[id] = e
}

// setNext links prev's staged entry to its following sibling.
func (p *Patch) setNext(prev, next ident.ID) {
	if e, ok := p.Puts[prev]; ok {
		e.Next = next
		p.Puts[prev] = e
	}
}
