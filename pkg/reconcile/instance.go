package reconcile

import (
	"github.com/vango-dev/kinesis/pkg/ident"
	"github.com/vango-dev/kinesis/pkg/vdom"
)

// Instance is a mounted component: its definition, the state the engine
// threads through it, and the render output last committed for it.
type Instance struct {
	// ID is the identifier of the component position; the instance's own
	// positions are scoped to it.
	ID ident.ID

	// Component is the definition last rendered at the position.
	Component vdom.Component

	// State is the current state value.
	State any

	// Last is the last committed render output.
	Last *vdom.VNode

	// Parent is the enclosing instance (nil for a controller's root).
	Parent *Instance
}

// Name returns the component name, or "" for a detached instance.
func (i *Instance) Name() string {
	if i == nil || i.Component == nil {
		return ""
	}
	return i.Component.Name()
}

// Depth returns the number of enclosing instances.
func (i *Instance) Depth() int {
	d := 0
	for p := i.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// render renders c against state, substituting Empty for a nil output.
func render(c vdom.Component, state any) *vdom.VNode {
	out := c.Render(state)
	if out == nil {
		return vdom.Empty()
	}
	return out
}

// Instances indexes mounted instances by ID.
type Instances map[ident.ID]*Instance
