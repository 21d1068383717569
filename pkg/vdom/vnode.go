package vdom

import "github.com/vango-dev/kinesis/pkg/ident"

// Kind is the node type discriminator.
type Kind uint8

const (
	KindEmpty     Kind = iota // Renders nothing
	KindElement               // <div>, <button>, etc.
	KindText                  // Text node
	KindComponent             // Nested component instance
	KindOptional              // Zero or one child
	KindList                  // Position-indexed sequence
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComponent:
		return "Component"
	case KindOptional:
		return "Optional"
	case KindList:
		return "List"
	default:
		return "Unknown"
	}
}

// IsFragment reports whether nodes of kind k have no host node of their own
// and contribute their children's nodes to the enclosing element.
func (k Kind) IsFragment() bool {
	return k == KindEmpty || k == KindComponent || k == KindOptional || k == KindList
}

// VNode is one render output position.
type VNode struct {
	Kind     Kind      // Node type
	Tag      string    // Element tag name (e.g., "div")
	Attrs    []Attr    // Element attributes, in declaration order
	Events   []Binding // Element event bindings
	Children []*VNode  // Element children, Optional payload, List items
	Text     string    // For KindText
	Dynamic  bool      // For KindText: rewrite on update
	Comp     Component // For KindComponent

	// ID is set by the reconciler on its own copies of render output, and
	// carried over from the previous pass for the same position. Nodes
	// returned by Render keep zero.
	ID ident.ID
}

// Attr is a single element attribute.
type Attr struct {
	Key     string
	Value   string
	Dynamic bool
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// Binding associates an event kind with a symbolic handler name.
type Binding struct {
	Event   string // "click", "input", etc.
	Handler string // Handler name passed to HandleEvent
}

// IsInteractive returns true if this node has event bindings.
func (v *VNode) IsInteractive() bool {
	return v != nil && v.Kind == KindElement && len(v.Events) > 0
}

// Present reports whether an Optional node holds its child.
func (v *VNode) Present() bool {
	return v != nil && v.Kind == KindOptional && len(v.Children) > 0
}

// Binding returns the handler bound to event, if any.
func (v *VNode) Binding(event string) (string, bool) {
	if v == nil {
		return "", false
	}
	for _, b := range v.Events {
		if b.Event == event {
			return b.Handler, true
		}
	}
	return "", false
}

// Attr returns the attribute named key.
func (v *VNode) Attr(key string) (Attr, bool) {
	if v == nil {
		return Attr{}, false
	}
	for _, a := range v.Attrs {
		if a.Key == key {
			return a, true
		}
	}
	return Attr{}, false
}

// Compatible reports whether next can update prev in place: same kind, and
// for elements the same tag, for components the same component name.
func Compatible(prev, next *VNode) bool {
	if prev == nil || next == nil {
		return false
	}
	if prev.Kind != next.Kind {
		return false
	}
	switch prev.Kind {
	case KindElement:
		return prev.Tag == next.Tag
	case KindComponent:
		return prev.Comp != nil && next.Comp != nil && prev.Comp.Name() == next.Comp.Name()
	}
	return true
}

// Walk calls fn for v and every descendant in document order. Component
// nodes are visited but their rendered output is not; it belongs to the
// component instance.
func Walk(v *VNode, fn func(*VNode)) {
	if v == nil {
		return
	}
	fn(v)
	for _, child := range v.Children {
		Walk(child, fn)
	}
}
