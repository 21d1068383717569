package host

import (
	"fmt"

	"github.com/vango-dev/kinesis/pkg/ident"
)

// Node is an opaque handle to a live node owned by a Surface.
type Node any

// Surface is the set of mutations the engine may request.
type Surface interface {
	// CreateElement creates a detached element node.
	CreateElement(tag string) (Node, error)

	// CreateText creates a detached text node.
	CreateText(text string) (Node, error)

	// SetAttribute sets an attribute on an element.
	SetAttribute(node Node, key, value string) error

	// SetText replaces a text node's content.
	SetText(node Node, text string) error

	// InsertChild inserts child into parent so that it ends up at index.
	InsertChild(parent, child Node, index int) error

	// RemoveChild detaches child from parent.
	RemoveChild(parent, child Node) error

	// Listen routes raw events of kind raised on node to the engine, tagged
	// with id. Surfaces register at most one listener per (node, kind).
	Listen(node Node, kind string, id ident.ID) error
}

// Forgetter is implemented by surfaces that keep per-node state beyond the
// node itself. Forget is called once a node is detached for good and will
// never be passed to the surface again.
type Forgetter interface {
	Forget(node Node)
}

// Forget calls s.Forget for each node when s is a Forgetter.
func Forget(s Surface, nodes []Node) {
	f, ok := s.(Forgetter)
	if !ok {
		return
	}
	for _, n := range nodes {
		f.Forget(n)
	}
}

// Position is where a mount inserts its root nodes: into Parent, starting at
// child Index.
type Position struct {
	Parent Node
	Index  int
}

// Append returns a Position at the start of parent's children.
func Append(parent Node) Position {
	return Position{Parent: parent}
}

// Op names a Surface operation.
type Op string

const (
	OpCreateElement Op = "create-element"
	OpCreateText    Op = "create-text"
	OpSetAttribute  Op = "set-attribute"
	OpSetText       Op = "set-text"
	OpInsertChild   Op = "insert-child"
	OpRemoveChild   Op = "remove-child"
	OpListen        Op = "listen"
)

// Error reports a mutation the surface refused.
type Error struct {
	Op  Op
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("host: %s: %v", e.Op, e.Err)
}

// Unwrap returns the surface's error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns nil when err is nil, otherwise an *Error for op.
func Wrap(op Op, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
