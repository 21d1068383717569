package remote

import (
	"fmt"

	"github.com/vango-dev/kinesis/pkg/host"
	"github.com/vango-dev/kinesis/pkg/ident"
	"github.com/vango-dev/kinesis/pkg/protocol"
)

// Mirror replays ops produced by a Surface onto a local host.Surface.
type Mirror struct {
	surface host.Surface
	nodes   map[Handle]host.Node
}

// NewMirror returns a Mirror that maps RootHandle to root on surface.
func NewMirror(surface host.Surface, root host.Node) *Mirror {
	return &Mirror{
		surface: surface,
		nodes:   map[Handle]host.Node{RootHandle: root},
	}
}

// Len returns the number of handles the mirror maps, the root included.
func (m *Mirror) Len() int {
	return len(m.nodes)
}

// Node returns the local node for h.
func (m *Mirror) Node(h Handle) (host.Node, bool) {
	n, ok := m.nodes[h]
	return n, ok
}

// ApplyFrame applies a FrameOps frame. Other frame types are ignored.
func (m *Mirror) ApplyFrame(f *protocol.Frame) error {
	if f.Type != protocol.FrameOps {
		return nil
	}
	ops, err := protocol.DecodeOps(f.Payload)
	if err != nil {
		return err
	}
	return m.Apply(ops)
}

// Apply applies ops in order and stops at the first failure.
func (m *Mirror) Apply(ops []protocol.Op) error {
	for i, op := range ops {
		if err := m.apply(op); err != nil {
			return fmt.Errorf("remote: op %d (%s): %w", i, op.Code, err)
		}
	}
	return nil
}

func (m *Mirror) apply(op protocol.Op) error {
	switch op.Code {
	case protocol.OpCreateElement, protocol.OpCreateText:
		if _, ok := m.nodes[Handle(op.Node)]; ok {
			return fmt.Errorf("handle %d already in use", op.Node)
		}
		var (
			n   host.Node
			err error
		)
		if op.Code == protocol.OpCreateElement {
			n, err = m.surface.CreateElement(op.Name)
		} else {
			n, err = m.surface.CreateText(op.Value)
		}
		if err != nil {
			return err
		}
		m.nodes[Handle(op.Node)] = n
		return nil
	}

	node, err := m.node(op.Node)
	if err != nil {
		return err
	}
	switch op.Code {
	case protocol.OpSetAttribute:
		return m.surface.SetAttribute(node, op.Name, op.Value)
	case protocol.OpSetText:
		return m.surface.SetText(node, op.Value)
	case protocol.OpInsertChild, protocol.OpRemoveChild:
		parent, err := m.node(op.Parent)
		if err != nil {
			return err
		}
		if op.Code == protocol.OpInsertChild {
			return m.surface.InsertChild(parent, node, op.Index)
		}
		return m.surface.RemoveChild(parent, node)
	case protocol.OpListen:
		return m.surface.Listen(node, op.Name, ident.ID(op.ID))
	case protocol.OpDrop:
		delete(m.nodes, Handle(op.Node))
		host.Forget(m.surface, []host.Node{node})
		return nil
	default:
		return fmt.Errorf("unknown op code %d", op.Code)
	}
}

func (m *Mirror) node(h uint64) (host.Node, error) {
	n, ok := m.nodes[Handle(h)]
	if !ok {
		return nil, fmt.Errorf("unknown handle %d", h)
	}
	return n, nil
}
