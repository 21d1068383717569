// Package remote is a host.Surface for a DOM the engine does not share memory
// with.
//
// A Surface keeps a shadow of the remote tree's shape so it can refuse the
// same structurally invalid requests a real DOM would, and buffers every
// accepted mutation as a protocol.Op addressed by node handle. Flush sends
// the buffered batch to the client as FrameOps frames. A Mirror applies such
// a batch to a local Surface, which is how the client side and the tests
// replay a stream.
package remote

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/vango-dev/kinesis/pkg/host"
	"github.com/vango-dev/kinesis/pkg/ident"
	"github.com/vango-dev/kinesis/pkg/protocol"
)

// Errors returned for structurally invalid requests.
var (
	ErrForeignNode = errors.New("remote: node was not created by this surface")
	ErrNotElement  = errors.New("remote: node is not an element")
	ErrNotText     = errors.New("remote: node is not a text node")
	ErrHasParent   = errors.New("remote: node already has a parent")
	ErrNotChild    = errors.New("remote: node is not a child of parent")
	ErrBadIndex    = errors.New("remote: insert index out of range")
	ErrClosed      = errors.New("remote: surface is closed")
)

// Handle addresses a node on the client. Handle 0 is the element the client
// mounted the session into.
type Handle uint64

// RootHandle is the client's mount element.
const RootHandle Handle = 0

type shadow struct {
	text     bool
	attached bool
	parent   Handle
	children []Handle
}

// FrameWriter sends one frame to the client.
type FrameWriter interface {
	WriteFrame(f *protocol.Frame) error
}

// FrameWriterFunc adapts a function to FrameWriter.
type FrameWriterFunc func(f *protocol.Frame) error

// WriteFrame calls fn(f).
func (fn FrameWriterFunc) WriteFrame(f *protocol.Frame) error {
	return fn(f)
}

// Stream returns a FrameWriter that writes frames back to back to w.
func Stream(w io.Writer) FrameWriter {
	return FrameWriterFunc(func(f *protocol.Frame) error {
		return protocol.WriteFrame(w, f)
	})
}

// Surface implements host.Surface by buffering protocol ops.
//
// The mutating methods are called by one controller at a time; Flush and
// Close may be called from another goroutine.
type Surface struct {
	mu      sync.Mutex
	next    Handle
	nodes   map[Handle]*shadow
	pending []protocol.Op
	sent    int
	closed  bool
}

var (
	_ host.Surface   = (*Surface)(nil)
	_ host.Forgetter = (*Surface)(nil)
)

// New creates a Surface whose only node is the client's mount element.
func New() *Surface {
	return &Surface{
		next:  RootHandle + 1,
		nodes: map[Handle]*shadow{RootHandle: {attached: true}},
	}
}

// Root returns the node for the client's mount element.
func (s *Surface) Root() host.Node {
	return RootHandle
}

// Len returns the number of nodes known to the surface, the root included.
func (s *Surface) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

// Pending returns a copy of the ops not yet flushed.
func (s *Surface) Pending() []protocol.Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Op(nil), s.pending...)
}

// Sent returns the number of ops flushed so far.
func (s *Surface) Sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

// Flush sends every pending op to w and clears the buffer. Nothing is sent
// when the buffer is empty. On a write error the ops stay pending.
func (s *Surface) Flush(w FrameWriter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	frames, err := protocol.EncodeOps(s.pending)
	if err != nil {
		return err
	}
	for _, f := range frames {
		if err := w.WriteFrame(f); err != nil {
			return fmt.Errorf("remote: flush: %w", err)
		}
	}
	s.sent += len(s.pending)
	s.pending = s.pending[:0]
	return nil
}

// Close makes every later mutation fail with ErrClosed and drops pending ops.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pending = nil
}

func (s *Surface) lookup(n host.Node) (Handle, *shadow, error) {
	if s.closed {
		return 0, nil, ErrClosed
	}
	h, ok := n.(Handle)
	if !ok {
		return 0, nil, ErrForeignNode
	}
	sh, ok := s.nodes[h]
	if !ok {
		return 0, nil, ErrForeignNode
	}
	return h, sh, nil
}

func (s *Surface) create(text bool, op protocol.Op) (host.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	h := s.next
	s.next++
	s.nodes[h] = &shadow{text: text}
	op.Node = uint64(h)
	s.pending = append(s.pending, op)
	return h, nil
}

// CreateElement implements host.Surface.
func (s *Surface) CreateElement(tag string) (host.Node, error) {
	return s.create(false, protocol.Op{Code: protocol.OpCreateElement, Name: tag})
}

// CreateText implements host.Surface.
func (s *Surface) CreateText(text string) (host.Node, error) {
	return s.create(true, protocol.Op{Code: protocol.OpCreateText, Value: text})
}

// SetAttribute implements host.Surface.
func (s *Surface) SetAttribute(node host.Node, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, sh, err := s.lookup(node)
	if err != nil {
		return err
	}
	if sh.text {
		return ErrNotElement
	}
	s.pending = append(s.pending, protocol.Op{Code: protocol.OpSetAttribute, Node: uint64(h), Name: key, Value: value})
	return nil
}

// SetText implements host.Surface.
func (s *Surface) SetText(node host.Node, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, sh, err := s.lookup(node)
	if err != nil {
		return err
	}
	if !sh.text {
		return ErrNotText
	}
	s.pending = append(s.pending, protocol.Op{Code: protocol.OpSetText, Node: uint64(h), Value: text})
	return nil
}

// InsertChild implements host.Surface.
func (s *Surface) InsertChild(parent, child host.Node, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ph, p, err := s.lookup(parent)
	if err != nil {
		return err
	}
	ch, c, err := s.lookup(child)
	if err != nil {
		return err
	}
	switch {
	case p.text:
		return ErrNotElement
	case c.attached:
		return ErrHasParent
	case index < 0 || index > len(p.children):
		return fmt.Errorf("%w: %d of %d", ErrBadIndex, index, len(p.children))
	}
	p.children = append(p.children, 0)
	copy(p.children[index+1:], p.children[index:])
	p.children[index] = ch
	c.attached, c.parent = true, ph
	s.pending = append(s.pending, protocol.Op{Code: protocol.OpInsertChild, Parent: uint64(ph), Node: uint64(ch), Index: index})
	return nil
}

// RemoveChild implements host.Surface.
func (s *Surface) RemoveChild(parent, child host.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ph, p, err := s.lookup(parent)
	if err != nil {
		return err
	}
	ch, c, err := s.lookup(child)
	if err != nil {
		return err
	}
	if !c.attached || c.parent != ph || ch == RootHandle {
		return ErrNotChild
	}
	for i, h := range p.children {
		if h == ch {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	c.attached, c.parent = false, 0
	s.pending = append(s.pending, protocol.Op{Code: protocol.OpRemoveChild, Parent: uint64(ph), Node: uint64(ch)})
	return nil
}

// Listen implements host.Surface.
func (s *Surface) Listen(node host.Node, kind string, id ident.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, _, err := s.lookup(node)
	if err != nil {
		return err
	}
	s.pending = append(s.pending, protocol.Op{Code: protocol.OpListen, Node: uint64(h), Name: kind, ID: uint64(id)})
	return nil
}

// Forget implements host.Forgetter. The handle is retired and an OpDrop
// tells the client to release its node. Unknown handles and the root are
// ignored.
func (s *Surface) Forget(node host.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, _, err := s.lookup(node)
	if err != nil || h == RootHandle {
		return
	}
	delete(s.nodes, h)
	s.pending = append(s.pending, protocol.Op{Code: protocol.OpDrop, Node: uint64(h)})
}
