package remote_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/kinesis/internal/demo"
	"github.com/vango-dev/kinesis/pkg/controller"
	"github.com/vango-dev/kinesis/pkg/dispatch"
	"github.com/vango-dev/kinesis/pkg/host"
	"github.com/vango-dev/kinesis/pkg/host/memdom"
	"github.com/vango-dev/kinesis/pkg/host/remote"
	"github.com/vango-dev/kinesis/pkg/protocol"
)

func readOps(t *testing.T, r io.Reader) []protocol.Op {
	t.Helper()
	var ops []protocol.Op
	for {
		f, err := protocol.ReadFrame(r)
		if err == io.EOF {
			return ops
		}
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		part, err := protocol.DecodeOps(f.Payload)
		if err != nil {
			t.Fatalf("DecodeOps: %v", err)
		}
		ops = append(ops, part...)
	}
}

func TestSurfaceBuffersOps(t *testing.T) {
	s := remote.New()
	div, _ := s.CreateElement("div")
	text, _ := s.CreateText("hello")
	steps := []error{
		s.SetAttribute(div, "class", "greeting"),
		s.InsertChild(div, text, 0),
		s.InsertChild(s.Root(), div, 0),
		s.SetText(text, "bye"),
		s.Listen(div, "click", 9),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	want := []protocol.Op{
		{Code: protocol.OpCreateElement, Node: 1, Name: "div"},
		{Code: protocol.OpCreateText, Node: 2, Value: "hello"},
		{Code: protocol.OpSetAttribute, Node: 1, Name: "class", Value: "greeting"},
		{Code: protocol.OpInsertChild, Parent: 1, Node: 2, Index: 0},
		{Code: protocol.OpInsertChild, Parent: 0, Node: 1, Index: 0},
		{Code: protocol.OpSetText, Node: 2, Value: "bye"},
		{Code: protocol.OpListen, Node: 1, Name: "click", ID: 9},
	}
	if diff := cmp.Diff(want, s.Pending()); diff != "" {
		t.Errorf("Pending() mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	if err := s.Flush(remote.Stream(&buf)); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if diff := cmp.Diff(want, readOps(t, &buf)); diff != "" {
		t.Errorf("flushed ops mismatch (-want +got):\n%s", diff)
	}
	if len(s.Pending()) != 0 || s.Sent() != len(want) {
		t.Errorf("after Flush: pending %d, sent %d", len(s.Pending()), s.Sent())
	}
	if err := s.Flush(remote.Stream(&buf)); err != nil || buf.Len() != 0 {
		t.Errorf("empty Flush wrote %d bytes, err %v", buf.Len(), err)
	}
	if got := s.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestSurfaceRefusesInvalidRequests(t *testing.T) {
	s := remote.New()
	div, _ := s.CreateElement("div")
	span, _ := s.CreateElement("span")
	text, _ := s.CreateText("x")
	if err := s.InsertChild(div, span, 0); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"foreign_node", s.SetText("not a handle", "x"), remote.ErrForeignNode},
		{"unknown_handle", s.SetText(remote.Handle(99), "x"), remote.ErrForeignNode},
		{"text_on_element", s.SetText(div, "x"), remote.ErrNotText},
		{"attr_on_text", s.SetAttribute(text, "k", "v"), remote.ErrNotElement},
		{"insert_into_text", s.InsertChild(text, div, 0), remote.ErrNotElement},
		{"insert_attached", s.InsertChild(s.Root(), span, 0), remote.ErrHasParent},
		{"index_out_of_range", s.InsertChild(div, text, 5), remote.ErrBadIndex},
		{"remove_detached", s.RemoveChild(s.Root(), div), remote.ErrNotChild},
		{"remove_wrong_parent", s.RemoveChild(s.Root(), span), remote.ErrNotChild},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !stderrors.Is(tc.err, tc.want) {
				t.Errorf("error = %v, want %v", tc.err, tc.want)
			}
		})
	}
	if got := len(s.Pending()); got != 4 {
		t.Errorf("refused requests were buffered: %d pending, want 4", got)
	}
}

func TestFlushFailureKeepsOps(t *testing.T) {
	s := remote.New()
	if _, err := s.CreateElement("p"); err != nil {
		t.Fatal(err)
	}
	boom := stderrors.New("connection reset")
	err := s.Flush(remote.FrameWriterFunc(func(*protocol.Frame) error { return boom }))
	if !stderrors.Is(err, boom) {
		t.Fatalf("Flush error = %v, want %v", err, boom)
	}
	if got := len(s.Pending()); got != 1 {
		t.Errorf("pending after failed Flush = %d, want 1", got)
	}

	s.Close()
	if len(s.Pending()) != 0 {
		t.Error("Close kept pending ops")
	}
	if _, err := s.CreateText("late"); err != remote.ErrClosed {
		t.Errorf("CreateText after Close = %v, want ErrClosed", err)
	}
}

func TestForgetRetiresHandles(t *testing.T) {
	s := remote.New()
	div, _ := s.CreateElement("div")
	text, _ := s.CreateText("gone")
	if err := s.InsertChild(div, text, 0); err != nil {
		t.Fatal(err)
	}
	s.Forget(text)
	s.Forget(div)
	s.Forget(div)
	s.Forget(s.Root())
	s.Forget("not a handle")

	if got := s.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
	want := []protocol.Op{
		{Code: protocol.OpDrop, Node: 2},
		{Code: protocol.OpDrop, Node: 1},
	}
	if diff := cmp.Diff(want, s.Pending()[3:]); diff != "" {
		t.Errorf("drop ops mismatch (-want +got):\n%s", diff)
	}
	if err := s.SetText(text, "x"); !stderrors.Is(err, remote.ErrForeignNode) {
		t.Errorf("SetText on a forgotten node = %v, want ErrForeignNode", err)
	}

	doc := memdom.New()
	m := remote.NewMirror(doc, doc.Root())
	if err := s.Flush(remote.FrameWriterFunc(m.ApplyFrame)); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, ok := m.Node(1); ok || m.Len() != 1 {
		t.Errorf("mirror kept %d handles after drops", m.Len())
	}
}

// pair drives the same component on a memdom document directly and through
// a remote surface replayed into a second document.
type pair struct {
	t      *testing.T
	local  *controller.Controller
	ldoc   *memdom.Document
	remote *controller.Controller
	rs     *remote.Surface
	rdoc   *memdom.Document
	mirror *remote.Mirror
}

func newPair(t *testing.T, name string) *pair {
	t.Helper()
	comp, ok := demo.Lookup(name)
	if !ok {
		t.Fatalf("Lookup(%q) failed", name)
	}
	p := &pair{t: t, ldoc: memdom.New(), rs: remote.New(), rdoc: memdom.New()}
	p.local = controller.New(p.ldoc)
	p.remote = controller.New(p.rs)
	p.mirror = remote.NewMirror(p.rdoc, p.rdoc.Root())

	ctx := context.Background()
	if err := p.local.Mount(ctx, comp, host.Append(p.ldoc.Root())); err != nil {
		t.Fatal(err)
	}
	if err := p.remote.Mount(ctx, comp, host.Append(p.rs.Root())); err != nil {
		t.Fatal(err)
	}
	p.sync()
	return p
}

func (p *pair) sync() {
	p.t.Helper()
	if err := p.rs.Flush(remote.FrameWriterFunc(p.mirror.ApplyFrame)); err != nil {
		p.t.Fatalf("Flush: %v", err)
	}
	if got, want := p.rdoc.HTML(), p.ldoc.HTML(); got != want {
		p.t.Fatalf("remote tree diverged:\n got %s\nwant %s", got, want)
	}
}

func (p *pair) fire(id, kind, value string) {
	p.t.Helper()
	ctx := context.Background()
	raw := dispatch.RawEvent{Kind: kind, Value: value}
	for _, side := range []struct {
		doc *memdom.Document
		c   *controller.Controller
	}{{p.ldoc, p.local}, {p.rdoc, p.remote}} {
		n := side.doc.Find(func(n *memdom.Node) bool {
			v, ok := n.Attr("id")
			return ok && v == id
		})
		if n == nil {
			p.t.Fatalf("no node with id %q", id)
		}
		src, ok := side.doc.Target(n, kind)
		if !ok {
			p.t.Fatalf("no %s listener for %q", kind, id)
		}
		if err := side.c.Dispatch(ctx, raw, src); err != nil {
			p.t.Fatal(err)
		}
	}
	p.sync()
}

func TestMirrorReplaysSessions(t *testing.T) {
	t.Run("counter", func(t *testing.T) {
		p := newPair(t, "counter")
		p.fire("increment", "click", "")
		p.fire("increment", "click", "")
		p.fire("reset", "click", "")
	})
	t.Run("toggle", func(t *testing.T) {
		p := newPair(t, "toggle")
		p.fire("toggle", "click", "")
		p.fire("toggle", "click", "")
	})
	t.Run("todo", func(t *testing.T) {
		p := newPair(t, "todo")
		for _, item := range []string{"milk", "eggs", "bread"} {
			p.fire("draft", "input", item)
			p.fire("add", "click", "")
		}
		p.fire("pop", "click", "")
	})
}

func TestHandlesStayBoundedAcrossToggles(t *testing.T) {
	p := newPair(t, "toggle")
	mounted := p.rs.Len()
	for i := 0; i < 1000; i++ {
		p.fire("toggle", "click", "")
		if got := p.rs.Len(); got > mounted+3 {
			t.Fatalf("toggle %d: surface holds %d handles, mounted with %d", i+1, got, mounted)
		}
	}
	if got := p.rs.Len(); got != mounted {
		t.Errorf("Len() = %d after an even number of toggles, want %d", got, mounted)
	}
	if got := p.mirror.Len(); got != mounted {
		t.Errorf("mirror Len() = %d, want %d", got, mounted)
	}

	if err := p.remote.Unmount(context.Background()); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if err := p.rs.Flush(remote.FrameWriterFunc(p.mirror.ApplyFrame)); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if p.rs.Len() != 1 || p.mirror.Len() != 1 {
		t.Errorf("after Unmount: surface %d, mirror %d handles, want 1", p.rs.Len(), p.mirror.Len())
	}
}

func TestMirrorRejectsUnknownHandles(t *testing.T) {
	m := remote.NewMirror(memdom.New(), nil)
	err := m.Apply([]protocol.Op{{Code: protocol.OpSetText, Node: 5, Value: "x"}})
	if err == nil {
		t.Error("Apply accepted an unknown handle")
	}
	doc := memdom.New()
	m = remote.NewMirror(doc, doc.Root())
	ops := []protocol.Op{
		{Code: protocol.OpCreateElement, Node: 1, Name: "p"},
		{Code: protocol.OpCreateElement, Node: 1, Name: "p"},
	}
	if err := m.Apply(ops); err == nil {
		t.Error("Apply accepted a reused handle")
	}
	if n, ok := m.Node(1); !ok || n == nil {
		t.Error("Node(1) missing after the first create")
	}
}
