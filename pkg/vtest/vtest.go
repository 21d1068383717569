package vtest

import (
	"context"
	"strings"
	"testing"

	"github.com/vango-dev/kinesis/pkg/controller"
	"github.com/vango-dev/kinesis/pkg/dispatch"
	"github.com/vango-dev/kinesis/pkg/host"
	"github.com/vango-dev/kinesis/pkg/host/memdom"
	"github.com/vango-dev/kinesis/pkg/vdom"
)

// Harness is a mounted component under test.
type Harness struct {
	t    testing.TB
	ctrl *controller.Controller
	doc  *memdom.Document
}

// Mount mounts comp into a fresh document and unmounts it when the test
// ends.
func Mount(t testing.TB, comp vdom.Component, opts ...controller.Option) *Harness {
	t.Helper()
	doc := memdom.New()
	c := controller.New(doc, opts...)
	if err := c.Mount(context.Background(), comp, host.Append(doc.Root())); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(func() {
		if c.Status() == controller.Mounted {
			c.Unmount(context.Background())
		}
	})
	return &Harness{t: t, ctrl: c, doc: doc}
}

// Controller returns the controller driving the tree.
func (h *Harness) Controller() *controller.Controller {
	return h.ctrl
}

// Doc returns the document the tree is mounted in.
func (h *Harness) Doc() *memdom.Document {
	return h.doc
}

// HTML returns the serialized document.
func (h *Harness) HTML() string {
	return h.doc.HTML()
}

// Find returns the first node matching match, failing the test if none does.
func (h *Harness) Find(match func(*memdom.Node) bool) *memdom.Node {
	h.t.Helper()
	n := h.doc.Find(match)
	if n == nil {
		h.t.Fatalf("no matching node in:\n%s", truncate(h.HTML(), 500))
	}
	return n
}

// ByID returns the element whose id attribute is id.
func (h *Harness) ByID(id string) *memdom.Node {
	h.t.Helper()
	return h.Find(func(n *memdom.Node) bool {
		v, ok := n.Attr("id")
		return ok && v == id
	})
}

// Has reports whether an element with id attribute id is in the tree.
func (h *Harness) Has(id string) bool {
	return h.doc.Find(func(n *memdom.Node) bool {
		v, ok := n.Attr("id")
		return ok && v == id
	}) != nil
}

// Fire raises an event of kind on n and dispatches it like the browser
// client would, to the nearest listening ancestor.
func (h *Harness) Fire(n *memdom.Node, kind, value string) error {
	h.t.Helper()
	src, ok := h.doc.Target(n, kind)
	if !ok {
		h.t.Fatalf("no %s listener for %s", kind, truncate(n.OuterHTML(), 200))
	}
	return h.ctrl.Dispatch(context.Background(), dispatch.RawEvent{Kind: kind, Value: value}, src)
}

// MustFire is Fire that fails the test on a dispatch error.
func (h *Harness) MustFire(n *memdom.Node, kind, value string) {
	h.t.Helper()
	if err := h.Fire(n, kind, value); err != nil {
		h.t.Fatalf("dispatch %s: %v", kind, err)
	}
}

// Click clicks the element with id attribute id.
func (h *Harness) Click(id string) {
	h.t.Helper()
	h.MustFire(h.ByID(id), "click", "")
}

// Input raises an input event carrying value on the element with id
// attribute id.
func (h *Harness) Input(id, value string) {
	h.t.Helper()
	h.MustFire(h.ByID(id), "input", value)
}

// ExpectContains asserts that the serialized tree contains expected.
func (h *Harness) ExpectContains(expected string) {
	h.t.Helper()
	if html := h.HTML(); !strings.Contains(html, expected) {
		h.t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that the serialized tree does not contain
// unexpected.
func (h *Harness) ExpectNotContains(unexpected string) {
	h.t.Helper()
	if html := h.HTML(); strings.Contains(html, unexpected) {
		h.t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectText asserts the text content of the first tag element.
func (h *Harness) ExpectText(tag, want string) {
	h.t.Helper()
	n := h.doc.FindTag(tag)
	if n == nil {
		h.t.Errorf("no <%s> element in:\n%s", tag, truncate(h.HTML(), 500))
		return
	}
	if got := n.TextContent(); got != want {
		h.t.Errorf("<%s> text = %q, want %q", tag, got, want)
	}
}

// ExpectAttribute asserts an attribute of the element with id attribute id.
func (h *Harness) ExpectAttribute(id, attr, want string) {
	h.t.Helper()
	got, ok := h.ByID(id).Attr(attr)
	if !ok || got != want {
		h.t.Errorf("#%s %s = %q (set %v), want %q", id, attr, got, ok, want)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
