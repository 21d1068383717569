package controller

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/vango-dev/kinesis/internal/errors"
	"github.com/vango-dev/kinesis/pkg/dispatch"
	"github.com/vango-dev/kinesis/pkg/host"
	"github.com/vango-dev/kinesis/pkg/host/memdom"
	"github.com/vango-dev/kinesis/pkg/ident"
	"github.com/vango-dev/kinesis/pkg/vdom"
)

var errBoom = stderrors.New("boom")

// stepper is a component whose output is a function of a step counter. Its
// handlers are "next" (advance), "back" and "fail" (return errBoom).
func stepper(name string, render func(step int) *vdom.VNode) vdom.Component {
	return vdom.Stateful(name,
		func() int { return 0 },
		render,
		func(step int, ev vdom.Event) (int, error) {
			switch ev.Handler {
			case "next":
				return step + 1, nil
			case "back":
				return step - 1, nil
			case "fail":
				return step, errBoom
			}
			return step, nil
		})
}

// nextButton is the button most test components render first.
func nextButton(id string) *vdom.VNode {
	return vdom.Button(vdom.ID(id), vdom.OnClick("next"))
}

// forgetful is a Document that records the nodes it is told to forget.
type forgetful struct {
	*memdom.Document
	forgot []host.Node
}

func (f *forgetful) Forget(n host.Node) {
	f.forgot = append(f.forgot, n)
}

func mount(t *testing.T, comp vdom.Component, opts ...Option) (*Controller, *memdom.Document) {
	t.Helper()
	doc := memdom.New()
	c := New(doc, opts...)
	if err := c.Mount(context.Background(), comp, host.Append(doc.Root())); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return c, doc
}

func byID(t *testing.T, doc *memdom.Document, id string) *memdom.Node {
	t.Helper()
	n := doc.Find(func(n *memdom.Node) bool {
		v, ok := n.Attr("id")
		return ok && v == id
	})
	if n == nil {
		t.Fatalf("no node with id %q in %s", id, doc.HTML())
	}
	return n
}

// source returns the identifier a click on n is dispatched with.
func source(t *testing.T, doc *memdom.Document, n *memdom.Node, kind string) ident.ID {
	t.Helper()
	id, ok := doc.Target(n, kind)
	if !ok {
		t.Fatalf("no %s listener at or above %s", kind, n.OuterHTML())
	}
	return id
}

func click(t *testing.T, c *Controller, doc *memdom.Document, id string) error {
	t.Helper()
	src := source(t, doc, byID(t, doc, id), "click")
	return c.Dispatch(context.Background(), dispatch.RawEvent{Kind: "click"}, src)
}

func mustClick(t *testing.T, c *Controller, doc *memdom.Document, id string) {
	t.Helper()
	if err := click(t, c, doc, id); err != nil {
		t.Fatalf("click %s: %v", id, err)
	}
}

func expectPanicCode(t *testing.T, code string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic with %s", code)
		}
		err, ok := r.(error)
		if !ok || !errors.HasCode(err, code) {
			t.Fatalf("panic = %v, want code %s", r, code)
		}
	}()
	fn()
}
