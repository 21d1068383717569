package demo

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/kinesis/pkg/host/memdom"
	"github.com/vango-dev/kinesis/pkg/vtest"
)

func start(t *testing.T, name string) *vtest.Harness {
	t.Helper()
	comp, ok := Lookup(name)
	if !ok {
		t.Fatalf("Lookup(%q) failed", name)
	}
	return vtest.Mount(t, comp)
}

func TestNames(t *testing.T) {
	if diff := cmp.Diff([]string{"counter", "todo", "toggle"}, Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if _, ok := Lookup("missing"); ok {
		t.Error("Lookup(missing) succeeded")
	}
}

func TestCounter(t *testing.T) {
	h := start(t, "Counter")
	for i := 0; i < 3; i++ {
		h.Click("increment")
	}
	h.ExpectText("p", "The current count is 3")
	h.Click("reset")
	if got := h.Controller().State(); got != 0 {
		t.Errorf("State() = %v after reset", got)
	}
}

func TestToggle(t *testing.T) {
	h := start(t, "toggle")
	footer := h.Doc().FindAll("p")[0]

	h.Click("toggle")
	h.ByID("details")
	h.ExpectAttribute("toggle", "aria-label", "Hide details")

	h.Click("toggle")
	if h.Has("details") {
		t.Error("details still shown")
	}
	ps := h.Doc().FindAll("p")
	if len(ps) != 1 || ps[0] != footer {
		t.Error("footer was recreated")
	}
}

func TestTodoList(t *testing.T) {
	h := start(t, "todo")
	add := func(text string) {
		h.Input("draft", text)
		h.Click("add")
	}

	add("write tests")
	add("  ")
	add("ship")

	items := h.Doc().FindAll("li")
	if len(items) != 2 {
		t.Fatalf("len(li) = %d, want 2: %s", len(items), h.HTML())
	}
	if got, _ := h.ByID("draft").Attr("value"); got != "" {
		t.Errorf("draft value = %q after add, want empty", got)
	}
	summary := h.Find(func(n *memdom.Node) bool { v, _ := n.Attr("class"); return v == "summary" })
	if got := summary.TextContent(); got != "2 items" {
		t.Errorf("summary = %q", got)
	}

	first := items[0].Children[0]
	h.MustFire(first.Children[0], "click", "")
	if got, _ := first.Attr("class"); got != "item done" {
		t.Errorf("first item class = %q, want done", got)
	}

	h.Click("pop")
	items = h.Doc().FindAll("li")
	if len(items) != 1 || items[0].Children[0] != first {
		t.Fatal("remaining item was recreated")
	}
	if got, _ := first.Attr("class"); got != "item done" {
		t.Errorf("item lost its state: class = %q", got)
	}

	h.Click("pop")
	h.ExpectAttribute("pop", "disabled", "true")
}
