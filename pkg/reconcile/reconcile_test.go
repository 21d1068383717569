package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/kinesis/internal/errors"
	"github.com/vango-dev/kinesis/pkg/cache"
	"github.com/vango-dev/kinesis/pkg/host"
	"github.com/vango-dev/kinesis/pkg/host/memdom"
	"github.com/vango-dev/kinesis/pkg/ident"
	"github.com/vango-dev/kinesis/pkg/vdom"
)

type harness struct {
	t   *testing.T
	doc *memdom.Document
	r   *Reconciler
}

func newHarness(t *testing.T) *harness {
	doc := memdom.New()
	r := New(ident.NewRegistry(), cache.New(), doc, make(Instances), nil)
	return &harness{t: t, doc: doc, r: r}
}

// commit applies patch the way a controller does when every op succeeds.
func (h *harness) commit(patch *Patch) {
	h.t.Helper()
	for _, op := range patch.Ops {
		var err error
		switch op.Kind {
		case OpInsert:
			err = h.doc.InsertChild(op.Parent, op.Node, op.Index)
		case OpRemove:
			err = h.doc.RemoveChild(op.Parent, op.Node)
		case OpSetText:
			err = h.doc.SetText(op.Node, op.Value)
		case OpSetAttr:
			err = h.doc.SetAttribute(op.Node, op.Key, op.Value)
		case OpListen:
			err = h.doc.Listen(op.Node, op.Key, op.ID)
		}
		if err != nil {
			h.t.Fatalf("apply %s: %v", op, err)
		}
	}
	h.r.Registry.Commit()
	for _, id := range patch.Removes {
		h.r.Cache.Remove(id)
	}
	for id, e := range patch.Puts {
		h.r.Cache.Put(id, e)
	}
	for _, p := range patch.Propagate {
		h.r.Cache.Propagate(p.ID, p.OldLen, p.Nodes)
	}
	for _, inst := range patch.Unmounted {
		delete(h.r.Instances, inst.ID)
	}
	for _, inst := range patch.Mounted {
		h.r.Instances[inst.ID] = inst
	}
	for inst, out := range patch.Outputs {
		inst.Last = out
	}
	for inst, comp := range patch.Components {
		inst.Component = comp
	}
}

// mount reconciles comp into the document root and commits it.
func (h *harness) mount(comp vdom.Component) *Instance {
	h.t.Helper()
	node := vdom.Mount(comp)
	h.r.Registry.Begin()
	patch, err := h.r.Root(nil, node, host.Append(h.doc.Root()))
	if err != nil {
		h.t.Fatalf("Root: %v", err)
	}
	h.commit(patch)
	return h.r.Instances[patch.Root.ID]
}

func kinds(ops []Op) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.Kind.String()
	}
	return out
}

// swap is a component whose render output the test replaces directly.
type swap struct {
	out *vdom.VNode
}

func (s *swap) Name() string                                     { return "Swap" }
func (s *swap) Init() any                                        { return nil }
func (s *swap) Render(any) *vdom.VNode                           { return s.out }
func (s *swap) HandleEvent(state any, _ vdom.Event) (any, error) { return state, nil }

func TestRootStagesWithoutTouchingLiveTree(t *testing.T) {
	h := newHarness(t)
	comp := &swap{out: vdom.Div(
		vdom.Class("box"),
		vdom.Button(vdom.OnClick("go"), "Go"),
		vdom.DynText("x"),
	)}
	node := vdom.Mount(comp)

	h.r.Registry.Begin()
	patch, err := h.r.Root(nil, node, host.Append(h.doc.Root()))
	if err != nil {
		t.Fatal(err)
	}

	if len(h.doc.Root().Children) != 0 {
		t.Fatal("pass mutated the live tree")
	}
	if diff := cmp.Diff([]string{"Insert"}, kinds(patch.Ops)); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
	if len(patch.Mounted) != 1 || patch.Mounted[0].ID != patch.Root.ID {
		t.Errorf("Mounted = %v, want the root instance", patch.Mounted)
	}
	if h.r.Cache.Len() != 0 || len(h.r.Instances) != 0 {
		t.Error("pass wrote the cache or instance table")
	}
	// component, div, button, button text, dynamic text
	if got := len(patch.Puts); got != 5 {
		t.Errorf("len(Puts) = %d, want 5", got)
	}
	if got := patch.Created; got != 4 {
		t.Errorf("Created = %d, want 4", got)
	}
	if got := h.r.Registry.Len(); got != 5 {
		t.Errorf("Registry.Len() = %d, want 5", got)
	}
	if len(patch.Bindings) != 1 {
		t.Errorf("Bindings = %v, want one bound button", patch.Bindings)
	}

	h.commit(patch)
	want := `<div class="box"><button>Go</button>x</div>`
	if got := h.doc.HTML(); got != want {
		t.Errorf("HTML() = %s, want %s", got, want)
	}
}

func TestRerenderIssuesOnlyChangedContent(t *testing.T) {
	h := newHarness(t)
	comp := &swap{out: vdom.Div(
		vdom.Attribute("title", "fixed"),
		vdom.Dyn(vdom.Class("a")),
		vdom.Text("static"),
		vdom.DynText("one"),
	)}
	inst := h.mount(comp)

	comp.out = vdom.Div(
		vdom.Attribute("title", "changed"),
		vdom.Dyn(vdom.Class("b")),
		vdom.Text("static changed"),
		vdom.DynText("two"),
	)
	h.r.Registry.Begin()
	patch, err := h.r.Rerender(inst)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"SetAttr", "SetText"}, kinds(patch.Ops)); diff != "" {
		t.Fatalf("ops mismatch (-want +got):\n%s", diff)
	}
	if op := patch.Ops[0]; op.Key != "class" || op.Value != "b" || op.Old != "a" || !op.HadOld {
		t.Errorf("SetAttr op = %+v", op)
	}
	if op := patch.Ops[1]; op.Value != "two" || op.Old != "one" {
		t.Errorf("SetText op = %+v", op)
	}

	h.commit(patch)
	want := `<div title="fixed" class="b">statictwo</div>`
	if got := h.doc.HTML(); got != want {
		t.Errorf("HTML() = %s, want %s", got, want)
	}

	h.r.Registry.Begin()
	again, err := h.r.Rerender(inst)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Empty() {
		t.Errorf("unchanged rerender issued %v", kinds(again.Ops))
	}
}

func TestSharedOutputIsNotAnnotated(t *testing.T) {
	h := newHarness(t)
	sep := vdom.Hr()
	comp := &swap{out: vdom.Div(sep, vdom.P("x"), sep)}
	inst := h.mount(comp)

	if sep.ID != 0 || comp.out.ID != 0 {
		t.Errorf("render output annotated: sep %v, div %v", sep.ID, comp.out.ID)
	}
	last := inst.Last
	if last == comp.out {
		t.Fatal("Last is the component's own output")
	}
	a, b := last.Children[0].ID, last.Children[2].ID
	if a == 0 || b == 0 || a == b {
		t.Errorf("separator IDs = %v, %v; want two distinct IDs", a, b)
	}

	h.r.Registry.Begin()
	same, err := h.r.Rerender(inst)
	if err != nil {
		t.Fatal(err)
	}
	if !same.Empty() {
		t.Errorf("rerendering the same output issued %v", kinds(same.Ops))
	}
	h.commit(same)

	comp.out = vdom.Div()
	h.r.Registry.Begin()
	patch, err := h.r.Rerender(inst)
	if err != nil {
		t.Fatal(err)
	}
	// two separators, the p and its text
	if patch.Released != 4 {
		t.Errorf("Released = %d, want 4", patch.Released)
	}
	h.commit(patch)
	if h.r.Registry.Live(a) || h.r.Registry.Live(b) {
		t.Error("separator identifiers still live")
	}
	if got := h.doc.HTML(); got != "<div></div>" {
		t.Errorf("HTML() = %s, want <div></div>", got)
	}
}

func TestIncompatiblePositionIsReplaced(t *testing.T) {
	h := newHarness(t)
	comp := &swap{out: vdom.Div(vdom.Text("before"), vdom.P("old"), vdom.Text("after"))}
	inst := h.mount(comp)

	scope := ident.Scope{Owner: inst.ID, Path: ident.Path{1}}
	oldID, _ := h.r.Registry.Lookup(scope)

	comp.out = vdom.Div(vdom.Text("before"), vdom.Span("new"), vdom.Text("after"))
	h.r.Registry.Begin()
	patch, err := h.r.Rerender(inst)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Remove", "Insert"}, kinds(patch.Ops)); diff != "" {
		t.Fatalf("ops mismatch (-want +got):\n%s", diff)
	}
	if patch.Ops[0].Index != 1 || patch.Ops[1].Index != 1 {
		t.Errorf("indices = %d, %d; want 1, 1", patch.Ops[0].Index, patch.Ops[1].Index)
	}
	// the p and its text
	if patch.Released != 2 {
		t.Errorf("Released = %d, want 2", patch.Released)
	}

	h.commit(patch)
	if got, want := h.doc.HTML(), `<div>before<span>new</span>after</div>`; got != want {
		t.Errorf("HTML() = %s, want %s", got, want)
	}
	newID, ok := h.r.Registry.Lookup(scope)
	if !ok || newID == oldID {
		t.Errorf("Lookup = %v, %v; want a fresh identifier", newID, ok)
	}
	if h.r.Cache.Has(oldID) {
		t.Error("replaced position still cached")
	}
}

func TestListPositionsAreIndexed(t *testing.T) {
	h := newHarness(t)
	items := func(names ...string) *vdom.VNode {
		return vdom.Ul(vdom.Each(names, func(n string, _ int) *vdom.VNode {
			return vdom.Li(vdom.DynText(n))
		}))
	}
	comp := &swap{out: items("a", "b")}
	inst := h.mount(comp)
	first := h.doc.FindAll("li")[0]

	// Reordering is not detected: each position keeps its node and gets
	// the new text.
	comp.out = items("b", "a", "c")
	h.r.Registry.Begin()
	patch, err := h.r.Rerender(inst)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"SetText", "SetText", "Insert"}, kinds(patch.Ops)); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
	if patch.Ops[2].Index != 2 {
		t.Errorf("insert index = %d, want 2", patch.Ops[2].Index)
	}
	h.commit(patch)

	if h.doc.FindAll("li")[0] != first {
		t.Error("first item node was recreated")
	}
	if got, want := h.doc.HTML(), `<ul><li>b</li><li>a</li><li>c</li></ul>`; got != want {
		t.Errorf("HTML() = %s, want %s", got, want)
	}
}

func TestNestedComponentLifecycle(t *testing.T) {
	h := newHarness(t)
	child := &swap{out: vdom.P("child")}
	child2 := vdom.Func("Other", func() *vdom.VNode { return vdom.P("child") })
	parent := &swap{out: vdom.Div(vdom.Mount(child))}
	inst := h.mount(parent)

	childID, _ := h.r.Registry.Lookup(ident.Scope{Owner: inst.ID, Path: ident.Path{0}})
	childInst, ok := h.r.Instances[childID]
	if !ok {
		t.Fatal("child instance not mounted")
	}
	if childInst.Parent != inst || childInst.Depth() != 1 {
		t.Errorf("child Parent = %v, Depth() = %d", childInst.Parent, childInst.Depth())
	}

	parent.out = vdom.Div(vdom.Mount(child2))
	h.r.Registry.Begin()
	patch, err := h.r.Rerender(inst)
	if err != nil {
		t.Fatal(err)
	}
	if len(patch.Unmounted) != 1 || patch.Unmounted[0] != childInst {
		t.Errorf("Unmounted = %v, want the old child", patch.Unmounted)
	}
	if len(patch.Mounted) != 1 || patch.Mounted[0].Name() != "Other" {
		t.Errorf("Mounted = %v, want Other", patch.Mounted)
	}
	h.commit(patch)
	if _, ok := h.r.Instances[childID]; ok {
		t.Error("old child still in the instance table")
	}
	if h.r.Registry.Live(childID) {
		t.Error("old child identifier still live")
	}
}

func TestNilRenderIsEmpty(t *testing.T) {
	h := newHarness(t)
	comp := &swap{}
	inst := h.mount(comp)
	if inst.Last == nil || inst.Last.Kind != vdom.KindEmpty {
		t.Errorf("Last = %v, want Empty", inst.Last)
	}
	if h.doc.HTML() != "" {
		t.Errorf("HTML() = %q, want empty", h.doc.HTML())
	}

	comp.out = vdom.P("now")
	h.r.Registry.Begin()
	patch, err := h.r.Rerender(inst)
	if err != nil {
		t.Fatal(err)
	}
	h.commit(patch)
	if got := h.doc.HTML(); got != "<p>now</p>" {
		t.Errorf("HTML() = %s, want <p>now</p>", got)
	}
}

func TestBuildFailureReturnsHostError(t *testing.T) {
	h := newHarness(t)
	h.doc.FailOn(host.OpCreateText, 1, errors.New(errors.CodeHostRefused))

	h.r.Registry.Begin()
	_, err := h.r.Root(nil, vdom.Mount(&swap{out: vdom.P("x")}), host.Append(h.doc.Root()))
	he, ok := err.(*host.Error)
	if !ok || he.Op != host.OpCreateText {
		t.Fatalf("err = %v, want *host.Error for %s", err, host.OpCreateText)
	}
	h.r.Registry.Rollback()
	if h.r.Registry.Len() != 0 {
		t.Errorf("Registry.Len() = %d after rollback", h.r.Registry.Len())
	}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{Op{Kind: OpInsert, ID: 3, Index: 1}, "Insert #3 @1"},
		{Op{Kind: OpSetText, ID: 4, Value: "hi"}, `SetText #4 "hi"`},
		{Op{Kind: OpSetAttr, ID: 5, Key: "class", Value: "x"}, `SetAttr #5 class="x"`},
		{Op{Kind: OpListen, ID: 6, Key: "click"}, "Listen #6 click"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
