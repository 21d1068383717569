package reconcile

import (
	"io"
	"log/slog"

	"github.com/vango-dev/kinesis/internal/errors"
	"github.com/vango-dev/kinesis/pkg/cache"
	"github.com/vango-dev/kinesis/pkg/host"
	"github.com/vango-dev/kinesis/pkg/ident"
	"github.com/vango-dev/kinesis/pkg/vdom"
)

// Reconciler runs passes against one controller's registry, cache, surface
// and instance table. It reads the cache and instance table but never writes
// them; those writes travel in the Patch.
//
// Render output belongs to the component that returned it and may be shared
// between positions, passes and controllers. A pass never writes to it: every
// node it visits is adopted as a shallow copy, and identifiers live only on
// those copies. Instance.Last and Patch.Root hold the adopted trees.
type Reconciler struct {
	Registry  *ident.Registry
	Cache     *cache.Cache
	Surface   host.Surface
	Instances Instances
	Logger    *slog.Logger
}

// New creates a Reconciler. A nil logger discards output.
func New(reg *ident.Registry, c *cache.Cache, s host.Surface, instances Instances, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconciler{
		Registry:  reg,
		Cache:     c,
		Surface:   s,
		Instances: instances,
		Logger:    logger,
	}
}

// slot describes where a position lives.
type slot struct {
	owner      *Instance // instance whose output holds the position; nil at the mount root
	path       ident.Path
	parent     ident.ID  // enclosing position, for event bubbling
	hostParent host.Node // host node the position's nodes are children of
	container  ident.ID  // enclosing fragment position sharing hostParent
	base       int       // first index when there is no prev or container
	prev       ident.ID  // previous sibling position
}

func (s slot) scope() ident.Scope {
	var owner ident.ID
	if s.owner != nil {
		owner = s.owner.ID
	}
	return ident.Scope{Owner: owner, Path: s.path}
}

func (s slot) entry(kind vdom.Kind, nodes []host.Node) cache.Entry {
	return cache.Entry{
		Kind:      kind,
		Nodes:     nodes,
		Parent:    s.hostParent,
		Prev:      s.prev,
		Container: s.container,
		Base:      s.base,
	}
}

// rootSlot is the slot of an instance's render root.
func rootSlot(inst *Instance, hostParent host.Node) slot {
	return slot{
		owner:      inst,
		path:       ident.Path{},
		parent:     inst.ID,
		hostParent: hostParent,
		container:  inst.ID,
	}
}

type pass struct {
	r     *Reconciler
	patch *Patch
}

// Root reconciles the component position a controller mounts at pos. prev
// is the previous root position (nil when mounting) and next the new one
// (nil when unmounting).
func (r *Reconciler) Root(prev, next *vdom.VNode, pos host.Position) (*Patch, error) {
	p := &pass{r: r, patch: newPatch()}
	s := slot{hostParent: pos.Parent, base: pos.Index}
	next = adopt(next)
	if _, err := p.reconcile(prev, next, s, pos.Index); err != nil {
		p.abandon()
		return nil, err
	}
	p.patch.Root = next
	return p.patch, nil
}

// Reconcile maps inst's render output from prev to next. prev is normally
// inst.Last. The instance's position entry and every enclosing fragment
// entry are brought up to date through a Propagation.
func (r *Reconciler) Reconcile(inst *Instance, prev, next *vdom.VNode) (*Patch, error) {
	own, ok := r.Cache.Get(inst.ID)
	if !ok {
		panic(errors.New(errors.CodeUnknownIdentifier).WithDetailf("instance %s has no cache entry", inst.ID))
	}

	p := &pass{r: r, patch: newPatch()}
	next = adopt(next)
	nodes, err := p.reconcile(prev, next, rootSlot(inst, own.Parent), r.Cache.Offset(inst.ID))
	if err != nil {
		p.abandon()
		return nil, err
	}

	p.patch.Outputs[inst] = next
	own.Nodes = nodes
	p.patch.put(inst.ID, own)
	p.patch.Propagate = append(p.patch.Propagate, Propagation{
		ID:     inst.ID,
		OldLen: len(r.cacheNodes(inst.ID)),
		Nodes:  nodes,
	})
	return p.patch, nil
}

// abandon tells the surface to forget the nodes built by a pass that failed
// before producing a patch. None of them was inserted into a live parent.
func (p *pass) abandon() {
	host.Forget(p.r.Surface, p.patch.Built)
}

// Rerender renders inst with its current state and reconciles the result
// against inst.Last.
func (r *Reconciler) Rerender(inst *Instance) (*Patch, error) {
	return r.Reconcile(inst, inst.Last, render(inst.Component, inst.State))
}

func (r *Reconciler) cacheNodes(id ident.ID) []host.Node {
	e, _ := r.Cache.Get(id)
	return e.Nodes
}

// adopt returns a copy of v the pass may annotate. Children are copied as a
// slice only; each child is adopted when its own position is visited.
func adopt(v *vdom.VNode) *vdom.VNode {
	if v == nil {
		return nil
	}
	c := *v
	c.ID = 0
	if len(v.Children) > 0 {
		c.Children = append([]*vdom.VNode(nil), v.Children...)
	}
	return &c
}

// reconcile maps one position from prev to next, both adopted. offset is the child index
// in s.hostParent at which the position's nodes start when its ops run. It
// returns the nodes the position now contributes to s.hostParent.
func (p *pass) reconcile(prev, next *vdom.VNode, s slot, offset int) ([]host.Node, error) {
	switch {
	case prev == nil && next == nil:
		return nil, nil

	case next == nil:
		p.remove(prev, offset)
		p.release(prev)
		return nil, nil

	case prev == nil:
		return p.create(next, s, offset)

	case !vdom.Compatible(prev, next):
		// Same position, different shape. The old identifier goes with the
		// old nodes; the new shape is created under a fresh identifier for
		// the same scope.
		p.r.Logger.Debug("replacing position",
			"id", prev.ID, "from", prev.Kind.String(), "to", next.Kind.String())
		p.remove(prev, offset)
		p.release(prev)
		return p.create(next, s, offset)

	default:
		next.ID = prev.ID
		return p.update(prev, next, s, offset)
	}
}

// create allocates an identifier for next, builds it detached and stages
// its insertion into the live parent.
func (p *pass) create(next *vdom.VNode, s slot, offset int) ([]host.Node, error) {
	next.ID = p.r.Registry.Allocate(s.scope(), s.parent)
	nodes, err := p.build(next, s)
	if err != nil {
		return nil, err
	}
	p.insert(next.ID, s.hostParent, nodes, offset)
	return nodes, nil
}

// build creates detached nodes for v, whose ID is already allocated, and
// stages the cache entries for v and its descendants.
func (p *pass) build(v *vdom.VNode, s slot) ([]host.Node, error) {
	if p.r.Cache.Has(v.ID) {
		panic(errors.New(errors.CodeCacheOccupied).WithDetailf("id %s", v.ID))
	}

	switch v.Kind {
	case vdom.KindEmpty:
		p.patch.put(v.ID, s.entry(v.Kind, nil))
		return nil, nil

	case vdom.KindText:
		n, err := p.r.Surface.CreateText(v.Text)
		if err != nil {
			return nil, host.Wrap(host.OpCreateText, err)
		}
		p.patch.Created++
		p.patch.Built = append(p.patch.Built, n)
		e := s.entry(v.Kind, []host.Node{n})
		e.Text = v.Text
		p.patch.put(v.ID, e)
		return e.Nodes, nil

	case vdom.KindElement:
		return p.buildElement(v, s)

	case vdom.KindOptional, vdom.KindList:
		nodes, err := p.buildChildren(v, s.hostParent, s.owner, s.path, v.ID, nil)
		if err != nil {
			return nil, err
		}
		p.patch.put(v.ID, s.entry(v.Kind, nodes))
		return nodes, nil

	case vdom.KindComponent:
		return p.buildComponent(v, s)
	}
	return nil, nil
}

func (p *pass) buildElement(v *vdom.VNode, s slot) ([]host.Node, error) {
	sf := p.r.Surface
	el, err := sf.CreateElement(v.Tag)
	if err != nil {
		return nil, host.Wrap(host.OpCreateElement, err)
	}
	p.patch.Created++
	p.patch.Built = append(p.patch.Built, el)

	e := s.entry(v.Kind, []host.Node{el})
	if len(v.Attrs) > 0 {
		e.Attrs = make(map[string]string, len(v.Attrs))
	}
	for _, a := range v.Attrs {
		if err := sf.SetAttribute(el, a.Key, a.Value); err != nil {
			return nil, host.Wrap(host.OpSetAttribute, err)
		}
		e.Attrs[a.Key] = a.Value
	}
	for _, b := range v.Events {
		if err := sf.Listen(el, b.Event, v.ID); err != nil {
			return nil, host.Wrap(host.OpListen, err)
		}
		e.Listening = append(e.Listening, b.Event)
	}
	if len(v.Events) > 0 {
		p.patch.Bindings[v.ID] = v.Events
	}

	if _, err := p.buildChildren(v, el, s.owner, s.path, v.ID, el); err != nil {
		return nil, err
	}
	p.patch.put(v.ID, e)
	return e.Nodes, nil
}

// buildChildren allocates and builds v's children. When attachTo is set the
// children's nodes are appended to it directly; it is a detached element.
func (p *pass) buildChildren(v *vdom.VNode, hostParent host.Node, owner *Instance, path ident.Path, id ident.ID, attachTo host.Node) ([]host.Node, error) {
	var out []host.Node
	var prev ident.ID
	for i := range v.Children {
		child := adopt(v.Children[i])
		v.Children[i] = child
		cs := slot{
			owner:      owner,
			path:       path.Child(i),
			parent:     id,
			hostParent: hostParent,
			prev:       prev,
		}
		if attachTo == nil {
			cs.container = id
		}
		child.ID = p.r.Registry.Allocate(cs.scope(), id)
		nodes, err := p.build(child, cs)
		if err != nil {
			return nil, err
		}
		if attachTo != nil {
			for _, n := range nodes {
				if err := p.r.Surface.InsertChild(attachTo, n, len(out)); err != nil {
					return nil, host.Wrap(host.OpInsertChild, err)
				}
				out = append(out, n)
			}
		} else {
			out = append(out, nodes...)
		}
		if prev != 0 {
			p.patch.setNext(prev, child.ID)
		}
		prev = child.ID
	}
	return out, nil
}

func (p *pass) buildComponent(v *vdom.VNode, s slot) ([]host.Node, error) {
	if v.Comp == nil {
		panic(errors.New(errors.CodeNilComponent).WithDetailf("position %s", s.scope()))
	}
	inst := &Instance{
		ID:        v.ID,
		Component: v.Comp,
		State:     v.Comp.Init(),
		Parent:    s.owner,
	}
	out := adopt(render(inst.Component, inst.State))
	rs := rootSlot(inst, s.hostParent)
	out.ID = p.r.Registry.Allocate(rs.scope(), inst.ID)
	nodes, err := p.build(out, rs)
	if err != nil {
		return nil, err
	}

	p.patch.Mounted = append(p.patch.Mounted, inst)
	p.patch.Outputs[inst] = out
	p.patch.put(v.ID, s.entry(v.Kind, nodes))
	p.r.Logger.Debug("mounting component", "id", inst.ID, "component", inst.Name())
	return nodes, nil
}

// update reconciles two compatible nodes at the same position; next.ID is
// already prev.ID.
func (p *pass) update(prev, next *vdom.VNode, s slot, offset int) ([]host.Node, error) {
	e, ok := p.r.Cache.Get(next.ID)
	if !ok {
		panic(errors.New(errors.CodeUnknownIdentifier).WithDetailf("id %s has no cache entry", next.ID))
	}
	fresh := s.entry(next.Kind, e.Nodes)
	fresh.Text = e.Text
	fresh.Attrs = e.Attrs
	fresh.Listening = e.Listening

	switch next.Kind {
	case vdom.KindEmpty:
		p.patch.put(next.ID, fresh)
		return nil, nil

	case vdom.KindText:
		if next.Dynamic && next.Text != e.Text {
			p.patch.add(Op{
				Kind:   OpSetText,
				ID:     next.ID,
				Node:   e.Node(),
				Value:  next.Text,
				Old:    e.Text,
				HadOld: true,
			})
			fresh.Text = next.Text
		}
		p.patch.put(next.ID, fresh)
		return fresh.Nodes, nil

	case vdom.KindElement:
		el := e.Node()
		p.updateAttrs(next, el, &fresh)
		p.updateEvents(next, el, &fresh)
		if _, err := p.children(prev, next, s.owner, s.path, el, 0, false, 0); err != nil {
			return nil, err
		}
		p.patch.put(next.ID, fresh)
		return fresh.Nodes, nil

	case vdom.KindOptional, vdom.KindList:
		nodes, err := p.children(prev, next, s.owner, s.path, s.hostParent, next.ID, true, offset)
		if err != nil {
			return nil, err
		}
		fresh.Nodes = nodes
		p.patch.put(next.ID, fresh)
		return nodes, nil

	case vdom.KindComponent:
		inst, ok := p.r.Instances[next.ID]
		if !ok {
			panic(errors.New(errors.CodeUnknownIdentifier).WithDetailf("no instance at %s", next.ID))
		}
		out := adopt(render(next.Comp, inst.State))
		nodes, err := p.reconcile(inst.Last, out, rootSlot(inst, s.hostParent), offset)
		if err != nil {
			return nil, err
		}
		p.patch.Components[inst] = next.Comp
		p.patch.Outputs[inst] = out
		fresh.Nodes = nodes
		p.patch.put(next.ID, fresh)
		return nodes, nil
	}
	return nil, nil
}

// updateAttrs rewrites dynamic attributes whose value changed. Fixed
// attributes are never touched after creation.
func (p *pass) updateAttrs(next *vdom.VNode, el host.Node, e *cache.Entry) {
	copied := false
	for _, a := range next.Attrs {
		if !a.Dynamic {
			continue
		}
		old, had := e.Attrs[a.Key]
		if had && old == a.Value {
			continue
		}
		p.patch.add(Op{
			Kind:   OpSetAttr,
			ID:     next.ID,
			Node:   el,
			Key:    a.Key,
			Value:  a.Value,
			Old:    old,
			HadOld: had,
		})
		if !copied {
			attrs := make(map[string]string, len(e.Attrs)+1)
			for k, v := range e.Attrs {
				attrs[k] = v
			}
			e.Attrs = attrs
			copied = true
		}
		e.Attrs[a.Key] = a.Value
	}
}

// updateEvents restages bindings and registers listeners for event kinds the
// node did not listen for yet.
func (p *pass) updateEvents(next *vdom.VNode, el host.Node, e *cache.Entry) {
	if len(next.Events) == 0 {
		p.patch.Unbinds = append(p.patch.Unbinds, next.ID)
		return
	}
	p.patch.Bindings[next.ID] = next.Events
	for _, b := range next.Events {
		if e.Listens(b.Event) {
			continue
		}
		p.patch.add(Op{Kind: OpListen, ID: next.ID, Node: el, Key: b.Event})
		e.Listening = append(append([]string(nil), e.Listening...), b.Event)
	}
}

// children reconciles prev.Children against next.Children by index. For
// fragments (inFragment) the children share hostParent with the fragment
// and start at offset; for elements they start at 0 inside the element.
func (p *pass) children(prev, next *vdom.VNode, owner *Instance, path ident.Path, hostParent host.Node, container ident.ID, inFragment bool, offset int) ([]host.Node, error) {
	n := len(prev.Children)
	if len(next.Children) > n {
		n = len(next.Children)
	}

	var out []host.Node
	var prevSibling ident.ID
	cur := offset
	for i := 0; i < n; i++ {
		var pc, nc *vdom.VNode
		if i < len(prev.Children) {
			pc = prev.Children[i]
		}
		if i < len(next.Children) {
			nc = adopt(next.Children[i])
			next.Children[i] = nc
		}

		cs := slot{
			owner:      owner,
			path:       path.Child(i),
			parent:     next.ID,
			hostParent: hostParent,
			prev:       prevSibling,
		}
		if inFragment {
			cs.container = container
		}

		nodes, err := p.reconcile(pc, nc, cs, cur)
		if err != nil {
			return nil, err
		}
		cur += len(nodes)
		out = append(out, nodes...)

		if nc != nil {
			if prevSibling != 0 {
				p.patch.setNext(prevSibling, nc.ID)
			}
			prevSibling = nc.ID
		}
	}
	return out, nil
}

// insert stages insertion of freshly built nodes into a live parent.
func (p *pass) insert(id ident.ID, parent host.Node, nodes []host.Node, offset int) {
	for i, n := range nodes {
		p.patch.add(Op{Kind: OpInsert, ID: id, Parent: parent, Node: n, Index: offset + i})
	}
}

// remove stages detaching prev's live nodes. Each node sits at offset when
// its op runs, because the ones before it were already removed.
func (p *pass) remove(prev *vdom.VNode, offset int) {
	e, ok := p.r.Cache.Get(prev.ID)
	if !ok {
		return
	}
	for _, n := range e.Nodes {
		p.patch.add(Op{Kind: OpRemove, ID: prev.ID, Parent: e.Parent, Node: n, Index: offset})
	}
}

// release releases prev's identifier and every identifier beneath it,
// unmounting the instances found there. Descendants go first.
func (p *pass) release(prev *vdom.VNode) {
	for _, child := range prev.Children {
		p.release(child)
	}
	if prev.Kind == vdom.KindComponent {
		if inst, ok := p.r.Instances[prev.ID]; ok {
			if inst.Last != nil {
				p.release(inst.Last)
			}
			p.patch.Unmounted = append(p.patch.Unmounted, inst)
			p.r.Logger.Debug("unmounting component", "id", inst.ID, "component", inst.Name())
		}
	}
	if prev.Kind == vdom.KindElement && len(prev.Events) > 0 {
		p.patch.Unbinds = append(p.patch.Unbinds, prev.ID)
	}
	if prev.Kind == vdom.KindElement || prev.Kind == vdom.KindText {
		if e, ok := p.r.Cache.Get(prev.ID); ok {
			p.patch.Dropped = append(p.patch.Dropped, e.Nodes...)
		}
	}
	p.r.Registry.Release(prev.ID)
	p.patch.Removes = append(p.patch.Removes, prev.ID)
	p.patch.Released++
}
