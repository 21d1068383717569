package memdom

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vango-dev/kinesis/pkg/host"
	"github.com/vango-dev/kinesis/pkg/ident"
)

// Errors returned for structurally invalid requests.
var (
	ErrForeignNode  = errors.New("memdom: node was not created by this document")
	ErrNotElement   = errors.New("memdom: node is not an element")
	ErrNotText      = errors.New("memdom: node is not a text node")
	ErrHasParent    = errors.New("memdom: node already has a parent")
	ErrNotChild     = errors.New("memdom: node is not a child of parent")
	ErrBadIndex     = errors.New("memdom: insert index out of range")
	ErrEmptyAttrKey = errors.New("memdom: empty attribute key")
)

// Node is a live node in a Document.
type Node struct {
	Serial    int
	Tag       string
	Text      string
	IsText    bool
	Parent    *Node
	Children  []*Node
	Listeners map[string]ident.ID

	attrs    map[string]string
	attrKeys []string
	doc      *Document
}

// Attr returns the value of attribute key.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// AttrKeys returns the attribute keys in the order they were first set.
func (n *Node) AttrKeys() []string {
	return append([]string(nil), n.attrKeys...)
}

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	if n.IsText {
		return n.Text
	}
	var s string
	for _, c := range n.Children {
		s += c.TextContent()
	}
	return s
}

// Fault decides whether the document refuses an operation. target is the
// node being mutated (nil for creations).
type Fault func(op host.Op, target *Node) error

// Document is an in-memory tree implementing host.Surface.
type Document struct {
	root   *Node
	serial int
	counts map[host.Op]int
	fault  Fault
}

var _ host.Surface = (*Document)(nil)

// New creates a document with an empty <body> root.
func New() *Document {
	d := &Document{counts: make(map[host.Op]int)}
	d.root = d.newNode()
	d.root.Tag = "body"
	return d
}

// Root returns the document's root element.
func (d *Document) Root() *Node {
	return d.root
}

// SetFault installs f; nil removes it.
func (d *Document) SetFault(f Fault) {
	d.fault = f
}

// FailOn makes the nth (1-based) future call of op fail with err.
func (d *Document) FailOn(op host.Op, n int, err error) {
	seen := 0
	d.fault = func(o host.Op, _ *Node) error {
		if o != op {
			return nil
		}
		seen++
		if seen == n {
			return err
		}
		return nil
	}
}

// Count returns how many successful calls of op the document has served.
func (d *Document) Count(op host.Op) int {
	return d.counts[op]
}

// Counts returns a copy of all operation counters.
func (d *Document) Counts() map[host.Op]int {
	out := make(map[host.Op]int, len(d.counts))
	for k, v := range d.counts {
		out[k] = v
	}
	return out
}

// ResetCounts zeroes the operation counters.
func (d *Document) ResetCounts() {
	d.counts = make(map[host.Op]int)
}

func (d *Document) newNode() *Node {
	d.serial++
	return &Node{Serial: d.serial, doc: d}
}

func (d *Document) check(op host.Op, target *Node) error {
	if d.fault != nil {
		if err := d.fault(op, target); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) node(n host.Node) (*Node, error) {
	nn, ok := n.(*Node)
	if !ok || nn == nil || nn.doc != d {
		return nil, ErrForeignNode
	}
	return nn, nil
}

// CreateElement implements host.Surface.
func (d *Document) CreateElement(tag string) (host.Node, error) {
	if err := d.check(host.OpCreateElement, nil); err != nil {
		return nil, err
	}
	n := d.newNode()
	n.Tag = tag
	d.counts[host.OpCreateElement]++
	return n, nil
}

// CreateText implements host.Surface.
func (d *Document) CreateText(text string) (host.Node, error) {
	if err := d.check(host.OpCreateText, nil); err != nil {
		return nil, err
	}
	n := d.newNode()
	n.IsText = true
	n.Text = text
	d.counts[host.OpCreateText]++
	return n, nil
}

// SetAttribute implements host.Surface.
func (d *Document) SetAttribute(node host.Node, key, value string) error {
	n, err := d.node(node)
	if err != nil {
		return err
	}
	if n.IsText {
		return ErrNotElement
	}
	if key == "" {
		return ErrEmptyAttrKey
	}
	if err := d.check(host.OpSetAttribute, n); err != nil {
		return err
	}
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	if _, exists := n.attrs[key]; !exists {
		n.attrKeys = append(n.attrKeys, key)
	}
	n.attrs[key] = value
	d.counts[host.OpSetAttribute]++
	return nil
}

// SetText implements host.Surface.
func (d *Document) SetText(node host.Node, text string) error {
	n, err := d.node(node)
	if err != nil {
		return err
	}
	if !n.IsText {
		return ErrNotText
	}
	if err := d.check(host.OpSetText, n); err != nil {
		return err
	}
	n.Text = text
	d.counts[host.OpSetText]++
	return nil
}

// InsertChild implements host.Surface.
func (d *Document) InsertChild(parent, child host.Node, index int) error {
	p, err := d.node(parent)
	if err != nil {
		return err
	}
	c, err := d.node(child)
	if err != nil {
		return err
	}
	if p.IsText {
		return ErrNotElement
	}
	if c.Parent != nil {
		return ErrHasParent
	}
	if index < 0 || index > len(p.Children) {
		return fmt.Errorf("%w: %d of %d", ErrBadIndex, index, len(p.Children))
	}
	if err := d.check(host.OpInsertChild, p); err != nil {
		return err
	}
	p.Children = append(p.Children, nil)
	copy(p.Children[index+1:], p.Children[index:])
	p.Children[index] = c
	c.Parent = p
	d.counts[host.OpInsertChild]++
	return nil
}

// RemoveChild implements host.Surface.
func (d *Document) RemoveChild(parent, child host.Node) error {
	p, err := d.node(parent)
	if err != nil {
		return err
	}
	c, err := d.node(child)
	if err != nil {
		return err
	}
	idx := -1
	for i, ch := range p.Children {
		if ch == c {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotChild
	}
	if err := d.check(host.OpRemoveChild, p); err != nil {
		return err
	}
	p.Children = append(p.Children[:idx], p.Children[idx+1:]...)
	c.Parent = nil
	d.counts[host.OpRemoveChild]++
	return nil
}

// Listen implements host.Surface.
func (d *Document) Listen(node host.Node, kind string, id ident.ID) error {
	n, err := d.node(node)
	if err != nil {
		return err
	}
	if err := d.check(host.OpListen, n); err != nil {
		return err
	}
	if n.Listeners == nil {
		n.Listeners = make(map[string]ident.ID)
	}
	n.Listeners[kind] = id
	d.counts[host.OpListen]++
	return nil
}

// Target returns the identifier a raw event of kind raised on n should be
// dispatched with: the listener on n itself, or on its nearest ancestor that
// listens for kind, mirroring DOM event bubbling.
func (d *Document) Target(n *Node, kind string) (ident.ID, bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		if id, ok := cur.Listeners[kind]; ok {
			return id, true
		}
	}
	return 0, false
}

// Find returns the first node in document order for which match is true.
func (d *Document) Find(match func(*Node) bool) *Node {
	var found *Node
	var walk func(*Node) bool
	walk = func(n *Node) bool {
		if match(n) {
			found = n
			return true
		}
		for _, c := range n.Children {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(d.root)
	return found
}

// FindTag returns the first element with tag.
func (d *Document) FindTag(tag string) *Node {
	return d.Find(func(n *Node) bool { return !n.IsText && n.Tag == tag })
}

// FindAll returns every element with tag in document order.
func (d *Document) FindAll(tag string) []*Node {
	var out []*Node
	d.Find(func(n *Node) bool {
		if !n.IsText && n.Tag == tag {
			out = append(out, n)
		}
		return false
	})
	return out
}

// ListenerKinds returns the event kinds n listens for, sorted.
func (n *Node) ListenerKinds() []string {
	kinds := make([]string, 0, len(n.Listeners))
	for k := range n.Listeners {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
