package vdom

import (
	"fmt"
	"strconv"
)

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":  true,
	"br":    true,
	"col":   true,
	"embed": true,
	"hr":    true,
	"img":   true,
	"input": true,
	"wbr":   true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// createElement creates a new VNode with the given tag and arguments.
// Arguments can be: nil, Attr, []Attr, Binding, *VNode, []*VNode, Component, string.
// Each child argument occupies one child position. A nil *VNode, alone or in
// a slice, holds its position as Empty so the children after it keep their
// paths. An untyped nil argument is not a child and is skipped.
func createElement(tag string, args []any) *VNode {
	node := &VNode{
		Kind: KindElement,
		Tag:  tag,
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attr:
			node.setAttr(v)
		case []Attr:
			for _, a := range v {
				node.setAttr(a)
			}
		case Binding:
			node.setBinding(v)
		case []Binding:
			for _, b := range v {
				node.setBinding(b)
			}
		case *VNode:
			node.Children = append(node.Children, orEmpty(v))
		case []*VNode:
			for _, c := range v {
				node.Children = append(node.Children, orEmpty(c))
			}
		case string:
			node.Children = append(node.Children, Text(v))
		case Component:
			node.Children = append(node.Children, Mount(v))
		default:
			panic(fmt.Sprintf("vdom: unsupported element argument %T", arg))
		}
	}

	return node
}

// setAttr adds or replaces an attribute. The last declaration wins.
func (v *VNode) setAttr(a Attr) {
	if a.IsEmpty() {
		return
	}
	for i := range v.Attrs {
		if v.Attrs[i].Key == a.Key {
			v.Attrs[i] = a
			return
		}
	}
	v.Attrs = append(v.Attrs, a)
}

// setBinding adds or replaces an event binding. The last declaration wins.
func (v *VNode) setBinding(b Binding) {
	if b.Event == "" {
		return
	}
	for i := range v.Events {
		if v.Events[i].Event == b.Event {
			v.Events[i] = b
			return
		}
	}
	v.Events = append(v.Events, b)
}

// El creates an element with an arbitrary tag.
func El(tag string, args ...any) *VNode { return createElement(tag, args) }

// Document structure

func Header(args ...any) *VNode  { return createElement("header", args) }
func Footer(args ...any) *VNode  { return createElement("footer", args) }
func Main(args ...any) *VNode    { return createElement("main", args) }
func Nav(args ...any) *VNode     { return createElement("nav", args) }
func Section(args ...any) *VNode { return createElement("section", args) }
func Article(args ...any) *VNode { return createElement("article", args) }
func H1(args ...any) *VNode      { return createElement("h1", args) }
func H2(args ...any) *VNode      { return createElement("h2", args) }
func H3(args ...any) *VNode      { return createElement("h3", args) }

// Content

func Div(args ...any) *VNode    { return createElement("div", args) }
func P(args ...any) *VNode      { return createElement("p", args) }
func Span(args ...any) *VNode   { return createElement("span", args) }
func Ul(args ...any) *VNode     { return createElement("ul", args) }
func Ol(args ...any) *VNode     { return createElement("ol", args) }
func Li(args ...any) *VNode     { return createElement("li", args) }
func Hr(args ...any) *VNode     { return createElement("hr", args) }
func A(args ...any) *VNode      { return createElement("a", args) }
func Strong(args ...any) *VNode { return createElement("strong", args) }
func Em(args ...any) *VNode     { return createElement("em", args) }
func Code(args ...any) *VNode   { return createElement("code", args) }
func Br(args ...any) *VNode     { return createElement("br", args) }

// Forms

func Form(args ...any) *VNode   { return createElement("form", args) }
func Input(args ...any) *VNode  { return createElement("input", args) }
func Button(args ...any) *VNode { return createElement("button", args) }
func Label(args ...any) *VNode  { return createElement("label", args) }

// Text creates a fixed text node. Its content is written once when the node
// is created and never rewritten.
func Text(content string) *VNode {
	return &VNode{
		Kind: KindText,
		Text: content,
	}
}

// Textf creates a formatted fixed text node.
func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}

// DynText creates a dynamic text node, rewritten whenever its content
// differs from the previous pass.
func DynText(content string) *VNode {
	return &VNode{
		Kind:    KindText,
		Text:    content,
		Dynamic: true,
	}
}

// DynTextf creates a formatted dynamic text node.
func DynTextf(format string, args ...any) *VNode {
	return DynText(fmt.Sprintf(format, args...))
}

// Empty renders nothing.
func Empty() *VNode {
	return &VNode{Kind: KindEmpty}
}

// Optional wraps node as an optional position; a nil node is absent.
func Optional(node *VNode) *VNode {
	opt := &VNode{Kind: KindOptional}
	if node != nil {
		opt.Children = []*VNode{node}
	}
	return opt
}

// List creates a position-indexed list. A nil item holds its position as
// Empty.
func List(items ...*VNode) *VNode {
	list := &VNode{Kind: KindList, Children: make([]*VNode, 0, len(items))}
	for _, item := range items {
		list.Children = append(list.Children, orEmpty(item))
	}
	return list
}

// orEmpty returns v, or Empty when v is nil.
func orEmpty(v *VNode) *VNode {
	if v == nil {
		return Empty()
	}
	return v
}

// Mount embeds a component instance at this position.
func Mount(c Component) *VNode {
	return &VNode{
		Kind: KindComponent,
		Comp: c,
	}
}

// propToString converts an attribute value to its string form.
func propToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
