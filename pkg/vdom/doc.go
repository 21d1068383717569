// Package vdom defines the render output a component produces each pass.
//
// A render output is a *VNode whose Kind is one of a closed set:
//
//   - KindEmpty: renders nothing
//   - KindElement: a primitive element with tag, attributes, events, children
//   - KindText: a text node, either fixed or explicitly dynamic
//   - KindComponent: an embedded component instance
//   - KindOptional: zero or one child
//   - KindList: an ordered sequence of children, matched by position
//
// Elements are built with variadic factory functions:
//
//	Div(Class("counter"),
//	    P(DynTextf("The current count is %d", count)),
//	    Button(OnClick("increment"), Text("+1")),
//	)
//
// Content that may change between passes must be marked: DynText and Dyn
// are rewritten when their value differs, Text and plain attributes are
// written once when the node is created and never again.
//
// Event bindings name a handler symbolically. The engine resolves the name
// to the owning component instance at dispatch time, so bindings survive
// recreation of the underlying node.
package vdom
