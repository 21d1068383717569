package vdom

import (
	"fmt"

	"github.com/vango-dev/kinesis/internal/errors"
	"github.com/vango-dev/kinesis/pkg/ident"
)

// Event is what a component's HandleEvent receives.
type Event struct {
	// Kind is the event kind ("click", "input", ...).
	Kind string

	// Handler is the symbolic name from the matching Binding.
	Handler string

	// Local is the bound node's path relative to the handling instance's
	// render root.
	Local ident.Path

	// Value carries the raw event payload (an input's value, a key name).
	Value string
}

// Component renders state into a render output and folds events into new
// state. The engine owns the state value and threads it through both calls;
// Render must be a pure function of state.
type Component interface {
	// Name identifies the component kind. A position whose component name
	// changes between passes gets a fresh instance.
	Name() string

	// Init returns the state of a freshly mounted instance.
	Init() any

	// Render returns the render output for state.
	Render(state any) *VNode

	// HandleEvent returns the state after ev. Returning an error aborts the
	// update before anything is re-rendered.
	HandleEvent(state any, ev Event) (any, error)
}

// stateful adapts typed render and handle functions to Component.
type stateful[S any] struct {
	name   string
	init   func() S
	render func(S) *VNode
	handle func(S, Event) (S, error)
}

// Stateful builds a Component whose state has type S.
// handle may be nil for components that ignore events.
func Stateful[S any](name string, init func() S, render func(S) *VNode, handle func(S, Event) (S, error)) Component {
	return &stateful[S]{name: name, init: init, render: render, handle: handle}
}

func (s *stateful[S]) Name() string { return s.name }

func (s *stateful[S]) Init() any {
	if s.init == nil {
		var zero S
		return zero
	}
	return s.init()
}

func (s *stateful[S]) Render(state any) *VNode {
	return s.render(s.cast(state))
}

func (s *stateful[S]) HandleEvent(state any, ev Event) (any, error) {
	typed := s.cast(state)
	if s.handle == nil {
		return typed, nil
	}
	return s.handle(typed, ev)
}

func (s *stateful[S]) cast(state any) S {
	if state == nil {
		var zero S
		return zero
	}
	typed, ok := state.(S)
	if !ok {
		var zero S
		panic(errors.New(errors.CodeStateType).
			WithDetail(fmt.Sprintf("component %q: got %T, want %T", s.name, state, zero)))
	}
	return typed
}

// funcComponent wraps a stateless render function.
type funcComponent struct {
	name   string
	render func() *VNode
}

// Func creates a stateless component from a render function.
func Func(name string, render func() *VNode) Component {
	return &funcComponent{name: name, render: render}
}

func (f *funcComponent) Name() string { return f.name }

func (f *funcComponent) Init() any { return nil }

func (f *funcComponent) Render(any) *VNode { return f.render() }

func (f *funcComponent) HandleEvent(state any, _ Event) (any, error) { return state, nil }
