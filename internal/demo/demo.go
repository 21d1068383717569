// Package demo holds the components served by the kinesis command.
package demo

import (
	"sort"
	"strings"

	"github.com/vango-dev/kinesis/pkg/vdom"
)

var components = map[string]func() vdom.Component{
	"counter": Counter,
	"toggle":  Toggle,
	"todo":    TodoList,
}

// Lookup returns a fresh component for name.
func Lookup(name string) (vdom.Component, bool) {
	f, ok := components[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return f(), true
}

// Names returns the registered component names, sorted.
func Names() []string {
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Counter renders a count and a button that increments it.
func Counter() vdom.Component {
	return vdom.Stateful("Counter",
		func() int { return 0 },
		func(count int) *vdom.VNode {
			return vdom.Div(vdom.Class("counter"),
				vdom.P(vdom.DynTextf("The current count is %d", count)),
				vdom.Button(vdom.ID("increment"), vdom.OnClick("increment"), "Increment"),
				vdom.Button(vdom.ID("reset"), vdom.OnClick("reset"), "Reset"),
			)
		},
		func(count int, ev vdom.Event) (int, error) {
			switch ev.Handler {
			case "increment":
				return count + 1, nil
			case "reset":
				return 0, nil
			}
			return count, nil
		})
}

// Toggle shows or hides a details panel.
func Toggle() vdom.Component {
	return vdom.Stateful("Toggle",
		func() bool { return false },
		func(open bool) *vdom.VNode {
			label := "Show details"
			if open {
				label = "Hide details"
			}
			return vdom.Section(
				vdom.Button(vdom.ID("toggle"), vdom.OnClick("toggle"), vdom.Dyn(vdom.AriaLabel(label)), vdom.DynText(label)),
				vdom.If(open, vdom.Div(vdom.ID("details"), vdom.Class("details"),
					vdom.P("Positions keep their identity while hidden siblings come and go."),
				)),
				vdom.P(vdom.Class("footer"), "Footer"),
			)
		},
		func(open bool, ev vdom.Event) (bool, error) {
			if ev.Handler == "toggle" {
				return !open, nil
			}
			return open, nil
		})
}

// todoState is the state of a TodoList.
type todoState struct {
	Items []string
	Draft string
}

// TodoList keeps a list of items, each rendered by its own TodoItem
// instance that tracks whether it is done.
func TodoList() vdom.Component {
	return vdom.Stateful("TodoList",
		func() todoState { return todoState{} },
		func(s todoState) *vdom.VNode {
			return vdom.Div(vdom.Class("todo"),
				vdom.Form(vdom.OnSubmit("add"),
					vdom.Input(vdom.ID("draft"), vdom.Type("text"), vdom.Dyn(vdom.Value(s.Draft)), vdom.Placeholder("What needs doing?"), vdom.OnInput("draft")),
					vdom.Button(vdom.ID("add"), vdom.Type("submit"), vdom.OnClick("add"), "Add"),
				),
				vdom.Ul(vdom.Each(s.Items, func(item string, _ int) *vdom.VNode {
					return vdom.Li(TodoItem(item))
				})),
				vdom.P(vdom.Class("summary"), vdom.DynTextf("%d items", len(s.Items))),
				vdom.Button(vdom.ID("pop"), vdom.OnClick("pop"), vdom.Dyn(vdom.Disabled(len(s.Items) == 0)), "Remove last"),
			)
		},
		func(s todoState, ev vdom.Event) (todoState, error) {
			switch ev.Handler {
			case "draft":
				s.Draft = ev.Value
			case "add":
				text := strings.TrimSpace(s.Draft)
				if text == "" {
					return s, nil
				}
				s.Items = append(append([]string(nil), s.Items...), text)
				s.Draft = ""
			case "pop":
				if len(s.Items) > 0 {
					s.Items = s.Items[: len(s.Items)-1 : len(s.Items)-1]
				}
			}
			return s, nil
		})
}

// TodoItem renders one entry; clicking it toggles whether it is done.
func TodoItem(text string) vdom.Component {
	return vdom.Stateful("TodoItem",
		func() bool { return false },
		func(done bool) *vdom.VNode {
			class := "item"
			if done {
				class = "item done"
			}
			return vdom.Span(vdom.Dyn(vdom.Class(class)), vdom.OnClick("toggle"), vdom.DynText(text))
		},
		func(done bool, ev vdom.Event) (bool, error) {
			if ev.Handler == "toggle" {
				return !done, nil
			}
			return done, nil
		})
}
