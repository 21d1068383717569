// Package dispatch routes raw events from rendered nodes to the component
// instance that owns the handler.
//
// Bindings are symbolic: a node records "on click, call increment", and the
// dispatcher resolves that name to an instance only when an event arrives.
// Starting at the node the event was raised on, it walks enclosing
// positions until it finds one bound for the event kind; the instance owning
// that position handles the event, and the position's path relative to the
// instance is passed as the event's local identifier.
//
// An event whose node is gone, or for which nothing is bound, is dropped.
// That is expected when an event races a removal and is not an error.
package dispatch

import (
	"io"
	"log/slog"

	"github.com/vango-dev/kinesis/pkg/ident"
	"github.com/vango-dev/kinesis/pkg/reconcile"
	"github.com/vango-dev/kinesis/pkg/vdom"
)

// RawEvent is an event as the host surface reports it.
type RawEvent struct {
	Kind  string
	Value string
}

// Target is a resolved event: who handles it and what they receive.
type Target struct {
	Instance *reconcile.Instance
	Node     ident.ID
	Event    vdom.Event
}

// Delivery is the outcome of a handled event.
type Delivery struct {
	Target

	// Previous is the instance state before the handler ran.
	Previous any
}

// Dispatcher resolves events against one controller's registry and
// instance table.
type Dispatcher struct {
	registry  *ident.Registry
	instances reconcile.Instances
	bindings  map[ident.ID]map[string]string
	logger    *slog.Logger
}

// New creates a Dispatcher. A nil logger discards output.
func New(reg *ident.Registry, instances reconcile.Instances, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		registry:  reg,
		instances: instances,
		bindings:  make(map[ident.ID]map[string]string),
		logger:    logger,
	}
}

// Bind replaces the bindings recorded for id.
func (d *Dispatcher) Bind(id ident.ID, bindings []vdom.Binding) {
	if len(bindings) == 0 {
		delete(d.bindings, id)
		return
	}
	m := make(map[string]string, len(bindings))
	for _, b := range bindings {
		m[b.Event] = b.Handler
	}
	d.bindings[id] = m
}

// Unbind drops every binding recorded for id.
func (d *Dispatcher) Unbind(id ident.ID) {
	delete(d.bindings, id)
}

// Handler returns the handler bound to kind on id.
func (d *Dispatcher) Handler(id ident.ID, kind string) (string, bool) {
	h, ok := d.bindings[id][kind]
	return h, ok
}

// Len returns the number of bound nodes.
func (d *Dispatcher) Len() int {
	return len(d.bindings)
}

// Resolve finds the handler for raw raised on source. It reports false
// when source is released or nothing on the way up is bound for raw.Kind.
func (d *Dispatcher) Resolve(raw RawEvent, source ident.ID) (Target, bool) {
	for id := source; id != 0; id = d.registry.Parent(id) {
		if !d.registry.Live(id) {
			return Target{}, false
		}
		handler, ok := d.Handler(id, raw.Kind)
		if !ok {
			continue
		}
		scope, _ := d.registry.Scope(id)
		inst, ok := d.instances[scope.Owner]
		if !ok {
			return Target{}, false
		}
		return Target{
			Instance: inst,
			Node:     id,
			Event: vdom.Event{
				Kind:    raw.Kind,
				Handler: handler,
				Local:   scope.Path,
				Value:   raw.Value,
			},
		}, true
	}
	return Target{}, false
}

// Dispatch resolves raw and runs the owning instance's handler, storing the
// state it returns. A nil Delivery with a nil error means the event was
// dropped. A handler error leaves the instance state untouched.
func (d *Dispatcher) Dispatch(raw RawEvent, source ident.ID) (*Delivery, error) {
	target, ok := d.Resolve(raw, source)
	if !ok {
		d.logger.Debug("event dropped", "source", source, "kind", raw.Kind)
		return nil, nil
	}

	inst := target.Instance
	next, err := inst.Component.HandleEvent(inst.State, target.Event)
	if err != nil {
		return nil, err
	}

	delivery := &Delivery{Target: target, Previous: inst.State}
	inst.State = next
	return delivery, nil
}
