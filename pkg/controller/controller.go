package controller

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/kinesis/internal/errors"
	"github.com/vango-dev/kinesis/pkg/cache"
	"github.com/vango-dev/kinesis/pkg/dispatch"
	"github.com/vango-dev/kinesis/pkg/host"
	"github.com/vango-dev/kinesis/pkg/ident"
	"github.com/vango-dev/kinesis/pkg/reconcile"
	"github.com/vango-dev/kinesis/pkg/vdom"
)

// Status is the lifecycle state of a Controller.
type Status uint8

const (
	Unmounted Status = iota
	Mounted
)

// String returns the string representation of the Status.
func (s Status) String() string {
	switch s {
	case Unmounted:
		return "Unmounted"
	case Mounted:
		return "Mounted"
	default:
		return "Unknown"
	}
}

// Phases of a cycle, as reported in logs, spans and metrics.
const (
	PhaseMount    = "mount"
	PhaseDispatch = "dispatch"
	PhaseUnmount  = "unmount"
)

// Controller owns one mounted component tree and everything needed to keep
// it in sync with a host surface: the identifier registry, the node cache,
// the instance table and the event bindings.
type Controller struct {
	surface    host.Surface
	registry   *ident.Registry
	cache      *cache.Cache
	instances  reconcile.Instances
	reconciler *reconcile.Reconciler
	dispatcher *dispatch.Dispatcher

	status Status
	pos    host.Position
	mount  *vdom.VNode
	root   *reconcile.Instance

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// New creates an unmounted Controller rendering into surface.
func New(surface host.Surface, opts ...Option) *Controller {
	c := &Controller{
		surface:   surface,
		registry:  ident.NewRegistry(),
		cache:     cache.New(),
		instances: make(reconcile.Instances),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:    otel.Tracer(DefaultTracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reconciler = reconcile.New(c.registry, c.cache, surface, c.instances, c.logger)
	c.dispatcher = dispatch.New(c.registry, c.instances, c.logger)
	return c
}

// Status returns the lifecycle state.
func (c *Controller) Status() Status {
	return c.status
}

// Root returns the root instance, or nil when unmounted.
func (c *Controller) Root() *reconcile.Instance {
	return c.root
}

// State returns the root instance's state, or nil when unmounted.
func (c *Controller) State() any {
	if c.root == nil {
		return nil
	}
	return c.root.State
}

// Instance returns the mounted instance whose component position is id.
func (c *Controller) Instance(id ident.ID) (*reconcile.Instance, bool) {
	inst, ok := c.instances[id]
	return inst, ok
}

// Node returns the live host node a position produced.
func (c *Controller) Node(id ident.ID) (host.Node, bool) {
	return c.cache.Node(id)
}

// Registry returns the controller's identifier registry.
func (c *Controller) Registry() *ident.Registry {
	return c.registry
}

// Cache returns the controller's node cache.
func (c *Controller) Cache() *cache.Cache {
	return c.cache
}

// Bindings returns the dispatcher's binding table.
func (c *Controller) Bindings() *dispatch.Dispatcher {
	return c.dispatcher
}

// Mount renders comp and inserts its nodes at pos. Mounting a controller
// that is already mounted panics.
func (c *Controller) Mount(ctx context.Context, comp vdom.Component, pos host.Position) error {
	if c.status == Mounted {
		panic(errors.New(errors.CodeAlreadyMounted).WithDetailf("root %q", c.root.Name()))
	}
	if comp == nil {
		panic(errors.New(errors.CodeNilComponent).WithDetail("mount root"))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "kinesis.mount", trace.WithAttributes(
		attribute.String("kinesis.component", comp.Name()),
	))
	defer span.End()

	live := c.begin()
	patch, err := c.reconciler.Root(nil, vdom.Mount(comp), pos)
	if err == nil {
		err = c.commit(ctx, patch)
	} else {
		c.registry.Rollback()
	}
	if err != nil {
		c.fail(span, PhaseMount, ResultHostError, start, err)
		return err
	}

	c.status = Mounted
	c.pos = pos
	c.mount = patch.Root
	c.root = c.instances[patch.Root.ID]
	c.finish(span, PhaseMount, start, patch, live)
	c.logger.Info("mounted", "component", comp.Name(), "id", patch.Root.ID, "nodes", patch.Created)
	return nil
}

// Dispatch routes raw, raised on the node tagged source, to the owning
// instance's handler and re-renders that instance.
//
// Events whose source is gone or unbound are dropped without error. A
// handler error is returned unchanged and nothing is re-rendered. A host
// failure while committing is returned as a *host.Error; the handler's
// state change is discarded along with the rest of the cycle.
func (c *Controller) Dispatch(ctx context.Context, raw dispatch.RawEvent, source ident.ID) error {
	if c.status != Mounted {
		panic(errors.New(errors.CodeNotMounted).WithDetailf("dispatch %s to %s", raw.Kind, source))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "kinesis.dispatch", trace.WithAttributes(
		attribute.String("kinesis.event", raw.Kind),
		attribute.Int64("kinesis.source", int64(source)),
	))
	defer span.End()

	delivery, err := c.dispatcher.Dispatch(raw, source)
	if err != nil {
		c.fail(span, PhaseDispatch, ResultHandlerError, start, err)
		return err
	}
	if delivery == nil {
		span.SetAttributes(attribute.Bool("kinesis.dropped", true))
		c.metrics.cycle(PhaseDispatch, ResultDropped, start)
		return nil
	}

	inst := delivery.Instance
	span.SetAttributes(
		attribute.String("kinesis.component", inst.Name()),
		attribute.String("kinesis.handler", delivery.Event.Handler),
	)

	live := c.begin()
	patch, err := c.reconciler.Rerender(inst)
	if err == nil {
		err = c.commit(ctx, patch)
	} else {
		c.registry.Rollback()
	}
	if err != nil {
		inst.State = delivery.Previous
		c.fail(span, PhaseDispatch, ResultHostError, start, err)
		return err
	}

	c.finish(span, PhaseDispatch, start, patch, live)
	c.logger.Debug("dispatched",
		"component", inst.Name(),
		"handler", delivery.Event.Handler,
		"local", delivery.Event.Local.String(),
		"ops", len(patch.Ops))
	return nil
}

// Unmount removes the tree's nodes from the surface and releases every
// identifier. Unmounting an unmounted controller panics.
func (c *Controller) Unmount(ctx context.Context) error {
	if c.status != Mounted {
		panic(errors.New(errors.CodeNotMounted).WithDetail("unmount"))
	}

	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "kinesis.unmount", trace.WithAttributes(
		attribute.String("kinesis.component", c.root.Name()),
	))
	defer span.End()

	live := c.begin()
	patch, err := c.reconciler.Root(c.mount, nil, c.pos)
	if err == nil {
		err = c.commit(ctx, patch)
	} else {
		c.registry.Rollback()
	}
	if err != nil {
		c.fail(span, PhaseUnmount, ResultHostError, start, err)
		return err
	}

	name := c.root.Name()
	c.status = Unmounted
	c.mount = nil
	c.root = nil
	c.finish(span, PhaseUnmount, start, patch, live)
	c.logger.Info("unmounted", "component", name, "released", patch.Released)
	return nil
}

// begin opens the registry journal for a cycle and returns the number of
// live identifiers before it.
func (c *Controller) begin() int {
	n := c.registry.Len()
	c.registry.Begin()
	return n
}

func (c *Controller) finish(span trace.Span, phase string, start time.Time, patch *reconcile.Patch, live int) {
	span.SetAttributes(
		attribute.Int("kinesis.ops", len(patch.Ops)),
		attribute.Int("kinesis.created", patch.Created),
		attribute.Int("kinesis.released", patch.Released),
	)
	span.SetStatus(codes.Ok, "")
	c.metrics.cycle(phase, ResultOK, start)
	c.metrics.live(c.registry.Len()-live, len(patch.Mounted)-len(patch.Unmounted))
}

func (c *Controller) fail(span trace.Span, phase, result string, start time.Time, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.metrics.cycle(phase, result, start)
	c.logger.Warn("cycle failed", "phase", phase, "result", result, "error", err)
}
