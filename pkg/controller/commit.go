package controller

import (
	"context"
	stderrors "errors"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/kinesis/internal/errors"
	"github.com/vango-dev/kinesis/pkg/host"
	"github.com/vango-dev/kinesis/pkg/reconcile"
)

// commit applies patch. Host operations run first, in order; if one is
// refused the applied ones are undone and the registry journal is rolled
// back, leaving the tree as it was. Only after every operation succeeded are
// the cache, instance table and bindings updated and the surface told to
// forget the nodes of released positions; until then undo may still need
// them.
func (c *Controller) commit(ctx context.Context, patch *reconcile.Patch) error {
	span := trace.SpanFromContext(ctx)

	for i, op := range patch.Ops {
		if err := c.apply(op); err != nil {
			span.AddEvent("rollback")
			c.metrics.rollback()
			err = host.Wrap(hostOp(op.Kind), err)
			if uerr := c.undo(patch.Ops[:i]); uerr != nil {
				c.logger.Error("rollback incomplete", "op", op.String(), "error", uerr)
				err = stderrors.Join(err, uerr)
			} else {
				host.Forget(c.surface, patch.Built)
			}
			c.registry.Rollback()
			return err
		}
	}
	c.registry.Commit()

	for _, id := range patch.Removes {
		c.cache.Remove(id)
	}
	for id, e := range patch.Puts {
		c.cache.Put(id, e)
	}
	for _, p := range patch.Propagate {
		c.cache.Propagate(p.ID, p.OldLen, p.Nodes)
	}

	for _, inst := range patch.Unmounted {
		delete(c.instances, inst.ID)
	}
	for _, inst := range patch.Mounted {
		c.instances[inst.ID] = inst
	}
	for inst, out := range patch.Outputs {
		inst.Last = out
	}
	for inst, comp := range patch.Components {
		inst.Component = comp
	}

	for _, id := range patch.Unbinds {
		c.dispatcher.Unbind(id)
	}
	for id, bindings := range patch.Bindings {
		c.dispatcher.Bind(id, bindings)
	}

	host.Forget(c.surface, patch.Dropped)

	for _, kind := range []reconcile.OpKind{reconcile.OpInsert, reconcile.OpRemove, reconcile.OpSetText, reconcile.OpSetAttr, reconcile.OpListen} {
		c.metrics.hostOp(kind.String(), patch.Count(kind))
	}
	return nil
}

func (c *Controller) apply(op reconcile.Op) error {
	s := c.surface
	switch op.Kind {
	case reconcile.OpInsert:
		return s.InsertChild(op.Parent, op.Node, op.Index)
	case reconcile.OpRemove:
		return s.RemoveChild(op.Parent, op.Node)
	case reconcile.OpSetText:
		return s.SetText(op.Node, op.Value)
	case reconcile.OpSetAttr:
		return s.SetAttribute(op.Node, op.Key, op.Value)
	case reconcile.OpListen:
		return s.Listen(op.Node, op.Key, op.ID)
	}
	return nil
}

// undo reverts applied, newest first. A listener registration is left in
// place: its events resolve through the binding table, which was not
// changed.
func (c *Controller) undo(applied []reconcile.Op) error {
	s := c.surface
	for i := len(applied) - 1; i >= 0; i-- {
		op := applied[i]
		var err error
		switch op.Kind {
		case reconcile.OpInsert:
			err = s.RemoveChild(op.Parent, op.Node)
		case reconcile.OpRemove:
			err = s.InsertChild(op.Parent, op.Node, op.Index)
		case reconcile.OpSetText:
			err = s.SetText(op.Node, op.Old)
		case reconcile.OpSetAttr:
			err = s.SetAttribute(op.Node, op.Key, op.Old)
		}
		if err != nil {
			return errors.New(errors.CodeRollbackFail).WithDetailf("undo %s", op).Wrap(err)
		}
	}
	return nil
}

func hostOp(k reconcile.OpKind) host.Op {
	switch k {
	case reconcile.OpInsert:
		return host.OpInsertChild
	case reconcile.OpRemove:
		return host.OpRemoveChild
	case reconcile.OpSetText:
		return host.OpSetText
	case reconcile.OpSetAttr:
		return host.OpSetAttribute
	default:
		return host.OpListen
	}
}
