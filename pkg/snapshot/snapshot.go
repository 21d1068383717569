package snapshot

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/kinesis/internal/errors"
	"github.com/vango-dev/kinesis/pkg/controller"
	"github.com/vango-dev/kinesis/pkg/dispatch"
	"github.com/vango-dev/kinesis/pkg/host"
	"github.com/vango-dev/kinesis/pkg/host/memdom"
	"github.com/vango-dev/kinesis/pkg/vdom"
)

// Snapshot is one published rendering.
type Snapshot struct {
	// Name identifies the snapshot within its store.
	Name string

	// App is the component the snapshot was rendered from.
	App string

	HTML      []byte
	CreatedAt time.Time
}

// Store keeps snapshots by name.
type Store interface {
	// Save stores s and returns where it was written.
	Save(ctx context.Context, s Snapshot) (location string, err error)

	// Load returns the snapshot called name.
	Load(ctx context.Context, name string) (*Snapshot, error)
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateName returns a K601 error unless name is safe to use as a file
// name or object key.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return errors.New(errors.CodeSnapshotName).WithDetailf("%q", name)
	}
	return nil
}

// NewName returns a fresh snapshot name for app.
func NewName(app string) string {
	return fmt.Sprintf("%s-%s", app, uuid.NewString()[:8])
}

// Step is an event dispatched before the tree is serialized.
type Step struct {
	// Target is the id attribute of the element the event is raised on.
	Target string `json:"target"`
	Kind   string `json:"kind"`
	Value  string `json:"value,omitempty"`
}

// Click raises a click on the element with the given id attribute.
func Click(target string) Step {
	return Step{Target: target, Kind: "click"}
}

// Input raises an input event carrying value.
func Input(target, value string) Step {
	return Step{Target: target, Kind: "input", Value: value}
}

// Render mounts comp into an empty document, runs steps in order and
// returns the serialized document.
func Render(ctx context.Context, comp vdom.Component, steps ...Step) ([]byte, error) {
	return RenderWith(ctx, comp, nil, steps...)
}

// RenderWith is Render with controller options.
func RenderWith(ctx context.Context, comp vdom.Component, opts []controller.Option, steps ...Step) ([]byte, error) {
	doc := memdom.New()
	c := controller.New(doc, opts...)
	if err := c.Mount(ctx, comp, host.Append(doc.Root())); err != nil {
		return nil, err
	}
	for i, step := range steps {
		n := doc.Find(func(n *memdom.Node) bool {
			v, ok := n.Attr("id")
			return ok && v == step.Target
		})
		if n == nil {
			return nil, fmt.Errorf("snapshot: step %d: no element with id %q", i, step.Target)
		}
		src, ok := doc.Target(n, step.Kind)
		if !ok {
			return nil, fmt.Errorf("snapshot: step %d: %q does not listen for %s", i, step.Target, step.Kind)
		}
		if err := c.Dispatch(ctx, dispatch.RawEvent{Kind: step.Kind, Value: step.Value}, src); err != nil {
			return nil, fmt.Errorf("snapshot: step %d: %w", i, err)
		}
	}
	html := []byte(doc.HTML())
	if err := c.Unmount(ctx); err != nil {
		return nil, err
	}
	return html, nil
}

// Publish renders comp and saves the result under a fresh name.
func Publish(ctx context.Context, store Store, app string, comp vdom.Component, steps ...Step) (*Snapshot, string, error) {
	html, err := Render(ctx, comp, steps...)
	if err != nil {
		return nil, "", err
	}
	s := &Snapshot{Name: NewName(app), App: app, HTML: html, CreatedAt: time.Now().UTC()}
	loc, err := store.Save(ctx, *s)
	if err != nil {
		return nil, "", err
	}
	return s, loc, nil
}
