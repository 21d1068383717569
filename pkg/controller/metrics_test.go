package controller

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/kinesis/pkg/dispatch"
)

func TestMetricsRecordCycles(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))
	c, doc := mount(t, counter(), WithMetrics(m))

	mustClick(t, c, doc, "inc")
	if err := c.Dispatch(context.Background(), dispatch.RawEvent{Kind: "click"}, 1<<40); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"mount ok", testutil.ToFloat64(m.cycles.WithLabelValues(PhaseMount, ResultOK)), 1},
		{"dispatch ok", testutil.ToFloat64(m.cycles.WithLabelValues(PhaseDispatch, ResultOK)), 1},
		{"dispatch dropped", testutil.ToFloat64(m.cycles.WithLabelValues(PhaseDispatch, ResultDropped)), 1},
		{"set text ops", testutil.ToFloat64(m.hostOps.WithLabelValues("SetText")), 1},
		{"live identifiers", testutil.ToFloat64(m.identifiers), float64(c.Registry().Len())},
		{"mounted instances", testutil.ToFloat64(m.instances), 1},
		{"rollbacks", testutil.ToFloat64(m.rollbacks), 0},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if err := c.Unmount(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(m.identifiers); got != 0 {
		t.Errorf("live identifiers after Unmount = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.instances); got != 0 {
		t.Errorf("mounted instances after Unmount = %v, want 0", got)
	}
}

func TestMetricsCountRollbacks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))
	c, doc := mount(t, counter(), WithMetrics(m))

	doc.FailOn("set-text", 1, errBoom)
	if err := click(t, c, doc, "inc"); err == nil {
		t.Fatal("expected host failure")
	}
	if got := testutil.ToFloat64(m.rollbacks); got != 1 {
		t.Errorf("rollbacks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.cycles.WithLabelValues(PhaseDispatch, ResultHostError)); got != 1 {
		t.Errorf("failed dispatch cycles = %v, want 1", got)
	}
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	m.cycle(PhaseMount, ResultOK, time.Time{})
	m.hostOp("Insert", 3)
	m.rollback()
	m.live(1, 1)
}
