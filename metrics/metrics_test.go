package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistryRegistersEveryCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)
	// A vector exports a family only once it has a child.
	r.PermitsInUse.WithLabelValues("p")
	r.EnvelopesHandled.WithLabelValues("p")
	r.EnvelopesDropped.WithLabelValues("p")
	r.HandlerPanics.WithLabelValues("p", "m")
	r.ShutdownDuration.WithLabelValues("p")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(families) != 5 {
		t.Fatalf("got %d metric families, want 5", len(families))
	}
	if r.PermitsInUse == nil || r.EnvelopesHandled == nil || r.EnvelopesDropped == nil ||
		r.HandlerPanics == nil || r.ShutdownDuration == nil {
		t.Fatalf("NewRegistry left a collector field nil: %+v", r)
	}
}

func TestNewRegistryPanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRegistry(reg)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic from registering the same collectors twice")
		}
	}()
	NewRegistry(reg)
}

func TestHandlerPanicsCounterIncrementsPerLabelSet(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	r.HandlerPanics.WithLabelValues("cpu_sampler", "messages.Measurement").Inc()
	r.HandlerPanics.WithLabelValues("cpu_sampler", "messages.Measurement").Inc()
	r.HandlerPanics.WithLabelValues("filter", "messages.Measurement").Inc()

	var m dto.Metric
	if err := r.HandlerPanics.WithLabelValues("cpu_sampler", "messages.Measurement").Write(&m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.GetCounter().GetValue(); got != 2 {
		t.Fatalf("got counter value %v, want 2", got)
	}
}
