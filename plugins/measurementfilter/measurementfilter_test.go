package measurementfilter

import (
	"context"
	"sync"
	"testing"

	kratoslog "github.com/go-kratos/kratos/v2/log"

	"github.com/go-edge/edged/address"
	"github.com/go-edge/edged/bundle"
	"github.com/go-edge/edged/messages"
	rtlog "github.com/go-edge/edged/rtlog"
)

func capturingDownstream() (address.Address[downstreamBundle], func() []messages.Measurement) {
	var mu sync.Mutex
	var got []messages.Measurement
	cell := address.NewSinkCell()
	cell.Bind(func(ctx context.Context, env address.Envelope, mode address.WaitMode) (address.Envelope, error) {
		mu.Lock()
		got = append(got, env.Message.(messages.Measurement))
		mu.Unlock()
		return address.Envelope{}, nil
	})
	addr := address.New[downstreamBundle](bundle.Of1[messages.Measurement](), cell, "downstream")
	return addr, func() []messages.Measurement { mu.Lock(); defer mu.Unlock(); return append([]messages.Measurement(nil), got...) }
}

func TestHandleMeasurementForwardsAllowedNames(t *testing.T) {
	downstream, got := capturingDownstream()
	p := &plugin{
		downstream: downstream,
		allow:      map[string]struct{}{"cpu.percent": {}},
		logger:     kratoslog.NewHelper(rtlog.NewNop()),
	}

	if err := p.handleMeasurement(context.Background(), messages.Measurement{Name: "cpu.percent", Value: 10}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.handleMeasurement(context.Background(), messages.Measurement{Name: "mem.used_percent", Value: 20}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	forwarded := got()
	if len(forwarded) != 1 || forwarded[0].Name != "cpu.percent" {
		t.Fatalf("got forwarded=%v, want exactly one cpu.percent measurement", forwarded)
	}
}

func TestVerifyConfigurationRequiresDownstream(t *testing.T) {
	b := Builder{}
	if err := b.VerifyConfiguration(constScan{}); err == nil {
		t.Fatalf("expected an error when downstream is empty")
	}
}

type constScan struct{}

func (constScan) Scan(v interface{}) error { return nil }
