package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// chromeTraceEvent is one entry of the Chrome Trace Event Format the
// `--chrome-trace` flag writes, loadable by chrome://tracing or
// ui.perfetto.dev.
type chromeTraceEvent struct {
	Name string                 `json:"name"`
	Cat  string                 `json:"cat"`
	Ph   string                 `json:"ph"`
	Ts   float64                `json:"ts"`
	Dur  float64                `json:"dur"`
	Pid  int                    `json:"pid"`
	Tid  int                    `json:"tid"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// chromeTraceExporter is a minimal sdktrace.SpanExporter writing completed
// spans as Chrome Trace Event Format JSON. The kernel's teacher wires
// OpenTelemetry for OTLP export (app/observability), but `--chrome-trace`
// asks for a local file a developer can open directly, so this exporter
// formats otel's own span data that way instead of shipping it over OTLP.
type chromeTraceExporter struct {
	mu     sync.Mutex
	w      io.Writer
	first  bool
	closer io.Closer
}

func newChromeTraceExporter(path string) (*chromeTraceExporter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("chrome-trace: creating %s: %w", path, err)
	}
	return newChromeTraceExporterTo(f, f)
}

// newChromeTraceExporterTo builds an exporter over an already-open writer,
// used for the stderr fallback when --tracy is given without --chrome-trace.
func newChromeTraceExporterTo(w io.Writer, closer io.Closer) (*chromeTraceExporter, error) {
	if _, err := io.WriteString(w, "[\n"); err != nil {
		return nil, err
	}
	return &chromeTraceExporter{w: w, closer: closer, first: true}, nil
}

func (e *chromeTraceExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	enc := json.NewEncoder(e.w)
	for _, s := range spans {
		if !e.first {
			if _, err := io.WriteString(e.w, ","); err != nil {
				return err
			}
		}
		e.first = false
		evt := chromeTraceEvent{
			Name: s.Name(),
			Cat:  "edged",
			Ph:   "X",
			Ts:   float64(s.StartTime().UnixNano()) / 1000,
			Dur:  float64(s.EndTime().Sub(s.StartTime()).Nanoseconds()) / 1000,
			Pid:  1,
			Tid:  1,
		}
		if len(s.Attributes()) > 0 {
			evt.Args = make(map[string]interface{}, len(s.Attributes()))
			for _, kv := range s.Attributes() {
				evt.Args[string(kv.Key)] = kv.Value.AsInterface()
			}
		}
		if err := enc.Encode(evt); err != nil {
			return err
		}
	}
	return nil
}

func (e *chromeTraceExporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := io.WriteString(e.w, "]\n")
	if cerr := e.closer.Close(); err == nil {
		err = cerr
	}
	return err
}

// setupTracing installs a global tracer provider when tracing is requested
// by either flag, and returns a shutdown func to flush and close it. When
// neither flag is set it returns a no-op shutdown and leaves the global
// no-op tracer in place.
func setupTracing(chromeTracePath string, tracy bool) (func(context.Context) error, error) {
	if chromeTracePath == "" && !tracy {
		return func(context.Context) error { return nil }, nil
	}

	var exporter sdktrace.SpanExporter
	if chromeTracePath != "" {
		e, err := newChromeTraceExporter(chromeTracePath)
		if err != nil {
			return nil, err
		}
		exporter = e
	} else {
		// --tracy with no --chrome-trace path: trace to stderr, the same
		// "just show me something" posture Tracy's own zone capture has
		// when not attached to a profiler UI.
		e, err := newChromeTraceExporterTo(os.Stderr, io.NopCloser(os.Stderr))
		if err != nil {
			return nil, err
		}
		exporter = e
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

var _ trace.TracerProvider = (*sdktrace.TracerProvider)(nil)
