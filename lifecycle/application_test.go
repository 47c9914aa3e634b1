package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-edge/edged/bundle"
	"github.com/go-edge/edged/directory"
	"github.com/go-edge/edged/kernel"
	rtlog "github.com/go-edge/edged/rtlog"
)

type fakeConfig struct {
	scanErr error
}

func (c fakeConfig) Scan(v interface{}) error { return c.scanErr }

type recordingPlugin struct {
	kernel.DefaultPlugin
	startErr       error
	mainCalled     chan struct{}
	shutdownCalled chan struct{}
}

func newRecordingPlugin() *recordingPlugin {
	return &recordingPlugin{
		mainCalled:     make(chan struct{}),
		shutdownCalled: make(chan struct{}),
	}
}

func (p *recordingPlugin) Start(ctx context.Context) error { return p.startErr }

func (p *recordingPlugin) Main(ctx context.Context) error {
	close(p.mainCalled)
	<-ctx.Done()
	return nil
}

func (p *recordingPlugin) Shutdown(ctx context.Context) error {
	close(p.shutdownCalled)
	return nil
}

type fakeBuilder struct {
	name     string
	verifyFn func(kernel.RawConfig) error
	plugin   *recordingPlugin
}

func (b *fakeBuilder) KindName() string                       { return b.name }
func (b *fakeBuilder) KindMessageTypes() bundle.Bundle         { return bundle.Bundle{} }
func (b *fakeBuilder) KindConfiguration() *kernel.ConfigDescription { return nil }
func (b *fakeBuilder) VerifyConfiguration(cfg kernel.RawConfig) error {
	if b.verifyFn != nil {
		return b.verifyFn(cfg)
	}
	return nil
}
func (b *fakeBuilder) Instantiate(ctx context.Context, cfg kernel.RawConfig, view *directory.View) (*kernel.BuiltPlugin, error) {
	return kernel.NewBuiltPlugin(b.name, b.plugin), nil
}

func newApp(t *testing.T) *Application {
	t.Helper()
	return New(rtlog.NewNop())
}

func TestRegisterRejectsDuplicateKindName(t *testing.T) {
	app := newApp(t)
	b := &fakeBuilder{name: "worker", plugin: newRecordingPlugin()}
	if err := app.Register(b); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	err := app.Register(&fakeBuilder{name: "worker", plugin: newRecordingPlugin()})
	var ke *KernelError
	if !errors.As(err, &ke) || ke.Code != ErrDuplicateKind {
		t.Fatalf("got %v, want ErrDuplicateKind", err)
	}
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	app := newApp(t)
	instances := []InstanceConfig{{Name: "a", Kind: "nope", Config: fakeConfig{}}}
	err := app.Validate(instances)
	var me *MultiError
	if !errors.As(err, &me) {
		t.Fatalf("got %v, want *MultiError", err)
	}
	var ke *KernelError
	if !errors.As(err, &ke) || ke.Code != ErrUnknownKind {
		t.Fatalf("got %v, want ErrUnknownKind", err)
	}
}

func TestValidateRejectsBadConfiguration(t *testing.T) {
	app := newApp(t)
	wantErr := errors.New("missing field")
	b := &fakeBuilder{name: "worker", plugin: newRecordingPlugin(), verifyFn: func(kernel.RawConfig) error { return wantErr }}
	if err := app.Register(b); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	err := app.Validate([]InstanceConfig{{Name: "a", Kind: "worker", Config: fakeConfig{}}})
	var ke *KernelError
	if !errors.As(err, &ke) || ke.Code != ErrVerificationFailed {
		t.Fatalf("got %v, want ErrVerificationFailed", err)
	}
}

func TestValidatePassesForWellFormedInstances(t *testing.T) {
	app := newApp(t)
	b := &fakeBuilder{name: "worker", plugin: newRecordingPlugin()}
	if err := app.Register(b); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := app.Validate([]InstanceConfig{{Name: "a", Kind: "worker", Config: fakeConfig{}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunShutsDownOnContextCancellation(t *testing.T) {
	app := newApp(t)
	plugin := newRecordingPlugin()
	b := &fakeBuilder{name: "worker", plugin: plugin}
	if err := app.Register(b); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-plugin.mainCalled
		cancel()
	}()

	err := app.Run(ctx, []InstanceConfig{{Name: "a", Kind: "worker", Config: fakeConfig{}}}, Options{
		CommunicationBufferSize: 4,
		PluginShutdownTimeout:   time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-plugin.shutdownCalled:
	default:
		t.Fatalf("Shutdown was never called")
	}
}

func TestRunAggregatesStartErrors(t *testing.T) {
	app := newApp(t)
	plugin := newRecordingPlugin()
	plugin.startErr = errors.New("boom")
	b := &fakeBuilder{name: "worker", plugin: plugin}
	if err := app.Register(b); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // root is derived from ctx: an already-cancelled context lets Run reach shutdown deterministically.

	err := app.Run(ctx, []InstanceConfig{{Name: "a", Kind: "worker", Config: fakeConfig{}}}, Options{
		CommunicationBufferSize: 4,
		PluginShutdownTimeout:   time.Second,
	})
	var ke *KernelError
	if !errors.As(err, &ke) || ke.Code != ErrStartFailed {
		t.Fatalf("got %v, want ErrStartFailed", err)
	}
	select {
	case <-plugin.shutdownCalled:
	default:
		t.Fatalf("Shutdown must still run even when Start failed")
	}
}

func TestKindNamesAndKindLookup(t *testing.T) {
	app := newApp(t)
	if err := app.Register(&fakeBuilder{name: "a", plugin: newRecordingPlugin()}); err != nil {
		t.Fatalf("register a failed: %v", err)
	}
	if err := app.Register(&fakeBuilder{name: "b", plugin: newRecordingPlugin()}); err != nil {
		t.Fatalf("register b failed: %v", err)
	}
	names := app.KindNames()
	if len(names) != 2 {
		t.Fatalf("got %v, want 2 names", names)
	}
	if _, ok := app.Kind("a"); !ok {
		t.Fatalf("expected kind %q to be registered", "a")
	}
	if _, ok := app.Kind("missing"); ok {
		t.Fatalf("did not expect kind %q to be registered", "missing")
	}
}
