package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	kratoslog "github.com/go-kratos/kratos/v2/log"

	"github.com/go-edge/edged/address"
	"github.com/go-edge/edged/dispatch"
	"github.com/go-edge/edged/directory"
	"github.com/go-edge/edged/kernel"
	"github.com/go-edge/edged/metrics"
)

// InstanceConfig is one named plugin instance to build: which kind, and a
// RawConfig view already resolved (inline or sibling-file) for that
// instance.
type InstanceConfig struct {
	Name   string
	Kind   string
	Config kernel.RawConfig
}

// Options carries the global settings the kernel's configuration format
// declares at the top level.
type Options struct {
	CommunicationBufferSize int
	PluginShutdownTimeout   time.Duration
	// Metrics is optional; when set, dispatch and shutdown observations are
	// recorded against it.
	Metrics *metrics.Registry
}

// Application is the runtime builder: kind registration, then Run drives the
// full startup and shutdown sequence described by the kernel's lifecycle
// component.
type Application struct {
	logger *kratoslog.Helper

	mu    sync.Mutex
	kinds map[string]kernel.Builder
}

// New returns an empty application builder.
func New(logger kratoslog.Logger) *Application {
	return &Application{
		logger: kratoslog.NewHelper(kratoslog.With(logger, "op", "lifecycle")),
		kinds:  make(map[string]kernel.Builder),
	}
}

// Register adds b, keyed by its kind name. Duplicate kind names fail
// construction, per the source's registration step.
func (a *Application) Register(b kernel.Builder) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	name := b.KindName()
	if _, exists := a.kinds[name]; exists {
		return newErr(ErrDuplicateKind, "", "", fmt.Sprintf("kind %q already registered", name), nil)
	}
	a.kinds[name] = b
	return nil
}

// KindNames returns every registered kind name.
func (a *Application) KindNames() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.kinds))
	for n := range a.kinds {
		names = append(names, n)
	}
	return names
}

// Kind returns the builder registered under name, if any.
func (a *Application) Kind(name string) (kernel.Builder, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.kinds[name]
	return b, ok
}

// Validate runs configuration verification only (startup steps 1-2) and
// returns the aggregated verification error, if any.
func (a *Application) Validate(instances []InstanceConfig) error {
	_, err := a.verify(instances)
	return err
}

func (a *Application) verify(instances []InstanceConfig) (map[string]kernel.Builder, error) {
	a.mu.Lock()
	kinds := make(map[string]kernel.Builder, len(a.kinds))
	for k, v := range a.kinds {
		kinds[k] = v
	}
	a.mu.Unlock()

	assigned := make(map[string]kernel.Builder, len(instances))
	var errs []error
	for _, inst := range instances {
		b, ok := kinds[inst.Kind]
		if !ok {
			errs = append(errs, newErr(ErrUnknownKind, inst.Name, "", fmt.Sprintf("unknown kind %q", inst.Kind), nil))
			continue
		}
		if err := b.VerifyConfiguration(inst.Config); err != nil {
			errs = append(errs, newErr(ErrVerificationFailed, inst.Name, "", "configuration verification failed", err))
			continue
		}
		assigned[inst.Name] = b
	}
	if err := joinPhase("verify", errs); err != nil {
		return nil, err
	}
	return assigned, nil
}

// runState holds everything Run threads between its steps, kept off
// Application itself so a single Application can drive independent Run
// calls (e.g. repeated test scenarios) without cross-contamination.
type runState struct {
	dir         *directory.Directory
	cells       map[string]*kernel.Cell
	permits     map[string]*dispatch.Permit
	panicsCh    map[string]chan dispatch.PanicRecord
	instances   []InstanceConfig
	assigned    map[string]kernel.Builder
	shutdownDur time.Duration

	handlerPanicsMu sync.Mutex
	handlerPanics   []error
}

// Run drives the full lifecycle: verification, directory materialisation,
// parallel instantiation, sink binding, start, main, the core task, and
// shutdown once the root context is cancelled (by the caller, by StopCore,
// or by a failed start). It returns the aggregated lifecycle error, if any.
func (a *Application) Run(ctx context.Context, instances []InstanceConfig, opts Options) error {
	assigned, err := a.verify(instances)
	if err != nil {
		return err
	}

	st := &runState{
		dir:         directory.New(directory.NewCoreBundle()),
		cells:       make(map[string]*kernel.Cell),
		permits:     make(map[string]*dispatch.Permit),
		panicsCh:    make(map[string]chan dispatch.PanicRecord),
		instances:   instances,
		assigned:    assigned,
		shutdownDur: opts.PluginShutdownTimeout,
	}

	// Step 3: directory materialisation.
	for _, inst := range instances {
		b := assigned[inst.Name]
		st.dir.Register(inst.Name, b.KindMessageTypes())
		st.permits[inst.Name] = dispatch.NewPermit(opts.CommunicationBufferSize)
		st.panicsCh[inst.Name] = dispatch.NewPanicChannel()
	}

	root, cancel := context.WithCancel(ctx)
	defer cancel()

	// Step 4: instantiation, in parallel.
	built := make(map[string]*kernel.BuiltPlugin, len(instances))
	var instMu sync.Mutex
	var instErrs []error
	var wg sync.WaitGroup
	for _, inst := range instances {
		inst := inst
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := assigned[inst.Name]
			view := directory.NewView(st.dir, inst.Name)
			bp, err := func() (bp *kernel.BuiltPlugin, err error) {
				defer func() {
					if r := recover(); r != nil {
						err = newErr(ErrInstantiationFailed, inst.Name, "", fmt.Sprintf("instantiate panicked: %v", r), nil)
					}
				}()
				return b.Instantiate(root, inst.Config, view)
			}()
			instMu.Lock()
			defer instMu.Unlock()
			if err != nil {
				instErrs = append(instErrs, newErr(ErrInstantiationFailed, inst.Name, "", "instantiation failed", err))
				return
			}
			built[inst.Name] = bp
		}()
	}
	wg.Wait()
	if err := joinPhase("instantiate", instErrs); err != nil {
		cancel()
		return err
	}

	// Step 5: sink binding.
	for _, inst := range instances {
		name := inst.Name
		cell := kernel.NewCell(built[name])
		st.cells[name] = cell
		rec, _ := st.dir.Lookup(name)
		var obs dispatch.EnvelopeObserver
		if m := opts.Metrics; m != nil {
			obs.OnHandled = func(plugin string) { m.EnvelopesHandled.WithLabelValues(plugin).Inc() }
			obs.OnDropped = func(plugin string) { m.EnvelopesDropped.WithLabelValues(plugin).Inc() }
			obs.OnPermitsInUse = func(plugin string, n int) { m.PermitsInUse.WithLabelValues(plugin).Set(float64(n)) }
		}
		handler := dispatch.NewHandler(name, st.permits[name], cell, st.panicsCh[name], func(p dispatch.PanicRecord) {
			a.logger.Errorw("op", "dispatch", "plugin", p.Plugin, "msg_type", p.MessageType, "panic", p.Payload)
			if m := opts.Metrics; m != nil {
				m.HandlerPanics.WithLabelValues(p.Plugin, p.MessageType).Inc()
			}
			ke := newErr(ErrHandlerPanicked, p.Plugin, p.MessageType, fmt.Sprintf("handler panicked: %s", p.Payload), nil)
			st.handlerPanicsMu.Lock()
			st.handlerPanics = append(st.handlerPanics, ke)
			st.handlerPanicsMu.Unlock()
		}, obs)
		rec.Sink.Bind(handler)
	}

	// Step 6: start.
	var startErrs []error
	for _, inst := range instances {
		name := inst.Name
		cell := st.cells[name]
		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = newErr(ErrStartPanicked, name, "", fmt.Sprintf("start panicked: %v", r), nil)
				}
			}()
			return cell.WithLock(func(bp *kernel.BuiltPlugin) error {
				return bp.Plugin.Start(root)
			})
		}()
		if err != nil {
			if ke, ok := err.(*KernelError); ok {
				startErrs = append(startErrs, ke)
			} else {
				startErrs = append(startErrs, newErr(ErrStartFailed, name, "", "start failed", err))
			}
		}
	}
	if len(startErrs) > 0 {
		cancel()
	}

	// Step 7: main, concurrently with message handling.
	var mainWg sync.WaitGroup
	var mainMu sync.Mutex
	var mainErrs []error
	for _, inst := range instances {
		name := inst.Name
		cell := st.cells[name]
		mainWg.Add(1)
		go func() {
			defer mainWg.Done()
			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = newErr(ErrMainPanicked, name, "", fmt.Sprintf("main panicked: %v", r), nil)
					}
				}()
				var bp *kernel.BuiltPlugin
				cell.WithLock(func(p *kernel.BuiltPlugin) error { bp = p; return nil })
				return bp.Plugin.Main(root)
			}()
			if err != nil {
				mainMu.Lock()
				if ke, ok := err.(*KernelError); ok {
					mainErrs = append(mainErrs, ke)
				} else {
					mainErrs = append(mainErrs, newErr(ErrMainFailed, name, "", "main failed", err))
				}
				mainMu.Unlock()
			}
		}()
	}

	// Step 8: core task.
	coreDone := make(chan struct{})
	go func() {
		defer close(coreDone)
		a.runCoreTask(root, cancel, st.dir)
	}()

	<-root.Done()
	mainWg.Wait()
	<-coreDone

	shutdownErrs := a.shutdown(st, built, opts.Metrics)

	st.handlerPanicsMu.Lock()
	handlerPanics := st.handlerPanics
	st.handlerPanicsMu.Unlock()

	var all []error
	all = append(all, startErrs...)
	all = append(all, mainErrs...)
	all = append(all, handlerPanics...)
	all = append(all, shutdownErrs...)
	return joinPhase("run", all)
}

// runCoreTask binds the core sink to a handler that cancels root on receipt
// of StopCore, then blocks until root is cancelled by any means (external
// signal, StopCore, or a failed start).
func (a *Application) runCoreTask(root context.Context, cancel context.CancelFunc, dir *directory.Directory) {
	rec := dir.CoreRecord()
	rec.Sink.Bind(func(ctx context.Context, env address.Envelope, mode address.WaitMode) (address.Envelope, error) {
		cancel()
		return address.Envelope{}, nil
	})
	<-root.Done()
}

// shutdown runs startup step-8's teardown: every plugin's Shutdown is
// invoked with a per-plugin timeout; overruns and panics are collected as
// KernelErrors rather than allowed to hang the run.
func (a *Application) shutdown(st *runState, built map[string]*kernel.BuiltPlugin, mtr *metrics.Registry) []error {
	var mu sync.Mutex
	var errs []error
	var wg sync.WaitGroup
	for name, cell := range st.cells {
		name, cell := name, cell
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := a.shutdownOne(name, cell, st.shutdownDur, mtr)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	rec := st.dir.CoreRecord()
	rec.Sink.Unbind()
	for name, cell := range st.cells {
		cell.Invalidate()
		if rec, err := st.dir.Lookup(name); err == nil {
			rec.Sink.Unbind()
		}
	}
	return errs
}

func (a *Application) shutdownOne(name string, cell *kernel.Cell, timeout time.Duration, mtr *metrics.Registry) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	start := time.Now()
	observe := func() {
		if mtr != nil {
			mtr.ShutdownDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		}
	}
	done := make(chan error, 1)
	go func() {
		done <- func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = newErr(ErrStopPanicked, name, "", fmt.Sprintf("shutdown panicked: %v", r), nil)
				}
			}()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return cell.WithLock(func(bp *kernel.BuiltPlugin) error {
				return bp.Plugin.Shutdown(shutdownCtx)
			})
		}()
	}()
	select {
	case err := <-done:
		observe()
		if err == nil {
			return nil
		}
		if ke, ok := err.(*KernelError); ok {
			return ke
		}
		return newErr(ErrStopFailed, name, "", "shutdown failed", err)
	case <-time.After(timeout):
		observe()
		e := newErr(ErrStopTimeout, name, "", "shutdown exceeded timeout", nil)
		e.Duration = timeout
		return e
	}
}
