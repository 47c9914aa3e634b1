// Package lifecycle implements the deterministic startup and shutdown
// orchestration described by the kernel: registration, configuration
// verification, directory materialisation, parallel instantiation, sink
// binding, start, main, a dedicated core task, and graceful shutdown with
// per-plugin timeouts.
package lifecycle

import (
	"fmt"
	"time"
)

// ErrorCode tags a KernelError with a stable, machine-comparable kind.
type ErrorCode string

const (
	ErrDuplicateKind       ErrorCode = "duplicate_kind"
	ErrConfigUnreadable    ErrorCode = "config_unreadable"
	ErrConfigUnparseable   ErrorCode = "config_unparseable"
	ErrPluginNotFound      ErrorCode = "plugin_not_found"
	ErrPluginDoesNotSupport ErrorCode = "plugin_does_not_support"
	ErrVerificationFailed  ErrorCode = "verification_failed"
	ErrUnknownKind         ErrorCode = "unknown_kind"
	ErrInstantiationFailed ErrorCode = "instantiation_failed"
	ErrKindNotFound        ErrorCode = "kind_not_found"
	ErrStartPanicked       ErrorCode = "start_panicked"
	ErrStartFailed         ErrorCode = "start_failed"
	ErrMainPanicked        ErrorCode = "main_panicked"
	ErrMainFailed          ErrorCode = "main_failed"
	ErrHandlerPanicked     ErrorCode = "handler_panicked"
	ErrHandlerFailed       ErrorCode = "handler_failed"
	ErrStopPanicked        ErrorCode = "stop_panicked"
	ErrStopTimeout         ErrorCode = "stop_timeout"
	ErrStopFailed          ErrorCode = "stop_failed"
)

// KernelError is the kernel's single error shape: a stable code, an
// optional plugin name and message type name, a human message, an optional
// wrapped cause, and a timestamp. Plugin-authored errors are wrapped
// verbatim as Cause rather than reformatted.
type KernelError struct {
	Code        ErrorCode
	Plugin      string
	MessageType string
	Message     string
	Cause       error
	At          time.Time
	Duration    time.Duration // populated for ErrStopTimeout
}

func (e *KernelError) Error() string {
	s := fmt.Sprintf("[%s]", e.Code)
	if e.Plugin != "" {
		s += fmt.Sprintf(" plugin=%s", e.Plugin)
	}
	if e.MessageType != "" {
		s += fmt.Sprintf(" type=%s", e.MessageType)
	}
	if e.Duration > 0 {
		s += fmt.Sprintf(" after=%s", e.Duration)
	}
	s += ": " + e.Message
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *KernelError) Unwrap() error { return e.Cause }

// newErr builds a KernelError stamped with the current time.
func newErr(code ErrorCode, plugin, msgType, msg string, cause error) *KernelError {
	return &KernelError{
		Code:        code,
		Plugin:      plugin,
		MessageType: msgType,
		Message:     msg,
		Cause:       cause,
		At:          time.Now(),
	}
}

// MultiError aggregates the errors collected during one lifecycle phase. It
// implements Unwrap() []error so errors.Is/errors.As traverse into
// individual plugin failures, matching stdlib errors.Join semantics.
type MultiError struct {
	Phase string
	Errs  []error
}

func (m *MultiError) Error() string {
	s := fmt.Sprintf("lifecycle: %s: %d error(s)", m.Phase, len(m.Errs))
	for _, e := range m.Errs {
		s += "\n  - " + e.Error()
	}
	return s
}

func (m *MultiError) Unwrap() []error { return m.Errs }

// joinPhase returns nil if errs is empty (after filtering nils), and a
// MultiError holding every non-nil error otherwise, so phase-level
// callers always get a consistently typed result to inspect.
func joinPhase(phase string, errs []error) error {
	var filtered []error
	for _, e := range errs {
		if e != nil {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return &MultiError{Phase: phase, Errs: filtered}
}
