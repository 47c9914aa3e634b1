// Package directory implements the address book mapping plugin name to
// plugin instance record, plus the fixed core sink. It is the only place
// that is allowed to construct an address.Address, because only it knows how
// to check a requested bundle against a recipient's declared accepted types.
package directory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-edge/edged/address"
	"github.com/go-edge/edged/bundle"
	"github.com/go-edge/edged/message"
)

// Record is a plugin instance record: its declared accepted-type identities
// and the shared sink cell the kernel binds during startup.
type Record struct {
	Name          string
	AcceptedTypes bundle.Bundle
	Sink          *address.SinkCell
}

// DoesNotSupportError is returned by a typed lookup when the recipient's
// declared accepted types do not cover every type identity in the requested
// bundle. It names exactly the uncovered types.
type DoesNotSupportError struct {
	Plugin  string
	Missing []string
}

func (e *DoesNotSupportError) Error() string {
	return fmt.Sprintf("directory: plugin %q does not support type(s): %v", e.Plugin, e.Missing)
}

// NotFoundError is returned when a lookup names a plugin that has no record
// in the directory.
type NotFoundError struct {
	Plugin string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("directory: plugin %q not found", e.Plugin)
}

// CoreBundle is the fixed bundle of message types the core task's sink
// accepts, currently containing only the StopCore control message.
type CoreBundle struct{}

// Directory maps plugin name to its instance record, plus the dedicated core
// sink. It is built once at startup and its name set is immutable
// thereafter; only the sink cells inside change state.
type Directory struct {
	mu      sync.RWMutex
	records map[string]*Record
	core    *Record
}

// New returns an empty directory with its core sink already allocated.
func New(coreBundle bundle.Bundle) *Directory {
	return &Directory{
		records: make(map[string]*Record),
		core: &Record{
			Name:          "core",
			AcceptedTypes: coreBundle,
			Sink:          address.NewSinkCell(),
		},
	}
}

// Register adds a plugin instance record. Called once per configured
// instance during directory materialisation; it is a kernel bug to call it
// twice for the same name, and Register panics in that case since it would
// indicate a broken lifecycle implementation rather than a user error (the
// configuration layer is responsible for rejecting duplicate instance
// names before this point).
func (d *Directory) Register(name string, accepted bundle.Bundle) *Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.records[name]; exists {
		panic(fmt.Sprintf("directory: duplicate instance name %q", name))
	}
	rec := &Record{Name: name, AcceptedTypes: accepted, Sink: address.NewSinkCell()}
	d.records[name] = rec
	return rec
}

// Lookup returns the record for name, or NotFoundError.
func (d *Directory) Lookup(name string) (*Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rec, ok := d.records[name]
	if !ok {
		return nil, &NotFoundError{Plugin: name}
	}
	return rec, nil
}

// Names returns every registered instance name, sorted for deterministic
// iteration.
func (d *Directory) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.records))
	for n := range d.records {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// getAddressFor type-checks requested against name's declared accepted types
// and, if every requested identity is satisfies-covered, returns a typed
// address bound to name's sink. B is a phantom marker distinguishing the
// returned Address's static type; requested is the runtime bundle value the
// check and the returned address are built from. Exported call sites go
// through View (GetAddressFor/GetAddressForSelf) or GetAddressForNamed.
func getAddressFor[B any](d *Directory, name string, requested bundle.Bundle) (address.Address[B], error) {
	rec, err := d.Lookup(name)
	if err != nil {
		return address.Address[B]{}, err
	}
	if missing := uncovered(rec.AcceptedTypes, requested); len(missing) > 0 {
		return address.Address[B]{}, &DoesNotSupportError{Plugin: name, Missing: missing}
	}
	return address.New[B](requested, rec.Sink, name), nil
}

// GetAddressForCore returns an address bound to the fixed core sink.
func GetAddressForCore(d *Directory) address.Address[CoreBundle] {
	return address.New[CoreBundle](d.core.AcceptedTypes, d.core.Sink, "core")
}

// CoreRecord exposes the core record for the lifecycle package, which alone
// is responsible for binding the core sink's handler.
func (d *Directory) CoreRecord() *Record { return d.core }

// uncovered returns the human-readable names of every identity in requested
// that is not satisfies-covered by at least one of accepted's identities.
func uncovered(accepted, requested bundle.Bundle) []string {
	var missing []string
	acceptedIDs := accepted.Identities()
	reqIDs := requested.Identities()
	reqNames := requested.Names()
	for i, req := range reqIDs {
		covered := false
		for _, have := range acceptedIDs {
			if message.Satisfies(have, req) {
				covered = true
				break
			}
		}
		if !covered {
			missing = append(missing, reqNames[i])
		}
	}
	return missing
}
