package directory

import (
	"github.com/go-edge/edged/address"
	"github.com/go-edge/edged/bundle"
)

// View is a per-plugin wrapper over the directory carrying the plugin's own
// name, so self-address lookups need no argument. It is the only thing a
// plugin's Builder.Instantiate receives in place of the raw Directory.
type View struct {
	dir  *Directory
	self string
}

// NewView returns a directory view scoped to self.
func NewView(dir *Directory, self string) *View {
	return &View{dir: dir, self: self}
}

// Self returns the name this view is scoped to.
func (v *View) Self() string { return v.self }

// GetAddressFor looks up name and type-checks requested against its
// declared accepted types.
func GetAddressFor[B any](v *View, name string, requested bundle.Bundle) (address.Address[B], error) {
	return GetAddressForNamed[B](v.dir, name, requested)
}

// GetAddressForNamed is the free-function form that takes a *Directory
// directly instead of a View.
func GetAddressForNamed[B any](dir *Directory, name string, requested bundle.Bundle) (address.Address[B], error) {
	return getAddressFor[B](dir, name, requested)
}

// GetAddressForSelf is equivalent to GetAddressFor(v, v.Self(), requested).
func GetAddressForSelf[B any](v *View, requested bundle.Bundle) (address.Address[B], error) {
	return getAddressFor[B](v.dir, v.self, requested)
}

// GetAddressForCore returns an address bound to the fixed core sink.
func (v *View) GetAddressForCore() address.Address[CoreBundle] {
	return GetAddressForCore(v.dir)
}
