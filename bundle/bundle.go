// Package bundle models a compile-time-resolvable set of message types that a
// recipient accepts. Go has no native type-level set, so a Bundle is a small
// runtime value carrying an ordered list of message identities; ergonomic
// generic constructors (Of1..Of4) give call sites a terse, largely
// compile-checked way to build one, while FromIdentities is the fallback for
// wider or dynamically assembled bundles.
package bundle

import "github.com/go-edge/edged/message"

// Bundle is the ordered list of type identities a recipient accepts. Two
// bundles with the same identities in the same order are interchangeable for
// directory lookups; order otherwise only matters for diagnostics.
type Bundle struct {
	identities []message.Identity
	names      []string
}

// Identities returns the bundle's ordered type identities. The returned slice
// must not be mutated by callers.
func (b Bundle) Identities() []message.Identity { return b.identities }

// Names returns the human-readable type names backing each identity, in the
// same order, for diagnostics.
func (b Bundle) Names() []string { return b.names }

// Contains reports whether identity id is a member of the bundle.
func (b Bundle) Contains(id message.Identity) bool {
	for _, have := range b.identities {
		if have == id {
			return true
		}
	}
	return false
}

// FromIdentities builds a Bundle from an already-computed identity/name
// pairing. Both slices are copied, so later changes to the caller's slices
// do not affect the Bundle.
func FromIdentities(identities []message.Identity, names []string) Bundle {
	cp := make([]message.Identity, len(identities))
	copy(cp, identities)
	ncp := make([]string, len(names))
	copy(ncp, names)
	return Bundle{identities: cp, names: ncp}
}

func entry[M message.Message]() (message.Identity, string) {
	var zero M
	return message.IdentityOf[M](), zero.TypeName()
}

// Of1 builds a single-member bundle for message type M.
func Of1[M message.Message]() Bundle {
	id, name := entry[M]()
	return Bundle{identities: []message.Identity{id}, names: []string{name}}
}

// Of2 builds a two-member bundle for message types M1, M2.
func Of2[M1, M2 message.Message]() Bundle {
	id1, n1 := entry[M1]()
	id2, n2 := entry[M2]()
	return Bundle{identities: []message.Identity{id1, id2}, names: []string{n1, n2}}
}

// Of3 builds a three-member bundle for message types M1, M2, M3.
func Of3[M1, M2, M3 message.Message]() Bundle {
	id1, n1 := entry[M1]()
	id2, n2 := entry[M2]()
	id3, n3 := entry[M3]()
	return Bundle{
		identities: []message.Identity{id1, id2, id3},
		names:      []string{n1, n2, n3},
	}
}

// Of4 builds a four-member bundle for message types M1..M4.
func Of4[M1, M2, M3, M4 message.Message]() Bundle {
	id1, n1 := entry[M1]()
	id2, n2 := entry[M2]()
	id3, n3 := entry[M3]()
	id4, n4 := entry[M4]()
	return Bundle{
		identities: []message.Identity{id1, id2, id3, id4},
		names:      []string{n1, n2, n3, n4},
	}
}

// Wildcard builds a single-member bundle accepting any message.
func Wildcard() Bundle {
	return Bundle{identities: []message.Identity{message.Wildcard}, names: []string{"*"}}
}
