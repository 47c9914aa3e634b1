// Package message defines the content-addressed type identity every message
// shape in the kernel carries, and the wildcard satisfaction relation used to
// compare what a plugin accepts against what a caller requires.
package message

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Identity is a 128-bit, content-addressed identifier for a message shape.
// Two identities are equal iff they were derived from the same type name (and,
// for composite types, the same ordered type-parameter identities).
type Identity struct {
	hi uint64
	lo uint64
}

// Wildcard is the designated "any message" identity. No concrete message type
// ever derives to this value.
var Wildcard = Identity{hi: 0, lo: 0}

// String renders the identity as a fixed-width hex string, handy in logs and
// error messages.
func (id Identity) String() string {
	if id == Wildcard {
		return "wildcard"
	}
	return fmt.Sprintf("%016x%016x", id.hi, id.lo)
}

// IsWildcard reports whether id is the designated wildcard identity.
func (id Identity) IsWildcard() bool { return id == Wildcard }

func identityFromName(name string) Identity {
	sum := sha256.Sum256([]byte(name))
	return Identity{
		hi: binary.BigEndian.Uint64(sum[0:8]),
		lo: binary.BigEndian.Uint64(sum[8:16]),
	}
}

// combine derives a new identity from a generic's own identity and the
// ordered identities of its type parameters. The derivation is order
// sensitive: combine(g, [a, b]) != combine(g, [b, a]).
func combine(generic Identity, params ...Identity) Identity {
	h := sha256.New()
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], generic.hi)
	binary.BigEndian.PutUint64(buf[8:16], generic.lo)
	h.Write(buf[:])
	for _, p := range params {
		binary.BigEndian.PutUint64(buf[0:8], p.hi)
		binary.BigEndian.PutUint64(buf[8:16], p.lo)
		h.Write(buf[:])
	}
	sum := h.Sum(nil)
	return Identity{
		hi: binary.BigEndian.Uint64(sum[0:8]),
		lo: binary.BigEndian.Uint64(sum[8:16]),
	}
}

// Message is implemented by every concrete message type. TypeName returns a
// stable, human-readable name used both for diagnostics and as the seed of
// the type's identity; it must be unique per message shape in the process.
type Message interface {
	TypeName() string
}

// Typed is implemented by message types that declare a static reply type R.
// Reply is never invoked; it exists purely so generic call sites (see
// package address) can infer R from M at compile time.
type Typed[R any] interface {
	Message
	Reply() R
}

// NoReply is the declared reply type of messages that carry no reply, such as
// control messages.
type NoReply struct{}

// IdentityOf returns the stable identity for message type M, derived from the
// zero value's TypeName. M must be safe to use as a zero value for this
// purpose; every message type in this codebase is a plain struct, so the
// zero value is always valid.
func IdentityOf[M Message]() Identity {
	var zero M
	return identityFromName(zero.TypeName())
}

// CompositeIdentity derives the identity for a generic message type from the
// generic's own base name and the identities of its type parameters, in
// declaration order. IdentityOf and IdentityOfValue do not use it: they
// always hash the TypeName string, so a message is dispatched and
// type-checked under the hash of its TypeName, never under this value.
func CompositeIdentity(genericName string, params ...Identity) Identity {
	return combine(identityFromName(genericName), params...)
}

// IdentityOfValue derives the identity of a dynamically typed message value,
// for call sites that only hold a
// message.Message interface value rather than a concrete type parameter.
func IdentityOfValue(m Message) Identity {
	return identityFromName(m.TypeName())
}

// Satisfies implements the asymmetric satisfaction relation: true iff
// required is the wildcard, or provided equals required exactly. It is
// reflexive (Satisfies(T, T) is true for non-wildcard T) but not symmetric:
// a wildcard provided value never satisfies a specific requirement.
func Satisfies(required, provided Identity) bool {
	if required.IsWildcard() {
		return true
	}
	return required == provided
}
