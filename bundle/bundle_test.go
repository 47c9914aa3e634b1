package bundle

import (
	"testing"

	"github.com/go-edge/edged/message"
)

type fakeA struct{}

func (fakeA) TypeName() string { return "bundle.fakeA" }

type fakeB struct{}

func (fakeB) TypeName() string { return "bundle.fakeB" }

func TestOf1Contains(t *testing.T) {
	b := Of1[fakeA]()
	if !b.Contains(message.IdentityOf[fakeA]()) {
		t.Fatalf("Of1[fakeA]() does not contain fakeA's identity")
	}
	if b.Contains(message.IdentityOf[fakeB]()) {
		t.Fatalf("Of1[fakeA]() unexpectedly contains fakeB's identity")
	}
}

func TestOf2ContainsBoth(t *testing.T) {
	b := Of2[fakeA, fakeB]()
	if !b.Contains(message.IdentityOf[fakeA]()) || !b.Contains(message.IdentityOf[fakeB]()) {
		t.Fatalf("Of2[fakeA, fakeB]() missing a member")
	}
	if len(b.Names()) != 2 {
		t.Fatalf("expected 2 names, got %d", len(b.Names()))
	}
}

func TestWildcardContainsAnything(t *testing.T) {
	b := Wildcard()
	if !b.Contains(message.Wildcard) {
		t.Fatalf("Wildcard() bundle must contain the wildcard identity")
	}
	if b.Contains(message.IdentityOf[fakeA]()) {
		t.Fatalf("bundle.Contains checks literal identity membership, not Satisfies — a wildcard-only bundle should not contain a concrete identity")
	}
}

func TestFromIdentitiesCopiesInput(t *testing.T) {
	ids := []message.Identity{message.IdentityOf[fakeA]()}
	names := []string{"fakeA"}
	b := FromIdentities(ids, names)

	ids[0] = message.IdentityOf[fakeB]()
	if !b.Contains(message.IdentityOf[fakeA]()) {
		t.Fatalf("FromIdentities must copy its input slice, not alias it")
	}
}
