package cancel

import "testing"

func TestCancelUnknownID(t *testing.T) {
	m := NewManager()
	if m.Cancel("nope") {
		t.Error("cancelling an unknown id should return false")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	m := NewManager()
	token := NewToken()
	m.Register("msg-1", token)

	if !m.Cancel("msg-1") {
		t.Fatal("first cancel should return true")
	}
	if m.Cancel("msg-1") {
		t.Error("second cancel should return false")
	}
	if !token.Cancelled() {
		t.Error("token should observe cancellation")
	}
}

func TestProvisionalAndFinalIDShareToken(t *testing.T) {
	m := NewManager()
	token := NewToken()

	// Registered first under the provisional id, then re-registered under
	// the final message id once it is assigned.
	m.Register("provisional-1", token)
	m.Register("final-1", token)

	if !m.Cancel("provisional-1") {
		t.Fatal("cancel via provisional id failed")
	}
	if !token.Cancelled() {
		t.Error("token not cancelled")
	}
	// The same token is already cancelled regardless of which id is used.
	if m.Cancel("final-1") {
		t.Error("cancel via final id should be a no-op after provisional cancel")
	}
}

func TestCompleteReleasesAllBindings(t *testing.T) {
	m := NewManager()
	token := NewToken()
	m.Register("provisional-2", token)
	m.Register("final-2", token)

	if m.Active() != 2 {
		t.Fatalf("expected 2 bindings, got %d", m.Active())
	}

	m.Complete("final-2")

	if m.Active() != 0 {
		t.Errorf("Complete should release every binding of the token, %d remain", m.Active())
	}
	if m.Cancel("provisional-2") {
		t.Error("released id should not be cancellable")
	}
}

func TestCompleteUnknownIDIsNoOp(t *testing.T) {
	m := NewManager()
	m.Register("live", NewToken())

	m.Complete("unknown")

	if m.Active() != 1 {
		t.Error("completing an unknown id must not disturb other tokens")
	}
}

func TestIndependentGenerations(t *testing.T) {
	m := NewManager()
	a := NewToken()
	b := NewToken()
	m.Register("gen-a", a)
	m.Register("gen-b", b)

	m.Cancel("gen-a")

	if !a.Cancelled() {
		t.Error("token a should be cancelled")
	}
	if b.Cancelled() {
		t.Error("token b must be unaffected")
	}
}
