package network

import (
	"testing"
)

// TestLifecycleHappyPath walks the host path from disconnected to
// connected and back.
func TestLifecycleHappyPath(t *testing.T) {
	tr := NewTracker()
	for _, next := range []Status{StatusInitializing, StatusWaiting, StatusConnected, StatusDisconnected} {
		if err := tr.Transition(next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
	if tr.DisconnectedAt().IsZero() {
		t.Error("expected disconnect timestamp recorded")
	}
}

// TestLifecycleRejectsIllegalJump checks waiting cannot be entered from
// connected.
func TestLifecycleRejectsIllegalJump(t *testing.T) {
	tr := NewTracker()
	tr.Transition(StatusInitializing)
	tr.Transition(StatusConnecting)
	tr.Transition(StatusConnected)

	if err := tr.Transition(StatusWaiting); err == nil {
		t.Error("expected connected -> waiting to be rejected")
	}
	if tr.Status() != StatusConnected {
		t.Errorf("expected status unchanged, got %s", tr.Status())
	}
}

// TestErrorIsTerminalForAttempt checks error only leads back to a fresh
// initializing.
func TestErrorIsTerminalForAttempt(t *testing.T) {
	tr := NewTracker()
	tr.Transition(StatusInitializing)
	tr.Transition(StatusError)

	if err := tr.Transition(StatusConnected); err == nil {
		t.Error("expected error -> connected to be rejected")
	}
	if err := tr.Transition(StatusInitializing); err != nil {
		t.Errorf("expected a fresh attempt allowed, got %v", err)
	}
}

// TestReconnectWithoutFullHandshake checks the direct disconnected ->
// connected edge used by a successful re-handshake.
func TestReconnectWithoutFullHandshake(t *testing.T) {
	tr := NewTracker()
	if err := tr.Transition(StatusConnected); err != nil {
		t.Fatalf("expected disconnected -> connected allowed, got %v", err)
	}
}

// TestWatchDeliversTransitions subscribes before a handshake and checks
// every step arrives in order.
func TestWatchDeliversTransitions(t *testing.T) {
	tr := NewTracker()
	ch := tr.Watch()
	steps := []Status{StatusInitializing, StatusWaiting, StatusConnected}
	for _, next := range steps {
		if err := tr.Transition(next); err != nil {
			t.Fatal(err)
		}
	}
	for _, want := range steps {
		if got := <-ch; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}
