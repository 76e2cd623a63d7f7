package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/duelgrid/duelgrid/communication"
	"github.com/duelgrid/duelgrid/domain/hidden"
	"github.com/duelgrid/duelgrid/domain/state"
	"github.com/duelgrid/duelgrid/storage"
)

type fakeTransport struct {
	mu   sync.Mutex
	sent []communication.Message
	in   chan communication.Message
	done chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:   make(chan communication.Message, 16),
		done: make(chan struct{}),
	}
}

func (f *fakeTransport) Send(m communication.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeTransport) Receive() <-chan communication.Message { return f.in }
func (f *fakeTransport) Done() <-chan struct{}                 { return f.done }

func (f *fakeTransport) outbox() []communication.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]communication.Message(nil), f.sent...)
}

func hostOrchestrator(t *testing.T, tr *fakeTransport) *GameOrchestrator {
	t.Helper()
	return NewGameOrchestrator(Config{
		Slot:      state.SlotHost,
		GameCode:  "g-1",
		Nickname:  "alice",
		Store:     state.NewStore(nil),
		Transport: tr,
	})
}

// TestHostAnswersHello checks a hello gets a game_start back and no full
// sync when the match has not progressed.
func TestHostAnswersHello(t *testing.T) {
	tr := newFakeTransport()
	o := hostOrchestrator(t, tr)

	o.handle(communication.Message{
		Type:  communication.MsgHello,
		Hello: &communication.Hello{Nickname: "bob", PeerID: "p1"},
	})

	sent := tr.outbox()
	if len(sent) != 1 || sent[0].Type != communication.MsgGameStart {
		t.Fatalf("expected exactly a game_start, got %v", sent)
	}
	if sent[0].GameStart.Nickname != "alice" {
		t.Errorf("expected host nickname in game_start, got %q", sent[0].GameStart.Nickname)
	}
	if got := o.store.Player(state.SlotGuest).Nickname; got != "bob" {
		t.Errorf("expected guest nickname recorded, got %q", got)
	}
}

// TestHostPushesFullSyncOnRejoin gives the host progress and checks the
// hello triggers a censored proactive snapshot.
func TestHostPushesFullSyncOnRejoin(t *testing.T) {
	tr := newFakeTransport()
	o := hostOrchestrator(t, tr)
	o.store.StartTurn(state.SlotHost)
	o.store.Player(state.SlotHost).Hand = []*state.CardInstance{
		{ID: "host-1", Def: &state.CardDefinition{Name: "Bolt", Kind: "spell"}, Owner: state.SlotHost},
	}

	o.handle(communication.Message{
		Type:  communication.MsgHello,
		Hello: &communication.Hello{Nickname: "bob", PeerID: "p1"},
	})

	sent := tr.outbox()
	if len(sent) != 2 || sent[1].Type != communication.MsgFullSync {
		t.Fatalf("expected game_start then full_sync, got %v", sent)
	}
	snap := sent[1].FullSync.State
	if snap.Turn != 1 {
		t.Errorf("expected snapshot turn 1, got %d", snap.Turn)
	}
	hand := snap.Players[state.SlotHost].Hand
	if len(hand) != 1 || !hidden.IsPlaceholder(hand[0]) {
		t.Errorf("expected the host hand censored in the snapshot, got %v", hand)
	}
}

// TestHostRejectsFullSync sends a snapshot at the host and checks the
// authoritative copy stays untouched.
func TestHostRejectsFullSync(t *testing.T) {
	tr := newFakeTransport()
	o := hostOrchestrator(t, tr)

	bogus := state.NewGame()
	bogus.Turn = 40
	o.handle(communication.Message{
		Type:     communication.MsgFullSync,
		FullSync: &communication.FullSync{State: bogus},
	})

	if o.store.Game().Turn != 0 {
		t.Errorf("expected host state untouched, got turn %d", o.store.Game().Turn)
	}
}

// TestGuestRestoresFromRecoveryRecord reloads a guest with an empty
// in-memory hand and checks the persisted record wins over the host's
// placeholders.
func TestGuestRestoresFromRecoveryRecord(t *testing.T) {
	recovery, err := storage.NewRecoveryStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := recovery.Save(&storage.RecoveryRecord{
		GameCode: "g-1",
		Slot:     state.SlotGuest,
		Hand: []*state.CardInstance{
			{ID: "guest-1", Def: &state.CardDefinition{Name: "Bolt", Kind: "spell"}, Owner: state.SlotGuest},
			{ID: "guest-2", Def: &state.CardDefinition{Name: "Knight", Kind: "unit"}, Owner: state.SlotGuest},
			{ID: "guest-3", Def: &state.CardDefinition{Name: "Plain", Kind: "site"}, Owner: state.SlotGuest},
		},
	}); err != nil {
		t.Fatal(err)
	}
	tr := newFakeTransport()
	o := NewGameOrchestrator(Config{
		Slot:      state.SlotGuest,
		GameCode:  "g-1",
		Nickname:  "bob",
		Store:     state.NewStore(nil),
		Transport: tr,
		Recovery:  recovery,
	})

	snap := state.NewGame()
	snap.Turn = 6
	snap.Players[state.SlotGuest].Hand = hidden.PlaceholderDeck(state.SlotGuest, state.DeckSpell, 3)
	o.handle(communication.Message{
		Type:     communication.MsgFullSync,
		FullSync: &communication.FullSync{State: snap, Sequence: 9},
	})

	game := o.store.Game()
	if game.Turn != 6 {
		t.Errorf("expected public state from snapshot, got turn %d", game.Turn)
	}
	hand := game.Players[state.SlotGuest].Hand
	if len(hand) != 3 {
		t.Fatalf("expected 3 restored cards, got %d", len(hand))
	}
	for i, want := range []string{"guest-1", "guest-2", "guest-3"} {
		if hand[i].ID != want {
			t.Errorf("card %d: expected %s, got %s", i, want, hand[i].ID)
		}
	}
}

// TestRemoteActionIsAppliedAndAcked routes an action message and checks
// the mutation lands and the ack goes back.
func TestRemoteActionIsAppliedAndAcked(t *testing.T) {
	tr := newFakeTransport()
	o := hostOrchestrator(t, tr)

	act, err := communication.NewAction(communication.ActionAdjustLife,
		communication.AdjustLifePayload{Player: state.SlotGuest, Delta: -4})
	if err != nil {
		t.Fatal(err)
	}
	o.handle(communication.Message{
		Type:   communication.MsgAction,
		Action: &communication.ActionEnvelope{Action: act, Sequence: 5},
	})

	if got := o.store.Player(state.SlotGuest).Life; got != state.StartingLife-4 {
		t.Errorf("expected life %d, got %d", state.StartingLife-4, got)
	}
	sent := tr.outbox()
	if len(sent) != 1 || sent[0].Type != communication.MsgAck || sent[0].Ack.Sequence != 5 {
		t.Errorf("expected ack for sequence 5, got %v", sent)
	}
}

// TestEndTurnStartsOwnTurn checks the peer's end_turn begins this side's
// turn and broadcasts the start.
func TestEndTurnStartsOwnTurn(t *testing.T) {
	tr := newFakeTransport()
	o := hostOrchestrator(t, tr)

	o.handle(communication.Message{Type: communication.MsgEndTurn})

	if o.store.Game().Turn != 1 || !o.store.Game().TurnStarted {
		t.Errorf("expected own turn started, got turn %d", o.store.Game().Turn)
	}
	sent := tr.outbox()
	if len(sent) != 1 || sent[0].Type != communication.MsgAction ||
		sent[0].Action.Action.Name != communication.ActionStartTurn {
		t.Errorf("expected a startTurn broadcast, got %v", sent)
	}
}

// TestPresentationTrafficForwarded checks chat lands on the events
// channel untouched.
func TestPresentationTrafficForwarded(t *testing.T) {
	tr := newFakeTransport()
	o := hostOrchestrator(t, tr)

	o.handle(communication.Message{
		Type: communication.MsgChat,
		Chat: &communication.Chat{Message: "gg", Timestamp: 1},
	})

	select {
	case msg := <-o.Events():
		if msg.Type != communication.MsgChat || msg.Chat.Message != "gg" {
			t.Errorf("unexpected event %v", msg)
		}
	default:
		t.Fatal("expected a forwarded chat event")
	}
}

// TestGuestOpensWithHello runs the loop briefly and checks the hello goes
// out before anything else.
func TestGuestOpensWithHello(t *testing.T) {
	tr := newFakeTransport()
	o := NewGameOrchestrator(Config{
		Slot:      state.SlotGuest,
		GameCode:  "g-1",
		Nickname:  "bob",
		Store:     state.NewStore(nil),
		Transport: tr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- o.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(tr.outbox()) == 0 {
		select {
		case <-deadline:
			t.Fatal("hello never sent")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	cancel()
	<-errCh

	sent := tr.outbox()
	if sent[0].Type != communication.MsgHello || sent[0].Hello.Nickname != "bob" {
		t.Errorf("expected opening hello, got %v", sent[0])
	}
}
