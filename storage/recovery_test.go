package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/duelgrid/duelgrid/domain/state"
)

func sampleRecord(code string) *RecoveryRecord {
	return &RecoveryRecord{
		GameCode: code,
		Slot:     state.SlotGuest,
		Hand: []*state.CardInstance{
			{ID: "guest-1", Def: &state.CardDefinition{Name: "Bolt", Kind: "spell"}, Owner: state.SlotGuest, SourceDeck: state.DeckSpell},
			{ID: "guest-2", Def: &state.CardDefinition{Name: "Plain", Kind: "site"}, Owner: state.SlotGuest, SourceDeck: state.DeckSite},
		},
		SpellDeck: []*state.CardInstance{
			{ID: "guest-3", Def: &state.CardDefinition{Name: "Knight", Kind: "unit"}, Owner: state.SlotGuest, SourceDeck: state.DeckSpell},
		},
	}
}

// TestSaveAndLoad round-trips a record and checks the zones come back
// intact.
func TestSaveAndLoad(t *testing.T) {
	store, err := NewRecoveryStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(sampleRecord("abc")); err != nil {
		t.Fatal(err)
	}

	rec, err := store.Load("abc")
	if err != nil {
		t.Fatal(err)
	}
	if rec.GameCode != "abc" || rec.Slot != state.SlotGuest {
		t.Errorf("unexpected identity %s/%s", rec.GameCode, rec.Slot)
	}
	if len(rec.Hand) != 2 || rec.Hand[0].ID != "guest-1" || rec.Hand[0].Def.Name != "Bolt" {
		t.Errorf("unexpected hand %v", rec.Hand)
	}
	if len(rec.SpellDeck) != 1 || rec.SpellDeck[0].SourceDeck != state.DeckSpell {
		t.Errorf("unexpected spell deck %v", rec.SpellDeck)
	}
}

// TestLoadMissingRecord checks an unknown code reports ErrNotFound.
func TestLoadMissingRecord(t *testing.T) {
	store, err := NewRecoveryStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestLoadExpiredRecord ages a record past the TTL and checks it is
// refused and removed.
func TestLoadExpiredRecord(t *testing.T) {
	store, err := NewRecoveryStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(sampleRecord("abc")); err != nil {
		t.Fatal(err)
	}

	store.SetClock(func() time.Time { return time.Now().Add(RecoveryTTL + time.Minute) })
	if _, err := store.Load("abc"); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}

	// The stale file is gone, so a second load misses entirely.
	store.SetClock(time.Now)
	if _, err := store.Load("abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after expiry cleanup, got %v", err)
	}
}

// TestSaveOverwrites saves twice for one code and checks the later record
// wins.
func TestSaveOverwrites(t *testing.T) {
	store, err := NewRecoveryStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(sampleRecord("abc")); err != nil {
		t.Fatal(err)
	}
	later := sampleRecord("abc")
	later.Hand = later.Hand[:1]
	if err := store.Save(later); err != nil {
		t.Fatal(err)
	}

	rec, err := store.Load("abc")
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Hand) != 1 {
		t.Errorf("expected overwritten hand of 1, got %d", len(rec.Hand))
	}
}
