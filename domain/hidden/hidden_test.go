package hidden

import (
	"testing"

	"github.com/duelgrid/duelgrid/domain/state"
)

// TestPlaceholderDeckCounts synthesizes decks for an imported-deck
// announcement and checks counts and opacity.
func TestPlaceholderDeckCounts(t *testing.T) {
	sites := PlaceholderDeck(state.SlotGuest, state.DeckSite, 10)
	spells := PlaceholderDeck(state.SlotGuest, state.DeckSpell, 15)

	if len(sites) != 10 || len(spells) != 15 {
		t.Fatalf("expected 10 and 15 placeholders, got %d and %d", len(sites), len(spells))
	}
	for _, c := range append(sites, spells...) {
		if c.Def != nil {
			t.Errorf("placeholder %s carries real card data", c.ID)
		}
		if c.Owner != state.SlotGuest {
			t.Errorf("placeholder %s owned by %q, want guest", c.ID, c.Owner)
		}
		if !IsPlaceholder(c) {
			t.Errorf("card %s not recognized as placeholder", c.ID)
		}
	}
}

// TestRemoveFungible removes any placeholder with the matching source deck
// from the hand and keeps the count correct.
func TestRemoveFungible(t *testing.T) {
	g := state.NewGame()
	p := g.Players[state.SlotGuest]
	p.Hand = []*state.CardInstance{
		NewPlaceholder(state.SlotGuest, state.DeckSite, 0),
		NewPlaceholder(state.SlotGuest, state.DeckSpell, 1),
	}

	removed := RemoveFungible(g, state.SlotGuest, state.DeckSpell)

	if removed == nil || removed.SourceDeck != state.DeckSpell {
		t.Fatalf("expected a spell placeholder removed, got %v", removed)
	}
	if len(p.Hand) != 1 {
		t.Errorf("expected 1 card left in hand, got %d", len(p.Hand))
	}
	if p.Hand[0].SourceDeck != state.DeckSite {
		t.Errorf("wrong placeholder removed, %q left", p.Hand[0].SourceDeck)
	}
}

// TestRemoveFungibleFallsBackToDeck takes from the deck itself when the
// hand holds no match.
func TestRemoveFungibleFallsBackToDeck(t *testing.T) {
	g := state.NewGame()
	p := g.Players[state.SlotGuest]
	p.SiteDeck = PlaceholderDeck(state.SlotGuest, state.DeckSite, 3)

	if removed := RemoveFungible(g, state.SlotGuest, state.DeckSite); removed == nil {
		t.Fatal("expected a placeholder removed from the deck")
	}
	if len(p.SiteDeck) != 2 {
		t.Errorf("expected 2 cards left in deck, got %d", len(p.SiteDeck))
	}
}

// TestRemoveFungibleNoMatch returns nil when the slot holds no matching
// placeholder.
func TestRemoveFungibleNoMatch(t *testing.T) {
	g := state.NewGame()
	if removed := RemoveFungible(g, state.SlotHost, state.DeckSpell); removed != nil {
		t.Errorf("expected nil, got %v", removed)
	}
}

// TestCensorSnapshotHidesPrivateZones censors a snapshot and checks both
// sides' hands and decks are opaque but countwise correct, while
// graveyards pass through.
func TestCensorSnapshotHidesPrivateZones(t *testing.T) {
	g := state.NewGame()
	def := &state.CardDefinition{Name: "Bolt", Kind: "spell"}
	host := g.Players[state.SlotHost]
	host.Hand = []*state.CardInstance{
		{ID: "host-1", Def: def, Owner: state.SlotHost, SourceDeck: state.DeckSpell},
		{ID: "host-2", Def: def, Owner: state.SlotHost, SourceDeck: state.DeckSite},
	}
	host.SpellDeck = []*state.CardInstance{{ID: "host-3", Def: def, Owner: state.SlotHost}}
	host.Graveyard = []*state.CardInstance{{ID: "host-4", Def: def, Owner: state.SlotHost}}

	CensorSnapshot(g)

	if len(host.Hand) != 2 {
		t.Fatalf("expected hand count preserved, got %d", len(host.Hand))
	}
	for _, c := range host.Hand {
		if !IsPlaceholder(c) {
			t.Errorf("hand card %s not censored", c.ID)
		}
	}
	if host.Hand[0].SourceDeck != state.DeckSpell || host.Hand[1].SourceDeck != state.DeckSite {
		t.Error("expected source-deck tags preserved for card backs")
	}
	if len(host.SpellDeck) != 1 || !IsPlaceholder(host.SpellDeck[0]) {
		t.Error("expected spell deck censored")
	}
	if len(host.Graveyard) != 1 || host.Graveyard[0].ID != "host-4" {
		t.Error("expected graveyard untouched")
	}
}
