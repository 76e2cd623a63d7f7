package state

import (
	"testing"
	"time"
)

func sitesOf(s *Store, n int, owner Slot, th Thresholds) []*CardInstance {
	cards := make([]*CardInstance, n)
	for i := range cards {
		cards[i] = s.NewCard(owner, &CardDefinition{Name: "Plains", Kind: "site", Thresholds: th}, "")
	}
	return cards
}

func unitsOf(s *Store, n int, owner Slot) []*CardInstance {
	cards := make([]*CardInstance, n)
	for i := range cards {
		cards[i] = s.NewCard(owner, &CardDefinition{Name: "Squire", Kind: "unit"}, "")
	}
	return cards
}

// TestPlaceSiteGrantsManaAndThresholds checks the site placement scenario:
// placing a site with an air threshold raises the owner's mana, mana total
// and air threshold together.
func TestPlaceSiteGrantsManaAndThresholds(t *testing.T) {
	s := NewStore(nil)
	site := sitesOf(s, 1, SlotHost, Thresholds{Air: 1})[0]
	s.Materialize(site)

	s.PlaceOnSite(site.ID, 1, 2)

	if got := s.Game().Board[1][2].SiteCard; got == nil || got.ID != site.ID {
		t.Fatalf("expected site card at (1,2), got %v", got)
	}
	p := s.Player(SlotHost)
	if p.Mana != 1 || p.ManaTotal != 1 {
		t.Errorf("expected mana 1/1, got %d/%d", p.Mana, p.ManaTotal)
	}
	if p.Thresholds.Air != 1 {
		t.Errorf("expected air threshold 1, got %d", p.Thresholds.Air)
	}
}

// TestPlaceUnitJoinsStackTop verifies units stack front-first on a site.
func TestPlaceUnitJoinsStackTop(t *testing.T) {
	s := NewStore(nil)
	units := unitsOf(s, 2, SlotGuest)
	for _, u := range units {
		s.Materialize(u)
		s.PlaceOnSite(u.ID, 0, 0)
	}
	stack := s.Game().Board[0][0].Units
	if len(stack) != 2 {
		t.Fatalf("expected 2 units, got %d", len(stack))
	}
	if stack[0].ID != units[1].ID {
		t.Errorf("expected last placed unit on top, got %s", stack[0].ID)
	}
}

// TestSingleResidency checks that placing a card somewhere new removes it
// from where it was.
func TestSingleResidency(t *testing.T) {
	s := NewStore(nil)
	u := unitsOf(s, 1, SlotHost)[0]
	s.Materialize(u)

	s.PlaceOnSite(u.ID, 0, 0)
	s.PlaceOnVertex(u.ID, VertexKey{Row: 1, Col: 1})
	s.MoveCard(u.ID, SlotHost, ZoneGraveyard, false)

	locations := 0
	if len(s.Game().Board[0][0].Units) > 0 {
		locations++
	}
	if len(s.Game().Vertices[VertexKey{Row: 1, Col: 1}]) > 0 {
		locations++
	}
	if len(s.Player(SlotHost).Graveyard) > 0 {
		locations++
	}
	if locations != 1 {
		t.Errorf("expected card in exactly 1 location, found it in %d", locations)
	}
}

// TestAttachRemovesFromPreviousLocation checks the attach relocation
// search: a token in a hand is pulled out of the hand when attached, and
// re-attaching moves it between hosts.
func TestAttachRemovesFromPreviousLocation(t *testing.T) {
	s := NewStore(nil)
	host1 := unitsOf(s, 1, SlotHost)[0]
	host2 := unitsOf(s, 1, SlotHost)[0]
	token := s.NewCard(SlotHost, &CardDefinition{Name: "Shield", Kind: "token"}, "")
	s.Materialize(host1)
	s.Materialize(host2)
	s.PlaceOnSite(host1.ID, 0, 0)
	s.PlaceOnSite(host2.ID, 0, 1)
	s.Player(SlotHost).Hand = append(s.Player(SlotHost).Hand, token)

	s.AttachToken(token.ID, host1.ID)
	if len(s.Player(SlotHost).Hand) != 0 {
		t.Errorf("expected token removed from hand, %d cards left", len(s.Player(SlotHost).Hand))
	}
	if len(host1.Attached) != 1 {
		t.Fatalf("expected 1 attachment on first host, got %d", len(host1.Attached))
	}

	s.AttachToken(token.ID, host2.ID)
	if len(host1.Attached) != 0 {
		t.Errorf("expected token removed from first host, %d left", len(host1.Attached))
	}
	if len(host2.Attached) != 1 {
		t.Errorf("expected 1 attachment on second host, got %d", len(host2.Attached))
	}
}

// TestAttachUnknownTokenIsNoop checks that attaching an id nobody holds
// changes nothing.
func TestAttachUnknownTokenIsNoop(t *testing.T) {
	s := NewStore(nil)
	host := unitsOf(s, 1, SlotHost)[0]
	s.Materialize(host)
	s.PlaceOnSite(host.ID, 0, 0)

	s.AttachToken("guest-99", host.ID)

	if len(host.Attached) != 0 {
		t.Errorf("expected no attachments, got %d", len(host.Attached))
	}
}

// TestDetachToken checks the token lands on the named board cell.
func TestDetachToken(t *testing.T) {
	s := NewStore(nil)
	host := unitsOf(s, 1, SlotHost)[0]
	token := s.NewCard(SlotHost, &CardDefinition{Name: "Shield", Kind: "token"}, "")
	s.Materialize(host)
	s.Materialize(token)
	s.PlaceOnSite(host.ID, 0, 0)
	s.AttachToken(token.ID, host.ID)

	s.DetachToken(token.ID, host.ID, 2, 3)

	if len(host.Attached) != 0 {
		t.Errorf("expected no attachments left, got %d", len(host.Attached))
	}
	units := s.Game().Board[2][3].Units
	if len(units) != 1 || units[0].ID != token.ID {
		t.Errorf("expected token at (2,3), got %v", units)
	}
}

// TestCounterZeroCollapse repeats adjustments until the running total hits
// zero and checks the counter collapses instead of sticking at zero.
func TestCounterZeroCollapse(t *testing.T) {
	s := NewStore(nil)
	u := unitsOf(s, 1, SlotHost)[0]
	s.Materialize(u)

	s.AdjustCounter(u.ID, 3)
	if u.Counter != 3 {
		t.Fatalf("expected counter 3, got %d", u.Counter)
	}
	s.AdjustCounter(u.ID, -1)
	s.AdjustCounter(u.ID, -5)
	if u.Counter != 0 {
		t.Errorf("expected counter collapsed to zero value, got %d", u.Counter)
	}
}

// TestRotateCardRejectsIllegalValues checks only 0 and 90 are accepted.
func TestRotateCardRejectsIllegalValues(t *testing.T) {
	s := NewStore(nil)
	u := unitsOf(s, 1, SlotHost)[0]
	s.Materialize(u)

	s.RotateCard(u.ID, Tapped)
	if u.Rotation != Tapped {
		t.Fatalf("expected rotation 90, got %d", u.Rotation)
	}
	s.RotateCard(u.ID, 180)
	if u.Rotation != Tapped {
		t.Errorf("expected illegal rotation discarded, got %d", u.Rotation)
	}
}

// TestStartTurnUntapsOwnedCardsOnly sweeps the board, vertices, tucked
// stacks and attachments of the named slot and leaves the opponent tapped.
func TestStartTurnUntapsOwnedCardsOnly(t *testing.T) {
	s := NewStore(nil)
	mine := unitsOf(s, 1, SlotHost)[0]
	tucked := unitsOf(s, 1, SlotHost)[0]
	onVertex := unitsOf(s, 1, SlotHost)[0]
	attachment := s.NewCard(SlotHost, &CardDefinition{Name: "Shield", Kind: "token"}, "")
	theirs := unitsOf(s, 1, SlotGuest)[0]
	for _, c := range []*CardInstance{mine, tucked, onVertex, attachment, theirs} {
		s.Materialize(c)
	}
	s.PlaceOnSite(mine.ID, 0, 0)
	s.PlaceOnSite(tucked.ID, 0, 1)
	s.ToggleTuckedUnder(tucked.ID, 0, 1)
	s.PlaceOnVertex(onVertex.ID, VertexKey{Row: 0, Col: 0})
	s.AttachToken(attachment.ID, mine.ID)
	s.PlaceOnSite(theirs.ID, 3, 3)
	for _, c := range []*CardInstance{mine, tucked, onVertex, attachment, theirs} {
		c.Rotation = Tapped
	}
	s.Player(SlotHost).ManaTotal = 4

	s.StartTurn(SlotHost)

	for _, c := range []*CardInstance{mine, tucked, onVertex, attachment} {
		if c.Rotation != Untapped {
			t.Errorf("expected %s untapped, got rotation %d", c.ID, c.Rotation)
		}
	}
	if theirs.Rotation != Tapped {
		t.Errorf("expected opponent card to stay tapped, got %d", theirs.Rotation)
	}
	if got := s.Player(SlotHost).Mana; got != 4 {
		t.Errorf("expected mana refilled to 4, got %d", got)
	}
	if s.Game().Turn != 1 || !s.Game().TurnStarted {
		t.Errorf("expected turn advanced and started, got turn %d started %v", s.Game().Turn, s.Game().TurnStarted)
	}
}

// TestMissingIDIsNoop checks that mutations referencing unknown ids do
// nothing and do not panic.
func TestMissingIDIsNoop(t *testing.T) {
	s := NewStore(nil)
	s.PlaceOnSite("host-404", 0, 0)
	s.MoveCard("host-404", SlotHost, ZoneHand, false)
	s.RotateCard("host-404", Tapped)
	s.AdjustCounter("host-404", 2)
	s.FlipFaceDown("host-404", true)
	s.DetachToken("host-404", "host-405", 0, 0)
	if s.HasProgress() {
		t.Error("expected no progress after no-op mutations")
	}
}

// TestClearSlotRemovesOnlyOwnedCards resets one slot and leaves the other's
// cards standing.
func TestClearSlotRemovesOnlyOwnedCards(t *testing.T) {
	s := NewStore(nil)
	mine := unitsOf(s, 1, SlotGuest)[0]
	theirs := unitsOf(s, 1, SlotHost)[0]
	s.Materialize(mine)
	s.Materialize(theirs)
	s.PlaceOnSite(mine.ID, 1, 1)
	s.PlaceOnSite(theirs.ID, 1, 1)
	s.Player(SlotGuest).Hand = unitsOf(s, 3, SlotGuest)

	s.ClearSlot(SlotGuest)

	if s.FindCard(mine.ID) != nil {
		t.Error("expected guest card removed")
	}
	if s.FindCard(theirs.ID) == nil {
		t.Error("expected host card to survive")
	}
	if got := s.Player(SlotGuest).Life; got != StartingLife {
		t.Errorf("expected life reset to %d, got %d", StartingLife, got)
	}
}

// TestShuffleSignalExpires raises the transient flag and advances the clock
// past the window.
func TestShuffleSignalExpires(t *testing.T) {
	s := NewStore(nil)
	now := time.Unix(1000, 0)
	s.SetClock(func() time.Time { return now })
	s.ImportDeck(SlotHost, sitesOf(s, 3, SlotHost, Thresholds{}), nil)

	s.ShuffleDeck(SlotHost, DeckSite)
	if sig := s.Shuffling(); sig == nil || sig.Slot != SlotHost || sig.Deck != DeckSite {
		t.Fatalf("expected shuffle signal for host site deck, got %v", sig)
	}
	now = now.Add(ShuffleWindow + time.Millisecond)
	if sig := s.Shuffling(); sig != nil {
		t.Errorf("expected signal expired, got %v", sig)
	}
}
