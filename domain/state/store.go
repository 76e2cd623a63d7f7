package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// ShuffleWindow is how long the transient "is shuffling" signal stays up.
// It exists purely so a client can animate the opponent's shuffle.
const ShuffleWindow = 600 * time.Millisecond

// ShuffleSignal is the transient presentation flag raised by ShuffleDeck.
// It is not part of the replicated state and never serialized.
type ShuffleSignal struct {
	Slot  Slot
	Deck  DeckType
	Until time.Time
}

// Store owns one client's copy of the match state. It is exclusively owned
// by its local client: all mutations run to completion on a single event
// loop, so the store carries no locking.
type Store struct {
	game *Game
	log  *slog.Logger
	now  func() time.Time

	nextID    map[Slot]int
	shuffling *ShuffleSignal
}

// NewStore creates a store over a fresh game. A nil logger falls back to
// slog.Default.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		game:   NewGame(),
		log:    logger,
		now:    time.Now,
		nextID: make(map[Slot]int),
	}
}

// SetClock replaces the store's clock, for tests and for the shuffle signal
// window.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Game exposes the underlying state for read access and snapshotting.
func (s *Store) Game() *Game {
	return s.game
}

// Player returns the state of the given slot.
func (s *Store) Player(slot Slot) *PlayerState {
	return s.game.Players[slot]
}

// NewCard mints a card owned by slot. Ids embed the owning slot so the two
// clients can mint concurrently without colliding.
func (s *Store) NewCard(owner Slot, def *CardDefinition, variant string) *CardInstance {
	s.nextID[owner]++
	return &CardInstance{
		ID:      fmt.Sprintf("%s-%d", owner, s.nextID[owner]),
		Def:     def,
		Variant: variant,
		Owner:   owner,
	}
}

// FindCard locates a card anywhere in the game: zones, board site cards,
// unit and tucked stacks, vertices, and one level of attachment lists.
func (s *Store) FindCard(id string) *CardInstance {
	if id == "" {
		return nil
	}
	var found *CardInstance
	s.walkCards(func(c *CardInstance) bool {
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// walkCards visits every card in the game, attachments included. The visit
// function returns false to stop early.
func (s *Store) walkCards(visit func(*CardInstance) bool) {
	cont := true
	see := func(c *CardInstance) {
		if !cont || c == nil {
			return
		}
		if !visit(c) {
			cont = false
			return
		}
		for _, a := range c.Attached {
			if !cont {
				return
			}
			if !visit(a) {
				cont = false
				return
			}
		}
	}
	for _, p := range s.game.Players {
		for _, z := range []ZoneID{ZoneHand, ZoneSiteDeck, ZoneSpellDeck, ZoneGraveyard, ZoneCollection, ZoneSpellStack} {
			for _, c := range *p.zone(z) {
				see(c)
			}
		}
	}
	for r := range s.game.Board {
		for c := range s.game.Board[r] {
			site := &s.game.Board[r][c]
			see(site.SiteCard)
			for _, u := range site.Units {
				see(u)
			}
			for _, u := range site.Tucked {
				see(u)
			}
		}
	}
	for _, stack := range s.game.Vertices {
		for _, u := range stack {
			see(u)
		}
	}
}

// take removes the card with the given id from wherever it currently
// resides and returns it. Single residency holds because a card can be in
// at most one location, so the first hit is the only hit.
func (s *Store) take(id string) *CardInstance {
	if id == "" {
		return nil
	}
	for _, p := range s.game.Players {
		for _, z := range []ZoneID{ZoneHand, ZoneSiteDeck, ZoneSpellDeck, ZoneGraveyard, ZoneCollection, ZoneSpellStack} {
			if c := removeByID(p.zone(z), id); c != nil {
				return c
			}
		}
	}
	for r := range s.game.Board {
		for c := range s.game.Board[r] {
			site := &s.game.Board[r][c]
			if site.SiteCard != nil && site.SiteCard.ID == id {
				card := site.SiteCard
				site.SiteCard = nil
				return card
			}
			if card := removeByID(&site.Units, id); card != nil {
				return card
			}
			if card := removeByID(&site.Tucked, id); card != nil {
				return card
			}
		}
	}
	for key, stack := range s.game.Vertices {
		if card := removeByID(&stack, id); card != nil {
			if len(stack) == 0 {
				delete(s.game.Vertices, key)
			} else {
				s.game.Vertices[key] = stack
			}
			return card
		}
	}
	// Attachment lists last: detaching is the rarest way to move a card.
	var host *CardInstance
	s.walkCards(func(c *CardInstance) bool {
		for _, a := range c.Attached {
			if a.ID == id {
				host = c
				return false
			}
		}
		return true
	})
	if host != nil {
		return removeByID(&host.Attached, id)
	}
	return nil
}

func removeByID(cards *[]*CardInstance, id string) *CardInstance {
	for i, c := range *cards {
		if c.ID == id {
			*cards = append((*cards)[:i], (*cards)[i+1:]...)
			return c
		}
	}
	return nil
}

// Materialize inserts a card received from the peer that this client has
// never seen as a real card (it was hidden behind a placeholder). The card
// lands in its owner's collection so a follow-up placement can move it.
// A card whose id already exists anywhere is left untouched.
func (s *Store) Materialize(card *CardInstance) {
	if card == nil || s.FindCard(card.ID) != nil {
		return
	}
	p := s.game.Players[card.Owner]
	if p == nil {
		return
	}
	p.Collection = append(p.Collection, card)
}

// InPrivateZone reports whether the card currently sits in a hand or deck,
// the zones whose contents never cross the wire as real cards.
func (s *Store) InPrivateZone(id string) bool {
	for _, p := range s.game.Players {
		for _, z := range []ZoneID{ZoneHand, ZoneSiteDeck, ZoneSpellDeck} {
			for _, c := range *p.zone(z) {
				if c.ID == id {
					return true
				}
			}
		}
	}
	return false
}

// Shuffling reports the transient shuffle signal, or nil once the window
// has passed.
func (s *Store) Shuffling() *ShuffleSignal {
	if s.shuffling == nil || s.now().After(s.shuffling.Until) {
		s.shuffling = nil
		return nil
	}
	return s.shuffling
}

// ClearShuffleSignal drops the signal before the window elapses.
func (s *Store) ClearShuffleSignal() {
	s.shuffling = nil
}

// HasProgress reports whether meaningful game progress exists: the turn
// counter moved past its initial value or any zone or board cell is
// non-empty. The host uses it to decide whether a reconnecting guest needs
// a snapshot.
func (s *Store) HasProgress() bool {
	if s.game.Turn > 0 {
		return true
	}
	any := false
	s.walkCards(func(*CardInstance) bool {
		any = true
		return false
	})
	return any
}

// SnapshotGame returns a deep copy of the game, detached from the store.
func (s *Store) SnapshotGame() (*Game, error) {
	raw, err := json.Marshal(s.game)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	snap := NewGame()
	if err := json.Unmarshal(raw, snap); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return snap, nil
}

// ReplaceGame swaps in a reconciled game wholesale.
func (s *Store) ReplaceGame(g *Game) {
	if g == nil {
		return
	}
	if g.Vertices == nil {
		g.Vertices = make(map[VertexKey][]*CardInstance)
	}
	for _, slot := range []Slot{SlotHost, SlotGuest} {
		if g.Players[slot] == nil {
			g.Players[slot] = &PlayerState{Life: StartingLife}
		}
	}
	s.game = g
}
