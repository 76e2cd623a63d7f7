package state

import (
	"math/big"

	"go.dedis.ch/kyber/v4/suites"
	"go.dedis.ch/kyber/v4/util/random"
)

var suite suites.Suite = suites.MustFind("Ed25519")

// DrawAll is the PeekDeck count sentinel meaning "the whole deck".
const DrawAll = -1

// DrawCards moves up to count cards from the top of the slot's deck into
// its hand, tagging each with the deck it came from.
func (s *Store) DrawCards(slot Slot, dt DeckType, count int) {
	p := s.game.Players[slot]
	if p == nil || count <= 0 {
		return
	}
	deck := p.deck(dt)
	for i := 0; i < count && len(*deck) > 0; i++ {
		card := (*deck)[0]
		*deck = (*deck)[1:]
		card.SourceDeck = dt
		p.Hand = append(p.Hand, card)
	}
}

// ShuffleDeck permutes the slot's deck with a Fisher-Yates pass drawn from
// the suite's random stream, and raises the transient shuffle signal so
// the opponent's client can animate it. The deck's length and card multiset
// are untouched.
func (s *Store) ShuffleDeck(slot Slot, dt DeckType) {
	p := s.game.Players[slot]
	if p == nil {
		return
	}
	deck := *p.deck(dt)
	stream := suite.RandomStream()
	for i := len(deck) - 1; i > 0; i-- {
		j := int(random.Int(big.NewInt(int64(i+1)), stream).Int64())
		deck[i], deck[j] = deck[j], deck[i]
	}
	s.shuffling = &ShuffleSignal{Slot: slot, Deck: dt, Until: s.now().Add(ShuffleWindow)}
}

// PeekDeck removes the top count cards of the slot's deck and hands them to
// the caller, for searching. The DrawAll sentinel takes the whole deck.
func (s *Store) PeekDeck(slot Slot, dt DeckType, count int) []*CardInstance {
	p := s.game.Players[slot]
	if p == nil {
		return nil
	}
	deck := p.deck(dt)
	if count == DrawAll || count > len(*deck) {
		count = len(*deck)
	}
	if count <= 0 {
		return nil
	}
	taken := (*deck)[:count]
	*deck = (*deck)[count:]
	return taken
}

// ReturnToDeck re-inserts an ordered list of cards before (top) or after
// (bottom) the remaining deck, preserving the list's order.
func (s *Store) ReturnToDeck(slot Slot, dt DeckType, cards []*CardInstance, bottom bool) {
	p := s.game.Players[slot]
	if p == nil || len(cards) == 0 {
		return
	}
	deck := p.deck(dt)
	if bottom {
		*deck = append(*deck, cards...)
	} else {
		*deck = append(append([]*CardInstance{}, cards...), *deck...)
	}
}
