// Package hidden keeps private-zone contents from crossing the wire. A
// hand or deck is never transmitted as real cards to the non-owning peer:
// only counts travel, and the receiver synthesizes opaque placeholder
// cards for them. Placeholders are fungible; any placeholder with the
// right source deck can stand in for any hidden card of that deck.
package hidden

import (
	"fmt"
	"strings"
	"time"

	"github.com/duelgrid/duelgrid/domain/state"
)

const placeholderPrefix = "ph-"

// NewPlaceholder synthesizes a card standing in for a hidden card of the
// given slot and deck. The id encodes slot, deck, index and mint time; the
// definition stays nil, which is what marks the card as opaque.
func NewPlaceholder(slot state.Slot, deck state.DeckType, index int) *state.CardInstance {
	return &state.CardInstance{
		ID:         fmt.Sprintf("%s%s-%s-%d-%d", placeholderPrefix, slot, deck, index, time.Now().UnixMilli()),
		Owner:      slot,
		SourceDeck: deck,
	}
}

// IsPlaceholder reports whether the card is an opaque stand-in.
func IsPlaceholder(c *state.CardInstance) bool {
	return c != nil && c.Def == nil && strings.HasPrefix(c.ID, placeholderPrefix)
}

// PlaceholderDeck synthesizes count placeholders for one deck of a slot.
func PlaceholderDeck(slot state.Slot, deck state.DeckType, count int) []*state.CardInstance {
	cards := make([]*state.CardInstance, 0, count)
	for i := 0; i < count; i++ {
		cards = append(cards, NewPlaceholder(slot, deck, i))
	}
	return cards
}

// RemoveFungible removes one placeholder tagged with the given source deck
// from the slot's hand, falling back to the matching deck itself. Which
// placeholder goes is immaterial as long as the count stays correct. It
// returns the removed card, or nil if the slot holds no matching
// placeholder anywhere.
func RemoveFungible(g *state.Game, slot state.Slot, deck state.DeckType) *state.CardInstance {
	p := g.Players[slot]
	if p == nil {
		return nil
	}
	if c := removeFirstPlaceholder(&p.Hand, deck); c != nil {
		return c
	}
	if deck == state.DeckSite {
		return removeFirstPlaceholder(&p.SiteDeck, deck)
	}
	return removeFirstPlaceholder(&p.SpellDeck, deck)
}

func removeFirstPlaceholder(cards *[]*state.CardInstance, deck state.DeckType) *state.CardInstance {
	for i, c := range *cards {
		if IsPlaceholder(c) && c.SourceDeck == deck {
			*cards = append((*cards)[:i], (*cards)[i+1:]...)
			return c
		}
	}
	return nil
}

// CensorSnapshot rewrites a snapshot in place so it can cross the wire
// without disclosing anyone's private zones: every slot's hand and decks
// are replaced by placeholders of equal counts. The receiver overlays its
// own zones through the reconciliation tiers and keeps the sender's side
// opaque, which is how it already views them. Graveyards are public and
// pass untouched.
func CensorSnapshot(snap *state.Game) {
	for slot, p := range snap.Players {
		if p == nil {
			continue
		}
		p.Hand = censorHand(slot, p.Hand)
		p.SiteDeck = PlaceholderDeck(slot, state.DeckSite, len(p.SiteDeck))
		p.SpellDeck = PlaceholderDeck(slot, state.DeckSpell, len(p.SpellDeck))
	}
}

// censorHand keeps per-card source-deck tags so the receiver can pick a
// plausible card back for each hidden hand card.
func censorHand(slot state.Slot, hand []*state.CardInstance) []*state.CardInstance {
	out := make([]*state.CardInstance, 0, len(hand))
	for i, c := range hand {
		deck := c.SourceDeck
		if deck == "" {
			deck = state.DeckSpell
		}
		out = append(out, NewPlaceholder(slot, deck, i))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
