package communication

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/duelgrid/duelgrid/domain/hidden"
	"github.com/duelgrid/duelgrid/domain/state"
)

// Sender pushes a message onto the peer channel.
type Sender interface {
	Send(Message) error
}

// Dispatcher is the dual-path action layer. Every local verb applies to
// the store first (optimistic) and then broadcasts the encoded action with
// the next sequence number; every remote action is replayed against the
// store with canonical slots kept exactly as carried and answered with an
// ack. Outstanding sequence numbers are tracked in a pending set; no
// retransmission is attempted, delivery is the transport's job.
type Dispatcher struct {
	store  *state.Store
	sender Sender
	log    *slog.Logger
	now    func() time.Time

	nextSeq uint64
	pending map[uint64]time.Time

	history []string
}

// NewDispatcher binds a store to a peer channel. A nil logger falls back
// to slog.Default.
func NewDispatcher(store *state.Store, sender Sender, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:   store,
		sender:  sender,
		log:     logger,
		now:     time.Now,
		pending: make(map[uint64]time.Time),
	}
}

// Sequence returns the last sequence number assigned to an outgoing
// action.
func (d *Dispatcher) Sequence() uint64 {
	return d.nextSeq
}

// PendingAcks lists outstanding sequence numbers in order.
func (d *Dispatcher) PendingAcks() []uint64 {
	seqs := make([]uint64, 0, len(d.pending))
	for seq := range d.pending {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	return seqs
}

// Acknowledge clears a sequence number from the pending set. Unknown
// sequence numbers are ignored.
func (d *Dispatcher) Acknowledge(seq uint64) {
	delete(d.pending, seq)
}

// History returns the human-readable action log.
func (d *Dispatcher) History() []string {
	return d.history
}

func (d *Dispatcher) broadcast(name ActionName, payload any) error {
	act, err := NewAction(name, payload)
	if err != nil {
		return err
	}
	d.nextSeq++
	d.pending[d.nextSeq] = d.now()
	return d.sender.Send(Message{
		Type:   MsgAction,
		Action: &ActionEnvelope{Action: act, Sequence: d.nextSeq},
	})
}

/* ---- local verbs: apply first, then broadcast ---- */

// PlaceOnSite plays the card to the board cell, revealing it to the peer.
func (d *Dispatcher) PlaceOnSite(id string, row, col int) error {
	card := d.store.FindCard(id)
	if card == nil {
		return nil
	}
	snapshot := *card
	d.store.PlaceOnSite(id, row, col)
	return d.broadcast(ActionPlaceOnSite, PlaceOnSitePayload{Card: snapshot, Row: row, Col: col})
}

// PlaceOnVertex plays the card onto a vertex stack.
func (d *Dispatcher) PlaceOnVertex(id string, key state.VertexKey) error {
	card := d.store.FindCard(id)
	if card == nil {
		return nil
	}
	snapshot := *card
	d.store.PlaceOnVertex(id, key)
	return d.broadcast(ActionPlaceOnVertex, PlaceOnVertexPayload{Card: snapshot, Vertex: key})
}

// PlaceAvatar enters the slot's avatar at its starting coordinate.
func (d *Dispatcher) PlaceAvatar(slot state.Slot, card *state.CardInstance) error {
	if card == nil {
		return nil
	}
	d.store.PlaceAvatar(slot, card)
	return d.broadcast(ActionPlaceAvatar, PlaceAvatarPayload{Player: slot, Card: *card})
}

// MoveCard relocates a card to a zone. A move between two private zones
// travels censored so the card's identity never leaks.
func (d *Dispatcher) MoveCard(id string, slot state.Slot, zone state.ZoneID, bottom bool) error {
	card := d.store.FindCard(id)
	if card == nil {
		return nil
	}
	censored := d.store.InPrivateZone(id) && privateZone(zone)
	payload := MoveCardPayload{Card: *card, Player: slot, Zone: zone, Bottom: bottom}
	if censored {
		deck := card.SourceDeck
		if deck == "" {
			deck = state.DeckSpell
		}
		payload.Card = state.CardInstance{ID: card.ID, Owner: card.Owner, SourceDeck: deck}
		payload.Hidden = true
	}
	d.store.MoveCard(id, slot, zone, bottom)
	return d.broadcast(ActionMoveCard, payload)
}

// RotateCard taps or untaps the card.
func (d *Dispatcher) RotateCard(id string, rotation int) error {
	d.store.RotateCard(id, rotation)
	return d.broadcast(ActionRotateCard, RotateCardPayload{CardID: id, Rotation: rotation})
}

// ToggleTuckedUnder flips the card between a site's unit and tucked
// stacks.
func (d *Dispatcher) ToggleTuckedUnder(id string, row, col int) error {
	d.store.ToggleTuckedUnder(id, row, col)
	return d.broadcast(ActionToggleTucked, ToggleTuckedPayload{CardID: id, Row: row, Col: col})
}

// AdjustCounter moves the card's counter by delta.
func (d *Dispatcher) AdjustCounter(id string, delta int) error {
	d.store.AdjustCounter(id, delta)
	return d.broadcast(ActionAdjustCounter, AdjustCounterPayload{CardID: id, Delta: delta})
}

// FlipFaceDown sets or clears the card's face-down flag.
func (d *Dispatcher) FlipFaceDown(id string, faceDown bool) error {
	d.store.FlipFaceDown(id, faceDown)
	return d.broadcast(ActionFlipFaceDown, FlipFaceDownPayload{CardID: id, FaceDown: faceDown})
}

// DrawCards draws from the slot's deck into its hand. Only the count
// crosses the wire; the peer draws placeholders from its placeholder copy
// of the deck.
func (d *Dispatcher) DrawCards(slot state.Slot, deck state.DeckType, count int) error {
	d.store.DrawCards(slot, deck, count)
	return d.broadcast(ActionDrawCards, DrawCardsPayload{Player: slot, Deck: deck, Count: count})
}

// ShuffleDeck shuffles the slot's deck on both copies.
func (d *Dispatcher) ShuffleDeck(slot state.Slot, deck state.DeckType) error {
	d.store.ShuffleDeck(slot, deck)
	return d.broadcast(ActionShuffleDeck, ShuffleDeckPayload{Player: slot, Deck: deck})
}

// PeekDeck lifts the top count cards off the deck for searching and hands
// them to the caller; the peer mirrors the removal blind.
func (d *Dispatcher) PeekDeck(slot state.Slot, deck state.DeckType, count int) ([]*state.CardInstance, error) {
	taken := d.store.PeekDeck(slot, deck, count)
	err := d.broadcast(ActionPeekDeck, PeekDeckPayload{Player: slot, Deck: deck, Count: count})
	return taken, err
}

// ReturnToDeck puts searched cards back on top or bottom. The peer learns
// the count and position, never the cards.
func (d *Dispatcher) ReturnToDeck(slot state.Slot, deck state.DeckType, cards []*state.CardInstance, bottom bool) error {
	d.store.ReturnToDeck(slot, deck, cards, bottom)
	return d.broadcast(ActionReturnToDeck, ReturnToDeckPayload{Player: slot, Deck: deck, Count: len(cards), Bottom: bottom})
}

// AttachToken attaches the token to the target card, revealing the token
// if it came out of a private zone.
func (d *Dispatcher) AttachToken(tokenID, targetID string) error {
	token := d.store.FindCard(tokenID)
	if token == nil {
		return nil
	}
	snapshot := *token
	d.store.AttachToken(tokenID, targetID)
	return d.broadcast(ActionAttachToken, AttachTokenPayload{Token: snapshot, TargetID: targetID})
}

// DetachToken detaches the token onto the named board cell.
func (d *Dispatcher) DetachToken(tokenID, targetID string, row, col int) error {
	d.store.DetachToken(tokenID, targetID, row, col)
	return d.broadcast(ActionDetachToken, DetachTokenPayload{TokenID: tokenID, TargetID: targetID, Row: row, Col: col})
}

// AdjustLife moves the slot's life by delta.
func (d *Dispatcher) AdjustLife(slot state.Slot, delta int) error {
	d.store.AdjustLife(slot, delta)
	return d.broadcast(ActionAdjustLife, AdjustLifePayload{Player: slot, Delta: delta})
}

// AdjustMana moves the slot's available mana by delta.
func (d *Dispatcher) AdjustMana(slot state.Slot, delta int) error {
	d.store.AdjustMana(slot, delta)
	return d.broadcast(ActionAdjustMana, AdjustManaPayload{Player: slot, Delta: delta})
}

// AdjustManaTotal moves the slot's mana ceiling by delta.
func (d *Dispatcher) AdjustManaTotal(slot state.Slot, delta int) error {
	d.store.AdjustManaTotal(slot, delta)
	return d.broadcast(ActionAdjustManaTotal, AdjustManaTotalPayload{Player: slot, Delta: delta})
}

// AdjustThreshold moves one element of the slot's thresholds by delta.
func (d *Dispatcher) AdjustThreshold(slot state.Slot, el state.Element, delta int) error {
	d.store.AdjustThreshold(slot, el, delta)
	return d.broadcast(ActionAdjustThreshold, AdjustThresholdPayload{Player: slot, Element: el, Delta: delta})
}

// StartTurn begins the slot's turn on both copies.
func (d *Dispatcher) StartTurn(slot state.Slot) error {
	d.store.StartTurn(slot)
	return d.broadcast(ActionStartTurn, StartTurnPayload{Player: slot})
}

// EndTurn closes the slot's turn.
func (d *Dispatcher) EndTurn(slot state.Slot) error {
	d.store.EndTurn(slot)
	return d.broadcast(ActionEndTurn, EndTurnPayload{Player: slot})
}

// ImportDeck loads the slot's decks locally and announces only the counts;
// the peer synthesizes placeholder decks of matching sizes.
func (d *Dispatcher) ImportDeck(slot state.Slot, sites, spells []*state.CardInstance) error {
	d.store.ImportDeck(slot, sites, spells)
	return d.broadcast(ActionDeckImported, DeckImportedPayload{
		Player:         slot,
		SiteDeckCount:  len(sites),
		SpellDeckCount: len(spells),
	})
}

// ClearSlot wipes everything the slot owns, for a rematch.
func (d *Dispatcher) ClearSlot(slot state.Slot) error {
	d.store.ClearSlot(slot)
	return d.broadcast(ActionClearSlot, ClearSlotPayload{Player: slot})
}

/* ---- remote path ---- */

// Apply replays a received action against the local store and returns the
// ack for it. Unknown names and malformed payloads are logged and
// discarded; the ack still goes out because it confirms receipt, not
// validity. The owning slot embedded in the payload is used exactly as
// carried.
func (d *Dispatcher) Apply(env ActionEnvelope) Message {
	ack := Message{Type: MsgAck, Ack: &Ack{Sequence: env.Sequence}}
	if err := d.replay(env.Action); err != nil {
		d.log.Warn("remote action discarded", "name", string(env.Action.Name), "err", err)
	}
	return ack
}

func (d *Dispatcher) replay(act Action) error {
	switch act.Name {
	case ActionPlaceOnSite:
		var p PlaceOnSitePayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		id := d.resolveIncoming(p.Card)
		d.store.PlaceOnSite(id, p.Row, p.Col)
		d.note("%s placed %s at (%d,%d)", p.Card.Owner, cardName(&p.Card), p.Row, p.Col)
	case ActionPlaceOnVertex:
		var p PlaceOnVertexPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		id := d.resolveIncoming(p.Card)
		d.store.PlaceOnVertex(id, p.Vertex)
		d.note("%s placed %s on a vertex", p.Card.Owner, cardName(&p.Card))
	case ActionPlaceAvatar:
		var p PlaceAvatarPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		card := p.Card
		d.store.PlaceAvatar(p.Player, &card)
		d.note("%s entered their avatar", p.Player)
	case ActionMoveCard:
		var p MoveCardPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		id := d.resolveIncoming(p.Card)
		d.store.MoveCard(id, p.Player, p.Zone, p.Bottom)
		d.note("%s moved %s to %s", p.Card.Owner, cardName(&p.Card), p.Zone)
	case ActionRotateCard:
		var p RotateCardPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.RotateCard(p.CardID, p.Rotation)
	case ActionToggleTucked:
		var p ToggleTuckedPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.ToggleTuckedUnder(p.CardID, p.Row, p.Col)
	case ActionAdjustCounter:
		var p AdjustCounterPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.AdjustCounter(p.CardID, p.Delta)
	case ActionFlipFaceDown:
		var p FlipFaceDownPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.FlipFaceDown(p.CardID, p.FaceDown)
	case ActionDrawCards:
		var p DrawCardsPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.DrawCards(p.Player, p.Deck, p.Count)
		d.note("%s drew %d from the %s deck", p.Player, p.Count, p.Deck)
	case ActionShuffleDeck:
		var p ShuffleDeckPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.ShuffleDeck(p.Player, p.Deck)
		d.note("%s shuffled their %s deck", p.Player, p.Deck)
	case ActionPeekDeck:
		var p PeekDeckPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.PeekDeck(p.Player, p.Deck, p.Count)
	case ActionReturnToDeck:
		var p ReturnToDeckPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.ReturnToDeck(p.Player, p.Deck, hidden.PlaceholderDeck(p.Player, p.Deck, p.Count), p.Bottom)
	case ActionAttachToken:
		var p AttachTokenPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		id := d.resolveIncoming(p.Token)
		d.store.AttachToken(id, p.TargetID)
		d.note("%s attached %s", p.Token.Owner, cardName(&p.Token))
	case ActionDetachToken:
		var p DetachTokenPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.DetachToken(p.TokenID, p.TargetID, p.Row, p.Col)
	case ActionAdjustLife:
		var p AdjustLifePayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.AdjustLife(p.Player, p.Delta)
		d.note("%s life %+d", p.Player, p.Delta)
	case ActionAdjustMana:
		var p AdjustManaPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.AdjustMana(p.Player, p.Delta)
	case ActionAdjustManaTotal:
		var p AdjustManaTotalPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.AdjustManaTotal(p.Player, p.Delta)
	case ActionAdjustThreshold:
		var p AdjustThresholdPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.AdjustThreshold(p.Player, p.Element, p.Delta)
	case ActionStartTurn:
		var p StartTurnPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.StartTurn(p.Player)
		d.note("%s started their turn", p.Player)
	case ActionEndTurn:
		var p EndTurnPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.EndTurn(p.Player)
		d.note("%s ended their turn", p.Player)
	case ActionDeckImported:
		var p DeckImportedPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.ImportDeck(p.Player,
			hidden.PlaceholderDeck(p.Player, state.DeckSite, p.SiteDeckCount),
			hidden.PlaceholderDeck(p.Player, state.DeckSpell, p.SpellDeckCount))
		d.note("%s imported a deck (%d sites, %d spells)", p.Player, p.SiteDeckCount, p.SpellDeckCount)
	case ActionClearSlot:
		var p ClearSlotPayload
		if err := json.Unmarshal(act.Payload, &p); err != nil {
			return err
		}
		d.store.ClearSlot(p.Player)
		d.note("%s cleared their side", p.Player)
	default:
		return fmt.Errorf("unknown action %q", act.Name)
	}
	return nil
}

// resolveIncoming makes sure the card named by a remote payload exists
// locally. A literal hit wins; otherwise the card was hidden behind a
// placeholder here, so one fungible placeholder with the same source deck
// is dropped and the carried card materialized in its place. A card with
// no deck tag was never hidden (a freshly minted token), so nothing is
// consumed for it.
func (d *Dispatcher) resolveIncoming(card state.CardInstance) string {
	if d.store.FindCard(card.ID) != nil {
		return card.ID
	}
	if card.SourceDeck != "" {
		hidden.RemoveFungible(d.store.Game(), card.Owner, card.SourceDeck)
	}
	c := card
	d.store.Materialize(&c)
	return c.ID
}

func (d *Dispatcher) note(format string, args ...any) {
	d.history = append(d.history, fmt.Sprintf(format, args...))
}

func cardName(c *state.CardInstance) string {
	if c.Def == nil || c.Def.Name == "" {
		return "a card"
	}
	return c.Def.Name
}

func privateZone(z state.ZoneID) bool {
	switch z {
	case state.ZoneHand, state.ZoneSiteDeck, state.ZoneSpellDeck:
		return true
	}
	return false
}
