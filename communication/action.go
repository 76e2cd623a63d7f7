package communication

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/duelgrid/duelgrid/domain/state"
)

// ActionName identifies a replayable store mutation. The set is closed:
// the dispatcher switches over it exhaustively, so an unhandled name is a
// protocol anomaly, not a missing table entry.
type ActionName string

const (
	ActionPlaceOnSite     ActionName = "placeCardOnSite"
	ActionPlaceOnVertex   ActionName = "placeCardOnVertex"
	ActionPlaceAvatar     ActionName = "placeAvatar"
	ActionMoveCard        ActionName = "moveCard"
	ActionRotateCard      ActionName = "rotateCard"
	ActionToggleTucked    ActionName = "toggleTuckedUnder"
	ActionAdjustCounter   ActionName = "adjustCounter"
	ActionFlipFaceDown    ActionName = "flipFaceDown"
	ActionDrawCards       ActionName = "drawCards"
	ActionShuffleDeck     ActionName = "shuffleDeck"
	ActionPeekDeck        ActionName = "peekDeck"
	ActionReturnToDeck    ActionName = "returnToDeck"
	ActionAttachToken     ActionName = "attachToken"
	ActionDetachToken     ActionName = "detachToken"
	ActionAdjustLife      ActionName = "adjustLife"
	ActionAdjustMana      ActionName = "adjustMana"
	ActionAdjustManaTotal ActionName = "adjustManaTotal"
	ActionAdjustThreshold ActionName = "adjustThreshold"
	ActionStartTurn       ActionName = "startTurn"
	ActionEndTurn         ActionName = "endTurn"
	ActionDeckImported    ActionName = "deckImported"
	ActionClearSlot       ActionName = "clearSlot"
)

// Action is one named mutation with its replay parameters.
type Action struct {
	Name      ActionName      `json:"name"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// NewAction wraps a payload struct for transmission.
func NewAction(name ActionName, payload any) (Action, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Action{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return Action{Name: name, Payload: raw, Timestamp: time.Now().UnixMilli()}, nil
}

// PlaceOnSitePayload carries the full card so a card played out of a
// private zone is revealed by the same message that places it.
type PlaceOnSitePayload struct {
	Card state.CardInstance `json:"card"`
	Row  int                `json:"row"`
	Col  int                `json:"col"`
}

type PlaceOnVertexPayload struct {
	Card   state.CardInstance `json:"card"`
	Vertex state.VertexKey    `json:"vertex"`
}

type PlaceAvatarPayload struct {
	Player state.Slot         `json:"player"`
	Card   state.CardInstance `json:"card"`
}

// MoveCardPayload relocates a card to a zone. Hidden marks that the card
// travels censored (id, owner and deck tag only) because it moves between
// two private zones and its identity must not leak.
type MoveCardPayload struct {
	Card   state.CardInstance `json:"card"`
	Player state.Slot         `json:"player"`
	Zone   state.ZoneID       `json:"zone"`
	Bottom bool               `json:"bottom,omitempty"`
	Hidden bool               `json:"hidden,omitempty"`
}

type RotateCardPayload struct {
	CardID   string `json:"cardId"`
	Rotation int    `json:"rotation"`
}

type ToggleTuckedPayload struct {
	CardID string `json:"cardId"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

type AdjustCounterPayload struct {
	CardID string `json:"cardId"`
	Delta  int    `json:"delta"`
}

type FlipFaceDownPayload struct {
	CardID   string `json:"cardId"`
	FaceDown bool   `json:"faceDown"`
}

type DrawCardsPayload struct {
	Player state.Slot     `json:"player"`
	Deck   state.DeckType `json:"deck"`
	Count  int            `json:"count"`
}

type ShuffleDeckPayload struct {
	Player state.Slot     `json:"player"`
	Deck   state.DeckType `json:"deck"`
}

type PeekDeckPayload struct {
	Player state.Slot     `json:"player"`
	Deck   state.DeckType `json:"deck"`
	Count  int            `json:"count"`
}

// ReturnToDeckPayload carries a count, never cards: what goes back into a
// private deck stays private.
type ReturnToDeckPayload struct {
	Player state.Slot     `json:"player"`
	Deck   state.DeckType `json:"deck"`
	Count  int            `json:"count"`
	Bottom bool           `json:"bottom,omitempty"`
}

// AttachTokenPayload carries the full token for the same reveal reason as
// PlaceOnSitePayload.
type AttachTokenPayload struct {
	Token    state.CardInstance `json:"token"`
	TargetID string             `json:"targetId"`
}

type DetachTokenPayload struct {
	TokenID  string `json:"tokenId"`
	TargetID string `json:"targetId"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
}

type AdjustLifePayload struct {
	Player state.Slot `json:"player"`
	Delta  int        `json:"delta"`
}

type AdjustManaPayload struct {
	Player state.Slot `json:"player"`
	Delta  int        `json:"delta"`
}

type AdjustManaTotalPayload struct {
	Player state.Slot `json:"player"`
	Delta  int        `json:"delta"`
}

type AdjustThresholdPayload struct {
	Player  state.Slot    `json:"player"`
	Element state.Element `json:"element"`
	Delta   int           `json:"delta"`
}

type StartTurnPayload struct {
	Player state.Slot `json:"player"`
}

type EndTurnPayload struct {
	Player state.Slot `json:"player"`
}

// DeckImportedPayload announces a deck import by counts only; the receiver
// synthesizes that many placeholders per deck.
type DeckImportedPayload struct {
	Player         state.Slot `json:"player"`
	SiteDeckCount  int        `json:"siteDeckCount"`
	SpellDeckCount int        `json:"spellDeckCount"`
}

type ClearSlotPayload struct {
	Player state.Slot `json:"player"`
}
