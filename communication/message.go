package communication

import "github.com/duelgrid/duelgrid/domain/state"

// MessageType tags a transport message.
type MessageType string

const (
	MsgHello          MessageType = "hello"
	MsgGameStart      MessageType = "game_start"
	MsgAction         MessageType = "action"
	MsgAck            MessageType = "ack"
	MsgFullSync       MessageType = "full_sync"
	MsgChat           MessageType = "chat"
	MsgRoll           MessageType = "roll"
	MsgEndTurn        MessageType = "end_turn"
	MsgDragStart      MessageType = "drag_start"
	MsgDragMove       MessageType = "drag_move"
	MsgDragEnd        MessageType = "drag_end"
	MsgSearchingDeck  MessageType = "searching_deck"
	MsgPing           MessageType = "ping"
	MsgConcede        MessageType = "concede"
	MsgRematchRequest MessageType = "rematch_request"
	MsgRematchAccept  MessageType = "rematch_accept"
)

// Message is the envelope for everything that crosses the peer channel.
// Exactly the field matching Type is set; end_turn, concede and the
// rematch pair carry no payload.
type Message struct {
	Type MessageType `json:"type"`

	Hello         *Hello          `json:"hello,omitempty"`
	GameStart     *GameStart      `json:"gameStart,omitempty"`
	Action        *ActionEnvelope `json:"action,omitempty"`
	Ack           *Ack            `json:"ack,omitempty"`
	FullSync      *FullSync       `json:"fullSync,omitempty"`
	Chat          *Chat           `json:"chat,omitempty"`
	Roll          *Roll           `json:"roll,omitempty"`
	DragStart     *DragStart      `json:"dragStart,omitempty"`
	DragMove      *DragMove       `json:"dragMove,omitempty"`
	DragEnd       *DragEnd        `json:"dragEnd,omitempty"`
	SearchingDeck *SearchingDeck  `json:"searchingDeck,omitempty"`
	Ping          *Ping           `json:"ping,omitempty"`
}

// Hello opens the handshake.
type Hello struct {
	Nickname string `json:"nickname"`
	PeerID   string `json:"peerId"`
}

// GameStart is the host's answer to a hello.
type GameStart struct {
	HostGoesFirst bool   `json:"hostGoesFirst"`
	Nickname      string `json:"nickname"`
}

// ActionEnvelope wraps an action with the sender-assigned sequence number.
type ActionEnvelope struct {
	Action   Action `json:"action"`
	Sequence uint64 `json:"sequence"`
}

// Ack confirms receipt of the action with the same sequence number.
type Ack struct {
	Sequence uint64 `json:"sequence"`
}

// FullSync carries a complete censored snapshot of shared state from the
// authoritative peer.
type FullSync struct {
	State    *state.Game `json:"state"`
	Sequence uint64      `json:"sequence"`
}

// Chat is a free-text line.
type Chat struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Roll announces a die roll.
type Roll struct {
	Max       int    `json:"max"`
	Result    int    `json:"result"`
	Nickname  string `json:"nickname"`
	Timestamp int64  `json:"timestamp"`
}

// DragStart announces that a card is being dragged. Card is only set when
// the drag originates from a public zone; drags from a hand strip identity
// entirely.
type DragStart struct {
	CardID string              `json:"cardId,omitempty"`
	Card   *state.CardInstance `json:"card,omitempty"`
	From   string              `json:"from"`
}

// DragMove is an ephemeral position update in board-relative fractions.
type DragMove struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DragEnd closes a drag so the peer clears its ghost.
type DragEnd struct {
	To string `json:"to,omitempty"`
}

// SearchingDeck toggles the peer's "opponent is searching" indicator.
type SearchingDeck struct {
	Player    state.Slot     `json:"player"`
	DeckType  state.DeckType `json:"deckType"`
	Searching bool           `json:"searching"`
	Count     int            `json:"count,omitempty"`
}

// Ping marks a board position, in fractions 0..1 of the board size.
type Ping struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
