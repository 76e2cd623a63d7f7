package state

// Slot identifies one of the two fixed data partitions of a match.
type Slot string

const (
	SlotHost  Slot = "host"
	SlotGuest Slot = "guest"
)

// Opponent returns the other slot.
func (s Slot) Opponent() Slot {
	if s == SlotHost {
		return SlotGuest
	}
	return SlotHost
}

// DeckType names one of the two decks every slot owns.
type DeckType string

const (
	DeckSite  DeckType = "site"
	DeckSpell DeckType = "spell"
)

// Element is one of the four threshold elements.
type Element string

const (
	Air   Element = "air"
	Earth Element = "earth"
	Fire  Element = "fire"
	Water Element = "water"
)

// Thresholds counts elemental affinity per element. The set of elements is
// closed, so a struct beats a map here: it is cheaper to copy and encodes
// cleanly both as JSON and through the binary recovery codec.
type Thresholds struct {
	Air   int `json:"air,omitempty"`
	Earth int `json:"earth,omitempty"`
	Fire  int `json:"fire,omitempty"`
	Water int `json:"water,omitempty"`
}

// Add accumulates o into t.
func (t *Thresholds) Add(o Thresholds) {
	t.Air += o.Air
	t.Earth += o.Earth
	t.Fire += o.Fire
	t.Water += o.Water
}

// Adjust moves a single element by delta, clamping at zero.
func (t *Thresholds) Adjust(el Element, delta int) {
	c := t.counter(el)
	if c == nil {
		return
	}
	*c += delta
	if *c < 0 {
		*c = 0
	}
}

func (t *Thresholds) counter(el Element) *int {
	switch el {
	case Air:
		return &t.Air
	case Earth:
		return &t.Earth
	case Fire:
		return &t.Fire
	case Water:
		return &t.Water
	}
	return nil
}

// CardDefinition is the immutable printed identity of a card. Placeholder
// cards standing in for hidden information carry a nil definition.
type CardDefinition struct {
	Name       string     `json:"name"`
	Kind       string     `json:"kind"` // "site", "unit", "spell", "avatar", "token"
	Thresholds Thresholds `json:"thresholds,omitempty"`
}

// Rotation values. 0 is untapped, 90 is tapped; nothing else is legal.
const (
	Untapped = 0
	Tapped   = 90
)

// CardInstance is a single physical card in play. Owner is set once at
// creation and never reassigned, regardless of which client currently holds
// the card's information; per-turn untapping keys off it. A Counter of zero
// is represented by the field collapsing to its zero value, so "has a
// counter" and "counter is zero" are never distinct states.
type CardInstance struct {
	ID         string          `json:"id"`
	Def        *CardDefinition `json:"def,omitempty"`
	Variant    string          `json:"variant,omitempty"`
	Rotation   int             `json:"rotation,omitempty"`
	Owner      Slot            `json:"owner"`
	FaceDown   bool            `json:"faceDown,omitempty"`
	Counter    int             `json:"counter,omitempty"`
	Attached   []*CardInstance `json:"attached,omitempty"`
	SourceDeck DeckType        `json:"sourceDeck,omitempty"` // deck a hand card was drawn from
}

// Board dimensions.
const (
	BoardRows = 4
	BoardCols = 5
)

// Site is one cell of the board: at most one site card, an ordered stack of
// units, and an ordered stack of cards tucked under the site.
type Site struct {
	SiteCard *CardInstance   `json:"siteCard,omitempty"`
	Units    []*CardInstance `json:"units,omitempty"`
	Tucked   []*CardInstance `json:"tucked,omitempty"`
}

// VertexKey addresses the intersection of four adjacent sites by the
// row/column of its north-west site. Valid rows are 0..BoardRows-2 and valid
// columns 0..BoardCols-2, but the store does not police the range.
type VertexKey struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// ZoneID names an off-board ordered card sequence owned by a slot.
// Front of the slice is the top of the zone.
type ZoneID string

const (
	ZoneHand       ZoneID = "hand"
	ZoneSiteDeck   ZoneID = "siteDeck"
	ZoneSpellDeck  ZoneID = "spellDeck"
	ZoneGraveyard  ZoneID = "graveyard"
	ZoneCollection ZoneID = "collection"
	ZoneSpellStack ZoneID = "spellStack"
)

// PlayerState is everything a single slot owns off the board.
type PlayerState struct {
	Nickname   string          `json:"nickname,omitempty"`
	Hand       []*CardInstance `json:"hand,omitempty"`
	SiteDeck   []*CardInstance `json:"siteDeck,omitempty"`
	SpellDeck  []*CardInstance `json:"spellDeck,omitempty"`
	Graveyard  []*CardInstance `json:"graveyard,omitempty"`
	Collection []*CardInstance `json:"collection,omitempty"`
	SpellStack []*CardInstance `json:"spellStack,omitempty"`
	Life       int             `json:"life"`
	Mana       int             `json:"mana"`
	ManaTotal  int             `json:"manaTotal"`
	Thresholds Thresholds      `json:"thresholds"`
}

func (p *PlayerState) zone(id ZoneID) *[]*CardInstance {
	switch id {
	case ZoneHand:
		return &p.Hand
	case ZoneSiteDeck:
		return &p.SiteDeck
	case ZoneSpellDeck:
		return &p.SpellDeck
	case ZoneGraveyard:
		return &p.Graveyard
	case ZoneCollection:
		return &p.Collection
	case ZoneSpellStack:
		return &p.SpellStack
	}
	return nil
}

func (p *PlayerState) deck(dt DeckType) *[]*CardInstance {
	if dt == DeckSite {
		return &p.SiteDeck
	}
	return &p.SpellDeck
}

// Game is the full replicated state of a match.
type Game struct {
	Board    [BoardRows][BoardCols]Site   `json:"board"`
	Vertices map[VertexKey][]*CardInstance `json:"vertices,omitempty"`
	Players  map[Slot]*PlayerState         `json:"players"`
	Turn     int                           `json:"turn"`
	// TurnStarted marks that the slot whose turn it is has taken its
	// start-of-turn untap.
	TurnStarted bool `json:"turnStarted,omitempty"`
}

// NewGame returns an empty match with both player states initialized.
func NewGame() *Game {
	return &Game{
		Vertices: make(map[VertexKey][]*CardInstance),
		Players: map[Slot]*PlayerState{
			SlotHost:  {Life: StartingLife},
			SlotGuest: {Life: StartingLife},
		},
	}
}

// StartingLife is the life total each slot begins with.
const StartingLife = 20

// AvatarStart is the fixed board coordinate where a slot's avatar enters
// play.
func AvatarStart(s Slot) (row, col int) {
	if s == SlotHost {
		return BoardRows - 1, BoardCols / 2
	}
	return 0, BoardCols / 2
}
