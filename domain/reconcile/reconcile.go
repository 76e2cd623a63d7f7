// Package reconcile merges an authoritative snapshot from the host with
// the guest's retained private data after a reconnect. The snapshot only
// ever carries placeholders for the guest's private zones, so taking it
// verbatim would destroy them; each private zone is instead resolved
// through three fallback tiers.
package reconcile

import "github.com/duelgrid/duelgrid/domain/state"

// Tier names the source that won a private zone during a merge.
type Tier int

const (
	// TierPlaceholder means the zone fell back to the snapshot's opaque
	// placeholders: countwise correct, contents lost.
	TierPlaceholder Tier = iota
	// TierStored means the zone came from the device-persisted recovery
	// record.
	TierStored
	// TierMemory means the zone survived in this session's memory and was
	// kept as-is.
	TierMemory
)

func (t Tier) String() string {
	switch t {
	case TierMemory:
		return "memory"
	case TierStored:
		return "stored"
	default:
		return "placeholder"
	}
}

// SavedZones is the device-persisted copy of the guest's private zones,
// already checked for recency by the caller.
type SavedZones struct {
	Hand      []*state.CardInstance
	SiteDeck  []*state.CardInstance
	SpellDeck []*state.CardInstance
	Graveyard []*state.CardInstance
}

// Report says which tier resolved each private zone, so the caller can log
// a clean resume apart from a degraded one.
type Report struct {
	Hand      Tier
	SiteDeck  Tier
	SpellDeck Tier
}

// Degraded reports whether any zone fell through to placeholders.
func (r Report) Degraded() bool {
	return r.Hand == TierPlaceholder || r.SiteDeck == TierPlaceholder || r.SpellDeck == TierPlaceholder
}

// Restored reports whether any zone needed the persisted record.
func (r Report) Restored() bool {
	return r.Hand == TierStored || r.SiteDeck == TierStored || r.SpellDeck == TierStored
}

// Merge resolves the snapshot against the local game for the given slot.
// Shared and public state (board, vertices, turn counters, both slots'
// life, mana and thresholds, and graveyards) is taken verbatim from the
// snapshot; the slot's hand and decks are resolved per zone: the live
// in-memory value if non-empty, else the saved record, else the
// snapshot's placeholders. The snapshot is mutated in place and returned.
func Merge(local, snap *state.Game, self state.Slot, saved *SavedZones) (*state.Game, Report) {
	var report Report
	mine := snap.Players[self]
	if mine == nil {
		return snap, report
	}
	var live *state.PlayerState
	if local != nil {
		live = local.Players[self]
	}
	mine.Hand, report.Hand = pick(zoneOf(live, state.ZoneHand), savedZone(saved, state.ZoneHand), mine.Hand)
	mine.SiteDeck, report.SiteDeck = pick(zoneOf(live, state.ZoneSiteDeck), savedZone(saved, state.ZoneSiteDeck), mine.SiteDeck)
	mine.SpellDeck, report.SpellDeck = pick(zoneOf(live, state.ZoneSpellDeck), savedZone(saved, state.ZoneSpellDeck), mine.SpellDeck)
	return snap, report
}

func pick(memory, stored, placeholder []*state.CardInstance) ([]*state.CardInstance, Tier) {
	if len(memory) > 0 {
		return memory, TierMemory
	}
	if len(stored) > 0 {
		return stored, TierStored
	}
	return placeholder, TierPlaceholder
}

func zoneOf(p *state.PlayerState, id state.ZoneID) []*state.CardInstance {
	if p == nil {
		return nil
	}
	switch id {
	case state.ZoneHand:
		return p.Hand
	case state.ZoneSiteDeck:
		return p.SiteDeck
	case state.ZoneSpellDeck:
		return p.SpellDeck
	}
	return nil
}

func savedZone(s *SavedZones, id state.ZoneID) []*state.CardInstance {
	if s == nil {
		return nil
	}
	switch id {
	case state.ZoneHand:
		return s.Hand
	case state.ZoneSiteDeck:
		return s.SiteDeck
	case state.ZoneSpellDeck:
		return s.SpellDeck
	}
	return nil
}
