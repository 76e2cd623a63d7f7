// Package state implements the canonical game-state model shared by the two
// peers of a match: the 4x5 board of sites, the sparse vertex map, each
// slot's private and public zones, and one mutation method per game verb.
//
// # Canonical slots
//
// All game data is partitioned into two fixed slots, host and guest. The
// partition never changes for the life of a match; mapping a slot to "my
// side of the screen" is a presentation concern that lives outside this
// package. Mutations act on canonical slots only and never ask who is
// viewing.
//
// # Replay semantics
//
// Every mutation takes only the ids, positions and amounts needed to replay
// it deterministically against a remote copy of the same state. Lookups by
// id are best effort: a mutation naming an id the store does not hold is a
// no-op, never an error, because a replayed remote action can arrive after
// local state has already moved on.
package state
