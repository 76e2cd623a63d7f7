// Package storage persists the private zones of an in-progress match so a
// client that crashes or reloads can restore its own hidden cards. The
// record is local only; it never crosses the wire.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.dedis.ch/protobuf"

	"github.com/duelgrid/duelgrid/domain/state"
)

// RecoveryTTL bounds how long a record stays usable. A record older than
// this is treated as belonging to a match that no longer exists.
const RecoveryTTL = time.Hour

var (
	ErrNotFound = errors.New("storage: no recovery record")
	ErrExpired  = errors.New("storage: recovery record expired")
)

// RecoveryRecord is one client's private zones at the moment of the last
// save, plus enough identity to refuse a record from a different match.
type RecoveryRecord struct {
	GameCode  string
	Slot      state.Slot
	Hand      []*state.CardInstance
	SiteDeck  []*state.CardInstance
	SpellDeck []*state.CardInstance
	Graveyard []*state.CardInstance
	SavedAt   int64
}

// RecoveryStore reads and writes recovery records under a directory, one
// file per game code.
type RecoveryStore struct {
	dir string
	log *slog.Logger
	now func() time.Time
}

// NewRecoveryStore opens (and creates if needed) the record directory. A
// nil logger falls back to slog.Default.
func NewRecoveryStore(dir string, logger *slog.Logger) (*RecoveryStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &RecoveryStore{dir: dir, log: logger, now: time.Now}, nil
}

// SetClock replaces the store's clock, for expiry tests.
func (s *RecoveryStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *RecoveryStore) path(code string) string {
	return filepath.Join(s.dir, filepath.Base(code)+".rec")
}

// Save writes the record for its game code, stamping the save time.
// Saving overwrites any previous record for the same code.
func (s *RecoveryStore) Save(rec *RecoveryRecord) error {
	rec.SavedAt = s.now().UnixMilli()
	raw, err := protobuf.Encode(rec)
	if err != nil {
		return fmt.Errorf("storage: encode record for %s: %w", rec.GameCode, err)
	}
	tmp := s.path(rec.GameCode) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("storage: write record for %s: %w", rec.GameCode, err)
	}
	if err := os.Rename(tmp, s.path(rec.GameCode)); err != nil {
		return fmt.Errorf("storage: write record for %s: %w", rec.GameCode, err)
	}
	s.log.Debug("recovery record saved",
		"game", rec.GameCode,
		"hand", len(rec.Hand), "sites", len(rec.SiteDeck), "spells", len(rec.SpellDeck))
	return nil
}

// Load reads the record for a game code. A record older than RecoveryTTL
// is deleted and reported as ErrExpired; a missing file is ErrNotFound.
func (s *RecoveryStore) Load(code string) (*RecoveryRecord, error) {
	raw, err := os.ReadFile(s.path(code))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read record for %s: %w", code, err)
	}
	rec := &RecoveryRecord{}
	if err := protobuf.Decode(raw, rec); err != nil {
		return nil, fmt.Errorf("storage: decode record for %s: %w", code, err)
	}
	if s.now().Sub(time.UnixMilli(rec.SavedAt)) > RecoveryTTL {
		s.Clear(code)
		return nil, ErrExpired
	}
	return rec, nil
}

// Clear removes the record for a game code, if any.
func (s *RecoveryStore) Clear(code string) {
	if err := os.Remove(s.path(code)); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("recovery record not removed", "game", code, "err", err)
	}
}
