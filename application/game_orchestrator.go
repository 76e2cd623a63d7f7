// Package application wires the store, the action dispatcher, the peer
// session, reconciliation and recovery persistence into one event loop
// per client.
package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/duelgrid/duelgrid/communication"
	"github.com/duelgrid/duelgrid/discovery"
	"github.com/duelgrid/duelgrid/domain/hidden"
	"github.com/duelgrid/duelgrid/domain/reconcile"
	"github.com/duelgrid/duelgrid/domain/state"
	"github.com/duelgrid/duelgrid/storage"
)

// Transport is the peer channel the orchestrator runs over.
type Transport interface {
	Send(communication.Message) error
	Receive() <-chan communication.Message
	Done() <-chan struct{}
}

// registrySnapshotEvery is how often a host pushes a censored snapshot to
// the registry for crash recovery.
const registrySnapshotEvery = 30 * time.Second

// Config carries everything a GameOrchestrator needs.
type Config struct {
	Slot          state.Slot
	GameCode      string
	Nickname      string
	HostGoesFirst bool

	Store     *state.Store
	Transport Transport
	Recovery  *storage.RecoveryStore
	Registry  *discovery.Client
	Logger    *slog.Logger
}

// GameOrchestrator owns one client's match: it routes inbound messages,
// applies and acknowledges remote actions, enforces full-sync authority,
// reconciles after reconnects and persists private zones for recovery.
type GameOrchestrator struct {
	slot     state.Slot
	gameCode string
	nickname string
	first    bool

	store      *state.Store
	dispatcher *communication.Dispatcher
	transport  Transport
	recovery   *storage.RecoveryStore
	registry   *discovery.Client
	log        *slog.Logger

	events chan communication.Message
}

// NewGameOrchestrator assembles the orchestrator and its dispatcher. A
// nil logger falls back to slog.Default.
func NewGameOrchestrator(cfg Config) *GameOrchestrator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &GameOrchestrator{
		slot:       cfg.Slot,
		gameCode:   cfg.GameCode,
		nickname:   cfg.Nickname,
		first:      cfg.HostGoesFirst,
		store:      cfg.Store,
		dispatcher: communication.NewDispatcher(cfg.Store, cfg.Transport, cfg.Logger),
		transport:  cfg.Transport,
		recovery:   cfg.Recovery,
		registry:   cfg.Registry,
		log:        cfg.Logger,
		events:     make(chan communication.Message, 32),
	}
}

// Dispatcher exposes the local verb surface for the UI layer. Callers
// should follow each private-zone mutation with PersistPrivateZones.
func (o *GameOrchestrator) Dispatcher() *communication.Dispatcher {
	return o.dispatcher
}

// Events delivers presentation traffic (chat, rolls, drags, pings,
// searching indicators, concede, rematch) to the UI.
func (o *GameOrchestrator) Events() <-chan communication.Message {
	return o.events
}

// Run drives the match until the context ends or the transport drops.
// The guest opens with a hello; the host answers hellos with game_start
// and, when progress already exists, a proactive full sync.
func (o *GameOrchestrator) Run(ctx context.Context) error {
	if o.slot == state.SlotGuest {
		if err := o.transport.Send(communication.Message{
			Type:  communication.MsgHello,
			Hello: &communication.Hello{Nickname: o.nickname, PeerID: o.gameCode},
		}); err != nil {
			return err
		}
	}

	var registryTick <-chan time.Time
	if o.registry != nil && o.slot == state.SlotHost {
		ticker := time.NewTicker(registrySnapshotEvery)
		defer ticker.Stop()
		registryTick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.transport.Done():
			o.log.Info("peer channel closed")
			return nil
		case <-registryTick:
			o.saveRegistrySnapshot(ctx)
		case msg, ok := <-o.transport.Receive():
			if !ok {
				return nil
			}
			o.handle(msg)
		}
	}
}

func (o *GameOrchestrator) handle(msg communication.Message) {
	switch msg.Type {
	case communication.MsgHello:
		if msg.Hello == nil {
			return
		}
		o.store.Player(o.slot.Opponent()).Nickname = msg.Hello.Nickname
		if o.slot == state.SlotHost {
			o.transport.Send(communication.Message{
				Type:      communication.MsgGameStart,
				GameStart: &communication.GameStart{HostGoesFirst: o.first, Nickname: o.nickname},
			})
			if o.store.HasProgress() {
				o.pushFullSync()
			}
		}
		o.forward(msg)

	case communication.MsgGameStart:
		if msg.GameStart == nil {
			return
		}
		o.store.Player(o.slot.Opponent()).Nickname = msg.GameStart.Nickname
		o.forward(msg)

	case communication.MsgAction:
		if msg.Action == nil {
			return
		}
		ack := o.dispatcher.Apply(*msg.Action)
		o.transport.Send(ack)
		o.PersistPrivateZones()

	case communication.MsgAck:
		if msg.Ack == nil {
			return
		}
		o.dispatcher.Acknowledge(msg.Ack.Sequence)

	case communication.MsgFullSync:
		if msg.FullSync == nil || msg.FullSync.State == nil {
			return
		}
		// The host's copy of shared state is ground truth; a snapshot
		// aimed at it is a protocol anomaly.
		if o.slot == state.SlotHost {
			o.log.Warn("full sync rejected: host state is authoritative")
			return
		}
		o.reconcile(msg.FullSync.State)

	case communication.MsgEndTurn:
		// The peer closed its turn, so this side's turn begins.
		o.dispatcher.StartTurn(o.slot)
		o.forward(msg)

	default:
		o.forward(msg)
	}
}

func (o *GameOrchestrator) forward(msg communication.Message) {
	select {
	case o.events <- msg:
	default:
		// A UI that stops draining loses presentation traffic, never
		// blocks the match.
	}
}

// pushFullSync censors a snapshot and sends it to the guest.
func (o *GameOrchestrator) pushFullSync() {
	snap, err := o.store.SnapshotGame()
	if err != nil {
		o.log.Error("snapshot failed", "err", err)
		return
	}
	hidden.CensorSnapshot(snap)
	o.transport.Send(communication.Message{
		Type:     communication.MsgFullSync,
		FullSync: &communication.FullSync{State: snap, Sequence: o.dispatcher.Sequence()},
	})
	o.log.Info("full sync pushed", "turn", snap.Turn)
}

// reconcile merges the host snapshot with this guest's retained private
// zones, falling back to the persisted record and finally to the host's
// placeholders.
func (o *GameOrchestrator) reconcile(snap *state.Game) {
	saved := o.loadSavedZones()
	merged, report := reconcile.Merge(o.store.Game(), snap, o.slot, saved)
	o.store.ReplaceGame(merged)
	switch {
	case report.Degraded():
		o.log.Warn("state synchronized with losses",
			"hand", report.Hand.String(), "siteDeck", report.SiteDeck.String(), "spellDeck", report.SpellDeck.String())
	case report.Restored():
		o.log.Info("state restored")
	default:
		o.log.Info("state synchronized")
	}
	o.PersistPrivateZones()
}

func (o *GameOrchestrator) loadSavedZones() *reconcile.SavedZones {
	if o.recovery == nil {
		return nil
	}
	rec, err := o.recovery.Load(o.gameCode)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrExpired) {
		return nil
	}
	if err != nil {
		o.log.Warn("recovery record unreadable", "err", err)
		return nil
	}
	if rec.Slot != o.slot {
		return nil
	}
	return &reconcile.SavedZones{
		Hand:      rec.Hand,
		SiteDeck:  rec.SiteDeck,
		SpellDeck: rec.SpellDeck,
		Graveyard: rec.Graveyard,
	}
}

// PersistPrivateZones writes this client's hidden zones to the recovery
// store so a reload can restore them. Call it after every mutation that
// touches a hand or deck.
func (o *GameOrchestrator) PersistPrivateZones() {
	if o.recovery == nil {
		return
	}
	p := o.store.Player(o.slot)
	rec := &storage.RecoveryRecord{
		GameCode:  o.gameCode,
		Slot:      o.slot,
		Hand:      p.Hand,
		SiteDeck:  p.SiteDeck,
		SpellDeck: p.SpellDeck,
		Graveyard: p.Graveyard,
	}
	if err := o.recovery.Save(rec); err != nil {
		o.log.Warn("recovery save failed", "err", err)
	}
}

// saveRegistrySnapshot pushes a censored snapshot to the registry so a
// crashed pair can be inspected or resumed.
func (o *GameOrchestrator) saveRegistrySnapshot(ctx context.Context) {
	snap, err := o.store.SnapshotGame()
	if err != nil {
		return
	}
	hidden.CensorSnapshot(snap)
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := o.registry.SaveSnapshot(ctx, o.gameCode, raw); err != nil {
		o.log.Warn("registry snapshot failed", "err", err)
	}
	o.registry.Heartbeat(ctx, o.gameCode)
}
