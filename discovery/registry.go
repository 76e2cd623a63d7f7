// Package discovery matches game codes to transport endpoints. The
// registry is a small HTTP service holding no gameplay authority: it
// hands the guest the host's address and certificate, lists open public
// games, keeps a per-game recovery snapshot for crash recovery, and
// sweeps records nobody has touched in a while.
package discovery

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// snapshotLimit bounds a posted recovery snapshot. Censored game states
// are small; anything bigger is abuse.
const snapshotLimit = 1 << 20

type gameRecord struct {
	Code         string
	HostAddr     string
	HostCertPEM  []byte
	HostNickname string
	GuestName    string
	Public       bool
	CreatedAt    time.Time
	LastSeen     time.Time
	Joined       bool
	Snapshot     []byte
	SnapshotAt   time.Time
}

// Registry is the in-memory game directory.
type Registry struct {
	mu    sync.Mutex
	games map[string]*gameRecord

	log *slog.Logger
	now func() time.Time
	ttl time.Duration
}

// NewRegistry builds a registry with the given options applied.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		games: make(map[string]*gameRecord),
		log:   slog.Default(),
		now:   time.Now,
		ttl:   2 * time.Hour,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handler routes the registry's HTTP surface.
func (r *Registry) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /games", r.handleCreate)
	mux.HandleFunc("POST /games/{code}/join", r.handleJoin)
	mux.HandleFunc("POST /games/{code}/heartbeat", r.handleHeartbeat)
	mux.HandleFunc("PUT /games/{code}/snapshot", r.handleSaveSnapshot)
	mux.HandleFunc("GET /games/{code}/snapshot", r.handleFetchSnapshot)
	mux.HandleFunc("GET /games/open", r.handleOpen)
	mux.HandleFunc("GET /games/active", r.handleActive)
	return mux
}

// Sweep drops every record idle longer than the TTL and returns how many
// went. Run it periodically; the registry never grows otherwise.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	swept := 0
	for code, g := range r.games {
		if r.now().Sub(g.LastSeen) > r.ttl {
			delete(r.games, code)
			swept++
		}
	}
	if swept > 0 {
		r.log.Info("stale games swept", "count", swept)
	}
	return swept
}

// RunSweeper sweeps on the given interval until stop closes.
func (r *Registry) RunSweeper(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-stop:
			return
		}
	}
}

type createRequest struct {
	HostAddr    string `json:"hostAddr"`
	HostCertPEM []byte `json:"hostCertPem,omitempty"`
	Nickname    string `json:"nickname"`
	Public      bool   `json:"public"`
}

type createResponse struct {
	Code string `json:"code"`
}

func (r *Registry) handleCreate(w http.ResponseWriter, req *http.Request) {
	var body createRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.HostAddr == "" {
		http.Error(w, "bad create request", http.StatusBadRequest)
		return
	}
	code := uuid.NewString()
	r.mu.Lock()
	r.games[code] = &gameRecord{
		Code:         code,
		HostAddr:     body.HostAddr,
		HostCertPEM:  body.HostCertPEM,
		HostNickname: body.Nickname,
		Public:       body.Public,
		CreatedAt:    r.now(),
		LastSeen:     r.now(),
	}
	r.mu.Unlock()
	r.log.Info("game registered", "code", code, "public", body.Public)
	writeJSON(w, createResponse{Code: code})
}

type joinRequest struct {
	Nickname string `json:"nickname"`
}

type joinResponse struct {
	HostAddr    string `json:"hostAddr"`
	HostCertPEM []byte `json:"hostCertPem,omitempty"`
	Nickname    string `json:"nickname"`
}

func (r *Registry) handleJoin(w http.ResponseWriter, req *http.Request) {
	var body joinRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "bad join request", http.StatusBadRequest)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[req.PathValue("code")]
	if !ok {
		http.Error(w, "unknown game", http.StatusNotFound)
		return
	}
	// Rejoining after a drop is the normal recovery path, so a joined
	// game only refuses a different guest.
	if g.Joined && g.GuestName != body.Nickname {
		http.Error(w, "game full", http.StatusConflict)
		return
	}
	g.Joined = true
	g.GuestName = body.Nickname
	g.LastSeen = r.now()
	writeJSON(w, joinResponse{HostAddr: g.HostAddr, HostCertPEM: g.HostCertPEM, Nickname: g.HostNickname})
}

func (r *Registry) handleHeartbeat(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[req.PathValue("code")]
	if !ok {
		http.Error(w, "unknown game", http.StatusNotFound)
		return
	}
	g.LastSeen = r.now()
	w.WriteHeader(http.StatusNoContent)
}

func (r *Registry) handleSaveSnapshot(w http.ResponseWriter, req *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(req.Body, snapshotLimit))
	if err != nil {
		http.Error(w, "unreadable snapshot", http.StatusBadRequest)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[req.PathValue("code")]
	if !ok {
		http.Error(w, "unknown game", http.StatusNotFound)
		return
	}
	g.Snapshot = raw
	g.SnapshotAt = r.now()
	g.LastSeen = r.now()
	w.WriteHeader(http.StatusNoContent)
}

func (r *Registry) handleFetchSnapshot(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[req.PathValue("code")]
	if !ok || g.Snapshot == nil {
		http.Error(w, "no snapshot", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(g.Snapshot)
}

// OpenGame is one public game still waiting for a guest.
type OpenGame struct {
	Code     string `json:"code"`
	Nickname string `json:"nickname"`
}

func (r *Registry) handleOpen(w http.ResponseWriter, _ *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	open := make([]OpenGame, 0)
	for _, g := range r.games {
		if g.Public && !g.Joined {
			open = append(open, OpenGame{Code: g.Code, Nickname: g.HostNickname})
		}
	}
	writeJSON(w, open)
}

// ActiveGame is a running match summary for the spectator listing.
type ActiveGame struct {
	HostNickname  string `json:"hostNickname"`
	GuestNickname string `json:"guestNickname"`
	ElapsedSecs   int64  `json:"elapsedSecs"`
}

func (r *Registry) handleActive(w http.ResponseWriter, _ *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	active := make([]ActiveGame, 0)
	for _, g := range r.games {
		if g.Joined {
			active = append(active, ActiveGame{
				HostNickname:  g.HostNickname,
				GuestNickname: g.GuestName,
				ElapsedSecs:   int64(r.now().Sub(g.CreatedAt).Seconds()),
			})
		}
	}
	writeJSON(w, active)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
