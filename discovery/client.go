package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrUnknownGame = errors.New("discovery: unknown game code")
	ErrGameFull    = errors.New("discovery: game already has a guest")
	ErrNoSnapshot  = errors.New("discovery: no snapshot stored")
)

// Client talks to a registry over HTTP.
type Client struct {
	base string
	http *http.Client
}

// NewClient points a client at the registry base URL.
func NewClient(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// HostedGame is what Create hands back to a hosting client.
type HostedGame struct {
	Code string
}

// Create registers a new game and returns its code.
func (c *Client) Create(ctx context.Context, hostAddr, nickname string, certPEM []byte, public bool) (HostedGame, error) {
	var resp createResponse
	err := c.post(ctx, "/games", createRequest{
		HostAddr: hostAddr, HostCertPEM: certPEM, Nickname: nickname, Public: public,
	}, &resp)
	if err != nil {
		return HostedGame{}, err
	}
	return HostedGame{Code: resp.Code}, nil
}

// JoinedGame is what Join hands back to a guest.
type JoinedGame struct {
	HostAddr     string
	HostCertPEM  []byte
	HostNickname string
}

// Join claims the guest seat of a game.
func (c *Client) Join(ctx context.Context, code, nickname string) (JoinedGame, error) {
	var resp joinResponse
	err := c.post(ctx, "/games/"+code+"/join", joinRequest{Nickname: nickname}, &resp)
	if err != nil {
		return JoinedGame{}, err
	}
	return JoinedGame{HostAddr: resp.HostAddr, HostCertPEM: resp.HostCertPEM, HostNickname: resp.Nickname}, nil
}

// Heartbeat keeps the game record alive.
func (c *Client) Heartbeat(ctx context.Context, code string) error {
	return c.post(ctx, "/games/"+code+"/heartbeat", nil, nil)
}

// SaveSnapshot stores an opaque recovery snapshot for the game.
func (c *Client) SaveSnapshot(ctx context.Context, code string, snapshot []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.base+"/games/"+code+"/snapshot", bytes.NewReader(snapshot))
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("discovery: save snapshot: %w", err)
	}
	defer resp.Body.Close()
	return statusError(resp.StatusCode)
}

// FetchSnapshot retrieves the stored recovery snapshot, if any.
func (c *Client) FetchSnapshot(ctx context.Context, code string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.base+"/games/"+code+"/snapshot", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery: fetch snapshot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoSnapshot
	}
	if err := statusError(resp.StatusCode); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// OpenGames lists public games still waiting for a guest.
func (c *Client) OpenGames(ctx context.Context) ([]OpenGame, error) {
	var games []OpenGame
	if err := c.get(ctx, "/games/open", &games); err != nil {
		return nil, err
	}
	return games, nil
}

// ActiveGames lists running matches for the spectator view.
func (c *Client) ActiveGames(ctx context.Context) ([]ActiveGame, error) {
	var games []ActiveGame
	if err := c.get(ctx, "/games/active", &games); err != nil {
		return nil, err
	}
	return games, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("discovery: %s: %w", path, err)
	}
	defer resp.Body.Close()
	if err := statusError(resp.StatusCode); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("discovery: %s: %w", path, err)
	}
	defer resp.Body.Close()
	if err := statusError(resp.StatusCode); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(code int) error {
	switch {
	case code == http.StatusNotFound:
		return ErrUnknownGame
	case code == http.StatusConflict:
		return ErrGameFull
	case code >= 400:
		return fmt.Errorf("discovery: registry answered %d", code)
	}
	return nil
}
