package network

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/duelgrid/duelgrid/communication"
)

// ErrNotConnected is returned by Send once the session is closed or the
// transport has dropped.
var ErrNotConnected = errors.New("network: not connected")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

type config struct {
	log       *slog.Logger
	tracker   *Tracker
	timeout   time.Duration
	tlsConfig *tls.Config
}

type Option func(*config)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.log = l }
}

// WithTracker binds the session to an externally owned status tracker so
// the application can watch lifecycle transitions.
func WithTracker(t *Tracker) Option {
	return func(c *config) { c.tracker = t }
}

// WithHandshakeTimeout bounds how long Host waits for a guest and how
// long Dial waits for the upgrade.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithTLS serves or dials the peer channel over TLS.
func WithTLS(cfg *tls.Config) Option {
	return func(c *config) { c.tlsConfig = cfg }
}

func buildConfig(opts []Option) *config {
	c := &config{
		log:     slog.Default(),
		tracker: NewTracker(),
		timeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session is one live peer channel. Messages go out through a buffered
// channel drained by a single writer goroutine; inbound messages arrive
// on Receive in the order the peer sent them.
type Session struct {
	conn    *websocket.Conn
	log     *slog.Logger
	tracker *Tracker

	inbound  chan communication.Message
	outbound chan communication.Message
	done     chan struct{}
	once     sync.Once
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The peers find each other through game codes, not origins.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Host listens on addr and waits for exactly one guest to connect. The
// listener is torn down once the guest is in; a match has one channel.
func Host(ctx context.Context, addr string, opts ...Option) (*Session, error) {
	c := buildConfig(opts)
	if err := c.tracker.Transition(StatusInitializing); err != nil {
		return nil, err
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		c.tracker.Transition(StatusError)
		return nil, fmt.Errorf("network: listen %s: %w", addr, err)
	}
	if c.tlsConfig != nil {
		l = tls.NewListener(l, c.tlsConfig)
	}
	if err := c.tracker.Transition(StatusWaiting); err != nil {
		l.Close()
		return nil, err
	}

	connCh := make(chan *websocket.Conn, 1)
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			c.log.Warn("upgrade refused", "remote", r.RemoteAddr, "err", err)
			return
		}
		select {
		case connCh <- conn:
		default:
			// A second guest has no seat.
			conn.Close()
		}
	})}
	go server.Serve(l)
	defer server.Close()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	select {
	case conn := <-connCh:
		if err := c.tracker.Transition(StatusConnected); err != nil {
			conn.Close()
			return nil, err
		}
		return newSession(conn, c), nil
	case <-ctx.Done():
		c.tracker.Transition(StatusError)
		return nil, fmt.Errorf("network: no guest arrived: %w", ctx.Err())
	}
}

// Dial connects to a hosting peer at url (ws:// or wss://).
func Dial(ctx context.Context, url string, opts ...Option) (*Session, error) {
	c := buildConfig(opts)
	if err := c.tracker.Transition(StatusInitializing); err != nil {
		return nil, err
	}
	if err := c.tracker.Transition(StatusConnecting); err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.timeout,
		TLSClientConfig:  c.tlsConfig,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		c.tracker.Transition(StatusError)
		return nil, fmt.Errorf("network: dial %s: %w", url, err)
	}
	if err := c.tracker.Transition(StatusConnected); err != nil {
		conn.Close()
		return nil, err
	}
	return newSession(conn, c), nil
}

func newSession(conn *websocket.Conn, c *config) *Session {
	s := &Session{
		conn:     conn,
		log:      c.log,
		tracker:  c.tracker,
		inbound:  make(chan communication.Message, sendBuffer),
		outbound: make(chan communication.Message, sendBuffer),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	go s.writeLoop()
	return s
}

// Tracker exposes the session's status machine.
func (s *Session) Tracker() *Tracker {
	return s.tracker
}

// Send queues a message for the peer. It satisfies the dispatcher's
// Sender contract.
func (s *Session) Send(m communication.Message) error {
	select {
	case <-s.done:
		return ErrNotConnected
	case s.outbound <- m:
		return nil
	}
}

// Receive is the ordered stream of inbound messages. The channel closes
// when the transport drops.
func (s *Session) Receive() <-chan communication.Message {
	return s.inbound
}

// Done closes when the session is over, for any reason.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close tears the session down. Safe to call more than once.
func (s *Session) Close() error {
	s.teardown()
	return nil
}

func (s *Session) teardown() {
	s.once.Do(func() {
		close(s.done)
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		s.conn.Close()
		if s.tracker.Status() == StatusConnected {
			s.tracker.Transition(StatusDisconnected)
		}
	})
}

func (s *Session) readLoop() {
	defer close(s.inbound)
	defer s.teardown()
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var m communication.Message
		if err := s.conn.ReadJSON(&m); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("peer channel lost", "err", err)
			}
			return
		}
		select {
		case s.inbound <- m:
		case <-s.done:
			return
		}
	}
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case m := <-s.outbound:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(m); err != nil {
				s.teardown()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.teardown()
				return
			}
		case <-s.done:
			return
		}
	}
}
