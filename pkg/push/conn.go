package push

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Status is the connection lifecycle phase.
type Status string

const (
	StatusClosed     Status = "closed"
	StatusConnecting Status = "connecting"
	StatusOpen       Status = "open"
)

// State is the observable connection condition. Attempt counts consecutive
// dial attempts; it resets to zero whenever a connection opens.
type State struct {
	Status  Status
	Attempt int
}

type stepEvent int

const (
	evDial stepEvent = iota
	evOpened
	evClosed
)

// step is the pure transition function. All connection state changes flow
// through it; the socket itself is the only side-effecting boundary.
func step(state State, ev stepEvent) State {
	switch ev {
	case evDial:
		return State{Status: StatusConnecting, Attempt: state.Attempt + 1}
	case evOpened:
		return State{Status: StatusOpen, Attempt: 0}
	case evClosed:
		return State{Status: StatusClosed, Attempt: state.Attempt}
	default:
		return state
	}
}

const (
	// DefaultMaxAttempts is how many consecutive dial failures are tolerated
	// before the manager gives up.
	DefaultMaxAttempts = 5
	// DefaultRetryDelay is the fixed pause between reconnect attempts.
	DefaultRetryDelay = 3 * time.Second
)

// ErrAttemptsExhausted is the terminal error after the reconnect budget is
// spent.
var ErrAttemptsExhausted = errors.New("push: reconnect attempts exhausted")

var errMissingURL = errors.New("push: url is required")

// Conn is the subset of a websocket connection the manager uses. The gorilla
// *websocket.Conn satisfies it directly.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	Close() error
}

// Dialer opens a connection to the push endpoint. Injected so tests can run
// without a network.
type Dialer func(ctx context.Context, url string) (Conn, error)

// GorillaDialer dials with the gorilla websocket default dialer.
func GorillaDialer() Dialer {
	return func(ctx context.Context, url string) (Conn, error) {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// Handler receives decoded push events.
type Handler func(Event)

// Options configures the Manager.
type Options struct {
	URL         string
	Handler     Handler
	Dialer      Dialer
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      *zerolog.Logger
}

// Manager keeps a websocket connection to the push endpoint alive. Dial
// failures and dropped connections reconnect after a fixed delay until the
// attempt budget is spent; an opened connection resets the budget. Inbound
// JSON events go to the handler; malformed payloads are logged and dropped;
// ping events are answered with pong.
type Manager struct {
	opts Options
	id   string

	mu    sync.RWMutex
	state State
	conn  Conn
	err   error

	done     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	runOnce  sync.Once
}

// NewManager builds a Manager with safe defaults. Nothing is dialed until
// Start.
func NewManager(opts Options) (*Manager, error) {
	if opts.URL == "" {
		return nil, errMissingURL
	}
	if opts.Dialer == nil {
		opts.Dialer = GorillaDialer()
	}
	if opts.Handler == nil {
		opts.Handler = func(Event) {}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	return &Manager{
		opts:  opts,
		id:    uuid.NewString(),
		state: State{Status: StatusClosed},
		done:  make(chan struct{}),
		stop:  make(chan struct{}),
	}, nil
}

// ClientID is the correlation id this manager presents to the backend.
func (m *Manager) ClientID() string { return m.id }

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Err returns the terminal error, if any, once Done is closed.
func (m *Manager) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// Done is closed when the manager has permanently stopped.
func (m *Manager) Done() <-chan struct{} { return m.done }

// Start launches the connection loop. Later calls are no-ops.
func (m *Manager) Start(ctx context.Context) {
	m.runOnce.Do(func() {
		go m.run(ctx)
	})
}

// Stop tears the connection down and stops reconnecting.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.mu.Lock()
		if m.conn != nil {
			_ = m.conn.Close()
		}
		m.mu.Unlock()
	})
}

// Send writes a JSON payload to the backend. When the connection is not open
// the payload is dropped with a warning; callers treat push as best-effort.
func (m *Manager) Send(v any) error {
	m.mu.RLock()
	state, conn := m.state, m.conn
	m.mu.RUnlock()
	if state.Status != StatusOpen || conn == nil {
		m.opts.Logger.Warn().
			Str("client_id", m.id).
			Str("status", string(state.Status)).
			Msg("push: send while not open, dropping payload")
		return nil
	}
	return conn.WriteJSON(v)
}

func (m *Manager) run(ctx context.Context) {
	for {
		state := m.transition(evDial)
		conn, err := m.opts.Dialer(ctx, m.opts.URL)
		if err != nil {
			m.transition(evClosed)
			m.opts.Logger.Warn().
				Err(err).
				Int("attempt", state.Attempt).
				Int("max_attempts", m.opts.MaxAttempts).
				Msg("push: dial failed")
			if state.Attempt >= m.opts.MaxAttempts {
				m.finish(ErrAttemptsExhausted)
				return
			}
			if !m.pause(ctx) {
				return
			}
			continue
		}

		m.setConn(conn)
		select {
		case <-m.stop:
			m.setConn(nil)
			_ = conn.Close()
			m.finish(nil)
			return
		default:
		}
		m.transition(evOpened)
		m.opts.Logger.Info().
			Str("client_id", m.id).
			Str("url", m.opts.URL).
			Msg("push: connected")

		readErr := m.readLoop(conn)
		m.setConn(nil)
		_ = conn.Close()
		m.transition(evClosed)
		select {
		case <-m.stop:
			m.finish(nil)
			return
		case <-ctx.Done():
			m.finish(ctx.Err())
			return
		default:
		}
		m.opts.Logger.Warn().Err(readErr).Msg("push: connection lost")
		if !m.pause(ctx) {
			return
		}
	}
}

func (m *Manager) readLoop(conn Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var event Event
		if err := json.Unmarshal(data, &event); err != nil || event.Type == "" {
			m.opts.Logger.Warn().
				Err(err).
				Str("payload", string(data)).
				Msg("push: malformed event dropped")
			continue
		}
		if event.Type == EventPing {
			_ = conn.WriteJSON(Event{
				Type:      EventPong,
				Timestamp: time.Now().UTC(),
				Data:      map[string]any{"client_id": m.id},
			})
			continue
		}
		m.opts.Handler(event)
	}
}

// pause waits out the retry delay. It reports false when the manager should
// stop instead of redialing.
func (m *Manager) pause(ctx context.Context) bool {
	select {
	case <-time.After(m.opts.RetryDelay):
		return true
	case <-ctx.Done():
		m.finish(ctx.Err())
		return false
	case <-m.stop:
		m.finish(nil)
		return false
	}
}

func (m *Manager) transition(ev stepEvent) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = step(m.state, ev)
	return m.state
}

func (m *Manager) setConn(conn Conn) {
	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()
}

func (m *Manager) finish(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
	close(m.done)
}
