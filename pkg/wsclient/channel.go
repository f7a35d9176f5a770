// Package wsclient maintains one live websocket connection to a server,
// redialing forever on loss. It is protocol-agnostic: raw frames go to a
// Handler, which decides whether they are well-formed.
package wsclient

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// State is the connection lifecycle phase of a Channel.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

var (
	// ErrNotOpen is returned by Send while no connection is established.
	ErrNotOpen = errors.New("wsclient: channel not open")

	// ErrConnectInFlight is returned by Connect while an attempt is already
	// outstanding or a connection is live.
	ErrConnectInFlight = errors.New("wsclient: connect already in flight")

	// ErrChannelClosed is returned by Connect after Close.
	ErrChannelClosed = errors.New("wsclient: channel closed")
)

const (
	// DefaultReconnectDelay is the fixed pause before each redial. There is no
	// back-off growth and no attempt cap; reconnection runs until Close.
	DefaultReconnectDelay = 3 * time.Second

	writeTimeout = 10 * time.Second
)

// Handler receives channel lifecycle notifications and inbound frames.
// Callbacks run on the channel's internal goroutines and must not block for
// long.
type Handler interface {
	// ChannelOpened fires once per successful dial.
	ChannelOpened()

	// ChannelClosed fires when the connection drops or a dial fails, before
	// the reconnect attempt is scheduled.
	ChannelClosed()

	// HandleFrame receives one raw inbound frame. A non-nil error marks the
	// frame as a protocol violation: it is discarded and the connection is
	// dropped on purpose; the reconnect path recovers the session.
	HandleFrame(data []byte) error
}

// Option adjusts channel construction.
type Option func(*Channel)

// WithReconnectDelay overrides the fixed redial pause.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithDialer replaces the default websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

// WithLogger sets the channel logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Channel) { c.log = log }
}

// Channel wraps the single live connection. At most one socket exists at a
// time; each redial builds a fresh one and no state survives the old socket.
type Channel struct {
	url     string
	handler Handler
	dialer  *websocket.Dialer
	delay   time.Duration
	log     zerolog.Logger

	mu           sync.Mutex
	state        State
	conn         *websocket.Conn
	retry        *time.Timer
	retryPending bool
	closed       bool

	workers sync.WaitGroup
}

// New builds a channel for the given websocket URL. Nothing is dialed until
// Connect.
func New(url string, handler Handler, opts ...Option) *Channel {
	c := &Channel{
		url:     url,
		handler: handler,
		dialer:  websocket.DefaultDialer,
		delay:   DefaultReconnectDelay,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State reports the current lifecycle phase.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect begins an asynchronous dial. A second call while one attempt is
// outstanding, or while a connection is live, is rejected; no parallel socket
// is ever spawned.
func (c *Channel) Connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	if c.state == StateConnecting || c.state == StateOpen {
		c.mu.Unlock()
		return ErrConnectInFlight
	}
	c.state = StateConnecting
	c.mu.Unlock()

	c.workers.Add(1)
	go c.dial()
	return nil
}

// Send marshals the frame as JSON and writes it to the live socket. It fails
// with ErrNotOpen when the channel is not open and never blocks past the write
// deadline, including when a close races the send.
func (c *Channel) Send(frame any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen || c.conn == nil {
		return ErrNotOpen
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(frame)
}

// Close tears the channel down for good: the socket closes, no further
// reconnect is scheduled, and Connect refuses from here on.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.state = StateClosing
	if c.retry != nil {
		c.retry.Stop()
	}
	conn := c.conn
	if conn != nil {
		// Written under mu so it cannot interleave with a racing Send.
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	c.workers.Wait()

	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()
}

func (c *Channel) dial() {
	defer c.workers.Done()

	conn, resp, err := c.dialer.Dial(c.url, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		c.log.Warn().Err(err).Str("url", c.url).Msg("dial failed")
		c.mu.Lock()
		if c.state == StateConnecting {
			c.state = StateDisconnected
		}
		closed := c.closed
		c.mu.Unlock()
		c.handler.ChannelClosed()
		if !closed {
			c.scheduleReconnect()
		}
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.state = StateOpen
	c.mu.Unlock()

	c.log.Info().Str("url", c.url).Msg("channel open")
	c.handler.ChannelOpened()

	c.workers.Add(1)
	go c.readPump(conn)
}

// readPump forwards inbound frames until the connection dies, then hands
// control to the reconnect path.
func (c *Channel) readPump(conn *websocket.Conn) {
	defer c.workers.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.log.Debug().Err(err).Msg("read loop ended")
			break
		}
		if err := c.handler.HandleFrame(data); err != nil {
			c.log.Error().Err(err).Msg("protocol violation, dropping connection")
			break
		}
	}
	_ = conn.Close()

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	if !c.closed {
		c.state = StateDisconnected
	}
	closed := c.closed
	c.mu.Unlock()

	c.handler.ChannelClosed()
	if !closed {
		c.scheduleReconnect()
	}
}

// scheduleReconnect arms exactly one redial after the fixed delay.
func (c *Channel) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.retryPending || c.state == StateConnecting || c.state == StateOpen {
		return
	}
	c.retryPending = true
	c.log.Info().Dur("delay", c.delay).Msg("reconnect scheduled")
	c.retry = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		c.retryPending = false
		c.mu.Unlock()
		err := c.Connect()
		if err != nil && !errors.Is(err, ErrChannelClosed) {
			c.log.Warn().Err(err).Msg("reconnect attempt rejected")
		}
	})
}
