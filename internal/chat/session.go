package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTypingDebounce is the quiet period after the last keystroke before a
// composing-stopped signal goes out.
const DefaultTypingDebounce = 2 * time.Second

const deleteTimeout = 10 * time.Second

var errNoTransport = errors.New("chat: session has no transport attached")

// Transport is the live connection the session writes to. *wsclient.Channel
// satisfies it.
type Transport interface {
	Connect() error
	Send(frame any) error
	Close()
}

type commandKind int

const (
	cmdInbound commandKind = iota
	cmdOpened
	cmdClosed
	cmdType
	cmdErase
	cmdSubmit
	cmdSelect
	cmdDelete
	cmdDeleteResult
)

// command is one unit of work for the session event loop. Wire frames, user
// input, and timer expiries all funnel through it, so every piece of mutable
// session state has a single writer.
type command struct {
	kind  commandKind
	event Event
	r     rune
	text  string
	msg   Message
	id    MessageID
	err   error
}

// Session owns the participant identity, the transport, the presence tracker,
// and the compose buffer. All state changes happen on its event loop.
type Session struct {
	self      string
	transport Transport
	tracker   *Tracker
	router    *Router
	renderer  Renderer
	deleter   Deleter
	buffer    *composeBuffer
	debounce  time.Duration
	log       zerolog.Logger

	// Loop-confined state.
	recipient string
	open      bool
	idle      *time.Timer

	commands chan command
	quit     chan struct{}
	loopDone chan struct{}
	cleanup  sync.Once
}

// SessionOption adjusts session construction.
type SessionOption func(*Session)

// WithTypingDebounce overrides the composing-stopped quiet period.
func WithTypingDebounce(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithSessionLogger sets the session logger.
func WithSessionLogger(log zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = log }
}

// NewSession builds a session for the given local identity. Attach a transport
// with AttachTransport before calling Start.
func NewSession(self string, renderer Renderer, deleter Deleter, opts ...SessionOption) *Session {
	s := &Session{
		self:     self,
		tracker:  NewTracker(),
		renderer: renderer,
		deleter:  deleter,
		buffer:   newComposeBuffer(128),
		debounce: DefaultTypingDebounce,
		log:      zerolog.Nop(),
		commands: make(chan command, 64),
		quit:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = NewRouter(self, s.tracker, renderer, s.log)
	return s
}

// AttachTransport binds the live channel. The session is the channel's frame
// handler, so construction is two-step: build the session, build the channel
// around it, then attach.
func (s *Session) AttachTransport(t Transport) {
	s.transport = t
}

// Start launches the event loop and begins the first connection attempt.
func (s *Session) Start() error {
	if s.transport == nil {
		return errNoTransport
	}

	s.idle = time.NewTimer(s.debounce)
	if !s.idle.Stop() {
		<-s.idle.C
	}

	go s.loop()

	if err := s.transport.Connect(); err != nil {
		s.Stop()
		return fmt.Errorf("chat: initial connect: %w", err)
	}
	return nil
}

// Stop tears the session down: the transport closes, the loop exits. Safe to
// call more than once.
func (s *Session) Stop() {
	s.cleanup.Do(func() {
		close(s.quit)
		if s.transport != nil {
			s.transport.Close()
		}
		<-s.loopDone
	})
}

// TypeRune appends one rune to the compose buffer and counts as typing
// activity.
func (s *Session) TypeRune(r rune) {
	s.enqueue(command{kind: cmdType, r: r})
}

// Erase removes the last rune from the compose buffer; deletions count as
// typing activity too.
func (s *Session) Erase() {
	s.enqueue(command{kind: cmdErase})
}

// Submit sends the compose buffer as a chat message to the selected recipient.
func (s *Session) Submit() {
	s.enqueue(command{kind: cmdSubmit})
}

// SelectRecipient picks the addressee for subsequent messages. Empty means
// broadcast.
func (s *Session) SelectRecipient(user string) {
	s.enqueue(command{kind: cmdSelect, text: user})
}

// DeleteMessage requests deletion of a previously received message. Only own
// messages bearing a server-assigned id are eligible; anything else is
// ignored.
func (s *Session) DeleteMessage(msg Message) {
	s.enqueue(command{kind: cmdDelete, msg: msg})
}

// ChannelOpened implements wsclient.Handler.
func (s *Session) ChannelOpened() {
	s.enqueue(command{kind: cmdOpened})
}

// ChannelClosed implements wsclient.Handler.
func (s *Session) ChannelClosed() {
	s.enqueue(command{kind: cmdClosed})
}

// HandleFrame implements wsclient.Handler: it decodes the wire frame once at
// the transport boundary and hands the typed event to the loop. A decode error
// propagates so the channel drops the connection.
func (s *Session) HandleFrame(data []byte) error {
	ev, err := DecodeFrame(data)
	if err != nil {
		return err
	}
	s.enqueue(command{kind: cmdInbound, event: ev})
	return nil
}

func (s *Session) enqueue(cmd command) {
	select {
	case s.commands <- cmd:
	case <-s.quit:
	}
}

func (s *Session) loop() {
	defer close(s.loopDone)
	for {
		select {
		case cmd := <-s.commands:
			s.apply(cmd)
		case <-s.idle.C:
			s.typingIdle()
		case <-s.quit:
			return
		}
	}
}

func (s *Session) apply(cmd command) {
	switch cmd.kind {
	case cmdInbound:
		s.router.Dispatch(cmd.event)
	case cmdOpened:
		s.open = true
		s.renderer.SetConnected(true)
	case cmdClosed:
		s.open = false
		s.renderer.SetConnected(false)
	case cmdType:
		s.buffer.Append(cmd.r)
		s.renderer.SetCompose(s.buffer.Snapshot())
		s.notifyTyping()
	case cmdErase:
		s.buffer.TrimLast()
		s.renderer.SetCompose(s.buffer.Snapshot())
		s.notifyTyping()
	case cmdSubmit:
		s.submit()
	case cmdSelect:
		s.recipient = cmd.text
	case cmdDelete:
		s.requestDelete(cmd.msg)
	case cmdDeleteResult:
		if cmd.err != nil {
			s.renderer.Notice(fmt.Sprintf("could not delete message %s: %v", cmd.id, cmd.err))
			return
		}
		s.renderer.RemoveMessage(cmd.id)
	}
}

// notifyTyping emits a composing-started signal and re-arms the quiet-period
// timer. The timer is re-armed even while disconnected; the stop signal is
// suppressed if the channel is still down when it fires.
func (s *Session) notifyTyping() {
	if s.open {
		if err := s.transport.Send(newTypingStartFrame(s.self)); err != nil {
			s.log.Debug().Err(err).Msg("typing-start not sent")
		}
	}
	s.rearmIdle()
}

func (s *Session) rearmIdle() {
	if !s.idle.Stop() {
		select {
		case <-s.idle.C:
		default:
		}
	}
	s.idle.Reset(s.debounce)
}

func (s *Session) typingIdle() {
	if !s.open {
		return
	}
	if err := s.transport.Send(newTypingStopFrame(s.self)); err != nil {
		s.log.Debug().Err(err).Msg("typing-stop not sent")
	}
}

func (s *Session) submit() {
	text := strings.TrimSpace(s.buffer.Snapshot())
	if text == "" {
		return
	}

	if err := s.transport.Send(newMessageFrame(s.self, s.recipient, text)); err != nil {
		s.renderer.Notice("message not sent: " + err.Error())
		return
	}
	// Follow up immediately so peers drop the stale typing indicator.
	if err := s.transport.Send(newTypingStopFrame(s.self)); err != nil {
		s.log.Debug().Err(err).Msg("typing-stop not sent")
	}

	s.buffer.Reset()
	s.renderer.SetCompose("")
}

func (s *Session) requestDelete(msg Message) {
	if msg.ID == "" || msg.Sender != s.self {
		s.log.Debug().Str("sender", msg.Sender).Msg("ignoring delete intent for foreign or unstored message")
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
		defer cancel()
		err := s.deleter.Delete(ctx, msg.ID)
		s.enqueue(command{kind: cmdDeleteResult, id: msg.ID, err: err})
	}()
}
