package chat

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const (
	seqSaveCursor    = "\0337\033[s"
	seqRestoreCursor = "\033[u\0338"
	seqCursorHome    = "\033[H"
	seqClearLine     = "\033[2K"
	seqInsertLine    = "\033[1L"
	seqClearScreen   = "\033[2J"
)

const displayTimeLayout = "02.01.2006 15:04:05"

// TerminalRenderer draws the chat timeline into an ANSI terminal: a status
// line pinned to the top, message lines scrolling below, and a prompt that
// mirrors the compose buffer.
type TerminalRenderer struct {
	self   string
	colors *colorCache

	mu         sync.Mutex
	w          io.Writer
	recipients []string
	typists    []string
	connected  bool
	compose    string

	statusOnce sync.Once
	statusErr  error
}

func NewTerminalRenderer(w io.Writer, self string) *TerminalRenderer {
	return &TerminalRenderer{
		self:   self,
		colors: newColorCache(),
		w:      w,
	}
}

// ClearScreen prepares the terminal before the first render.
func (r *TerminalRenderer) ClearScreen() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.write(seqClearScreen + seqCursorHome)
}

func (r *TerminalRenderer) ShowMessage(msg Message, own bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sender := r.colors.colorFor(msg.Sender) + msg.Sender + colorReset
	if msg.Private() {
		sender += " -> " + msg.Recipient
	}

	when := msg.RawTime
	if !msg.SentAt.IsZero() {
		when = msg.SentAt.Local().Format(displayTimeLayout)
	}

	line := fmt.Sprintf("[%s] %s: %s", when, sender, msg.Content)
	if msg.ID != "" && own {
		line += fmt.Sprintf("  (id %s)", msg.ID)
	}
	if !own {
		// Terminal bell stands in for the web client's notification sound.
		line += "\a"
	}
	r.printLine(line)
}

func (r *TerminalRenderer) RemoveMessage(id MessageID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printLine(fmt.Sprintf("[system] message %s deleted", id))
}

func (r *TerminalRenderer) SetRecipients(users []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recipients = users
	r.renderStatus()
	r.renderPrompt()
}

func (r *TerminalRenderer) SetTypists(users []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.typists = users
	r.renderStatus()
	r.renderPrompt()
}

func (r *TerminalRenderer) SetConnected(connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = connected
	if connected {
		r.printLine("[system] connected")
	} else {
		r.printLine("[system] disconnected, retrying...")
	}
}

func (r *TerminalRenderer) SetCompose(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compose = text
	r.renderPrompt()
}

func (r *TerminalRenderer) Notice(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printLine("[system] " + text)
}

// printLine emits a message line and restores the prompt below it.
func (r *TerminalRenderer) printLine(line string) {
	r.write("\r\033[K" + line + "\r\n")
	r.renderPrompt()
}

func (r *TerminalRenderer) renderStatus() {
	r.ensureStatusLine()

	var b strings.Builder
	fmt.Fprintf(&b, "Online: %d", len(r.recipients))
	if len(r.recipients) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(r.recipients, ", "))
	}
	if len(r.typists) > 0 {
		fmt.Fprintf(&b, " | typing: %s...", strings.Join(r.typists, ", "))
	}
	r.write(seqSaveCursor + seqCursorHome + seqClearLine + b.String() + seqRestoreCursor)
}

func (r *TerminalRenderer) renderPrompt() {
	prompt := "> "
	if !r.connected {
		prompt = "(offline) > "
	}
	r.write("\r" + prompt + r.compose + "\033[K")
}

func (r *TerminalRenderer) ensureStatusLine() {
	r.statusOnce.Do(func() {
		r.statusErr = r.write(seqSaveCursor + seqCursorHome + seqInsertLine + seqRestoreCursor)
	})
}

func (r *TerminalRenderer) write(s string) error {
	_, err := io.WriteString(r.w, s)
	return err
}
