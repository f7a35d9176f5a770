package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Frame discriminator values understood by the hub. Chat payloads carry no
// discriminator at all; anything unrecognized is treated as a chat message.
const (
	frameMessage     = "mesaj"
	frameTypingStart = "yaziyor"
	frameTypingStop  = "durdu"
	frameStatus      = "status"
	frameStatusList  = "status-list"
)

// MessageID is the server-assigned identifier of a stored message. The hub
// serializes it as a bare integer; older deployments used strings. Empty means
// the message was never stored and cannot be deleted.
type MessageID string

func (id *MessageID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = MessageID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = MessageID(n.String())
	return nil
}

// Event is one decoded inbound frame. The five kinds below are the whole
// protocol; DecodeFrame is the only producer.
type Event interface {
	isEvent()
}

// TypingStarted reports that a participant began composing.
type TypingStarted struct {
	Sender string
}

// TypingStopped reports that a participant stopped composing.
type TypingStopped struct {
	Sender string
}

// PresenceDelta reports a single participant going online or offline.
type PresenceDelta struct {
	User   string
	Online bool
}

// PresenceSnapshot replaces the whole online set.
type PresenceSnapshot struct {
	Users []string
}

// Message is a chat payload addressed to everyone (empty Recipient) or to a
// single participant.
type Message struct {
	ID        MessageID
	Sender    string
	Recipient string
	Content   string
	SentAt    time.Time
	RawTime   string
}

func (TypingStarted) isEvent()    {}
func (TypingStopped) isEvent()    {}
func (PresenceDelta) isEvent()    {}
func (PresenceSnapshot) isEvent() {}
func (Message) isEvent()          {}

// Private reports whether the message was addressed to a single participant.
func (m Message) Private() bool {
	return m.Recipient != ""
}

// inboundFrame is the superset shape of every frame the hub emits.
type inboundFrame struct {
	Type      string    `json:"type"`
	Sender    string    `json:"gonderen"`
	User      string    `json:"kullanici"`
	Users     []string  `json:"kullanicilar"`
	Online    bool      `json:"online"`
	Recipient string    `json:"alici"`
	Content   string    `json:"icerik"`
	Time      string    `json:"zaman"`
	ID        MessageID `json:"id"`
}

// DecodeFrame classifies one inbound wire frame. Control events are matched by
// discriminator first; every other payload, including frames with no type
// field at all, falls through to a chat message. A frame that is not valid
// JSON is a protocol violation and yields an error.
func DecodeFrame(data []byte) (Event, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	switch frame.Type {
	case frameTypingStart:
		return TypingStarted{Sender: frame.Sender}, nil
	case frameTypingStop:
		return TypingStopped{Sender: frame.Sender}, nil
	case frameStatus:
		return PresenceDelta{User: frame.User, Online: frame.Online}, nil
	case frameStatusList:
		return PresenceSnapshot{Users: frame.Users}, nil
	}

	msg := Message{
		ID:        frame.ID,
		Sender:    frame.Sender,
		Recipient: frame.Recipient,
		Content:   frame.Content,
		RawTime:   frame.Time,
	}
	// The hub timestamps messages with an ISO-8601-ish string. A malformed
	// timestamp is not a protocol violation; the raw text is kept for display.
	if t, err := time.Parse(time.RFC3339, frame.Time); err == nil {
		msg.SentAt = t
	}
	return msg, nil
}

// messageFrame is the outgoing chat payload.
type messageFrame struct {
	Type      string `json:"type"`
	Sender    string `json:"gonderen"`
	Recipient string `json:"alici"`
	Content   string `json:"icerik"`
}

// typingFrame is the outgoing composing-started / composing-stopped signal.
type typingFrame struct {
	Type   string `json:"type"`
	Sender string `json:"gonderen"`
}

func newMessageFrame(sender, recipient, content string) messageFrame {
	return messageFrame{Type: frameMessage, Sender: sender, Recipient: recipient, Content: content}
}

func newTypingStartFrame(sender string) typingFrame {
	return typingFrame{Type: frameTypingStart, Sender: sender}
}

func newTypingStopFrame(sender string) typingFrame {
	return typingFrame{Type: frameTypingStop, Sender: sender}
}
