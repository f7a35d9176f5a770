package chat

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Tracker holds the presence and typing sets derived from inbound control
// events. It keeps no message history; replaying the same event sequence from
// a cold start always reproduces the same sets.
//
// Tracker is not safe for concurrent use. The session event loop is its only
// writer and reader.
type Tracker struct {
	online map[string]struct{}
	typing map[string]struct{}

	collator *collate.Collator
}

// NewTracker constructs an empty tracker. Recipient ordering follows Turkish
// collation, matching the ordering users see in the hub's own web client.
func NewTracker() *Tracker {
	return &Tracker{
		online:   make(map[string]struct{}),
		typing:   make(map[string]struct{}),
		collator: collate.New(language.Turkish),
	}
}

// ApplyFullList replaces the entire online set with the given snapshot.
func (t *Tracker) ApplyFullList(users []string) {
	t.online = make(map[string]struct{}, len(users))
	for _, user := range users {
		t.online[user] = struct{}{}
	}
}

// ApplyDelta adds or removes a single participant. Repeating the same delta is
// a no-op.
func (t *Tracker) ApplyDelta(user string, online bool) {
	if online {
		t.online[user] = struct{}{}
		return
	}
	delete(t.online, user)
}

// RecordTypingStart marks a participant as composing.
func (t *Tracker) RecordTypingStart(user string) {
	t.typing[user] = struct{}{}
}

// RecordTypingStop clears a participant's composing mark. There is no
// time-based expiry: a peer that disconnects mid-typing stays marked until an
// explicit stop arrives, mirroring the hub's web client.
func (t *Tracker) RecordTypingStop(user string) {
	delete(t.typing, user)
}

// Recipients returns the selectable message recipients: everyone online except
// self, collated, with the raw identity string as tie-break.
func (t *Tracker) Recipients(self string) []string {
	out := make([]string, 0, len(t.online))
	for user := range t.online {
		if user == self {
			continue
		}
		out = append(out, user)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if by := t.collator.CompareString(out[i], out[j]); by != 0 {
			return by < 0
		}
		return out[i] < out[j]
	})
	return out
}

// Typists returns the participants currently composing, excluding self, in
// lexicographic order.
func (t *Tracker) Typists(self string) []string {
	out := make([]string, 0, len(t.typing))
	for user := range t.typing {
		if user == self {
			continue
		}
		out = append(out, user)
	}
	sort.Strings(out)
	return out
}
