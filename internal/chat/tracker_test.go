package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackerSnapshotReplacesPriorState(t *testing.T) {
	tr := NewTracker()
	tr.ApplyDelta("stale", true)
	tr.ApplyDelta("gone", true)

	tr.ApplyFullList([]string{"a", "b", "c"})

	require.Equal(t, []string{"a", "b", "c"}, tr.Recipients("me"))
}

func TestTrackerDeltaIsIdempotent(t *testing.T) {
	tr := NewTracker()

	tr.ApplyDelta("bob", true)
	tr.ApplyDelta("bob", true)
	require.Equal(t, []string{"bob"}, tr.Recipients("me"))

	tr.ApplyDelta("bob", false)
	tr.ApplyDelta("bob", false)
	require.Empty(t, tr.Recipients("me"))
}

func TestTrackerFoldEqualsSnapshotPlusDeltas(t *testing.T) {
	tr := NewTracker()
	tr.ApplyFullList([]string{"a", "b"})
	tr.ApplyDelta("c", true)
	tr.ApplyDelta("a", false)
	tr.ApplyDelta("c", true)

	replay := NewTracker()
	replay.ApplyFullList([]string{"a", "b"})
	replay.ApplyDelta("c", true)
	replay.ApplyDelta("a", false)
	replay.ApplyDelta("c", true)

	require.Equal(t, replay.Recipients(""), tr.Recipients(""))
	require.Equal(t, []string{"b", "c"}, tr.Recipients(""))
}

func TestRecipientsExcludesSelfAndCollates(t *testing.T) {
	tr := NewTracker()
	tr.ApplyFullList([]string{"deniz", "çiğdem", "ceyda", "kerem"})

	// Turkish collation puts ç between c and d; plain byte order would push
	// çiğdem past deniz.
	require.Equal(t, []string{"ceyda", "çiğdem", "deniz"}, tr.Recipients("kerem"))
}

func TestRecipientsNeverContainsSelfOrDuplicates(t *testing.T) {
	tr := NewTracker()
	tr.ApplyFullList([]string{"me", "a"})
	tr.ApplyDelta("a", true)
	tr.ApplyDelta("me", true)

	require.Equal(t, []string{"a"}, tr.Recipients("me"))
}

func TestTypistsExcludesSelfAndDeduplicates(t *testing.T) {
	tr := NewTracker()
	tr.RecordTypingStart("bob")
	tr.RecordTypingStart("bob")
	tr.RecordTypingStart("alice")
	tr.RecordTypingStart("me")

	require.Equal(t, []string{"alice", "bob"}, tr.Typists("me"))

	tr.RecordTypingStop("bob")
	require.Equal(t, []string{"alice"}, tr.Typists("me"))
}

func TestTypingSetHasNoExpiry(t *testing.T) {
	tr := NewTracker()
	tr.RecordTypingStart("ghost")

	// A peer that vanished mid-typing stays marked until an explicit stop.
	tr.ApplyDelta("ghost", false)
	require.Equal(t, []string{"ghost"}, tr.Typists("me"))
}
