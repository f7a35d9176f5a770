package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecodeFrameClassifiesControlEvents(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Event
	}{
		{
			name: "typing start",
			raw:  `{"type":"yaziyor","gonderen":"ayse"}`,
			want: TypingStarted{Sender: "ayse"},
		},
		{
			name: "typing stop",
			raw:  `{"type":"durdu","gonderen":"ayse"}`,
			want: TypingStopped{Sender: "ayse"},
		},
		{
			name: "presence delta online",
			raw:  `{"type":"status","kullanici":"bob","online":true}`,
			want: PresenceDelta{User: "bob", Online: true},
		},
		{
			name: "presence delta offline",
			raw:  `{"type":"status","kullanici":"bob","online":false}`,
			want: PresenceDelta{User: "bob", Online: false},
		},
		{
			name: "presence snapshot",
			raw:  `{"type":"status-list","kullanicilar":["a","b","c"]}`,
			want: PresenceSnapshot{Users: []string{"a", "b", "c"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := DecodeFrame([]byte(tc.raw))
			require.NoError(t, err)
			require.Equal(t, tc.want, ev)
		})
	}
}

func TestDecodeFrameFallsThroughToChatMessage(t *testing.T) {
	ev, err := DecodeFrame([]byte(`{"gonderen":"alice","alici":"","icerik":"hi","zaman":"2024-01-01T00:00:00Z"}`))
	require.NoError(t, err)

	msg, ok := ev.(Message)
	require.True(t, ok, "payload without discriminator must classify as chat message")
	require.Equal(t, "alice", msg.Sender)
	require.Equal(t, "hi", msg.Content)
	require.False(t, msg.Private())
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), msg.SentAt.UTC())
}

func TestDecodeFrameUnknownDiscriminatorIsChatMessage(t *testing.T) {
	ev, err := DecodeFrame([]byte(`{"type":"mesaj","gonderen":"alice","alici":"bob","icerik":"selam"}`))
	require.NoError(t, err)

	msg, ok := ev.(Message)
	require.True(t, ok)
	require.True(t, msg.Private())
	require.Equal(t, "bob", msg.Recipient)
}

func TestDecodeFrameMessageIDForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want MessageID
	}{
		{"integer id", `{"gonderen":"a","icerik":"x","id":42}`, "42"},
		{"string id", `{"gonderen":"a","icerik":"x","id":"abc-1"}`, "abc-1"},
		{"null id", `{"gonderen":"a","icerik":"x","id":null}`, ""},
		{"missing id", `{"gonderen":"a","icerik":"x"}`, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := DecodeFrame([]byte(tc.raw))
			require.NoError(t, err)
			require.Equal(t, tc.want, ev.(Message).ID)
		})
	}
}

func TestDecodeFrameLenientTimestamp(t *testing.T) {
	ev, err := DecodeFrame([]byte(`{"gonderen":"a","icerik":"x","zaman":"yesterday-ish"}`))
	require.NoError(t, err, "a bad timestamp is not a protocol violation")

	msg := ev.(Message)
	require.True(t, msg.SentAt.IsZero())
	require.Equal(t, "yesterday-ish", msg.RawTime)
}

func TestDecodeFrameRejectsInvalidJSON(t *testing.T) {
	_, err := DecodeFrame([]byte(`{"gonderen":`))
	require.Error(t, err)
}
