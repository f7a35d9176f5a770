package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComposeBufferBasicOperations(t *testing.T) {
	buf := newComposeBuffer(2)

	buf.Append('a')
	buf.Append('b')
	require.Equal(t, "ab", buf.Snapshot())

	buf.TrimLast()
	require.Equal(t, "a", buf.Snapshot())

	buf.TrimLast()
	buf.TrimLast()
	require.Equal(t, "", buf.Snapshot(), "trimming an empty buffer is a no-op")

	buf.Append('ç')
	require.Equal(t, "ç", buf.Snapshot())

	buf.Reset()
	require.Equal(t, "", buf.Snapshot())
}
