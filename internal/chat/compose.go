package chat

// composeBuffer holds the outgoing message text being typed. It is confined to
// the session event loop, so no locking is needed.
type composeBuffer struct {
	data []rune
}

func newComposeBuffer(capacity int) *composeBuffer {
	if capacity <= 0 {
		capacity = 128
	}
	return &composeBuffer{data: make([]rune, 0, capacity)}
}

func (b *composeBuffer) Append(r rune) {
	b.data = append(b.data, r)
}

func (b *composeBuffer) TrimLast() {
	if n := len(b.data); n > 0 {
		b.data = b.data[:n-1]
	}
}

func (b *composeBuffer) Reset() {
	b.data = b.data[:0]
}

func (b *composeBuffer) Snapshot() string {
	return string(b.data)
}
