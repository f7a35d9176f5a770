package chat

// Renderer is the display sink the session feeds. Implementations draw the
// timeline and the derived presence state; they never mutate session state.
type Renderer interface {
	// ShowMessage appends one chat message to the timeline. own is true when
	// the local participant sent it.
	ShowMessage(msg Message, own bool)

	// RemoveMessage drops a previously shown message after a confirmed delete.
	RemoveMessage(id MessageID)

	// SetRecipients replaces the selectable recipient list.
	SetRecipients(users []string)

	// SetTypists replaces the list of participants currently composing.
	SetTypists(users []string)

	// SetConnected toggles the input affordances with the transport state.
	SetConnected(connected bool)

	// SetCompose mirrors the outgoing-text buffer into the prompt.
	SetCompose(text string)

	// Notice surfaces a user-facing error or status line.
	Notice(text string)
}
