package chat

import "github.com/rs/zerolog"

// Router folds decoded inbound events into the tracker and pushes the results
// to the renderer. Control events recompute the derived lists immediately;
// chat messages pass straight through to the timeline.
type Router struct {
	self     string
	tracker  *Tracker
	renderer Renderer
	log      zerolog.Logger
}

func NewRouter(self string, tracker *Tracker, renderer Renderer, log zerolog.Logger) *Router {
	return &Router{self: self, tracker: tracker, renderer: renderer, log: log}
}

// Dispatch applies one inbound event. Must be called from a single goroutine;
// the session event loop owns that discipline.
func (r *Router) Dispatch(ev Event) {
	switch ev := ev.(type) {
	case TypingStarted:
		r.tracker.RecordTypingStart(ev.Sender)
		r.renderer.SetTypists(r.tracker.Typists(r.self))
	case TypingStopped:
		r.tracker.RecordTypingStop(ev.Sender)
		r.renderer.SetTypists(r.tracker.Typists(r.self))
	case PresenceDelta:
		r.tracker.ApplyDelta(ev.User, ev.Online)
		r.renderer.SetRecipients(r.tracker.Recipients(r.self))
	case PresenceSnapshot:
		r.tracker.ApplyFullList(ev.Users)
		r.renderer.SetRecipients(r.tracker.Recipients(r.self))
	case Message:
		r.renderer.ShowMessage(ev, ev.Sender == r.self)
	default:
		r.log.Error().Type("event", ev).Msg("unroutable event kind")
	}
}
