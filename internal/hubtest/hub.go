// Package hubtest runs a scripted in-process stand-in for the sohbet server:
// a real websocket endpoint plus the message-deletion side channel, driven
// entirely by the test. Production code never imports it.
package hubtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub serves /ws and DELETE /delete_message/{id} over httptest. Inbound
// frames are recorded; outbound frames are pushed by the test script.
type Hub struct {
	server   *httptest.Server
	upgrader websocket.Upgrader

	mu           sync.Mutex
	conns        map[*websocket.Conn]struct{}
	received     []json.RawMessage
	deleted      []string
	deleteStatus int
	echoChat     bool
	greeting     []json.RawMessage
	peak         int
}

func New() *Hub {
	h := &Hub{
		conns:        make(map[*websocket.Conn]struct{}),
		deleteStatus: http.StatusNoContent,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	r := chi.NewRouter()
	r.Get("/ws", h.handleWS)
	r.Delete("/delete_message/{id}", h.handleDelete)
	h.server = httptest.NewServer(r)
	return h
}

// URL returns the websocket endpoint.
func (h *Hub) URL() string {
	return "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws"
}

// BaseURL returns the HTTP origin for the side channel.
func (h *Hub) BaseURL() string {
	return h.server.URL
}

// Close shuts the hub down, dropping every client.
func (h *Hub) Close() {
	h.DropClients()
	h.server.Close()
}

// SetGreeting sets frames pushed to every newly connected client, the way the
// real hub pushes a presence snapshot and recent history right after accept.
func (h *Hub) SetGreeting(frames ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.greeting = h.greeting[:0]
	for _, f := range frames {
		data, err := json.Marshal(f)
		if err != nil {
			panic(fmt.Sprintf("hubtest: bad greeting frame: %v", err))
		}
		h.greeting = append(h.greeting, data)
	}
}

// SetEchoChat makes the hub echo every inbound chat frame back to all clients
// with a server-assigned id and timestamp, like the real hub does.
func (h *Hub) SetEchoChat(on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.echoChat = on
}

// SetDeleteStatus changes the status code of the deletion endpoint.
func (h *Hub) SetDeleteStatus(code int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleteStatus = code
}

// Push sends one frame to every connected client.
func (h *Hub) Push(frame any) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("hubtest: marshal frame: %w", err)
	}
	h.PushRaw(data)
	return nil
}

// PushRaw sends raw bytes to every connected client, valid JSON or not.
func (h *Hub) PushRaw(data []byte) {
	for _, conn := range h.snapshotConns() {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

// DropClients closes every live connection server-side.
func (h *Hub) DropClients() {
	for _, conn := range h.snapshotConns() {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "scripted drop"))
		_ = conn.Close()
	}
}

// Received returns a copy of every frame clients have sent so far.
func (h *Hub) Received() []json.RawMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]json.RawMessage(nil), h.received...)
}

// ReceivedTypes returns the discriminator of each received frame in order;
// frames without one report "mesaj" the way the real hub defaults them.
func (h *Hub) ReceivedTypes() []string {
	var types []string
	for _, raw := range h.Received() {
		var frame struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(raw, &frame)
		if frame.Type == "" {
			frame.Type = "mesaj"
		}
		types = append(types, frame.Type)
	}
	return types
}

// Deleted returns the ids handed to the deletion endpoint.
func (h *Hub) Deleted() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.deleted...)
}

// ClientCount reports the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// PeakClients reports the highest number of simultaneous connections seen,
// which lets tests prove that reconnection never runs two sockets at once.
func (h *Hub) PeakClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.peak
}

func (h *Hub) snapshotConns() []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	return conns
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	if len(h.conns) > h.peak {
		h.peak = len(h.conns)
	}
	greeting := append([]json.RawMessage(nil), h.greeting...)
	h.mu.Unlock()

	for _, frame := range greeting {
		_ = conn.WriteMessage(websocket.TextMessage, frame)
	}

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.conns, conn)
			h.mu.Unlock()
			_ = conn.Close()
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			h.mu.Lock()
			h.received = append(h.received, json.RawMessage(data))
			echo := h.echoChat
			h.mu.Unlock()
			if echo {
				h.maybeEchoChat(data)
			}
		}
	}()
}

// maybeEchoChat rebroadcasts a chat frame with a server-assigned id and
// timestamp, dropping the discriminator like the real hub.
func (h *Hub) maybeEchoChat(data []byte) {
	var frame struct {
		Type      string `json:"type"`
		Sender    string `json:"gonderen"`
		Recipient string `json:"alici"`
		Content   string `json:"icerik"`
	}
	if err := json.Unmarshal(data, &frame); err != nil || frame.Type != "mesaj" {
		return
	}
	_ = h.Push(map[string]any{
		"gonderen": frame.Sender,
		"alici":    frame.Recipient,
		"icerik":   frame.Content,
		"zaman":    time.Now().UTC().Format(time.RFC3339),
		"id":       uuid.NewString(),
	})
}

func (h *Hub) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mu.Lock()
	h.deleted = append(h.deleted, id)
	status := h.deleteStatus
	h.mu.Unlock()
	w.WriteHeader(status)
}
