package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Deleter issues the message-deletion side channel call. The session fires it
// once per intent and never retries.
type Deleter interface {
	Delete(ctx context.Context, id MessageID) error
}

// HTTPDeleter talks to the hub's DELETE /delete_message/{id} endpoint.
type HTTPDeleter struct {
	base   string
	client *http.Client
}

func NewHTTPDeleter(base string) *HTTPDeleter {
	return &HTTPDeleter{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *HTTPDeleter) Delete(ctx context.Context, id MessageID) error {
	target := d.base + "/delete_message/" + url.PathEscape(string(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return fmt.Errorf("delete message %s: %w", id, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete message %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("delete message %s: server answered %s", id, resp.Status)
	}
	return nil
}

// OriginFromWS derives the HTTP origin serving the side channel from the
// websocket endpoint URL: the scheme flips to its HTTP counterpart and the
// path is dropped.
func OriginFromWS(wsURL string) (string, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "", fmt.Errorf("parse ws url: %w", err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
		// Already an HTTP origin.
	default:
		return "", fmt.Errorf("unsupported scheme %q in %q", u.Scheme, wsURL)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
