// Package client is the surface a chat UI embeds: connect to a room, send
// messages, observe incoming envelopes and the live user count. It owns the
// connection lifecycle so the UI only renders what the callbacks push.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
)

// Options configure a Client.
type Options struct {
	// URL is the broker websocket endpoint.
	URL string
	// APIBase is the broker HTTP base used for room allocation.
	APIBase string
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	Callbacks
}

// Client is the facade over sessions. It owns at most one live session at a
// time: connecting again tears the previous session down first, so a user
// switching rooms never appears joined twice.
type Client struct {
	opts  Options
	httpc *http.Client
	log   *zerolog.Logger

	connectMu sync.Mutex // serializes Connect calls end to end

	mu      sync.Mutex
	session *Session
}

// New constructs a client. Zero-value options fall back to a local broker.
func New(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = "ws://localhost:8080/ws"
	}
	if opts.APIBase == "" {
		opts.APIBase = "http://localhost:8080"
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{opts: opts, httpc: httpc, log: opts.Logger}
}

// Connect opens a session for username in the given room (the default room
// when empty). An empty trimmed username fails synchronously with
// ErrEmptyUsername before any side effect. A previous session owned by this
// client is disconnected first. Concurrent Connect calls serialize, so the
// client never owns more than one live session.
func (c *Client) Connect(ctx context.Context, username, room string) (*Session, error) {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.mu.Lock()
	prev := c.session
	c.mu.Unlock()
	if prev != nil {
		prev.Disconnect()
	}

	s, err := dial(ctx, c.opts.URL, username, room, c.opts.Callbacks, c.log, c.httpc)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return s, nil
}

// Send publishes a chat message through the current session. No-op when
// there is no connected session or the content is blank.
func (c *Client) Send(content string) {
	if s := c.Session(); s != nil {
		s.Send(content)
	}
}

// Disconnect tears down the current session. Idempotent.
func (c *Client) Disconnect() {
	if s := c.Session(); s != nil {
		s.Disconnect()
	}
}

// Session returns the session from the most recent Connect, or nil.
func (c *Client) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// CreateRoom asks the broker to allocate a fresh room id. The room itself
// materializes when the first session joins it.
func (c *Client) CreateRoom(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.APIBase+"/api/rooms", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create room: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("create room: decode response: %w", err)
	}
	if body.ID == "" {
		return "", fmt.Errorf("create room: empty id in response")
	}
	return body.ID, nil
}
