package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"repkit/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the repkit HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// Register creates server-side state for a user. Safe to repeat; created
// reports whether this call created the state.
func (c *Client) Register(ctx context.Context, userID string) (UserState, bool, error) {
	if strings.TrimSpace(userID) == "" {
		return UserState{}, false, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/register", c.baseURL, url.PathEscape(userID))
	resp, err := c.do(ctx, http.MethodPost, u, nil)
	if err != nil {
		return UserState{}, false, err
	}
	defer resp.Body.Close()

	var body struct {
		State   UserState `json:"state"`
		Created bool      `json:"created"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return UserState{}, false, err
	}
	return body.State, body.Created, nil
}

// Recompute folds one activity report into the user's progression state.
func (c *Client) Recompute(ctx context.Context, userID string, in ActivityInput) (RecomputeResult, error) {
	if strings.TrimSpace(userID) == "" {
		return RecomputeResult{}, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/recompute", c.baseURL, url.PathEscape(userID))
	resp, err := c.do(ctx, http.MethodPost, u, in)
	if err != nil {
		return RecomputeResult{}, err
	}
	defer resp.Body.Close()

	var res RecomputeResult
	if err := decodeJSON(resp, &res); err != nil {
		return RecomputeResult{}, err
	}
	return res, nil
}

// GetUser fetches the current progression state for a user.
func (c *Client) GetUser(ctx context.Context, userID string) (UserState, error) {
	if strings.TrimSpace(userID) == "" {
		return UserState{}, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(userID))
	resp, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return UserState{}, err
	}
	defer resp.Body.Close()

	var st UserState
	if err := decodeJSON(resp, &st); err != nil {
		return UserState{}, err
	}
	return st, nil
}

// History fetches the user's reputation ledger, newest entry last.
func (c *Client) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/history", c.baseURL, url.PathEscape(userID))
	resp, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		History []HistoryEntry `json:"history"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return body.History, nil
}

// Reset zeroes a user's progression. The server rejects the call unless
// confirm is true.
func (c *Client) Reset(ctx context.Context, userID string, confirm, clearHistory bool) (UserState, error) {
	if strings.TrimSpace(userID) == "" {
		return UserState{}, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/reset", c.baseURL, url.PathEscape(userID))
	payload := map[string]bool{"confirm": confirm, "clear_history": clearHistory}
	resp, err := c.do(ctx, http.MethodPost, u, payload)
	if err != nil {
		return UserState{}, err
	}
	defer resp.Body.Close()

	var st UserState
	if err := decodeJSON(resp, &st); err != nil {
		return UserState{}, err
	}
	return st, nil
}

// Leaderboard fetches the top n standings.
func (c *Client) Leaderboard(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	u := fmt.Sprintf("%s/leaderboard?n=%d", c.baseURL, n)
	resp, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Entries []LeaderboardEntry `json:"entries"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return body.Entries, nil
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := decodeJSON(resp, &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event values.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var evt core.Event
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				select {
				case out <- evt:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) do(ctx context.Context, method, u string, payload any) (*http.Response, error) {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyHeaders(req)
	return c.httpClient.Do(req)
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
