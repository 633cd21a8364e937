package jellyfin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// tokenHeader carries the API key on every request.
	tokenHeader = "X-Emby-Token"

	// maxErrorBody bounds how much of an error response is kept for logs.
	maxErrorBody = 256
)

// Client talks to one Jellyfin server.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client

	// sessionUsers holds the user ids of the last successful session
	// snapshot; user online status is derived from it.
	sessionUsers map[string]struct{}
	sessionMu    sync.RWMutex
}

// New creates a client for baseURL. timeout bounds every request.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		http:         &http.Client{Timeout: timeout},
		sessionUsers: make(map[string]struct{}),
	}
}

// BaseURL returns the server URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping checks that the server answers /System/Ping.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/System/Ping", nil, nil, nil)
}

// SystemInfo fetches /System/Info.
func (c *Client) SystemInfo(ctx context.Context) (SystemInfo, error) {
	var info SystemInfo
	if err := c.get(ctx, "/System/Info", nil, &info); err != nil {
		return SystemInfo{}, err
	}
	info.normalize()
	return info, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, query url.Values, body any) error {
	return c.do(ctx, http.MethodPost, path, query, body, nil)
}

// do performs one request. body is JSON-encoded when non-nil; the response
// is JSON-decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set(tokenHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrRemoteUnavailable, method, path, ctxErr)
		}
		return fmt.Errorf("%w: %s %s: %w", ErrRemoteUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s %s returned %d: %s",
			ErrUnexpectedStatus, method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %s %s: empty body", ErrDecode, method, path)
		}
		return fmt.Errorf("%w: %s %s: %w", ErrDecode, method, path, err)
	}
	return nil
}

// rememberSessionUsers replaces the set of users with an active session.
func (c *Client) rememberSessionUsers(ids map[string]struct{}) {
	c.sessionMu.Lock()
	c.sessionUsers = ids
	c.sessionMu.Unlock()
}

// userOnline reports whether userID had a session in the last snapshot.
func (c *Client) userOnline(userID string) bool {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	_, ok := c.sessionUsers[userID]
	return ok
}
