// internal/adapters/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"sunflower_web/internal/adapters/observability"
	"sunflower_web/internal/domain"
	"sunflower_web/internal/session"
)

const maxBody = 4 << 20

// Client holds the parts of the gateway shared by every browser session.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter // nil: unlimited
}

// New builds a client for the booking backend. rps <= 0 disables the client-side limiter.
// hc may be nil; the default client has no timeout of its own, the caller's context bounds each call.
func New(base string, rps int, hc *http.Client) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("backend base URL: %w", err)
	}
	if hc == nil {
		hc = &http.Client{}
	}
	c := &Client{base: strings.TrimRight(base, "/"), hc: hc}
	if rps > 0 {
		c.rl = rate.NewLimiter(rate.Limit(rps), rps)
	}
	return c, nil
}

// Gateway binds the client to one browser session. onUnauthenticated runs when an
// authenticated call finds no token, before ErrUnauthenticated is returned.
func (c *Client) Gateway(store session.Store, onUnauthenticated func(context.Context)) *Gateway {
	return &Gateway{c: c, store: store, onUnauth: onUnauthenticated}
}

type Gateway struct {
	c        *Client
	store    session.Store
	onUnauth func(context.Context)
}

var _ domain.Requester = (*Gateway)(nil)

// Do is Request followed by a JSON decode into out. A nil body (204) leaves out untouched.
func (g *Gateway) Do(ctx context.Context, path, method string, body any, needsAuth bool, out any) error {
	raw, err := g.Request(ctx, path, method, body, needsAuth)
	if err != nil {
		return err
	}
	if raw == nil || out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Request performs exactly one call. It returns nil for 204 and for non-JSON success bodies.
// Non-2xx answers become *domain.APIError; transport failures become domain.ErrNetwork.
func (g *Gateway) Request(ctx context.Context, path, method string, body any, needsAuth bool) (json.RawMessage, error) {
	if method == "" {
		method = http.MethodGet
	}

	var token string
	if needsAuth {
		s, err := g.store.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("read session: %w", err)
		}
		if s.Token == "" {
			log.Warn().Str("method", method).Str("path", path).Msg("auth token not found")
			if g.onUnauth != nil {
				g.onUnauth(ctx)
			}
			return nil, domain.ErrUnauthenticated
		}
		token = s.Token
	}

	var rdr io.Reader
	if body != nil && hasBody(method) {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.c.base+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "sunflower-web/1.0")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if g.c.rl != nil {
		if err := g.c.rl.Wait(ctx); err != nil {
			return nil, err
		}
	}

	endpoint := routeLabel(path)
	start := time.Now()
	resp, err := g.c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("backend", endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Err(err).Str("method", method).Str("path", path).Msg("backend unreachable")
		return nil, domain.ErrNetwork
	}
	defer resp.Body.Close()
	observability.ObserveExternal("backend", endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.ErrNetwork
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(b, resp.StatusCode)
		log.Warn().Int("status", resp.StatusCode).Str("method", method).Str("path", path).Str("msg", msg).Msg("backend error")
		return nil, &domain.APIError{Status: resp.StatusCode, Message: msg}
	}

	b = bytes.TrimSpace(b)
	if len(b) == 0 || !json.Valid(b) {
		return nil, nil
	}
	return json.RawMessage(b), nil
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// errorMessage prefers the server's {message} then {error}, else a generic status line.
func errorMessage(b []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(b, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return fmt.Sprintf("HTTP error %d", status)
}

// routeLabel drops the query and collapses numeric segments so metric labels stay bounded.
func routeLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p != "" && strings.Trim(p, "0123456789") == "" {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}
