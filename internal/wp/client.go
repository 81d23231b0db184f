// Package wp talks to a WordPress site over its REST API: entity
// resolution by slug, media lookup, taxonomy management, and the
// create/update writes the publish pipeline issues.
package wp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/buildinfo"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/logger"
)

// ErrUnavailable marks network failures talking to the site. Fatal
// for the current item, never retried silently.
var ErrUnavailable = errors.New("wordpress api unavailable")

// ErrTimeout marks a request that ran out the configured deadline.
// Wraps ErrUnavailable, so both checks match it.
var ErrTimeout = fmt.Errorf("%w: request timed out", ErrUnavailable)

// ErrNotFound signals that no entity matched the lookup.
var ErrNotFound = errors.New("entity not found")

// APIError is a non-2xx response from the REST API.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("wordpress api %s returned %d: %s", e.Endpoint, e.StatusCode, body)
}

// Config carries everything needed to reach one site. Passed in
// explicitly so two site configurations can coexist in one process.
type Config struct {
	SiteURL     string
	Username    string
	AppPassword string
	Timeout     time.Duration
}

// Client is a thin REST API client with Basic Auth and the JSON
// response cleanup WordPress installs with noisy plugins need.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a client for one site. A zero timeout defaults to
// 30 seconds.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// SiteURL returns the configured site base URL without a trailing slash.
func (c *Client) SiteURL() string { return c.cfg.SiteURL }

func (c *Client) apiURL(endpoint string) string {
	return c.cfg.SiteURL + "/wp-json/wp/v2/" + strings.TrimLeft(endpoint, "/")
}

// cleanJSON strips PHP warnings and notices some installs emit before
// the JSON payload, keeping everything from the first brace or bracket.
func cleanJSON(text string) string {
	obj := strings.Index(text, "{")
	arr := strings.Index(text, "[")
	switch {
	case obj == -1 && arr == -1:
		return text
	case obj == -1:
		return text[arr:]
	case arr == -1:
		return text[obj:]
	case obj < arr:
		return text[obj:]
	default:
		return text[arr:]
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, payload interface{}, out interface{}) error {
	u := c.apiURL(endpoint)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding %s payload: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("building %s request: %w", endpoint, err)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.AppPassword)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Debug("wordpress api call", logger.String("method", method), logger.String("endpoint", endpoint))

	resp, err := c.http.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s after %s", ErrTimeout, endpoint, c.cfg.Timeout)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading %s response: %v", ErrUnavailable, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(cleanJSON(string(raw))), out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}

// GetJSON issues a GET and decodes the (cleaned) JSON body into out.
func (c *Client) GetJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, endpoint, params, nil, out)
}

// PostJSON issues a POST with a JSON payload and decodes the response.
func (c *Client) PostJSON(ctx context.Context, endpoint string, payload interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, endpoint, nil, payload, out)
}

// SiteTitle fetches the site's configured title. Needs an account that
// can read settings; used by preflight to catch wrong-site targets.
func (c *Client) SiteTitle(ctx context.Context) (string, error) {
	var out struct {
		Title string `json:"title"`
	}
	if err := c.GetJSON(ctx, "settings", nil, &out); err != nil {
		return "", err
	}
	return out.Title, nil
}
