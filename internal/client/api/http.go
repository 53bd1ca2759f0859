package api

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

	"github.com/pawmart/sessionkit/internal/authx"
	"github.com/pawmart/sessionkit/internal/logging"
)

// HTTPClient talks JSON over HTTP to the storefront backend.
//
// Two underlying clients are held on purpose: `http` is the caller-supplied
// client, usually wrapping session.Transport so outbound calls carry the
// access token and survive expiry; `bare` has no interception and is used
// only for the refresh exchange.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	bare    *http.Client
	timeout time.Duration
	log     logging.Logger
}

// NewHTTPClient builds a client for baseURL. hc may be nil, in which case a
// plain client is used (no token attachment); log may be nil.
func NewHTTPClient(baseURL string, hc *http.Client, timeout time.Duration, log logging.Logger) *HTTPClient {
	if hc == nil {
		hc = &http.Client{}
	}
	if log == nil {
		log = logging.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		bare:    &http.Client{},
		timeout: timeout,
		log:     log,
	}
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, c.http, http.MethodPost, path, nil, "", in, out)
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, c.http, http.MethodGet, path, query, "", nil, out)
}

// postBare issues a POST over the unintercepted client with an explicit
// bearer token. Used exclusively by Refresh.
func (c *HTTPClient) postBare(ctx context.Context, path, bearer string, in, out any) error {
	return c.do(ctx, c.bare, http.MethodPost, path, nil, bearer, in, out)
}

func (c *HTTPClient) do(ctx context.Context, hc *http.Client, method, path string, query url.Values, bearer string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := hc.Do(req)
	if err != nil {
		c.log.Warn(ctx, "request failed", "path", path, "err", err)
		return fmt.Errorf("%s: %w", path, authx.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapError(resp, path)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// mapError converts a non-2xx response into *authx.APIError, preserving the
// backend-provided message when the body carries one.
func (c *HTTPClient) mapError(resp *http.Response, path string) error {
	var eb errorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &eb)

	apiErr := &authx.APIError{Status: resp.StatusCode, Message: eb.Message}
	return fmt.Errorf("%s: %w", path, apiErr)
}
