package rest

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dialog-db/dialog/publish"
	"github.com/dialog-db/dialog/store"
)

// AuthMethod selects how Client authenticates its requests, mirroring
// the none/bearer-token choice of the reference REST backend.
type AuthMethod interface{ apply(*http.Request) }

type noAuth struct{}

func (noAuth) apply(*http.Request) {}

type bearerAuth struct{ token string }

func (b bearerAuth) apply(r *http.Request) {
	r.Header.Set("Authorization", "Bearer "+b.token)
}

// NoAuth performs no request authentication.
func NoAuth() AuthMethod { return noAuth{} }

// BearerAuth authenticates every request with an `Authorization: Bearer`
// header.
func BearerAuth(token string) AuthMethod { return bearerAuth{token} }

// ClientConfig configures a Client.
type ClientConfig struct {
	// Endpoint is the base URL requests are issued against, e.g.
	// "https://api.example.com/register". Subject is appended as a
	// path segment.
	Endpoint string
	Auth     AuthMethod
	Timeout  time.Duration
	Headers  map[string]string
}

// Client is a publish.Backend implemented over the spec.md 6.3 REST
// profile, grounded on the reference RestBackend's HEAD/PUT protocol.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewClient constructs a Client from cfg, defaulting Auth to NoAuth and
// Timeout to 30s when unset.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Auth == nil {
		cfg.Auth = NoAuth()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
}

func (c *Client) url(subject string) string {
	return fmt.Sprintf("%s/%s", c.cfg.Endpoint, subject)
}

func (c *Client) newRequest(method, url string, body []byte) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}
	c.cfg.Auth.apply(req)
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// Get implements publish.Backend.
func (c *Client) Get(subject string) (store.Revision, publish.Edition, bool, error) {
	req, err := c.newRequest(http.MethodHead, c.url(subject), nil)
	if err != nil {
		return store.Revision{}, "", false, fmt.Errorf("publish/rest: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return store.Revision{}, "", false, fmt.Errorf("publish/rest: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return store.Revision{}, "", false, nil
	case http.StatusUnauthorized:
		return store.Revision{}, "", false, fmt.Errorf("publish/rest: unauthorized")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return store.Revision{}, "", false, fmt.Errorf("publish/rest: unexpected status %d", resp.StatusCode)
	}

	edition := publish.Edition(resp.Header.Get("ETag"))
	if edition == "" {
		return store.Revision{}, "", false, fmt.Errorf("publish/rest: missing ETag header")
	}
	revision, err := edition.Revision()
	if err != nil {
		return store.Revision{}, "", false, fmt.Errorf("publish/rest: decode ETag: %w", err)
	}
	return revision, edition, true, nil
}

// Set implements publish.Backend.
func (c *Client) Set(subject string, expected publish.Edition, revision store.Revision) (publish.Edition, error) {
	body, err := json.Marshal(revisionPayload{Revision: hex.EncodeToString(revision.Encode())})
	if err != nil {
		return "", fmt.Errorf("publish/rest: encode body: %w", err)
	}

	req, err := c.newRequest(http.MethodPut, c.url(subject), body)
	if err != nil {
		return "", fmt.Errorf("publish/rest: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("If-Match", string(expected))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("publish/rest: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return "", &publish.NotFoundError{Subject: subject}
	case http.StatusUnauthorized:
		return "", fmt.Errorf("publish/rest: unauthorized")
	case http.StatusPreconditionFailed:
		actual := publish.Edition(resp.Header.Get("ETag"))
		return "", &publish.MismatchError{Subject: subject, Expected: expected, Actual: actual}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("publish/rest: unexpected status %d", resp.StatusCode)
	}

	return publish.Edition(resp.Header.Get("ETag")), nil
}
