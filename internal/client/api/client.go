// Package api is the HTTP client for the registry server. It carries
// the session's bearer token on every authorized request and converts
// server rejections into errors the caller can show or act on.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dsmolkin/refind/internal/client/session"
	"github.com/dsmolkin/refind/internal/models"
)

// TokenSource supplies the current credential for outgoing requests.
// It is read per request so the transport always reflects the live
// session.
type TokenSource func() string

// bearerTransport injects "Authorization: Bearer <token>" into every
// request that goes through it.
type bearerTransport struct {
	tokens TokenSource
	base   http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.tokens(); token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return t.base.RoundTrip(req)
}

// Client talks to the registry API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client for the server at baseURL. tokens supplies the
// bearer credential; pass the session store's snapshot accessor so the
// transport always sends the current token.
func New(baseURL string, tokens TokenSource) *Client {
	if tokens == nil {
		tokens = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: &bearerTransport{tokens: tokens, base: http.DefaultTransport},
		},
	}
}

// apiError carries the server's human-readable rejection reason.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string { return e.message }

// readError turns a non-2xx response into an error whose message is
// the server's own text, suitable for display.
func readError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = fmt.Sprintf("server returned status %d", resp.StatusCode)
	}
	return &apiError{status: resp.StatusCode, message: msg}
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Register creates a new account. On rejection the returned error
// carries the server's reason verbatim.
func (c *Client) Register(ctx context.Context, name, email, password string) (models.User, error) {
	var user models.User
	err := c.postJSON(ctx, "/api/auth/register", map[string]string{
		"name": name, "email": email, "password": password,
	}, &user)
	return user, err
}

// Login exchanges credentials for a bearer token. The token is
// returned to the caller; installing it into the session store is the
// caller's decision.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := c.postJSON(ctx, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// Resolve fetches the profile behind token. It satisfies the session
// store's Resolver contract: a definitive 401/403 refusal comes back
// as session.ErrCredentialRejected, anything else as a transient
// error. The token is set explicitly so the result always matches the
// credential the store asked about, not whatever is current.
func (c *Client) Resolve(ctx context.Context, token string) (models.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/me", nil)
	if err != nil {
		return models.User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		return models.User{}, fmt.Errorf("identity resolution: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return models.User{}, session.ErrCredentialRejected
	case resp.StatusCode != http.StatusOK:
		return models.User{}, fmt.Errorf("identity resolution: status %d", resp.StatusCode)
	}

	var user models.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return models.User{}, fmt.Errorf("identity resolution: %w", err)
	}
	return user, nil
}

var _ session.Resolver = (*Client)(nil)

// IsRejection reports whether err is a server-side rejection (4xx)
// rather than a transport failure.
func IsRejection(err error) bool {
	var ae *apiError
	return errors.As(err, &ae) && ae.status >= 400 && ae.status < 500
}
