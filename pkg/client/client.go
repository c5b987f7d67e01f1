// Package client is a Go client for the blog platform auth API.
//
// It keeps the session in a cookie jar and applies a single refresh policy:
// when a protected call answers 401, the client calls the refresh endpoint
// and, if that succeeds, replays the original request. Concurrent calls
// rejected with the same refresh token share one refresh. When the refresh
// token a call presented is rejected the jar is dropped and
// ErrSessionExpired is returned.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	refreshPath    = "/api/v1/users/refresh-token"
	refreshCookie  = "refreshToken"
	defaultTimeout = 15 * time.Second
)

// ErrSessionExpired is returned when a protected call was rejected and the
// session could not be refreshed. The client is anonymous afterwards.
var ErrSessionExpired = errors.New("client: session expired")

// APIError is a non-2xx answer carrying the server's error envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// RetryPolicy bounds how often a rejected call may trigger a refresh.
type RetryPolicy struct {
	// MaxRefreshAttempts is the number of refresh-and-replay rounds per
	// call. Zero disables refreshing.
	MaxRefreshAttempts int
}

// DefaultRetryPolicy refreshes once and replays the request once.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRefreshAttempts: 1}
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient uses hc for transport settings. Its Jar is replaced.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		copied := *hc
		c.http = &copied
	}
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.policy = p }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// Client talks to the auth API on behalf of one user.
type Client struct {
	base   *url.URL
	policy RetryPolicy
	log    zerolog.Logger

	refreshes singleflight.Group

	mu   sync.Mutex
	http *http.Client
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}

	c := &Client{
		base:   base,
		policy: DefaultRetryPolicy(),
		log:    zerolog.Nop(),
		http:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c.http.Jar = jar
	return c, nil
}

// Account mirrors the account payload returned by the API.
type Account struct {
	ID        string    `json:"_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Challenge is the answer to a password login: a code was mailed to Email.
type Challenge struct {
	RequiresOTP bool   `json:"requiresOtp"`
	Email       string `json:"email"`
	Message     string `json:"message"`
}

// Session is the answer to a successful OTP verification or refresh.
type Session struct {
	User         Account `json:"user"`
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
}

// Login submits the first factor. identifier may be an email or a username;
// usernames never contain @, so anything with one is sent as the email.
func (c *Client) Login(ctx context.Context, identifier, password string) (*Challenge, error) {
	body := map[string]string{"password": password}
	if strings.Contains(identifier, "@") {
		body["email"] = identifier
	} else {
		body["username"] = identifier
	}

	var out Challenge
	if err := c.send(ctx, http.MethodPost, "/api/v1/users/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP submits the mailed code and stores the session cookies.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	var out Session
	if err := c.send(ctx, http.MethodPost, "/api/v1/users/verify-otp", map[string]string{"email": email, "otp": code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh rotates the session tokens held in the jar.
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	var out Session
	if err := c.send(ctx, http.MethodPost, refreshPath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the session. The jar is dropped even when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.Do(ctx, http.MethodPost, "/api/v1/users/logout", nil, nil)
	c.dropSession()
	return err
}

// CurrentUser returns the signed-in account.
func (c *Client) CurrentUser(ctx context.Context) (*Account, error) {
	var out struct {
		User Account `json:"user"`
	}
	if err := c.Do(ctx, http.MethodGet, "/api/v1/users/current-user", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Do performs a protected call, applying the retry policy on 401.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	presented := c.currentRefreshToken()
	err := c.send(ctx, method, path, in, out)
	for attempt := 0; attempt < c.policy.MaxRefreshAttempts && isUnauthorized(err); attempt++ {
		c.log.Debug().Str("path", path).Int("attempt", attempt+1).Msg("access rejected, refreshing session")

		if rerr := c.refreshFrom(ctx, presented); rerr != nil {
			return rerr
		}
		presented = c.currentRefreshToken()
		err = c.send(ctx, method, path, in, out)
	}
	return err
}

// refreshFrom rotates the session that was current when presented was read.
// Only one refresh runs at a time; a call whose token was already rotated by
// another call skips straight to the replay.
func (c *Client) refreshFrom(ctx context.Context, presented string) error {
	_, err, _ := c.refreshes.Do(refreshPath, func() (any, error) {
		if rotated(presented, c.currentRefreshToken()) {
			return nil, nil
		}
		return c.Refresh(ctx)
	})
	if err == nil {
		return nil
	}
	if !isUnauthorized(err) {
		return err
	}
	if rotated(presented, c.currentRefreshToken()) {
		return nil
	}

	c.dropSession()
	return ErrSessionExpired
}

func rotated(presented, current string) bool {
	return current != "" && current != presented
}

func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		return &APIError{Status: resp.StatusCode, Message: envelope.Error}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.http
}

func (c *Client) currentRefreshToken() string {
	jar := c.httpClient().Jar
	if jar == nil {
		return ""
	}
	for _, ck := range jar.Cookies(c.base) {
		if ck.Name == refreshCookie {
			return ck.Value
		}
	}
	return ""
}

// dropSession forgets all cookies, returning the client to anonymous.
func (c *Client) dropSession() {
	jar, _ := cookiejar.New(nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *c.http
	copied.Jar = jar
	c.http = &copied
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
