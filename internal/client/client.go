// Package client is the typed HTTP client the dashboard uses to talk to the
// SSIS API. A Session owns the cookie jar holding the access token; resource
// clients built on it share that session.
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

	"github.com/ssis-app/ssis/internal/app/models/dto"
)

// ErrNotAuthenticated is returned when the session has no valid login.
var ErrNotAuthenticated = errors.New("not authenticated")

// APIError is a non-2xx response. Message is the server's "error" field, or
// the status text when the body carried none.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Option customises a Session.
type Option func(*Session)

// WithHTTPClient replaces the underlying HTTP client. Its Jar is replaced by
// the session's own.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) { s.http = c }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// Session is an authenticated connection to one API server.
type Session struct {
	base   *url.URL
	http   *http.Client
	jar    http.CookieJar
	logger zerolog.Logger

	mu   sync.RWMutex
	user *dto.PingResponse
}

// NewSession creates a session for the API rooted at baseURL, e.g.
// "http://localhost:8080".
func NewSession(baseURL string, opts ...Option) (*Session, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api url %q", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	s := &Session{
		base:   base,
		http:   &http.Client{Timeout: 20 * time.Second},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.jar = jar
	s.http.Jar = jar
	return s, nil
}

// BaseURL returns the API root.
func (s *Session) BaseURL() string {
	return s.base.String()
}

// Cookies returns the cookies held for the API server.
func (s *Session) Cookies() []*http.Cookie {
	return s.jar.Cookies(s.base)
}

// SetCookies restores previously saved cookies.
func (s *Session) SetCookies(cookies []*http.Cookie) {
	s.jar.SetCookies(s.base, cookies)
}

// Signup registers a new account. It does not log in.
func (s *Session) Signup(ctx context.Context, username, email, password string) error {
	req := dto.SignupRequest{Username: username, Email: email, Password: password}
	return s.do(ctx, http.MethodPost, "/api/auth/signup", nil, req, nil)
}

// Login exchanges credentials for the session cookie and resolves the user.
func (s *Session) Login(ctx context.Context, email, password string) (*dto.PingResponse, error) {
	req := dto.LoginRequest{Email: email, Password: password}
	if err := s.do(ctx, http.MethodPost, "/api/auth/login", nil, req, nil); err != nil {
		return nil, err
	}
	return s.Ping(ctx)
}

// Ping checks that the session is still valid. Dashboard routes call it on
// entry and treat ErrNotAuthenticated as a redirect to login.
func (s *Session) Ping(ctx context.Context) (*dto.PingResponse, error) {
	var resp dto.PingResponse
	if err := s.do(ctx, http.MethodGet, "/api/auth/ping", nil, nil, &resp); err != nil {
		s.setUser(nil)
		if IsStatus(err, http.StatusUnauthorized) {
			return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
		}
		return nil, err
	}
	s.setUser(&resp)
	return &resp, nil
}

// Logout clears the session cookie on the server and locally.
func (s *Session) Logout(ctx context.Context) error {
	err := s.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
	s.setUser(nil)
	var expired []*http.Cookie
	for _, c := range s.Cookies() {
		expired = append(expired, &http.Cookie{Name: c.Name, Path: "/", MaxAge: -1})
	}
	s.jar.SetCookies(s.base, expired)
	return err
}

// User returns the user resolved by the last successful Ping.
func (s *Session) User() *dto.PingResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) setUser(u *dto.PingResponse) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

// endpoint joins the API root and an already escaped path.
func (s *Session) endpoint(path string, q url.Values) string {
	u := *s.base
	u.RawPath = strings.TrimRight(s.base.EscapedPath(), "/") + path
	if unescaped, err := url.PathUnescape(u.RawPath); err == nil {
		u.Path = unescaped
	}
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (s *Session) do(ctx context.Context, method, path string, q url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.endpoint(path, q), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, out)
}

// send executes req and decodes the response.
func (s *Session) send(req *http.Request, out interface{}) error {
	start := time.Now()
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	s.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("API request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if w, ok := out.(io.Writer); ok {
		_, err := io.Copy(w, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var e dto.ErrorResponse
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		apiErr.Message = e.Error
		apiErr.Code = string(e.Code)
	}
	return apiErr
}
