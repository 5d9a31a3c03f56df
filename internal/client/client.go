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
	"time"

	"golang.org/x/net/publicsuffix"

	"inkyspace/internal/logutils"
)

// SessionCookie is the name of the server-issued session cookie.
const SessionCookie = "connect.sid"

const UnexpectedMessage = "An unexpected error occurred."

const maxTextBody = 1 << 20

// ErrUnexpected marks transport and decoding failures: no connectivity,
// non-JSON bodies, or a body that is not a response envelope.
var ErrUnexpected = errors.New("unexpected error")

type FieldError struct {
	Property string `json:"property"`
	Error    string `json:"error"`
}

// APIError is a server-reported failure (success:false).
type APIError struct {
	Status  int
	Message string
	Errors  []FieldError
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		parts := make([]string, 0, len(e.Errors))
		for _, fe := range e.Errors {
			if fe.Property != "" {
				parts = append(parts, fe.Property+": "+fe.Error)
			} else {
				parts = append(parts, fe.Error)
			}
		}
		return fmt.Sprintf("http %d: %s", e.Status, strings.Join(parts, "; "))
	}
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("http %d", e.Status)
}

// Envelope is the uniform response shape of every endpoint.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Errors  []FieldError    `json:"errors,omitempty"`
}

type Request struct {
	Method  string
	Path    string
	Body    any
	Headers map[string]string
	// Auth sends the session cookie from the jar. Unauthenticated calls go
	// through a client without a jar.
	Auth bool
}

type Client struct {
	baseURL *url.URL
	jar     *cookiejar.Jar
	http    *http.Client
	anon    *http.Client
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
		c.anon.Timeout = d
	}
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.Transport = rt
		c.anon.Transport = rt
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: u,
		jar:     jar,
		http:    &http.Client{Timeout: 15 * time.Second, Jar: jar},
		anon:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetSession stores a session cookie value so authenticated calls carry it.
// An empty value clears the session.
func (c *Client) SetSession(value string) {
	cookie := &http.Cookie{Name: SessionCookie, Value: value, Path: "/"}
	if value == "" {
		cookie.MaxAge = -1
	}
	c.jar.SetCookies(c.rootURL(), []*http.Cookie{cookie})
}

// Session returns the current session cookie value, if any.
func (c *Client) Session() string {
	for _, ck := range c.jar.Cookies(c.rootURL()) {
		if ck.Name == SessionCookie {
			return ck.Value
		}
	}
	return ""
}

func (c *Client) rootURL() *url.URL {
	return &url.URL{Scheme: c.baseURL.Scheme, Host: c.baseURL.Host, Path: "/"}
}

func (c *Client) send(ctx context.Context, r Request) (*http.Response, error) {
	var reader io.Reader
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+r.Path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	hc := c.anon
	if r.Auth {
		hc = c.http
	}
	logutils.Log.WithFields(logutils.Fields{"method": method, "path": r.Path, "auth": r.Auth}).Debug("api request")
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnexpected, method, r.Path, err)
	}
	return resp, nil
}

// Do performs a single attempt and returns the decoded envelope. Transport
// and decode failures wrap ErrUnexpected; success:false yields *APIError.
func (c *Client) Do(ctx context.Context, r Request) (*Envelope, error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %s %s: http %d: decode body: %v", ErrUnexpected, resp.Request.Method, r.Path, resp.StatusCode, err)
	}
	if !env.Success || resp.StatusCode >= 400 {
		return &env, &APIError{Status: resp.StatusCode, Message: env.Message, Errors: env.Errors}
	}
	return &env, nil
}

// Text is for the few endpoints that answer with a bare text body instead
// of the envelope. Failures still carry the envelope when the server sends
// one.
func (c *Client) Text(ctx context.Context, r Request) (string, error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTextBody))
	if err != nil {
		return "", fmt.Errorf("%w: %s %s: read body: %v", ErrUnexpected, resp.Request.Method, r.Path, err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env Envelope
		if json.Unmarshal(body, &env) == nil {
			apiErr.Message, apiErr.Errors = env.Message, env.Errors
		}
		return "", apiErr
	}
	return string(body), nil
}

// Call runs Do and decodes the envelope data into out when out is non-nil.
func (c *Client) Call(ctx context.Context, r Request, out any) error {
	env, err := c.Do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode %s data: %v", ErrUnexpected, r.Path, err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Call(ctx, Request{Method: http.MethodGet, Path: path, Auth: true}, out)
}

func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.Call(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Auth: true}, out)
}

func (c *Client) Put(ctx context.Context, path string, body any, out any) error {
	return c.Call(ctx, Request{Method: http.MethodPut, Path: path, Body: body, Auth: true}, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Call(ctx, Request{Method: http.MethodDelete, Path: path, Auth: true}, out)
}

// IsAPIError reports whether err carries a server-reported failure.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
