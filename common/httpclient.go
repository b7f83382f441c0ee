package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// AuthHeader is the header the backend reads the session token from.
const AuthHeader = "x-auth-token"

const defaultTimeout = 10 * time.Second

// HttpClient is the transport the API clients send requests through.
// This allows mocking or custom transport layers in testing.
type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
	CloseIdleConnections()
}

// HTTPError is a custom error that captures unexpected status codes and response bodies.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, string(e.Body))
}

// Message is the server's explanation of the failure, suitable for showing
// to a user: a JSON "message"/"error" field, else the trimmed body, else the
// status text.
func (e *HTTPError) Message() string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if msg := strings.TrimSpace(string(e.Body)); msg != "" {
		return msg
	}
	return http.StatusText(e.StatusCode)
}

// IsStatus reports whether err is an HTTPError with the given status code.
func IsStatus(err error, status int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == status
}

// userAgentRoundTripper is a custom RoundTripper that adds a User-Agent header.
type userAgentRoundTripper struct {
	Wrapped   http.RoundTripper
	UserAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone request to avoid mutating the original
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", rt.UserAgent)
	return rt.Wrapped.RoundTrip(clone)
}

// sessionRoundTripper attaches the current session token, if any. Without a
// token the request goes out unauthenticated and the server decides.
type sessionRoundTripper struct {
	Wrapped http.RoundTripper
	Tokens  oauth2.TokenSource
}

func (rt *sessionRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := rt.Tokens.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return rt.Wrapped.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set(AuthHeader, tok.AccessToken)
	return rt.Wrapped.RoundTrip(clone)
}

type httpClient struct {
	client *http.Client
}

// NewCardsHttpClient returns an HttpClient that stamps every request with
// userAgent and the token held by tokens. A zero timeout means 10s.
func NewCardsHttpClient(userAgent string, tokens oauth2.TokenSource, base *http.Client, timeout time.Duration) HttpClient {
	if base == nil {
		base = &http.Client{}
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if tokens != nil {
		transport = &sessionRoundTripper{
			Wrapped: transport,
			Tokens:  tokens,
		}
	}
	if userAgent != "" {
		transport = &userAgentRoundTripper{
			Wrapped:   transport,
			UserAgent: userAgent,
		}
	}
	base.Transport = transport

	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base.Timeout = timeout

	return &httpClient{client: base}
}

func (h *httpClient) Do(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}

func (h *httpClient) CloseIdleConnections() {
	h.client.CloseIdleConnections()
}
