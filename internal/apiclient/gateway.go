// Package apiclient is the single chokepoint for calls to the SchoolOS REST
// API.
//
// Every call goes through Gateway.Do, which attaches the session's bearer
// token, unwraps the response envelope and turns every failure into an
// *Error. A 401 on an authenticated call tears the session down and sends
// the client to the login view, whichever caller issued the request.
package apiclient

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

	"github.com/rs/zerolog"
)

// Session is the part of the session store the gateway depends on.
type Session interface {
	Token() string
	// Expire tears down the session whose token the backend rejected.
	Expire(ctx context.Context, token string) error
}

type Request struct {
	Method string
	// Path is appended to the gateway's base URL, e.g. "/schools".
	Path  string
	Query url.Values
	// Body is encoded as JSON unless it is already a []byte or
	// json.RawMessage.
	Body any
	// Header values override the gateway defaults.
	Header http.Header
	// Anonymous requests carry no bearer token and a 401 on them is not a
	// session expiry.
	Anonymous bool
}

type Gateway struct {
	baseURL  string
	client   *http.Client
	session  Session
	notifier Notifier
	log      zerolog.Logger
}

type Option func(*Gateway)

func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) { g.client = client }
}

func WithNotifier(n Notifier) Option {
	return func(g *Gateway) { g.notifier = n }
}

func WithLogger(log zerolog.Logger) Option {
	return func(g *Gateway) { g.log = log }
}

func New(baseURL string, session Session, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		client:   http.DefaultClient,
		session:  session,
		notifier: discardNotifier,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// failureEnvelope is the part of a failure response the gateway reads.
type failureEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Do sends req and returns the unwrapped data payload.
func (g *Gateway) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, token, err := g.build(ctx, method, req)
	if err != nil {
		return nil, g.fail(req, &Error{Kind: KindNetwork, Message: err.Error(), Endpoint: req.Path, Err: err})
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, g.fail(req, &Error{Kind: KindNetwork, Message: networkMessage(err), Endpoint: req.Path, Err: err})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, g.fail(req, &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: networkMessage(err), Endpoint: req.Path, Err: err})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{
			Kind:     KindAPI,
			Status:   resp.StatusCode,
			Message:  failureMessage(body),
			Endpoint: req.Path,
		}
		if resp.StatusCode == http.StatusUnauthorized && !req.Anonymous {
			g.expire(ctx, token, req.Path)
			return nil, apiErr
		}
		return nil, g.fail(req, apiErr)
	}

	data, err := unwrap(body)
	if err != nil {
		return nil, g.fail(req, &Error{Kind: KindAPI, Status: resp.StatusCode, Message: "invalid response from server", Endpoint: req.Path, Err: err})
	}
	return data, nil
}

func (g *Gateway) build(ctx context.Context, method string, req Request) (*http.Request, string, error) {
	target := g.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := encodeBody(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, "", err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	var token string
	if !req.Anonymous && g.session != nil {
		token = g.session.Token()
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for key, values := range req.Header {
		httpReq.Header.Del(key)
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	return httpReq, token, nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return json.Marshal(body)
	}
}

func (g *Gateway) expire(ctx context.Context, token, endpoint string) {
	g.log.Warn().Str("endpoint", endpoint).Msg("session rejected by api, logging out")
	if g.session == nil {
		return
	}
	// The teardown must finish even if the caller's request was canceled.
	if err := g.session.Expire(context.WithoutCancel(ctx), token); err != nil {
		g.log.Error().Err(err).Msg("purge expired session failed")
	}
}

func (g *Gateway) fail(req Request, apiErr *Error) *Error {
	event := g.log.Error().
		Str("endpoint", apiErr.Endpoint).
		Str("kind", string(apiErr.Kind))
	if apiErr.Status != 0 {
		event = event.Int("status", apiErr.Status)
	}
	if apiErr.Err != nil {
		event = event.Err(apiErr.Err)
	}
	event.Str("method", req.Method).Msg("api request failed")

	g.notifier.Notify(LevelError, apiErr.Message)
	return apiErr
}

func failureMessage(body []byte) string {
	var env failureEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	return fallbackAPIMessage
}

// unwrap returns the envelope's data field, or the whole body when the
// endpoint does not wrap its payload.
func unwrap(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("response is not json")
	}
	if trimmed[0] != '{' {
		return json.RawMessage(trimmed), nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, err
	}
	if data, ok := fields["data"]; ok {
		return data, nil
	}
	return json.RawMessage(trimmed), nil
}

func networkMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return "network error: " + urlErr.Err.Error()
	}
	return fallbackNetworkMessage
}

// Call sends req through g and decodes the payload into T.
func Call[T any](ctx context.Context, g *Gateway, req Request) (T, error) {
	var out T
	data, err := g.Do(ctx, req)
	if err != nil {
		return out, err
	}
	if len(data) == 0 || string(data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, g.fail(req, &Error{Kind: KindAPI, Message: "invalid response from server", Endpoint: req.Path, Err: err})
	}
	return out, nil
}
