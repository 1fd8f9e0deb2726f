// Package client is the customer-side SDK: it talks to the /api/v1 backend
// with the table-session cookie and keeps cart, payment and order views in
// sync with the server.
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

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
)

// API wraps the REST backend. The session cookie lives in the jar and is
// never exposed to callers.
type API struct {
	base       *url.URL
	httpClient *http.Client

	// OnSessionLost runs on any session error (401). Apps use it to send the
	// diner back to the QR rescan screen.
	OnSessionLost func(err error)
}

func NewAPI(baseURL string, timeout time.Duration) (*API, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &API{
		base: u,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
	}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details *struct {
		LineIDs []string `json:"lineIds"`
	} `json:"details"`
}

func (a *API) url(path string) string {
	return a.base.String() + "/api/v1" + path
}

// do sends body as JSON and unwraps data into out. success:false is an error
// even on HTTP 200.
func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.url(path), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	res, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", apperr.ErrNetwork, err)
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		if res.StatusCode >= 500 {
			return fmt.Errorf("%w: status %d", apperr.ErrNetwork, res.StatusCode)
		}
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if !env.Success || res.StatusCode >= 400 {
		return a.fail(res.StatusCode, env)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (a *API) fail(statusCode int, env envelope) error {
	var err error
	switch {
	case env.Code == apperr.CodeItemUnavailable && env.Details != nil && len(env.Details.LineIDs) > 0:
		err = &apperr.UnavailableError{LineIDs: env.Details.LineIDs}
	case env.Code != "":
		err = apperr.FromCode(env.Code, env.Error)
	case statusCode == http.StatusUnauthorized:
		err = apperr.ErrNoSession
	case statusCode >= 500:
		err = fmt.Errorf("%w: status %d", apperr.ErrNetwork, statusCode)
	default:
		err = fmt.Errorf("request failed with status %d: %s", statusCode, env.Error)
	}
	if apperr.IsSession(err) && a.OnSessionLost != nil {
		a.OnSessionLost(err)
	}
	return err
}

// cookieHeader carries the session cookie onto the websocket handshake.
func (a *API) cookieHeader() http.Header {
	h := http.Header{}
	var parts []string
	for _, c := range a.httpClient.Jar.Cookies(a.base) {
		parts = append(parts, c.Name+"="+c.Value)
	}
	if len(parts) > 0 {
		h.Set("Cookie", strings.Join(parts, "; "))
	}
	return h
}

func (a *API) wsURL(path string, q url.Values) string {
	u := *a.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = q.Encode()
	return u.String()
}

// IsRetryable reports transient failures a user may retry by hand.
func IsRetryable(err error) bool {
	return errors.Is(err, apperr.ErrNetwork)
}
