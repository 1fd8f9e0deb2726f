package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
)

const (
	defaultOrderPoll     = 10 * time.Second
	defaultMaxReconnects = 5
	defaultBackoff       = 500 * time.Millisecond
	maxBackoff           = 30 * time.Second
)

// OrderTracker follows one order. Websocket messages are only hints to
// re-fetch; the tracking endpoint is the source of truth and polling covers
// the time the socket is down.
type OrderTracker struct {
	API     *API
	OrderID uint
	Session dto.Session

	PollInterval  time.Duration
	MaxReconnects int
	Backoff       time.Duration
	Dialer        *websocket.Dialer

	// OnError sees fetch and socket errors that do not stop tracking.
	OnError func(error)
}

type pushMessage struct {
	Type    string `json:"type"`
	OrderID uint   `json:"orderId"`
}

func (t *OrderTracker) Fetch(ctx context.Context) (*dto.Tracking, error) {
	var out dto.Tracking
	if err := t.API.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%d/tracking", t.OrderID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Track emits the first tracking view and then every change. The channel
// closes on a terminal status, a session error, or ctx cancellation.
func (t *OrderTracker) Track(ctx context.Context) (<-chan dto.Tracking, error) {
	first, err := t.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan dto.Tracking, 1)
	out <- *first
	if first.Terminal {
		close(out)
		return out, nil
	}

	lctx, cancel := context.WithCancel(ctx)
	hints := make(chan struct{}, 1)
	go t.listen(lctx, hints)
	go func() {
		defer close(out)
		defer cancel()
		t.loop(lctx, *first, hints, out)
	}()
	return out, nil
}

func (t *OrderTracker) loop(ctx context.Context, last dto.Tracking, hints <-chan struct{}, out chan<- dto.Tracking) {
	every := t.PollInterval
	if every <= 0 {
		every = defaultOrderPoll
	}
	poll := time.NewTicker(every)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-hints:
		case <-poll.C:
		}

		cur, err := t.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil || apperr.IsSession(err) {
				return
			}
			t.report(err)
			continue
		}
		if reflect.DeepEqual(*cur, last) {
			continue
		}
		last = *cur
		select {
		case out <- last:
		case <-ctx.Done():
			return
		}
		if last.Terminal {
			return
		}
	}
}

// listen keeps one socket open, reconnecting with exponential backoff until
// MaxReconnects consecutive failures. Every (re)connect asks for a re-fetch
// since messages may have been missed while down.
func (t *OrderTracker) listen(ctx context.Context, hints chan<- struct{}) {
	maxTries := t.MaxReconnects
	if maxTries <= 0 {
		maxTries = defaultMaxReconnects
	}
	backoff := t.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	failures := 0
	for attempt := 0; ctx.Err() == nil; attempt++ {
		opened, err := t.session(ctx, hints, attempt > 0)
		if ctx.Err() != nil {
			return
		}
		t.report(err)
		if opened {
			failures = 0
		}
		failures++
		if failures > maxTries {
			// polling carries on alone
			return
		}
		wait := backoff << (failures - 1)
		if wait > maxBackoff || wait <= 0 {
			wait = maxBackoff
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
	}
}

// session runs one websocket connection until it drops. opened reports
// whether the handshake went through.
func (t *OrderTracker) session(ctx context.Context, hints chan<- struct{}, reconnect bool) (opened bool, err error) {
	dialer := t.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	q := url.Values{}
	q.Set("tenantId", strconv.FormatUint(uint64(t.Session.TenantID), 10))
	q.Set("tableId", strconv.FormatUint(uint64(t.Session.TableID), 10))
	q.Set("role", "customer")

	conn, res, err := dialer.DialContext(ctx, t.API.wsURL("/ws/orders", q), t.API.cookieHeader())
	if err != nil {
		if res != nil && res.StatusCode == http.StatusUnauthorized {
			return false, apperr.ErrNoSession
		}
		return false, fmt.Errorf("%w: %v", apperr.ErrNetwork, err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	if reconnect {
		hint(hints)
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		var msg pushMessage
		if json.Unmarshal(data, &msg) != nil {
			continue
		}
		if msg.OrderID == 0 || msg.OrderID == t.OrderID {
			hint(hints)
		}
	}
}

func hint(hints chan<- struct{}) {
	select {
	case hints <- struct{}{}:
	default:
	}
}

func (t *OrderTracker) report(err error) {
	if err != nil && t.OnError != nil {
		t.OnError(err)
	}
}
