package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/status"
)

type PaymentEventKind string

const (
	PaymentTick      PaymentEventKind = "tick"
	PaymentWarning   PaymentEventKind = "warning"
	PaymentExpired   PaymentEventKind = "expired"
	PaymentSucceeded PaymentEventKind = "succeeded"
	PaymentFailed    PaymentEventKind = "failed"
)

type PaymentEvent struct {
	Kind      PaymentEventKind
	Payment   dto.Payment
	Remaining time.Duration
	Err       error
}

const defaultWarning = 120 * time.Second

// PaymentTracker counts down one payment attempt. Warning and expiry each
// fire once per deadline; success is reported once however often the
// payment is verified. Cancelling the Start context tears it down.
type PaymentTracker struct {
	API     *API
	OrderID uint

	Clock        func() time.Time
	TickInterval time.Duration
	PollInterval time.Duration

	mu        sync.Mutex
	payment   dto.Payment
	deadline  time.Time
	warning   time.Duration
	warned    bool
	succeeded bool

	events   chan PaymentEvent
	calls    chan call
	loopDone chan struct{}
}

type call struct {
	fn    func(ctx context.Context) (*dto.Payment, error)
	ctx   context.Context
	reply chan callResult
}

type callResult struct {
	p   *dto.Payment
	err error
}

func (t *PaymentTracker) now() time.Time {
	if t.Clock == nil {
		return time.Now()
	}
	return t.Clock()
}

func (t *PaymentTracker) path(action string) string {
	return fmt.Sprintf("/payments/%d/%s", t.OrderID, action)
}

// Start opens (or rejoins) the attempt and returns the event stream. The
// channel closes when the attempt settles or ctx is cancelled.
func (t *PaymentTracker) Start(ctx context.Context) (<-chan PaymentEvent, error) {
	var p dto.Payment
	if err := t.API.do(ctx, http.MethodPost, t.path("start"), nil, &p); err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.apply(&p)
	t.events = make(chan PaymentEvent, 8)
	t.calls = make(chan call)
	t.loopDone = make(chan struct{})
	t.mu.Unlock()

	go t.run(ctx)
	return t.events, nil
}

// Verify asks the server for the current state. Calling it again after a
// success does not report the success again.
func (t *PaymentTracker) Verify(ctx context.Context) (*dto.Payment, error) {
	return t.call(ctx, t.verify)
}

// ExtendTimeout resets the deadline on explicit request. It is never called
// by the tracker itself.
func (t *PaymentTracker) ExtendTimeout(ctx context.Context) (*dto.Payment, error) {
	return t.call(ctx, func(ctx context.Context) (*dto.Payment, error) {
		var p dto.Payment
		if err := t.API.do(ctx, http.MethodPost, t.path("extend"), nil, &p); err != nil {
			return nil, err
		}
		t.mu.Lock()
		t.apply(&p)
		t.warned = false
		t.mu.Unlock()
		return &p, nil
	})
}

// Remaining is the local countdown value.
func (t *PaymentTracker) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.payment.Status != status.AttemptWaiting {
		return 0
	}
	if left := t.deadline.Sub(t.now()); left > 0 {
		return left
	}
	return 0
}

// call runs fn on the tracker goroutine while it is alive so that state
// changes and events stay in one place.
func (t *PaymentTracker) call(ctx context.Context, fn func(ctx context.Context) (*dto.Payment, error)) (*dto.Payment, error) {
	t.mu.Lock()
	calls, done := t.calls, t.loopDone
	t.mu.Unlock()
	if calls == nil {
		return fn(ctx)
	}
	c := call{fn: fn, ctx: ctx, reply: make(chan callResult, 1)}
	select {
	case calls <- c:
	case <-done:
		return fn(ctx)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-c.reply:
		return r.p, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *PaymentTracker) verify(ctx context.Context) (*dto.Payment, error) {
	var p dto.Payment
	if err := t.API.do(ctx, http.MethodGet, t.path("status"), nil, &p); err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.apply(&p)
	t.mu.Unlock()
	return &p, nil
}

// apply takes the server's view; the deadline is rebuilt from the remaining
// seconds so a skewed device clock does not matter. Caller holds mu.
func (t *PaymentTracker) apply(p *dto.Payment) {
	t.payment = *p
	t.warning = time.Duration(p.WarningThresholdSeconds) * time.Second
	if t.warning <= 0 {
		t.warning = defaultWarning
	}
	if p.Status == status.AttemptWaiting {
		t.deadline = t.now().Add(time.Duration(p.TimeRemainingSeconds) * time.Second)
	}
}

func (t *PaymentTracker) run(ctx context.Context) {
	defer func() {
		close(t.loopDone)
		close(t.events)
	}()

	tickEvery, pollEvery := t.TickInterval, t.PollInterval
	if tickEvery <= 0 {
		tickEvery = time.Second
	}
	if pollEvery <= 0 {
		pollEvery = 5 * time.Second
	}
	tick := time.NewTicker(tickEvery)
	defer tick.Stop()
	poll := time.NewTicker(pollEvery)
	defer poll.Stop()

	if t.settled(ctx) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-t.calls:
			p, err := c.fn(c.ctx)
			c.reply <- callResult{p: p, err: err}
			if t.settled(ctx) {
				return
			}
		case <-poll.C:
			if _, err := t.verify(ctx); err != nil && apperr.IsSession(err) {
				t.send(ctx, PaymentEvent{Kind: PaymentFailed, Err: err})
				return
			}
			if t.settled(ctx) {
				return
			}
		case <-tick.C:
			if t.countdown(ctx) {
				return
			}
		}
	}
}

// settled emits the terminal event for a non-waiting attempt.
func (t *PaymentTracker) settled(ctx context.Context) bool {
	t.mu.Lock()
	p := t.payment
	first := false
	if p.Status == status.AttemptSuccess && !t.succeeded {
		t.succeeded, first = true, true
	}
	t.mu.Unlock()

	switch p.Status {
	case status.AttemptSuccess:
		if first {
			t.send(ctx, PaymentEvent{Kind: PaymentSucceeded, Payment: p})
		}
		return true
	case status.AttemptFailed:
		t.send(ctx, PaymentEvent{Kind: PaymentFailed, Payment: p, Err: fmt.Errorf("%w: %s", apperr.ErrPaymentFailed, p.FailureReason)})
		return true
	case status.AttemptExpired:
		t.send(ctx, PaymentEvent{Kind: PaymentExpired, Payment: p, Err: apperr.ErrPaymentTimeout})
		return true
	}
	return false
}

// countdown returns true once the attempt is over.
func (t *PaymentTracker) countdown(ctx context.Context) bool {
	t.mu.Lock()
	remaining := t.deadline.Sub(t.now())
	p := t.payment
	warn := !t.warned && remaining > 0 && remaining <= t.warning
	if warn {
		t.warned = true
	}
	t.mu.Unlock()

	if remaining <= 0 {
		// a payment that landed just before the deadline wins over expiry
		if _, err := t.verify(ctx); err == nil && t.settled(ctx) {
			return true
		}
		t.mu.Lock()
		t.payment.Status = status.AttemptExpired
		p = t.payment
		t.mu.Unlock()
		t.send(ctx, PaymentEvent{Kind: PaymentExpired, Payment: p, Err: apperr.ErrPaymentTimeout})
		return true
	}

	select {
	case t.events <- PaymentEvent{Kind: PaymentTick, Payment: p, Remaining: remaining}:
	default:
	}
	if warn {
		t.send(ctx, PaymentEvent{Kind: PaymentWarning, Payment: p, Remaining: remaining})
	}
	return false
}

func (t *PaymentTracker) send(ctx context.Context, ev PaymentEvent) {
	select {
	case t.events <- ev:
	case <-ctx.Done():
	}
}
