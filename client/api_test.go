package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
)

func TestAPI_UnwrapsData(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("GET /api/v1/sessions/current", func(w http.ResponseWriter, r *http.Request) {
		ok(w, dto.Session{SessionID: "s1", TableNumber: "4", Active: true})
	})

	s, err := (&SessionResolver{API: fb.api(t)}).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s1", s.SessionID)
	assert.Equal(t, "4", s.TableNumber)
}

func TestAPI_SuccessFalseIsAnErrorEvenOn200(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("GET /api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusOK, apperr.CodeValidation, "quantity must be at least 1", nil)
	})

	err := fb.api(t).do(context.Background(), http.MethodGet, "/cart", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "quantity must be at least 1")
}

func TestAPI_UnreachableServerIsNetworkError(t *testing.T) {
	fb := newFakeBackend(t)
	api := fb.api(t)
	fb.Close()

	err := api.do(context.Background(), http.MethodGet, "/cart", nil, nil)
	assert.ErrorIs(t, err, apperr.ErrNetwork)
	assert.True(t, IsRetryable(err))
}

func TestAPI_ServerErrorWithoutEnvelope(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("GET /api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	err := fb.api(t).do(context.Background(), http.MethodGet, "/cart", nil, nil)
	assert.ErrorIs(t, err, apperr.ErrNetwork)
}

func TestAPI_SessionErrorsNotifyApp(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("GET /api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusUnauthorized, apperr.CodeExpired, "table session expired", nil)
	})
	fb.handle("GET /api/v1/menu", func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusUnauthorized, "", "", nil)
	})

	api := fb.api(t)
	var lost []error
	api.OnSessionLost = func(err error) { lost = append(lost, err) }

	err := api.do(context.Background(), http.MethodGet, "/cart", nil, nil)
	assert.ErrorIs(t, err, apperr.ErrSessionExpired)

	err = api.do(context.Background(), http.MethodGet, "/menu", nil, nil)
	assert.ErrorIs(t, err, apperr.ErrNoSession)

	require.Len(t, lost, 2)
	assert.ErrorIs(t, lost[0], apperr.ErrSessionExpired)
}

func TestAPI_UnavailableCarriesLineIDs(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("POST /api/v1/checkout", func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusConflict, apperr.CodeItemUnavailable, "some items are unavailable",
			map[string]any{"lineIds": []string{"l-2"}})
	})

	err := fb.api(t).do(context.Background(), http.MethodPost, "/checkout", dto.CheckoutRequest{}, nil)
	var ue *apperr.UnavailableError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, []string{"l-2"}, ue.LineIDs)
	assert.ErrorIs(t, err, apperr.ErrItemUnavailable)
}

func TestAPI_WebsocketURL(t *testing.T) {
	a, err := NewAPI("https://qr.example.com/", 0)
	require.NoError(t, err)
	assert.Equal(t, "wss://qr.example.com/ws/orders?role=customer",
		a.wsURL("/ws/orders", url.Values{"role": {"customer"}}))

	a, err = NewAPI("http://localhost:8080", 0)
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws/orders", a.wsURL("/ws/orders", nil))
}

func TestSessionResolver_EmptyTokenNeverLeavesDevice(t *testing.T) {
	fb := newFakeBackend(t)
	_, err := (&SessionResolver{API: fb.api(t)}).ResolveQRToken(context.Background(), "  ")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	assert.Zero(t, fb.calls.Load())
}

func TestSessionResolver_MapsRejections(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("POST /api/v1/sessions/resolve", func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusUnauthorized, apperr.CodeExpired, "qr code expired", nil)
	})

	_, err := (&SessionResolver{API: fb.api(t)}).ResolveQRToken(context.Background(), "old-token")
	assert.ErrorIs(t, err, apperr.ErrSessionExpired)
}

func TestStripToken(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/order?table=2&token=abc", "/order?table=2"},
		{"/order?qr=abc", "/order"},
		{"/qr/abc", "/order"},
		{"https://qr.test/menu?qrToken=x&lang=th", "https://qr.test/menu?lang=th"},
		{"/order?table=5", "/order?table=5"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, StripToken(tc.in))
		})
	}
}
