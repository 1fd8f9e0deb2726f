package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
)

// SessionResolver exchanges the QR token for the table-session cookie.
type SessionResolver struct {
	API *API
}

// Resolution is what the app needs after a scan. RedirectTo never carries
// the raw token.
type Resolution struct {
	Session    dto.Session
	RedirectTo string
}

// ResolveQRToken fails with apperr.ErrInvalidToken or apperr.ErrSessionExpired.
func (r *SessionResolver) ResolveQRToken(ctx context.Context, token string) (*Resolution, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.ErrInvalidToken
	}
	var out dto.ResolveResult
	if err := r.API.do(ctx, http.MethodPost, "/sessions/resolve", dto.ResolveRequest{Token: token}, &out); err != nil {
		return nil, err
	}
	return &Resolution{Session: out.Session, RedirectTo: out.RedirectTo}, nil
}

// Current returns the session behind the cookie; apperr.ErrNoSession when
// the device never scanned.
func (r *SessionResolver) Current(ctx context.Context) (*dto.Session, error) {
	var out dto.Session
	if err := r.API.do(ctx, http.MethodGet, "/sessions/current", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// tokenParams are the query keys a QR link may carry the token in.
var tokenParams = []string{"token", "qr", "qrToken"}

// StripToken removes the QR token from a location so it is not left in the
// address bar or history. A /qr/<token> path is replaced by /order.
func StripToken(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return location
	}
	q := u.Query()
	for _, k := range tokenParams {
		q.Del(k)
	}
	u.RawQuery = q.Encode()
	if strings.HasPrefix(u.Path, "/qr/") {
		u.Path = "/order"
	}
	return u.String()
}
