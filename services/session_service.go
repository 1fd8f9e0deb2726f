package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/events"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/repository"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/utils"
)

type SessionService struct {
	DB       *gorm.DB
	Tenants  *repository.TenantRepository
	Sessions *repository.SessionRepository
	Cache    SessionCache
	Events   events.Publisher

	Secret  string
	TTL     time.Duration
	BaseURL string
	Clock   Clock
}

// Resolved is the outcome of a QR scan: the session plus the signed cookie
// credential that carries it from now on.
type Resolved struct {
	Session    *entity.TableSession
	Credential string
	RedirectTo string
}

// ResolveQRToken exchanges the table token for a session. A table that
// already has a usable session is joined instead of getting a new one.
func (s *SessionService) ResolveQRToken(ctx context.Context, token string) (*Resolved, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.ErrInvalidToken
	}
	now := s.Clock.now()

	table, err := s.Tenants.FindTableByToken(token)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !table.Active {
		return nil, fmt.Errorf("%w: table is not in service", apperr.ErrInvalidToken)
	}
	if table.QRTokenExpiresAt != nil && !now.Before(*table.QRTokenExpiresAt) {
		return nil, fmt.Errorf("%w: qr code expired", apperr.ErrSessionExpired)
	}

	sess, err := s.Sessions.FindUsableForTable(table.ID, now)
	if errors.Is(err, apperr.ErrNotFound) {
		sess = &entity.TableSession{
			ID:          uuid.NewString(),
			TenantID:    table.TenantID,
			TableID:     table.ID,
			TableNumber: table.TableNumber,
			ScannedAt:   now,
			ExpiresAt:   now.Add(s.TTL),
			Active:      true,
		}
		if err := s.Sessions.Create(sess); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	credential, err := utils.GenerateSessionToken(sess.ID, sess.TenantID, sess.TableID, s.Secret, sess.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.SetSession(ctx, sess); err != nil {
		log.Printf("session cache set: %v", err)
	}
	return &Resolved{
		Session:    sess,
		Credential: credential,
		RedirectTo: "/order?table=" + url.QueryEscape(sess.TableNumber),
	}, nil
}

// Current validates the cookie credential and returns the live session.
func (s *SessionService) Current(ctx context.Context, credential string) (*entity.TableSession, error) {
	if credential == "" {
		return nil, apperr.ErrNoSession
	}
	claims, err := utils.ParseSessionToken(credential, s.Secret)
	if errors.Is(err, utils.ErrTokenExpired) {
		return nil, apperr.ErrSessionExpired
	}
	if err != nil {
		return nil, apperr.ErrInvalidToken
	}

	sess, err := s.Cache.GetSession(ctx, claims.SessionID)
	if err != nil {
		log.Printf("session cache get: %v", err)
		sess = nil
	}
	if sess == nil {
		sess, err = s.Sessions.FindByID(claims.SessionID)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNoSession
		}
		if err != nil {
			return nil, err
		}
		if sess.Active {
			if err := s.Cache.SetSession(ctx, sess); err != nil {
				log.Printf("session cache set: %v", err)
			}
		}
	}
	if !sess.Usable(s.Clock.now()) {
		return nil, apperr.ErrSessionExpired
	}
	return sess, nil
}

// ClearTable ends the dining visit: every device at the table has to rescan.
func (s *SessionService) ClearTable(ctx context.Context, tenantID, tableID uint) error {
	if _, err := s.Tenants.FindTable(tenantID, tableID); err != nil {
		return err
	}
	var ids []string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		ids, err = s.Sessions.DeactivateForTable(tx, tableID, s.Clock.now())
		return err
	})
	if err != nil {
		return err
	}
	if err := s.Cache.DeleteSessions(ctx, ids...); err != nil {
		log.Printf("session cache delete: %v", err)
	}
	s.Events.Publish(ctx, events.Event{Type: events.TableCleared, TenantID: tenantID, TableID: tableID})
	return nil
}

// RotateToken issues a new QR token; the old printed code stops resolving.
func (s *SessionService) RotateToken(tenantID, tableID uint) (string, error) {
	if _, err := s.Tenants.FindTable(tenantID, tableID); err != nil {
		return "", err
	}
	token := utils.NewToken()
	if err := s.Tenants.RotateToken(tableID, token, nil); err != nil {
		return "", err
	}
	return token, nil
}

// TableQRCode renders the PNG printed on the table.
func (s *SessionService) TableQRCode(tenantID, tableID uint, size int) ([]byte, error) {
	table, err := s.Tenants.FindTable(tenantID, tableID)
	if err != nil {
		return nil, err
	}
	token := table.QRToken
	if token == "" {
		if token, err = s.RotateToken(tenantID, tableID); err != nil {
			return nil, err
		}
	}
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(s.QRURL(token), qrcode.Medium, size)
}

func (s *SessionService) QRURL(token string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/qr/" + url.PathEscape(token)
}
