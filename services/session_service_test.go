package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/events"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
)

func TestResolveQRToken_CreatesSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.sessions.ResolveQRToken(ctx, "demo-table-3")
	require.NoError(t, err)
	assert.Equal(t, "/order?table=3", res.RedirectTo)
	assert.NotContains(t, res.RedirectTo, "demo-table-3")
	assert.NotEmpty(t, res.Credential)
	assert.Equal(t, e.tenant.ID, res.Session.TenantID)
	assert.Equal(t, e.clock.Now().Add(3*time.Hour), res.Session.ExpiresAt)

	sess, err := e.sessions.Current(ctx, res.Credential)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, sess.ID)
}

func TestResolveQRToken_SecondDeviceJoins(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.sessions.ResolveQRToken(ctx, "demo-table-1")
	require.NoError(t, err)
	e.clock.Advance(10 * time.Minute)
	second, err := e.sessions.ResolveQRToken(ctx, "demo-table-1")
	require.NoError(t, err)

	assert.Equal(t, first.Session.ID, second.Session.ID)

	other, err := e.sessions.ResolveQRToken(ctx, "demo-table-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.Session.ID, other.Session.ID)
}

func TestResolveQRToken_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.sessions.ResolveQRToken(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	_, err = e.sessions.ResolveQRToken(ctx, "no-such-token")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	past := e.clock.Now().Add(-time.Minute)
	require.NoError(t, e.db.Model(&entity.DiningTable{}).Where("qr_token = ?", "demo-table-4").
		Update("qr_token_expires_at", past).Error)
	_, err = e.sessions.ResolveQRToken(ctx, "demo-table-4")
	assert.ErrorIs(t, err, apperr.ErrSessionExpired)

	require.NoError(t, e.db.Model(&entity.DiningTable{}).Where("qr_token = ?", "demo-table-5").
		Update("active", false).Error)
	_, err = e.sessions.ResolveQRToken(ctx, "demo-table-5")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestCurrent_ErrorKinds(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.sessions.Current(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrNoSession)

	_, err = e.sessions.Current(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	res, err := e.sessions.ResolveQRToken(ctx, "demo-table-1")
	require.NoError(t, err)

	e.clock.Advance(3*time.Hour + time.Second)
	_, err = e.sessions.Current(ctx, res.Credential)
	assert.ErrorIs(t, err, apperr.ErrSessionExpired)

	// a fresh scan after expiry starts a new visit
	again, err := e.sessions.ResolveQRToken(ctx, "demo-table-1")
	require.NoError(t, err)
	assert.NotEqual(t, res.Session.ID, again.Session.ID)
}

func TestClearTable_EndsSessionForEveryDevice(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a, err := e.sessions.ResolveQRToken(ctx, "demo-table-2")
	require.NoError(t, err)
	b, err := e.sessions.ResolveQRToken(ctx, "demo-table-2")
	require.NoError(t, err)

	require.NoError(t, e.sessions.ClearTable(ctx, e.tenant.ID, a.Session.TableID))

	_, err = e.sessions.Current(ctx, a.Credential)
	assert.ErrorIs(t, err, apperr.ErrSessionExpired)
	_, err = e.sessions.Current(ctx, b.Credential)
	assert.ErrorIs(t, err, apperr.ErrSessionExpired)
	assert.Equal(t, 1, e.pub.count(events.TableCleared))

	assert.ErrorIs(t, e.sessions.ClearTable(ctx, e.tenant.ID+100, a.Session.TableID), apperr.ErrNotFound)
}

func TestRotateToken_RevokesOldCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.sessions.ResolveQRToken(ctx, "demo-table-6")
	require.NoError(t, err)

	token, err := e.sessions.RotateToken(e.tenant.ID, first.Session.TableID)
	require.NoError(t, err)
	assert.NotEqual(t, "demo-table-6", token)

	_, err = e.sessions.ResolveQRToken(ctx, "demo-table-6")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	_, err = e.sessions.ResolveQRToken(ctx, token)
	assert.NoError(t, err)

	png, err := e.sessions.TableQRCode(e.tenant.ID, first.Session.TableID, 128)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
	assert.Equal(t, "http://qr.test/qr/"+token, e.sessions.QRURL(token))
}
