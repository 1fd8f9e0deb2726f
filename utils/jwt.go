package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload of the HttpOnly table-session cookie.
type SessionClaims struct {
	SessionID string `json:"sid"`
	TenantID  uint   `json:"tenantId"`
	TableID   uint   `json:"tableId"`
	jwt.RegisteredClaims
}

// StaffClaims เป็น claims ของพนักงานร้าน (Bearer token)
type StaffClaims struct {
	UserID   uint   `json:"userId"`
	TenantID uint   `json:"tenantId"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateSessionToken signs a session credential valid until expiresAt.
func GenerateSessionToken(sessionID string, tenantID, tableID uint, secret string, expiresAt time.Time) (string, error) {
	claims := &SessionClaims{
		SessionID: sessionID,
		TenantID:  tenantID,
		TableID:   tableID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// GenerateStaffToken สร้าง JWT สำหรับพนักงาน
func GenerateStaffToken(userID, tenantID uint, role, secret string, ttl time.Duration) (string, error) {
	claims := &StaffClaims{
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)), // อายุ token
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

var ErrTokenExpired = errors.New("token expired")

func keyFunc(secret string) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}
}

// ParseSessionToken returns ErrTokenExpired for an expired but otherwise
// valid credential so callers can tell "expired" from "invalid".
func ParseSessionToken(tokenStr, secret string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, keyFunc(secret))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil || !token.Valid || claims.SessionID == "" {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

func ParseStaffToken(tokenStr, secret string) (*StaffClaims, error) {
	claims := &StaffClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, keyFunc(secret))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil || !token.Valid {
		return nil, errors.New("invalid staff token")
	}
	return claims, nil
}
