package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/pricing"
)

// SessionCache is implemented by cache.RedisCache and cache.MemoryCache.
type SessionCache interface {
	GetSession(ctx context.Context, id string) (*entity.TableSession, error)
	SetSession(ctx context.Context, s *entity.TableSession) error
	DeleteSessions(ctx context.Context, ids ...string) error
}

// OnceMarker guards side effects that must run a single time.
type OnceMarker interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Clock is swapped in tests.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// ratesFor applies the tenant override on top of the configured defaults.
func ratesFor(t *entity.Tenant, def pricing.Rates) pricing.Rates {
	r := def
	if t == nil {
		return r
	}
	if t.TaxRate.Valid {
		r.Tax = t.TaxRate.Decimal
	}
	if t.ServiceChargeRate.Valid {
		r.ServiceCharge = t.ServiceChargeRate.Decimal
	}
	return r
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }
