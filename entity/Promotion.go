package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PromoKind string

const (
	PromoPercent PromoKind = "percent"
	PromoFixed   PromoKind = "fixed"
)

type Promotion struct {
	gorm.Model
	TenantID    uint      `gorm:"index:uniq_tenant_promo,unique;not null" json:"tenantId"`
	PromoCode   string    `gorm:"size:50;index:uniq_tenant_promo,unique;not null" json:"promoCode"`
	PromoDetail string    `json:"promoDetail"`
	Kind        PromoKind `gorm:"size:10;not null" json:"kind"`

	Value       decimal.Decimal     `gorm:"type:decimal(12,4)" json:"value"`
	MinOrder    decimal.Decimal     `gorm:"type:decimal(12,4)" json:"minOrder"`
	MaxDiscount decimal.NullDecimal `gorm:"type:decimal(12,4)" json:"maxDiscount"`

	StartAt *time.Time `json:"startAt,omitempty"`
	EndAt   *time.Time `json:"endAt,omitempty"`
	Active  bool       `json:"active"`
}
