package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SelectionSize     = "size"
	SelectionTopping  = "topping"
	SelectionModifier = "modifier"
)

// OrderItemSelection freezes one chosen size/topping/modifier with the price
// it had at submission time.
type OrderItemSelection struct {
	gorm.Model
	OrderItemID uint      `gorm:"index;not null" json:"orderItemId"`
	OrderItem   OrderItem `json:"-"`

	Kind      string `gorm:"size:16;not null" json:"kind"`
	RefID     uint   `json:"refId"`
	GroupName string `json:"groupName"`
	Name      string `json:"name"`

	PriceDelta decimal.Decimal `gorm:"type:decimal(12,4)" json:"priceDelta"`
}
