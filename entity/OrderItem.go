package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderItem struct {
	gorm.Model
	OrderID uint  `gorm:"index;not null" json:"orderId"`
	Order   Order `json:"-"`

	MenuItemID uint   `json:"menuItemId"`
	Name       string `json:"name"` // snapshot ชื่อเมนูตอนสั่ง

	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(12,4)" json:"unitPrice"`
	LineTotal           decimal.Decimal `gorm:"type:decimal(12,4)" json:"lineTotal"`
	SpecialInstructions string          `json:"specialInstructions"`

	// kitchen progress, independent of the order status
	StartedAt  *time.Time `json:"startedAt"`
	PreparedAt *time.Time `json:"preparedAt"`
	ServedAt   *time.Time `json:"servedAt"`

	Selections []OrderItemSelection `json:"selections"`
}
