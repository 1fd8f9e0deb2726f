package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/status"
)

// Payment is one payment attempt. An order may have several (retry after
// failure or timeout); the latest one is authoritative.
type Payment struct {
	gorm.Model
	OrderID uint  `gorm:"index;not null" json:"orderId"`
	Order   Order `json:"-"`

	TransactionID string          `gorm:"size:64;uniqueIndex;not null" json:"transactionId"`
	Method        status.Method   `gorm:"size:20;not null" json:"method"`
	Status        status.Attempt  `gorm:"size:16;index;not null" json:"status"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,4)" json:"amount"`
	AmountVND     int64           `json:"amountVnd"`

	ExpiresAt     time.Time  `json:"expiresAt"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	FailureReason string     `json:"failureReason"`
}
