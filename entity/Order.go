package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/status"
)

// Order is the frozen checkout snapshot. Only status fields change after
// creation.
type Order struct {
	gorm.Model
	OrderNumber string `gorm:"size:32;index:uniq_tenant_order,unique;not null" json:"orderNumber"`

	TenantID    uint   `gorm:"index:uniq_tenant_order,unique;not null" json:"tenantId"`
	TableID     uint   `gorm:"index;not null" json:"tableId"`
	TableNumber string `json:"tableNumber"`
	SessionID   string `gorm:"size:36;index" json:"sessionId"`

	CustomerName string `json:"customerName"`
	Notes        string `json:"notes"`

	Subtotal          decimal.Decimal `gorm:"type:decimal(12,4)" json:"subtotal"`
	Discount          decimal.Decimal `gorm:"type:decimal(12,4)" json:"discount"`
	Tax               decimal.Decimal `gorm:"type:decimal(12,4)" json:"tax"`
	ServiceCharge     decimal.Decimal `gorm:"type:decimal(12,4)" json:"serviceCharge"`
	Total             decimal.Decimal `gorm:"type:decimal(12,4)" json:"total"`
	TaxRate           decimal.Decimal `gorm:"type:decimal(6,4)" json:"taxRate"`
	ServiceChargeRate decimal.Decimal `gorm:"type:decimal(6,4)" json:"serviceChargeRate"`
	PromoCode         string          `json:"promoCode"`

	PaymentMethod status.Method  `gorm:"size:20;not null" json:"paymentMethod"`
	PaymentStatus status.Payment `gorm:"size:20;not null" json:"paymentStatus"`
	Status        status.Order   `gorm:"size:20;index;not null" json:"status"`

	EstimatedReadyMinutes *int `json:"estimatedReadyMinutes"`

	// timeline checkpoints (PENDING = CreatedAt)
	ReceivedAt  *time.Time `json:"receivedAt"`
	PreparingAt *time.Time `json:"preparingAt"`
	ReadyAt     *time.Time `json:"readyAt"`
	ServedAt    *time.Time `json:"servedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	CancelledAt *time.Time `json:"cancelledAt"`

	Items    []OrderItem `json:"items"`
	Payments []Payment   `json:"-"`
}

// KitchenActionable: bill-to-table orders go straight to the kitchen, online
// methods only once paid.
func (o *Order) KitchenActionable() bool {
	return !o.PaymentMethod.RequiresOnlinePayment() || o.PaymentStatus == status.PaymentPaid
}

// CheckpointAt returns the timestamp recorded for a lifecycle status.
func (o *Order) CheckpointAt(s status.Order) *time.Time {
	switch s {
	case status.OrderPending:
		t := o.CreatedAt
		return &t
	case status.OrderReceived:
		return o.ReceivedAt
	case status.OrderPreparing:
		return o.PreparingAt
	case status.OrderReady:
		return o.ReadyAt
	case status.OrderServed:
		return o.ServedAt
	case status.OrderCompleted:
		return o.CompletedAt
	case status.OrderCancelled:
		return o.CancelledAt
	}
	return nil
}

// CheckpointColumn maps a status onto its timestamp column.
func CheckpointColumn(s status.Order) string {
	switch s {
	case status.OrderReceived:
		return "received_at"
	case status.OrderPreparing:
		return "preparing_at"
	case status.OrderReady:
		return "ready_at"
	case status.OrderServed:
		return "served_at"
	case status.OrderCompleted:
		return "completed_at"
	case status.OrderCancelled:
		return "cancelled_at"
	}
	return ""
}
