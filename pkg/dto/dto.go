// Package dto holds the JSON shapes exchanged between the API and the
// customer SDK.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/status"
)

// ---------------- Session ----------------

type Session struct {
	SessionID   string    `json:"sessionId"`
	TableID     uint      `json:"tableId"`
	TenantID    uint      `json:"tenantId"`
	TableNumber string    `json:"tableNumber"`
	ScannedAt   time.Time `json:"scannedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Active      bool      `json:"active"`
}

type ResolveRequest struct {
	Token string `json:"token" binding:"required"`
}

type ResolveResult struct {
	Session    Session `json:"session"`
	RedirectTo string  `json:"redirectTo"`
}

// ---------------- Menu ----------------

type PricedOption struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type ModifierOption struct {
	ID         uint            `json:"id"`
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"priceDelta"`
	Available  bool            `json:"available"`
}

type ModifierGroup struct {
	ID         uint             `json:"id"`
	Name       string           `json:"name"`
	Required   bool             `json:"required"`
	MinChoices int              `json:"minChoices"`
	MaxChoices int              `json:"maxChoices"`
	Options    []ModifierOption `json:"options"`
}

type MenuItem struct {
	ID             uint            `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	ImageURL       string          `json:"imageUrl"`
	Category       string          `json:"category"`
	BasePrice      decimal.Decimal `json:"basePrice"`
	Availability   string          `json:"availability"`
	PrepMinutes    int             `json:"prepMinutes"`
	Sizes          []PricedOption  `json:"sizes,omitempty"`
	Toppings       []PricedOption  `json:"toppings,omitempty"`
	ModifierGroups []ModifierGroup `json:"modifierGroups,omitempty"`
}

// ---------------- Cart ----------------

type AddItemRequest struct {
	LineID              string          `json:"lineId,omitempty"`
	MenuItemID          uint            `json:"menuItemId" binding:"required"`
	SizeID              *uint           `json:"sizeId,omitempty"`
	ToppingIDs          []uint          `json:"toppingIds,omitempty"`
	Modifiers           map[uint][]uint `json:"modifiers,omitempty"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
	Quantity            int             `json:"quantity"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type SelectedModifier struct {
	GroupID    uint            `json:"groupId"`
	GroupName  string          `json:"groupName"`
	OptionID   uint            `json:"optionId"`
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"priceDelta"`
}

type CartItem struct {
	ID                  string             `json:"id"`
	MenuItemID          uint               `json:"menuItemId"`
	Name                string             `json:"name"`
	ImageURL            string             `json:"imageUrl,omitempty"`
	Size                *PricedOption      `json:"size,omitempty"`
	Toppings            []PricedOption     `json:"toppings,omitempty"`
	Modifiers           []SelectedModifier `json:"modifiers,omitempty"`
	SpecialInstructions string             `json:"specialInstructions,omitempty"`
	Quantity            int                `json:"quantity"`
	UnitPrice           decimal.Decimal    `json:"unitPrice"`
	LineTotal           decimal.Decimal    `json:"lineTotal"`
	Availability        string             `json:"availability"`
	Available           bool               `json:"available"`
}

type Cart struct {
	SessionID         string          `json:"sessionId"`
	Items             []CartItem      `json:"items"`
	ItemCount         int             `json:"itemCount"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Tax               decimal.Decimal `json:"tax"`
	TaxRate           decimal.Decimal `json:"taxRate"`
	ServiceCharge     decimal.Decimal `json:"serviceCharge"`
	ServiceChargeRate decimal.Decimal `json:"serviceChargeRate"`
	Total             decimal.Decimal `json:"total"`
}

// ---------------- Checkout ----------------

type CheckoutRequest struct {
	TableID       uint     `json:"tableId"`
	ItemIDs       []string `json:"items"`
	CustomerName  string   `json:"customerName,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	PaymentMethod string   `json:"paymentMethod" binding:"required"`
	PromoCode     string   `json:"promoCode,omitempty"`
}

type PromoRequest struct {
	Code     string          `json:"code" binding:"required"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type PromoResult struct {
	Valid          bool            `json:"valid"`
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Error          string          `json:"error,omitempty"`
}

// ---------------- Orders ----------------

type OrderSelection struct {
	Kind       string          `json:"kind"`
	GroupName  string          `json:"groupName,omitempty"`
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"priceDelta"`
}

type OrderItem struct {
	ID                  uint             `json:"id"`
	MenuItemID          uint             `json:"menuItemId"`
	Name                string           `json:"name"`
	Selections          []OrderSelection `json:"selections,omitempty"`
	Quantity            int              `json:"quantity"`
	UnitPrice           decimal.Decimal  `json:"unitPrice"`
	LineTotal           decimal.Decimal  `json:"lineTotal"`
	SpecialInstructions string           `json:"specialInstructions,omitempty"`
	Status              status.ItemPrep  `json:"status"`
}

type Order struct {
	ID                    uint            `json:"id"`
	OrderNumber           string          `json:"orderNumber"`
	TableID               uint            `json:"tableId"`
	TableNumber           string          `json:"tableNumber"`
	Items                 []OrderItem     `json:"items"`
	CustomerName          string          `json:"customerName,omitempty"`
	Notes                 string          `json:"notes,omitempty"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	Discount              decimal.Decimal `json:"discount"`
	Tax                   decimal.Decimal `json:"tax"`
	ServiceCharge         decimal.Decimal `json:"serviceCharge"`
	Total                 decimal.Decimal `json:"total"`
	PromoCode             string          `json:"promoCode,omitempty"`
	PaymentMethod         status.Method   `json:"paymentMethod"`
	PaymentStatus         status.Payment  `json:"paymentStatus"`
	Status                status.Order    `json:"status"`
	KitchenActionable     bool            `json:"kitchenActionable"`
	CreatedAt             time.Time       `json:"createdAt"`
	EstimatedReadyMinutes *int            `json:"estimatedReadyMinutes,omitempty"`
}

type StatusChangeRequest struct {
	Status string `json:"status" binding:"required"`
}

// ---------------- Payments ----------------

type Payment struct {
	OrderID                 uint            `json:"orderId"`
	TransactionID           string          `json:"transactionId"`
	Method                  status.Method   `json:"method"`
	Status                  status.Attempt  `json:"status"`
	Amount                  decimal.Decimal `json:"amount"`
	AmountVND               int64           `json:"amountVnd,omitempty"`
	ExpiresAt               time.Time       `json:"expiresAt"`
	TimeRemainingSeconds    int64           `json:"timeRemaining"`
	WarningThresholdSeconds int64           `json:"warningThreshold"`
	PaidAt                  *time.Time      `json:"paidAt,omitempty"`
	FailureReason           string          `json:"failureReason,omitempty"`
}

type PaymentWebhook struct {
	TransactionID string `json:"transactionId" binding:"required"`
	Status        string `json:"status" binding:"required"`
	Reason        string `json:"reason,omitempty"`
}

// ---------------- Tracking ----------------

type Checkpoint struct {
	Status       status.Order `json:"status"`
	LegacyStatus string       `json:"legacyStatus"`
	At           *time.Time   `json:"at,omitempty"`
	Completed    bool         `json:"completed"`
}

type ItemTracking struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Status   status.ItemPrep `json:"status"`
}

type Tracking struct {
	OrderID                uint           `json:"orderId"`
	OrderNumber            string         `json:"orderNumber"`
	Status                 status.Order   `json:"status"`
	LegacyStatus           string         `json:"legacyStatus"`
	Terminal               bool           `json:"terminal"`
	PaymentStatus          status.Payment `json:"paymentStatus"`
	Timeline               []Checkpoint   `json:"timeline"`
	EstimatedTimeRemaining int            `json:"estimatedTimeRemaining"`
	ElapsedMinutes         int            `json:"elapsedMinutes"`
	Items                  []ItemTracking `json:"items"`
}

// ---------------- Staff ----------------

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ItemStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type AvailabilityRequest struct {
	Availability string `json:"availability" binding:"required"`
}
