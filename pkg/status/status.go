// Package status holds the canonical order, payment and kitchen status
// vocabularies. Every wire value, legacy Title-Case or current UPPERCASE,
// goes through a Parse* function before any business logic looks at it.
package status

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ---------------- Order lifecycle ----------------

type Order string

const (
	OrderPending   Order = "PENDING"
	OrderReceived  Order = "RECEIVED"
	OrderPreparing Order = "PREPARING"
	OrderReady     Order = "READY"
	OrderServed    Order = "SERVED"
	OrderCompleted Order = "COMPLETED"
	OrderCancelled Order = "CANCELLED"
)

// Lifecycle is the canonical checkpoint order. CANCELLED is not part of it.
var Lifecycle = []Order{
	OrderPending, OrderReceived, OrderPreparing, OrderReady, OrderServed, OrderCompleted,
}

// legacy Title-Case vocabulary, RECEIVED <-> Accepted
var legacyOrder = map[Order]string{
	OrderPending:   "Pending",
	OrderReceived:  "Accepted",
	OrderPreparing: "Preparing",
	OrderReady:     "Ready",
	OrderServed:    "Served",
	OrderCompleted: "Completed",
	OrderCancelled: "Cancelled",
}

var orderAliases = func() map[string]Order {
	m := make(map[string]Order, len(legacyOrder)*2)
	for canon, legacy := range legacyOrder {
		m[string(canon)] = canon
		m[legacy] = canon
	}
	return m
}()

// ParseOrder maps either vocabulary onto the canonical status.
func ParseOrder(raw string) (Order, error) {
	raw = strings.TrimSpace(raw)
	if o, ok := orderAliases[raw]; ok {
		return o, nil
	}
	// lenient fallback for odd casing ("accepted", "preparing")
	for alias, o := range orderAliases {
		if strings.EqualFold(alias, raw) {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", raw)
}

func (o Order) Valid() bool {
	_, ok := legacyOrder[o]
	return ok
}

// Legacy returns the Title-Case alias.
func (o Order) Legacy() string { return legacyOrder[o] }

// Position is the index in Lifecycle, -1 for CANCELLED or unknown values.
func (o Order) Position() int {
	for i, s := range Lifecycle {
		if s == o {
			return i
		}
	}
	return -1
}

func (o Order) IsTerminal() bool {
	return o == OrderCompleted || o == OrderCancelled
}

// CanTransition allows forward moves along Lifecycle (skipping is allowed,
// the skipped checkpoints get stamped too) and cancellation from any
// non-terminal state.
func CanTransition(from, to Order) bool {
	if !from.Valid() || !to.Valid() || from.IsTerminal() || from == to {
		return false
	}
	if to == OrderCancelled {
		return true
	}
	return to.Position() > from.Position()
}

func (o *Order) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseOrder(raw)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ---------------- Payment status (order level) ----------------

type Payment string

const (
	PaymentUnpaid  Payment = "UNPAID"
	PaymentPending Payment = "PENDING"
	PaymentPaid    Payment = "PAID"
	PaymentFailed  Payment = "FAILED"
)

var paymentAliases = map[string]Payment{
	"UNPAID": PaymentUnpaid, "Unpaid": PaymentUnpaid,
	"PENDING": PaymentPending, "Pending": PaymentPending,
	"PAID": PaymentPaid, "Paid": PaymentPaid, "COMPLETED": PaymentPaid, "Completed": PaymentPaid,
	"FAILED": PaymentFailed, "Failed": PaymentFailed,
}

func ParsePayment(raw string) (Payment, error) {
	if p, ok := paymentAliases[strings.TrimSpace(raw)]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown payment status %q", raw)
}

func (p *Payment) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParsePayment(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ---------------- Payment method ----------------

type Method string

const (
	MethodBillToTable Method = "BILL_TO_TABLE"
	MethodSepayQR     Method = "SEPAY_QR"
	MethodCardOnline  Method = "CARD_ONLINE"
)

var methodAliases = map[string]Method{
	"bill_to_table": MethodBillToTable,
	"counter":       MethodBillToTable,
	"cash":          MethodBillToTable,
	"sepay_qr":      MethodSepayQR,
	"sepay":         MethodSepayQR,
	"qr":            MethodSepayQR,
	"card_online":   MethodCardOnline,
	"card":          MethodCardOnline,
}

func ParseMethod(raw string) (Method, error) {
	k := strings.ToLower(strings.TrimSpace(raw))
	k = strings.ReplaceAll(k, "-", "_")
	if m, ok := methodAliases[k]; ok {
		return m, nil
	}
	return "", fmt.Errorf("unknown payment method %q", raw)
}

// RequiresOnlinePayment reports whether the order must go through payment
// tracking before the kitchen may act on it.
func (m Method) RequiresOnlinePayment() bool {
	return m == MethodSepayQR || m == MethodCardOnline
}

func (m *Method) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseMethod(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ---------------- Payment attempt ----------------

type Attempt string

const (
	AttemptWaiting Attempt = "waiting"
	AttemptSuccess Attempt = "success"
	AttemptFailed  Attempt = "failed"
	AttemptExpired Attempt = "expired"
)

func (a Attempt) IsTerminal() bool { return a != AttemptWaiting }

// ---------------- Per-item preparation ----------------

type ItemPrep string

const (
	ItemQueued    ItemPrep = "queued"
	ItemPreparing ItemPrep = "preparing"
	ItemReady     ItemPrep = "ready"
	ItemServed    ItemPrep = "served"
)

func ParseItemPrep(raw string) (ItemPrep, error) {
	switch p := ItemPrep(strings.ToLower(strings.TrimSpace(raw))); p {
	case ItemQueued, ItemPreparing, ItemReady, ItemServed:
		return p, nil
	}
	return "", fmt.Errorf("unknown item status %q", raw)
}

// ItemPrepFrom derives the item status from its kitchen timestamps.
func ItemPrepFrom(startedAt, preparedAt, servedAt *time.Time) ItemPrep {
	switch {
	case servedAt != nil:
		return ItemServed
	case preparedAt != nil:
		return ItemReady
	case startedAt != nil:
		return ItemPreparing
	default:
		return ItemQueued
	}
}
