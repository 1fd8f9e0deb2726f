package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/status"
)

type OrderRepository struct {
	DB *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

func preloadOrder(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Selections", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

// ---------------- Orders (CRUD หลัก) ----------------

// CreateOrder inserts the order with its items and selections.
func (r *OrderRepository) CreateOrder(tx *gorm.DB, o *entity.Order) error {
	return tx.Create(o).Error
}

// NextOrderNumber เลขออเดอร์แบบอ่านง่าย ORD-<yyyymmdd>-<seq ของวันนั้น>
func (r *OrderRepository) NextOrderNumber(tx *gorm.DB, tenantID uint, now time.Time) (string, error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var cnt int64
	if err := tx.Unscoped().Model(&entity.Order{}).
		Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, day, day.AddDate(0, 0, 1)).
		Count(&cnt).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%04d", day.Format("20060102"), cnt+1), nil
}

func (r *OrderRepository) GetOrder(orderID uint) (*entity.Order, error) {
	var o entity.Order
	if err := preloadOrder(r.DB).First(&o, orderID).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *OrderRepository) GetOrderForSession(sessionID string, orderID uint) (*entity.Order, error) {
	var o entity.Order
	if err := preloadOrder(r.DB).Where("id = ? AND session_id = ?", orderID, sessionID).First(&o).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *OrderRepository) GetOrderForTenant(tenantID, orderID uint) (*entity.Order, error) {
	var o entity.Order
	if err := preloadOrder(r.DB).Where("id = ? AND tenant_id = ?", orderID, tenantID).First(&o).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// ประวัติออเดอร์ของโต๊ะ (session ปัจจุบัน)
func (r *OrderRepository) ListForSession(sessionID string) ([]entity.Order, error) {
	var out []entity.Order
	err := preloadOrder(r.DB).Where("session_id = ?", sessionID).Order("id DESC").Find(&out).Error
	return out, err
}

type TenantOrderFilter struct {
	ActionableOnly  bool
	IncludeTerminal bool
	Limit           int
}

// ListForTenant is the kitchen/staff queue, oldest first.
func (r *OrderRepository) ListForTenant(tenantID uint, f TenantOrderFilter) ([]entity.Order, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 100
	}
	db := preloadOrder(r.DB).Where("tenant_id = ?", tenantID)
	if f.ActionableOnly {
		db = db.Where("payment_method = ? OR payment_status = ?", status.MethodBillToTable, status.PaymentPaid)
	}
	if !f.IncludeTerminal {
		db = db.Where("status NOT IN ?", []status.Order{status.OrderCompleted, status.OrderCancelled})
	}
	var out []entity.Order
	err := db.Order("id ASC").Limit(f.Limit).Find(&out).Error
	return out, err
}

// UpdateStatusGuard moves the order only if it is still in `from`, stamping
// the given checkpoint columns.
func (r *OrderRepository) UpdateStatusGuard(tx *gorm.DB, orderID uint, from, to status.Order, stamps []string, at time.Time) (bool, error) {
	updates := map[string]any{"status": to}
	for _, col := range stamps {
		updates[col] = at
	}
	res := tx.Model(&entity.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OrderRepository) UpdatePaymentStatus(tx *gorm.DB, orderID uint, ps status.Payment) error {
	return tx.Model(&entity.Order{}).Where("id = ?", orderID).Update("payment_status", ps).Error
}

// ---------------- Order Items ----------------

// StampItem sets a kitchen timestamp once; a set timestamp is never cleared
// or moved.
func (r *OrderRepository) StampItem(tx *gorm.DB, orderID, itemID uint, column string, at time.Time) error {
	return tx.Model(&entity.OrderItem{}).
		Where("id = ? AND order_id = ? AND "+column+" IS NULL", itemID, orderID).
		Update(column, at).Error
}
