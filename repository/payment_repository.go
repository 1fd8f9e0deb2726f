package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/status"
)

type PaymentRepository struct {
	DB *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

func (r *PaymentRepository) Create(tx *gorm.DB, p *entity.Payment) error {
	return tx.Create(p).Error
}

// ดึง Payment attempt ล่าสุดของ order
func (r *PaymentRepository) LatestForOrder(orderID uint) (*entity.Payment, error) {
	var p entity.Payment
	if err := r.DB.Where("order_id = ?", orderID).Order("id DESC").First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PaymentRepository) FindByTransaction(txID string) (*entity.Payment, error) {
	var p entity.Payment
	if err := r.DB.Where("transaction_id = ?", txID).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// UpdateStatusGuard only leaves `from`; the bool tells whether this call won.
func (r *PaymentRepository) UpdateStatusGuard(tx *gorm.DB, paymentID uint, from, to status.Attempt, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&entity.Payment{}).
		Where("id = ? AND status = ?", paymentID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ExtendDeadline moves expires_at of a still-waiting, not yet expired attempt.
func (r *PaymentRepository) ExtendDeadline(tx *gorm.DB, paymentID uint, now, expiresAt time.Time) (bool, error) {
	res := tx.Model(&entity.Payment{}).
		Where("id = ? AND status = ? AND expires_at > ?", paymentID, status.AttemptWaiting, now).
		Update("expires_at", expiresAt)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
