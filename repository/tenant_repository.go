package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
)

type TenantRepository struct {
	DB *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{DB: db}
}

func (r *TenantRepository) FindByID(id uint) (*entity.Tenant, error) {
	var t entity.Tenant
	if err := r.DB.First(&t, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// ---------------- Tables ----------------

func (r *TenantRepository) FindTable(tenantID, tableID uint) (*entity.DiningTable, error) {
	var t entity.DiningTable
	if err := r.DB.Where("id = ? AND tenant_id = ?", tableID, tenantID).First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *TenantRepository) ListTables(tenantID uint) ([]entity.DiningTable, error) {
	var rows []entity.DiningTable
	err := r.DB.Where("tenant_id = ?", tenantID).Order("table_number").Find(&rows).Error
	return rows, err
}

// หาโต๊ะจาก token ใน QR
func (r *TenantRepository) FindTableByToken(token string) (*entity.DiningTable, error) {
	var t entity.DiningTable
	if err := r.DB.Where("qr_token = ?", token).First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *TenantRepository) RotateToken(tableID uint, token string, expiresAt *time.Time) error {
	return r.DB.Model(&entity.DiningTable{}).Where("id = ?", tableID).
		Updates(map[string]any{"qr_token": token, "qr_token_expires_at": expiresAt}).Error
}
