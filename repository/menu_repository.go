package repository

import (
	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
)

type MenuRepository struct {
	DB *gorm.DB
}

func NewMenuRepository(db *gorm.DB) *MenuRepository {
	return &MenuRepository{DB: db}
}

func withOptions(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Preload("Toppings", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Preload("ModifierGroups", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Preload("ModifierGroups.Options", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") })
}

// ดึงเมนูทั้งหมดของร้าน
func (r *MenuRepository) ListForTenant(tenantID uint) ([]entity.MenuItem, error) {
	var items []entity.MenuItem
	err := withOptions(r.DB).
		Where("tenant_id = ?", tenantID).
		Order("category, id").
		Find(&items).Error
	return items, err
}

func (r *MenuRepository) FindForTenant(tenantID, id uint) (*entity.MenuItem, error) {
	var m entity.MenuItem
	if err := withOptions(r.DB).Where("id = ? AND tenant_id = ?", id, tenantID).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// FindMany loads items by id, soft-deleted ones included so an old cart line
// can still be shown (as unavailable).
func (r *MenuRepository) FindMany(tenantID uint, ids []uint) (map[uint]*entity.MenuItem, error) {
	out := make(map[uint]*entity.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []entity.MenuItem
	if err := withOptions(r.DB.Unscoped()).
		Where("id IN ? AND tenant_id = ?", ids, tenantID).
		Find(&items).Error; err != nil {
		return nil, err
	}
	for i := range items {
		out[items[i].ID] = &items[i]
	}
	return out, nil
}

func (r *MenuRepository) SetAvailability(tenantID, id uint, a entity.Availability) (bool, error) {
	var cnt int64
	if err := r.DB.Model(&entity.MenuItem{}).Where("id = ? AND tenant_id = ?", id, tenantID).
		Count(&cnt).Error; err != nil || cnt == 0 {
		return false, err
	}
	err := r.DB.Model(&entity.MenuItem{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Update("availability", a).Error
	return err == nil, err
}

func (r *MenuRepository) Create(m *entity.MenuItem) error {
	return r.DB.Create(m).Error
}
