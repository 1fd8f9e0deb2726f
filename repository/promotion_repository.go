package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
)

type PromotionRepository struct {
	DB *gorm.DB
}

func NewPromotionRepository(db *gorm.DB) *PromotionRepository {
	return &PromotionRepository{DB: db}
}

func (r *PromotionRepository) FindByCode(tenantID uint, code string) (*entity.Promotion, error) {
	var p entity.Promotion
	err := r.DB.Where("tenant_id = ? AND UPPER(promo_code) = ?", tenantID, strings.ToUpper(strings.TrimSpace(code))).
		First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PromotionRepository) Create(p *entity.Promotion) error {
	return r.DB.Create(p).Error
}
