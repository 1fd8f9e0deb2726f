package repository

import (
	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
)

// StaffRepository คุยกับตาราง staff_users เท่านั้น
type StaffRepository struct {
	DB *gorm.DB
}

func NewStaffRepository(db *gorm.DB) *StaffRepository {
	return &StaffRepository{DB: db}
}

func (r *StaffRepository) FindByEmail(email string) (*entity.StaffUser, error) {
	var u entity.StaffUser
	if err := r.DB.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *StaffRepository) FindByID(id uint) (*entity.StaffUser, error) {
	var u entity.StaffUser
	if err := r.DB.First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *StaffRepository) CountByEmail(email string) (int64, error) {
	var count int64
	err := r.DB.Model(&entity.StaffUser{}).Where("email = ?", email).Count(&count).Error
	return count, err
}

func (r *StaffRepository) Create(u *entity.StaffUser) error {
	return r.DB.Create(u).Error
}
