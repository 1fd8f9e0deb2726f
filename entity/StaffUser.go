package entity

import (
	"gorm.io/gorm"
)

const (
	RoleOwner   = "owner"
	RoleStaff   = "staff"
	RoleKitchen = "kitchen"
)

type StaffUser struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `json:"-"` // bcrypt hash
	Name     string `json:"name"`
	Role     string `gorm:"not null;default:staff" json:"role"`

	TenantID uint   `gorm:"index;not null" json:"tenantId"`
	Tenant   Tenant `json:"-"`
}
