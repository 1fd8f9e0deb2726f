package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tenant คือร้านอาหารหนึ่งร้านบนแพลตฟอร์ม
type Tenant struct {
	gorm.Model
	Name     string `json:"name"`
	Slug     string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Currency string `gorm:"size:3;not null;default:USD" json:"currency"`

	// override ค่า default จาก config (NULL = ใช้ค่า default)
	TaxRate           decimal.NullDecimal `gorm:"type:decimal(6,4)" json:"taxRate"`
	ServiceChargeRate decimal.NullDecimal `gorm:"type:decimal(6,4)" json:"serviceChargeRate"`

	Tables    []DiningTable `json:"-"`
	MenuItems []MenuItem    `json:"-"`
	Staff     []StaffUser   `json:"-"`
}
