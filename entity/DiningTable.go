package entity

import (
	"time"

	"gorm.io/gorm"
)

type DiningTable struct {
	gorm.Model
	TenantID uint   `gorm:"index;not null" json:"tenantId"`
	Tenant   Tenant `json:"-"`

	TableNumber string `gorm:"size:20;not null" json:"tableNumber"`
	Active      bool   `json:"active"`

	// opaque token printed in the table QR code; rotating it revokes the old one
	QRToken          string     `gorm:"size:64;uniqueIndex" json:"-"`
	QRTokenExpiresAt *time.Time `json:"-"`

	Sessions []TableSession `gorm:"foreignKey:TableID" json:"-"`
}
