package entity

import (
	"time"

	"gorm.io/gorm"
)

// Cart belongs to a table session, not to a device.
type Cart struct {
	gorm.Model
	SessionID string `gorm:"size:36;uniqueIndex;not null" json:"sessionId"`
	TenantID  uint   `json:"tenantId"`

	Items []CartItem `json:"items" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

type CartItem struct {
	// generated by the client when it has one
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	CartID uint   `gorm:"index;not null" json:"cartId"`
	Seq    int64  `gorm:"not null" json:"-"`

	MenuItemID uint     `gorm:"index;not null" json:"menuItemId"`
	MenuItem   MenuItem `json:"-"`

	SizeID              *uint  `json:"sizeId"`
	SpecialInstructions string `json:"specialInstructions"`
	Quantity            int    `gorm:"not null" json:"quantity"`

	// hash ของ menu + size + toppings + modifiers + note ใช้รวม line ที่เหมือนกัน
	ConfigKey string `gorm:"size:64;index" json:"-"`

	Toppings  []CartItemTopping  `gorm:"constraint:OnDelete:CASCADE;" json:"toppings"`
	Modifiers []CartItemModifier `gorm:"constraint:OnDelete:CASCADE;" json:"modifiers"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CartItemTopping struct {
	ID            uint   `gorm:"primaryKey"`
	CartItemID    string `gorm:"size:36;index;not null"`
	MenuToppingID uint   `gorm:"not null"`
}

type CartItemModifier struct {
	ID               uint   `gorm:"primaryKey"`
	CartItemID       string `gorm:"size:36;index;not null"`
	ModifierGroupID  uint   `gorm:"not null"`
	ModifierOptionID uint   `gorm:"not null"`
}
