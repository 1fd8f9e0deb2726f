package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Availability string

const (
	Available   Availability = "Available"
	SoldOut     Availability = "Sold out"
	Unavailable Availability = "Unavailable"
)

func ParseAvailability(s string) (Availability, bool) {
	switch a := Availability(s); a {
	case Available, SoldOut, Unavailable:
		return a, true
	}
	return "", false
}

type MenuItem struct {
	gorm.Model
	TenantID uint   `gorm:"index;not null" json:"tenantId"`
	Tenant   Tenant `json:"-"`

	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	Category    string          `gorm:"index" json:"category"`
	BasePrice   decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"basePrice"`
	PrepMinutes int             `json:"prepMinutes"`

	Availability Availability `gorm:"size:20;not null;default:Available" json:"availability"`

	// preload เฉพาะตอนแสดงเมนู/คำนวณราคา
	Sizes          []MenuSize      `json:"sizes"`
	Toppings       []MenuTopping   `json:"toppings"`
	ModifierGroups []ModifierGroup `json:"modifierGroups"`
}

// MenuSize is a mutually exclusive size with an absolute price.
type MenuSize struct {
	gorm.Model
	MenuItemID uint            `gorm:"index;not null" json:"menuItemId"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"price"`
	SortOrder  int             `gorm:"not null;default:0" json:"sortOrder"`
}

// MenuTopping is a multi-select add-on priced additively.
type MenuTopping struct {
	gorm.Model
	MenuItemID uint            `gorm:"index;not null" json:"menuItemId"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"price"`
	SortOrder  int             `gorm:"not null;default:0" json:"sortOrder"`
}

type ModifierGroup struct {
	gorm.Model
	MenuItemID uint   `gorm:"index;not null" json:"menuItemId"`
	Name       string `json:"name"`
	Required   bool   `json:"required"`
	MinChoices int    `json:"minChoices"`
	MaxChoices int    `json:"maxChoices"` // 0 = no upper bound
	SortOrder  int    `json:"sortOrder"`

	Options []ModifierOption `json:"options"`
}

type ModifierOption struct {
	gorm.Model
	ModifierGroupID uint            `gorm:"index;not null" json:"modifierGroupId"`
	Name            string          `json:"name"`
	PriceDelta      decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"priceDelta"`
	IsAvailable     bool            `json:"isAvailable"`
	SortOrder       int             `json:"sortOrder"`
}

func (m *MenuItem) IsAvailable() bool { return m.Availability == Available }

func (m *MenuItem) FindSize(id uint) *MenuSize {
	for i := range m.Sizes {
		if m.Sizes[i].ID == id {
			return &m.Sizes[i]
		}
	}
	return nil
}

func (m *MenuItem) FindTopping(id uint) *MenuTopping {
	for i := range m.Toppings {
		if m.Toppings[i].ID == id {
			return &m.Toppings[i]
		}
	}
	return nil
}

func (m *MenuItem) FindGroup(id uint) *ModifierGroup {
	for i := range m.ModifierGroups {
		if m.ModifierGroups[i].ID == id {
			return &m.ModifierGroups[i]
		}
	}
	return nil
}

func (g *ModifierGroup) FindOption(id uint) *ModifierOption {
	for i := range g.Options {
		if g.Options[i].ID == id {
			return &g.Options[i]
		}
	}
	return nil
}
