package configs

import (
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
)

const DemoTenantSlug = "demo-bistro"

func usd(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// SeedDemo สร้างร้านตัวอย่าง (โต๊ะ เมนู โปรโมชัน) ครั้งแรกเท่านั้น
func SeedDemo(db *gorm.DB) (*entity.Tenant, error) {
	var tenant entity.Tenant
	err := db.Where("slug = ?", DemoTenantSlug).First(&tenant).Error
	if err == nil {
		log.Println("ℹ️ demo tenant already exists")
		return &tenant, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		tenant = entity.Tenant{Name: "Demo Bistro", Slug: DemoTenantSlug, Currency: "USD"}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}
		for i := 1; i <= 6; i++ {
			t := entity.DiningTable{
				TenantID:    tenant.ID,
				TableNumber: fmt.Sprintf("%d", i),
				Active:      true,
				QRToken:     fmt.Sprintf("demo-table-%d", i),
			}
			if err := tx.Create(&t).Error; err != nil {
				return err
			}
		}

		menu := []entity.MenuItem{
			{
				TenantID: tenant.ID, Name: "Classic Burger", Category: "Mains",
				BasePrice: usd("12.95"), PrepMinutes: 15, Availability: entity.Available,
				Sizes: []entity.MenuSize{
					{Name: "Regular", Price: usd("12.95"), SortOrder: 1},
					{Name: "Large", Price: usd("14.95"), SortOrder: 2},
				},
				Toppings: []entity.MenuTopping{
					{Name: "Extra cheese", Price: usd("1.50"), SortOrder: 1},
					{Name: "Bacon", Price: usd("2.00"), SortOrder: 2},
				},
			},
			{
				TenantID: tenant.ID, Name: "Beef Pho", Category: "Mains",
				BasePrice: usd("11.50"), PrepMinutes: 12, Availability: entity.Available,
				ModifierGroups: []entity.ModifierGroup{
					{
						Name: "Spice level", Required: true, MinChoices: 1, MaxChoices: 1, SortOrder: 1,
						Options: []entity.ModifierOption{
							{Name: "Mild", PriceDelta: decimal.Zero, IsAvailable: true, SortOrder: 1},
							{Name: "Hot", PriceDelta: decimal.Zero, IsAvailable: true, SortOrder: 2},
						},
					},
					{
						Name: "Extras", MaxChoices: 2, SortOrder: 2,
						Options: []entity.ModifierOption{
							{Name: "Extra noodles", PriceDelta: usd("1.00"), IsAvailable: true, SortOrder: 1},
							{Name: "No herbs", PriceDelta: usd("-0.25"), IsAvailable: true, SortOrder: 2},
						},
					},
				},
			},
			{
				TenantID: tenant.ID, Name: "Iced Coffee", Category: "Drinks",
				BasePrice: usd("3.50"), PrepMinutes: 3, Availability: entity.Available,
			},
			{
				TenantID: tenant.ID, Name: "Mango Sticky Rice", Category: "Desserts",
				BasePrice: usd("5.25"), PrepMinutes: 8, Availability: entity.SoldOut,
			},
		}
		if err := tx.Create(&menu).Error; err != nil {
			return err
		}

		promo := entity.Promotion{
			TenantID: tenant.ID, PromoCode: "WELCOME10", PromoDetail: "10% off, max $5",
			Kind: entity.PromoPercent, Value: usd("10"), MinOrder: usd("10"),
			MaxDiscount: decimal.NewNullDecimal(usd("5")), Active: true,
		}
		return tx.Create(&promo).Error
	})
	if err != nil {
		return nil, err
	}
	log.Println("✅ seeded demo tenant", tenant.Slug)
	return &tenant, nil
}

// SeedOwner สร้างเจ้าของร้านคนแรกจาก ADMIN_EMAIL/ADMIN_PASSWORD
func SeedOwner(db *gorm.DB, cfg *Config, tenantID uint) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Println("⚠️ skip seeding owner: missing ADMIN_EMAIL/ADMIN_PASSWORD")
		return nil
	}

	var count int64
	db.Model(&entity.StaffUser{}).Where("email = ?", cfg.AdminEmail).Count(&count)
	if count > 0 {
		log.Println("ℹ️ owner already exists:", cfg.AdminEmail)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	owner := entity.StaffUser{
		Email:    cfg.AdminEmail,
		Password: string(hash),
		Name:     "Owner",
		Role:     entity.RoleOwner,
		TenantID: tenantID,
	}
	return db.Create(&owner).Error
}
