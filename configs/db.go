package configs

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
)

var db *gorm.DB

func DB() *gorm.DB {
	return db
}

// Open เลือก driver ตาม DB_DRIVER (sqlite | mysql)
func Open(driver, source string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		dialector = sqlite.Open(source)
	case "mysql":
		dialector = mysql.Open(source)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	// TranslateError ทำให้ unique ชนกันได้ gorm.ErrDuplicatedKey ทุก driver
	return gorm.Open(dialector, &gorm.Config{TranslateError: true})
}

func ConnectionDB(cfg *Config) {
	database, err := Open(cfg.DBDriver, cfg.DBSource)
	if err != nil {
		panic("failed to connect database: " + err.Error())
	}
	db = database
}

// SetupDatabase migrates the schema.
func SetupDatabase(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Tenant{}, &entity.DiningTable{}, &entity.TableSession{}, &entity.StaffUser{},
		&entity.MenuItem{}, &entity.MenuSize{}, &entity.MenuTopping{},
		&entity.ModifierGroup{}, &entity.ModifierOption{},
		&entity.Cart{}, &entity.CartItem{}, &entity.CartItemTopping{}, &entity.CartItemModifier{},
		&entity.Order{}, &entity.OrderItem{}, &entity.OrderItemSelection{},
		&entity.Payment{},
		&entity.Promotion{},
	)
}
