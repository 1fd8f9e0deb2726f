package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
)

type CartRepository struct{ DB *gorm.DB }

func NewCartRepository(db *gorm.DB) *CartRepository { return &CartRepository{DB: db} }

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Preload("Items.Toppings").
		Preload("Items.Modifiers")
}

// คืน Cart ของ session (ถ้าไม่มีก็คืน Cart ว่าง ๆ โดยไม่ error เพื่อให้ FE แสดงได้)
func (r *CartRepository) GetCartWithItems(db *gorm.DB, sessionID string) (*entity.Cart, error) {
	var c entity.Cart
	err := preloadLines(db).Where("session_id = ?", sessionID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &entity.Cart{SessionID: sessionID}, nil
	}
	return &c, err
}

// สร้างหรืออ่าน Cart ของ session
func (r *CartRepository) GetOrCreateCart(tx *gorm.DB, sessionID string, tenantID uint) (*entity.Cart, error) {
	var c entity.Cart
	err := tx.Where("session_id = ?", sessionID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c = entity.Cart{SessionID: sessionID, TenantID: tenantID}
		if err := tx.Create(&c).Error; err != nil {
			return nil, err
		}
		return &c, nil
	}
	return &c, err
}

// UpsertItem merges into a line with the same configuration key or inserts a
// new one. It returns the id of the line that holds the quantity.
func (r *CartRepository) UpsertItem(tx *gorm.DB, cartID uint, row *entity.CartItem) (string, error) {
	var exist entity.CartItem
	err := tx.Where("cart_id = ? AND config_key = ?", cartID, row.ConfigKey).First(&exist).Error
	if err == nil {
		res := tx.Model(&entity.CartItem{}).Where("id = ?", exist.ID).
			Update("quantity", gorm.Expr("quantity + ?", row.Quantity))
		return exist.ID, res.Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var maxSeq int64
	if err := tx.Model(&entity.CartItem{}).Where("cart_id = ?", cartID).
		Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
		return "", err
	}
	row.CartID = cartID
	row.Seq = maxSeq + 1
	if err := tx.Create(row).Error; err != nil {
		return "", err
	}
	return row.ID, nil
}

// UpdateQty ensures the line belongs to the cart; qty <= 0 removes it.
func (r *CartRepository) UpdateQty(tx *gorm.DB, cartID uint, itemID string, qty int) error {
	if qty <= 0 {
		return r.RemoveItem(tx, cartID, itemID)
	}
	// เช็คก่อนเพราะ mysql นับ RowsAffected เฉพาะแถวที่ค่าเปลี่ยนจริง
	var cnt int64
	if err := tx.Model(&entity.CartItem{}).Where("id = ? AND cart_id = ?", itemID, cartID).
		Count(&cnt).Error; err != nil {
		return err
	}
	if cnt == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return tx.Model(&entity.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Update("quantity", qty).Error
}

func (r *CartRepository) RemoveItem(tx *gorm.DB, cartID uint, itemID string) error {
	var cnt int64
	if err := tx.Model(&entity.CartItem{}).Where("id = ? AND cart_id = ?", itemID, cartID).
		Count(&cnt).Error; err != nil {
		return err
	}
	if cnt == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	if err := tx.Where("cart_item_id = ?", itemID).Delete(&entity.CartItemTopping{}).Error; err != nil {
		return err
	}
	if err := tx.Where("cart_item_id = ?", itemID).Delete(&entity.CartItemModifier{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&entity.CartItem{}).Error
}

func (r *CartRepository) ClearCart(tx *gorm.DB, sessionID string) error {
	var c entity.Cart
	if err := tx.Where("session_id = ?", sessionID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	sub := tx.Model(&entity.CartItem{}).Select("id").Where("cart_id = ?", c.ID)
	if err := tx.Where("cart_item_id IN (?)", sub).Delete(&entity.CartItemTopping{}).Error; err != nil {
		return err
	}
	if err := tx.Where("cart_item_id IN (?)", sub).Delete(&entity.CartItemModifier{}).Error; err != nil {
		return err
	}
	return tx.Where("cart_id = ?", c.ID).Delete(&entity.CartItem{}).Error
}
