package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(s *entity.TableSession) error {
	return r.DB.Create(s).Error
}

func (r *SessionRepository) FindByID(id string) (*entity.TableSession, error) {
	var s entity.TableSession
	if err := r.DB.Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// session ที่ยังใช้งานได้ของโต๊ะ (ให้หลายเครื่องใช้ร่วมกัน)
func (r *SessionRepository) FindUsableForTable(tableID uint, now time.Time) (*entity.TableSession, error) {
	var s entity.TableSession
	err := r.DB.Where("table_id = ? AND active = ? AND expires_at > ?", tableID, true, now).
		Order("scanned_at DESC").
		First(&s).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// DeactivateForTable closes every active session of a table and returns their ids.
func (r *SessionRepository) DeactivateForTable(tx *gorm.DB, tableID uint, now time.Time) ([]string, error) {
	var ids []string
	if err := tx.Model(&entity.TableSession{}).
		Where("table_id = ? AND active = ?", tableID, true).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	err := tx.Model(&entity.TableSession{}).Where("id IN ?", ids).
		Updates(map[string]any{"active": false, "closed_at": now}).Error
	return ids, err
}
