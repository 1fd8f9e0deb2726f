package entity

import "time"

// TableSession binds browsing contexts (possibly several devices) to one
// physical table for a dining visit.
type TableSession struct {
	ID          string `gorm:"primaryKey;size:36"`
	TenantID    uint   `gorm:"index;not null"`
	TableID     uint   `gorm:"index;not null"`
	TableNumber string `gorm:"size:20"`

	ScannedAt time.Time
	ExpiresAt time.Time `gorm:"index"`
	Active    bool      `gorm:"index"`
	ClosedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Usable reports whether the session can still carry requests at now.
func (s *TableSession) Usable(now time.Time) bool {
	return s.Active && now.Before(s.ExpiresAt)
}
