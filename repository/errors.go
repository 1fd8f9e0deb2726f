package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
)

// notFound translates gorm.ErrRecordNotFound so services never see gorm
// errors for missing rows.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	return err
}
