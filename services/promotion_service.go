package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/pricing"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/repository"
)

// PromotionService ตรวจโค้ดส่วนลด; โค้ดที่ใช้ไม่ได้ไม่เคยทำให้ checkout ล้ม
type PromotionService struct {
	Repo  *repository.PromotionRepository
	Clock Clock
}

// Validate never returns an error for a bad code, only an invalid result.
func (s *PromotionService) Validate(tenantID uint, code string, subtotal decimal.Decimal) (dto.PromoResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	res := dto.PromoResult{Code: code, DiscountAmount: decimal.Zero}
	if code == "" {
		res.Error = "promo code is required"
		return res, nil
	}

	p, err := s.Repo.FindByCode(tenantID, code)
	if errors.Is(err, apperr.ErrNotFound) {
		res.Error = "invalid promo code"
		return res, nil
	}
	if err != nil {
		return res, err
	}

	if reason := s.check(p, subtotal, s.Clock.now()); reason != "" {
		res.Error = reason
		return res, nil
	}
	res.Valid = true
	res.DiscountAmount = discountFor(p, subtotal)
	return res, nil
}

func (s *PromotionService) check(p *entity.Promotion, subtotal decimal.Decimal, now time.Time) string {
	switch {
	case !p.Active:
		return "promo code is not active"
	case p.StartAt != nil && now.Before(*p.StartAt):
		return "promo code is not active yet"
	case p.EndAt != nil && !now.Before(*p.EndAt):
		return "promo code has expired"
	case subtotal.LessThan(p.MinOrder):
		return "minimum order for this code is " + pricing.Round2(p.MinOrder).StringFixed(2)
	}
	return ""
}

// discountFor never exceeds the subtotal or the promotion's cap.
func discountFor(p *entity.Promotion, subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch p.Kind {
	case entity.PromoPercent:
		d = subtotal.Mul(p.Value).Div(decimal.NewFromInt(100))
	default:
		d = p.Value
	}
	if p.MaxDiscount.Valid && d.GreaterThan(p.MaxDiscount.Decimal) {
		d = p.MaxDiscount.Decimal
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	if d.IsNegative() {
		d = decimal.Zero
	}
	return pricing.Round2(d)
}
