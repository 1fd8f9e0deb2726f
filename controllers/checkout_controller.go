package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/resp"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/services"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/utils"
)

type CheckoutController struct {
	Svc    *services.CheckoutService
	Promos *services.PromotionService
}

func NewCheckoutController(s *services.CheckoutService, p *services.PromotionService) *CheckoutController {
	return &CheckoutController{Svc: s, Promos: p}
}

// POST /api/v1/checkout
func (h *CheckoutController) Submit(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	order, err := h.Svc.Submit(c.Request.Context(), utils.CurrentSession(c), req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Created(c, order)
}

// POST /api/v1/checkout/validate-promo
// โค้ดไม่ผ่านยังตอบ 200 แต่ valid=false
func (h *CheckoutController) ValidatePromo(c *gin.Context) {
	var req dto.PromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	res, err := h.Promos.Validate(utils.CurrentTenantID(c), req.Code, req.Subtotal)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, res)
}
