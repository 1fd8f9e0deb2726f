package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/resp"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/services"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/utils"
)

type PaymentController struct{ Svc *services.PaymentService }

func NewPaymentController(s *services.PaymentService) *PaymentController {
	return &PaymentController{Svc: s}
}

// POST /api/v1/payments/:orderId/start
func (h *PaymentController) Start(c *gin.Context) {
	id, ok := uintParam(c, "orderId")
	if !ok {
		return
	}
	p, err := h.Svc.Start(c.Request.Context(), utils.CurrentSession(c), id)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, p)
}

// GET /api/v1/payments/:orderId/status
func (h *PaymentController) Status(c *gin.Context) {
	id, ok := uintParam(c, "orderId")
	if !ok {
		return
	}
	p, err := h.Svc.Status(c.Request.Context(), utils.CurrentSession(c), id)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, p)
}

// POST /api/v1/payments/:orderId/extend
func (h *PaymentController) Extend(c *gin.Context) {
	id, ok := uintParam(c, "orderId")
	if !ok {
		return
	}
	p, err := h.Svc.Extend(c.Request.Context(), utils.CurrentSession(c), id)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, p)
}

// GET /api/v1/payments/:orderId/qr.png
func (h *PaymentController) QRCode(c *gin.Context) {
	id, ok := uintParam(c, "orderId")
	if !ok {
		return
	}
	png, err := h.Svc.QRCode(utils.CurrentSession(c), id, sizeQuery(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// POST /api/v1/payments/webhook  (callback จาก gateway)
func (h *PaymentController) Webhook(c *gin.Context) {
	var req dto.PaymentWebhook
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	p, err := h.Svc.HandleWebhook(c.Request.Context(), req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, p)
}
