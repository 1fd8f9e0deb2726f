package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/resp"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/services"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/utils"
)

type OrderController struct{ Svc *services.OrderService }

func NewOrderController(s *services.OrderService) *OrderController { return &OrderController{Svc: s} }

// GET /api/v1/orders  ประวัติออเดอร์ของโต๊ะ
func (h *OrderController) List(c *gin.Context) {
	out, err := h.Svc.List(utils.CurrentSession(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, out)
}

// GET /api/v1/orders/:id
func (h *OrderController) Detail(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	o, err := h.Svc.Get(utils.CurrentSession(c), id)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, o)
}

// GET /api/v1/orders/:id/tracking
func (h *OrderController) Tracking(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	t, err := h.Svc.Tracking(utils.CurrentSession(c), id)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, t)
}
