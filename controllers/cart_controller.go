package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/resp"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/services"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/utils"
)

// CartController: ทุก endpoint ตอบ cart ทั้งก้อนพร้อมยอดรวมจาก server
type CartController struct{ Svc *services.CartService }

func NewCartController(s *services.CartService) *CartController { return &CartController{Svc: s} }

// GET /api/v1/cart
func (h *CartController) Get(c *gin.Context) {
	cart, err := h.Svc.Get(c.Request.Context(), utils.CurrentSession(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, cart)
}

// POST /api/v1/cart/items
func (h *CartController) Add(c *gin.Context) {
	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	cart, err := h.Svc.Add(c.Request.Context(), utils.CurrentSession(c), req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, cart)
}

// PATCH /api/v1/cart/items/:id  (quantity <= 0 = ลบ)
func (h *CartController) UpdateQty(c *gin.Context) {
	var req dto.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	cart, err := h.Svc.UpdateQuantity(c.Request.Context(), utils.CurrentSession(c), c.Param("id"), req.Quantity)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, cart)
}

// DELETE /api/v1/cart/items/:id
func (h *CartController) Remove(c *gin.Context) {
	cart, err := h.Svc.Remove(c.Request.Context(), utils.CurrentSession(c), c.Param("id"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, cart)
}

// DELETE /api/v1/cart
func (h *CartController) Clear(c *gin.Context) {
	cart, err := h.Svc.Clear(c.Request.Context(), utils.CurrentSession(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, cart)
}
