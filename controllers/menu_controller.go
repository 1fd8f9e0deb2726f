package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/resp"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/services"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/utils"
)

type MenuController struct{ Svc *services.MenuService }

func NewMenuController(s *services.MenuService) *MenuController { return &MenuController{Svc: s} }

// GET /api/v1/menu (ร้านของ session) หรือ /api/v1/staff/menu
func (h *MenuController) List(c *gin.Context) {
	items, err := h.Svc.List(utils.CurrentTenantID(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, items)
}

// PATCH /api/v1/staff/menu/:id/availability
func (h *MenuController) SetAvailability(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req dto.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	if err := h.Svc.SetAvailability(c.Request.Context(), utils.CurrentTenantID(c), id, req.Availability); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"id": id, "availability": req.Availability})
}
