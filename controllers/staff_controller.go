package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/resp"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/repository"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/services"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/utils"
)

// StaffController: หน้าจอครัว/พนักงาน ทุกอย่างจำกัดอยู่ในร้านของ token
type StaffController struct {
	Orders   *services.OrderService
	Payments *services.PaymentService
	Sessions *services.SessionService
	Tenants  *repository.TenantRepository
}

func NewStaffController(o *services.OrderService, p *services.PaymentService, s *services.SessionService, t *repository.TenantRepository) *StaffController {
	return &StaffController{Orders: o, Payments: p, Sessions: s, Tenants: t}
}

// GET /api/v1/staff/orders?all=true
func (h *StaffController) ListOrders(c *gin.Context) {
	out, err := h.Orders.StaffList(utils.CurrentTenantID(c), c.Query("all") == "true")
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, out)
}

// PATCH /api/v1/staff/orders/:id/status
func (h *StaffController) UpdateStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req dto.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	o, err := h.Orders.Transition(c.Request.Context(), utils.CurrentTenantID(c), id, req.Status)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, o)
}

// PATCH /api/v1/staff/orders/:id/items/:itemId/status
func (h *StaffController) UpdateItemStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := uintParam(c, "itemId")
	if !ok {
		return
	}
	var req dto.ItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	o, err := h.Orders.ItemStatus(c.Request.Context(), utils.CurrentTenantID(c), id, itemID, req.Status)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, o)
}

// POST /api/v1/staff/orders/:id/payments/collect
func (h *StaffController) CollectPayment(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	o, err := h.Payments.CollectAtTable(c.Request.Context(), utils.CurrentTenantID(c), id)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, o)
}

// GET /api/v1/staff/tables
func (h *StaffController) ListTables(c *gin.Context) {
	rows, err := h.Tenants.ListTables(utils.CurrentTenantID(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, rows)
}

// POST /api/v1/staff/tables/:id/clear
func (h *StaffController) ClearTable(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.Sessions.ClearTable(c.Request.Context(), utils.CurrentTenantID(c), id); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"tableId": id, "cleared": true})
}

// POST /api/v1/staff/tables/:id/qr/rotate
func (h *StaffController) RotateQR(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	token, err := h.Sessions.RotateToken(utils.CurrentTenantID(c), id)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"tableId": id, "url": h.Sessions.QRURL(token)})
}

// GET /api/v1/staff/tables/:id/qr.png
func (h *StaffController) TableQR(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	png, err := h.Sessions.TableQRCode(utils.CurrentTenantID(c), id, sizeQuery(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
