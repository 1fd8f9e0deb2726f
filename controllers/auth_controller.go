package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/resp"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/services"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/utils"
)

type AuthController struct{ Svc *services.AuthService }

func NewAuthController(s *services.AuthService) *AuthController { return &AuthController{Svc: s} }

// POST /api/v1/staff/login
func (a *AuthController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	token, user, err := a.Svc.Login(req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		resp.Unauthorized(c, apperr.CodeInvalidToken, "invalid email or password")
		return
	}
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{
		"token": token,
		"user": gin.H{
			"id": user.ID, "email": user.Email, "name": user.Name,
			"role": user.Role, "tenantId": user.TenantID,
		},
	})
}

// GET /api/v1/staff/me
func (a *AuthController) Me(c *gin.Context) {
	user, err := a.Svc.Me(utils.CurrentUserID(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, user)
}
