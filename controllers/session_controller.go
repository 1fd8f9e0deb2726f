package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/resp"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/services"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/utils"
)

type SessionController struct {
	Svc          *services.SessionService
	CookieName   string
	CookieSecure bool
}

func NewSessionController(s *services.SessionService, cookieName string, secure bool) *SessionController {
	return &SessionController{Svc: s, CookieName: cookieName, CookieSecure: secure}
}

func (h *SessionController) setCookie(c *gin.Context, r *services.Resolved) {
	maxAge := int(time.Until(r.Session.ExpiresAt) / time.Second)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.CookieName, r.Credential, maxAge, "/", "", h.CookieSecure, true)
}

// GET /qr/:token
// แลก token แล้ว redirect ทันที URL ที่เห็นจึงไม่มี token เหลืออยู่
func (h *SessionController) Enter(c *gin.Context) {
	r, err := h.Svc.ResolveQRToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	h.setCookie(c, r)
	c.Header("Cache-Control", "no-store")
	c.Header("Referrer-Policy", "no-referrer")
	c.Redirect(http.StatusFound, r.RedirectTo)
}

// POST /api/v1/sessions/resolve
func (h *SessionController) Resolve(c *gin.Context) {
	var req dto.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	r, err := h.Svc.ResolveQRToken(c.Request.Context(), req.Token)
	if err != nil {
		resp.Error(c, err)
		return
	}
	h.setCookie(c, r)
	resp.OK(c, dto.ResolveResult{Session: services.SessionView(r.Session), RedirectTo: r.RedirectTo})
}

// GET /api/v1/sessions/current
func (h *SessionController) Current(c *gin.Context) {
	resp.OK(c, services.SessionView(utils.CurrentSession(c)))
}
