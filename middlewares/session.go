package middlewares

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/resp"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/utils"
)

// SessionResolver is satisfied by services.SessionService.
type SessionResolver interface {
	Current(ctx context.Context, credential string) (*entity.TableSession, error)
}

// TableSession อ่าน session ของโต๊ะจาก HttpOnly cookie; 401 พร้อม code
// no-session / expired / invalid-token ให้ FE พาไปสแกน QR ใหม่
func TableSession(sessions SessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential, _ := c.Cookie(cookieName)
		s, err := sessions.Current(c.Request.Context(), credential)
		if err != nil {
			resp.Abort(c, err)
			return
		}
		c.Set(utils.CtxSession, s)
		c.Set(utils.CtxTenantID, s.TenantID)
		c.Next()
	}
}
