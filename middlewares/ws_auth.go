// middlewares/ws_auth.go
package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/resp"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/utils"
)

// WSAuthMiddleware รับได้ทั้งพนักงาน (token จาก query หรือ header) และลูกค้า
// (cookie ของโต๊ะ) เพราะ browser ส่ง header ตอน upgrade ไม่ได้
func WSAuthMiddleware(secret string, sessions SessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1) ลองอ่าน token พนักงานจาก query ก่อน แล้วค่อย header
		tokenStr := c.Query("token")
		if tokenStr == "" {
			tokenStr = bearer(c)
		}
		if tokenStr != "" {
			claims, err := utils.ParseStaffToken(tokenStr, secret)
			if err != nil {
				resp.Unauthorized(c, apperr.CodeInvalidToken, "invalid token")
				c.Abort()
				return
			}
			setStaff(c, claims)
			c.Next()
			return
		}

		// 2) ไม่มี token → ต้องเป็นลูกค้าที่มี cookie
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
