package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/resp"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/utils"
)

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" || !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

func setStaff(c *gin.Context, claims *utils.StaffClaims) {
	c.Set(utils.CtxStaff, claims)
	c.Set(utils.CtxUserID, claims.UserID)
	c.Set(utils.CtxRole, claims.Role)
	c.Set(utils.CtxTenantID, claims.TenantID)
}

// AuthMiddleware ใช้ตรวจ token พนักงาน และ (ถ้ามี) บังคับ role
func AuthMiddleware(secret string, requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearer(c)
		if tokenStr == "" {
			resp.Unauthorized(c, apperr.CodeInvalidToken, "missing or invalid token")
			c.Abort()
			return
		}

		claims, err := utils.ParseStaffToken(tokenStr, secret)
		if errors.Is(err, utils.ErrTokenExpired) {
			resp.Unauthorized(c, apperr.CodeExpired, "token expired")
			c.Abort()
			return
		}
		if err != nil {
			resp.Unauthorized(c, apperr.CodeInvalidToken, "invalid token")
			c.Abort()
			return
		}
		setStaff(c, claims)

		if len(requiredRoles) > 0 {
			allowed := false
			for _, r := range requiredRoles {
				if claims.Role == r {
					allowed = true
					break
				}
			}
			if !allowed {
				resp.Fail(c, http.StatusForbidden, apperr.CodeForbidden, "forbidden")
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
