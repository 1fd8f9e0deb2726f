package middlewares

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/resp"
)

// WebhookSecret checks X-Webhook-Secret; an empty secret disables the check
// (local development).
func WebhookSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		got := c.GetHeader("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			resp.Fail(c, http.StatusUnauthorized, apperr.CodeForbidden, "bad webhook secret")
			c.Abort()
			return
		}
		c.Next()
	}
}
