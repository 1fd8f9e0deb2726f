package utils

import (
	"github.com/gin-gonic/gin"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
)

const (
	CtxSession  = "tableSession"
	CtxStaff    = "staffClaims"
	CtxUserID   = "userId"
	CtxRole     = "role"
	CtxTenantID = "tenantId"
)

// CurrentSession returns the table session set by the session middleware.
func CurrentSession(c *gin.Context) *entity.TableSession {
	if v, ok := c.Get(CtxSession); ok {
		if s, ok := v.(*entity.TableSession); ok {
			return s
		}
	}
	return nil
}

func CurrentUserID(c *gin.Context) uint {
	v, _ := c.Get(CtxUserID)
	switch id := v.(type) {
	case uint:
		return id
	case int:
		return uint(id)
	case int64:
		return uint(id)
	case float64:
		return uint(id)
	default:
		return 0
	}
}

func CurrentTenantID(c *gin.Context) uint {
	if v, ok := c.Get(CtxTenantID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
