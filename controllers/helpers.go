package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/resp"
)

func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		resp.Error(c, apperr.Validation("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

func sizeQuery(c *gin.Context) int {
	n, _ := strconv.Atoi(c.DefaultQuery("size", "256"))
	if n < 64 || n > 1024 {
		return 256
	}
	return n
}
