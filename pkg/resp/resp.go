package resp

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
)

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}
func BadRequest(c *gin.Context, msg string) {
	Fail(c, http.StatusBadRequest, apperr.CodeValidation, msg)
}
func Unauthorized(c *gin.Context, code, msg string) {
	Fail(c, http.StatusUnauthorized, code, msg)
}

func Fail(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg, "code": code})
}

// Error maps a service error onto its status and wire code.
func Error(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	body := gin.H{"success": false, "error": err.Error(), "code": apperr.Code(err)}

	var unavailable *apperr.UnavailableError
	if errors.As(err, &unavailable) {
		body["details"] = gin.H{"lineIds": unavailable.LineIDs}
	}
	if status == http.StatusInternalServerError {
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		body["error"] = "internal error"
	}
	c.JSON(status, body)
}

// Abort is Error for middlewares.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
