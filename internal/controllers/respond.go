package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"postboard/internal/apperr"
	"postboard/internal/logging"
)

// responder writes the JSON envelope shared by every endpoint:
//
//	{"status":"ok", ...}
//	{"status":"error","message":"...","errors":{"field":"reason"}}
type responder struct {
	log            logging.Logger
	exposeInternal bool
}

func (r responder) ok(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["status"] = "ok"
	c.JSON(status, body)
}

func (r responder) fail(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "Server Error"

	var ae *apperr.Error
	errors.As(err, &ae)

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status, msg = http.StatusUnprocessableEntity, ae.Message
	case apperr.KindAuthentication:
		status, msg = http.StatusUnauthorized, ae.Message
	case apperr.KindNotFound:
		status, msg = http.StatusNotFound, ae.Message
	default:
		r.log.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
		if r.exposeInternal {
			msg = err.Error()
		}
	}

	body := gin.H{"status": "error", "message": msg}
	if ae != nil && len(ae.Fields) > 0 {
		body["errors"] = ae.Fields
	}
	c.AbortWithStatusJSON(status, body)
}

// bind decodes the JSON body into dst. Malformed JSON is a validation failure;
// field rules are checked by the services.
func (r responder) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		r.fail(c, apperr.Validation("The request body is not valid JSON.", nil))
		return false
	}
	return true
}

// idParam parses a numeric path parameter. Ids that cannot exist are
// reported as not found.
func (r responder) idParam(c *gin.Context, name, notFound string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		r.fail(c, apperr.NotFound(notFound))
		return 0, false
	}
	return uint(id), true
}
