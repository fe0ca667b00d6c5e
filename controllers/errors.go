package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"hotel-booking/auth"
	"hotel-booking/middleware"
	"hotel-booking/services"
	"hotel-booking/utils"
)

func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError maps service errors to the JSON error envelope. Anything
// that is not an AppError is attached to the context for the access log
// and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		utils.JSONError(c, statusForKind(appErr.Kind), appErr.Code, appErr.Message)
		return
	}
	_ = c.Error(err)
	utils.JSONError(c, http.StatusInternalServerError, "error.internal", "服务器内部错误，请稍后再试")
}

func badRequest(c *gin.Context, message string) {
	utils.JSONError(c, http.StatusBadRequest, "error.validation", message)
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "无效的ID: "+raw)
		return 0, false
	}
	return uint(id), true
}

// queryUint returns nil for an absent or malformed parameter.
func queryUint(c *gin.Context, name string) *uint {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil
	}
	id := uint(v)
	return &id
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.Query(name)))
	if err != nil {
		return fallback
	}
	return v
}

func queryDate(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	d, err := utils.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func principal(c *gin.Context) *auth.Principal {
	return middleware.CurrentPrincipal(c)
}
