package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/auth"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/cvr"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, service.ErrInvalidCopyType),
		errors.Is(err, service.ErrEmptyQuery),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, cvr.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrCoreRole):
		return http.StatusForbidden
	case errors.Is(err, service.ErrRuleNotFound),
		errors.Is(err, service.ErrRoleNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrRuleExists),
		errors.Is(err, service.ErrRoleExists),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error. Internal errors are logged and
// hidden from the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		body["field"] = verr.Field
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}

func ruleIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rule ID"})
		return 0, false
	}
	return uint(id), true
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// intQuery returns the positive integer query value or def
func intQuery(c *gin.Context, name string, def int) int {
	if v := c.Query(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// actorName identifies the caller in audit entries
func actorName(actor *model.Actor) string {
	if actor == nil || actor.Username == "" {
		return "system"
	}
	return actor.Username
}
