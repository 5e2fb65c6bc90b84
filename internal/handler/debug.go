package handler

import (
	"net/http"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/middleware"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// PermissionsHandler reports what the caller's role may do
type PermissionsHandler struct {
	authzService *service.AuthorizationService
}

// NewPermissionsHandler creates a new permissions handler
func NewPermissionsHandler(authzService *service.AuthorizationService) *PermissionsHandler {
	return &PermissionsHandler{authzService: authzService}
}

// CheckPermissions lists the caller's policies and, when resource and
// action are given, whether that pair is allowed
func (h *PermissionsHandler) CheckPermissions(c *gin.Context) {
	actor, exists := middleware.GetActorFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	permissions, err := h.authzService.GetRolePermissions(actor.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	response := gin.H{
		"user": gin.H{
			"username": actor.Username,
			"role":     actor.Role,
		},
		"permissions": permissions,
	}

	resource := c.Query("resource")
	action := c.DefaultQuery("action", service.ActionRead)
	if resource != "" {
		allowed, err := h.authzService.CheckPermission(actor, resource, action)
		response["check"] = gin.H{
			"resource": resource,
			"action":   action,
			"allowed":  allowed,
			"error":    getErrorString(err),
		}
	}

	c.JSON(http.StatusOK, response)
}

func getErrorString(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}
