package handler

import (
	"net/http"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/middleware"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RoleHandler manages customer roles
type RoleHandler struct {
	roleService  service.RoleService
	authzService *service.AuthorizationService
}

// NewRoleHandler creates a new role handler
func NewRoleHandler(roleService service.RoleService, authzService *service.AuthorizationService) *RoleHandler {
	return &RoleHandler{
		roleService:  roleService,
		authzService: authzService,
	}
}

func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if roles == nil {
		roles = []model.Role{}
	}

	c.JSON(http.StatusOK, gin.H{
		"roles": roles,
		"total": len(roles),
	})
}

func (h *RoleHandler) GetRole(c *gin.Context) {
	role, err := h.roleService.GetRole(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, role)
}

func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req model.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, role)
}

// DeleteRole removes a role together with its rule
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	slug := c.Param("slug")
	if err := h.roleService.DeleteRole(c.Request.Context(), slug, actorName(middleware.ActorOrGuest(c))); err != nil {
		respondError(c, err)
		return
	}
	if h.authzService != nil {
		if err := h.authzService.RevokeRole(slug); err != nil {
			log.Warn().Err(err).Str("role", slug).Msg("Failed to revoke inherited permissions")
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Role deleted successfully"})
}
