package middleware

import (
	"net/http"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// PermissionChecker decides whether an actor may act on a resource
type PermissionChecker interface {
	CheckPermission(actor *model.Actor, resource, action string) (bool, error)
}

// RequirePermission aborts with 403 unless the authenticated actor holds
// action on resource. It must run after AuthMiddleware.
func RequirePermission(authz PermissionChecker, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, exists := GetActorFromContext(c)
		if !exists || actor.IsGuest() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		allowed, err := authz.CheckPermission(actor, resource, action)
		if err != nil {
			log.Error().Err(err).Str("resource", resource).Str("action", action).Msg("Authorization check failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
			return
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "Access denied",
				"resource": resource,
				"action":   action,
			})
			return
		}

		c.Next()
	}
}
