package middleware

import (
	"net/http"
	"strings"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const actorKey = "actor"

// TokenValidator turns a bearer token into the actor it was issued to
type TokenValidator interface {
	ValidateToken(token string) (*model.Actor, error)
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return "", false
	}
	return tokenParts[1], true
}

// AuthMiddleware rejects requests without a valid bearer token
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		actor, err := validator.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// OptionalAuth honours a valid bearer token and treats everything else,
// including an expired token, as a guest
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := model.GuestActor()
		if token, ok := bearerToken(c); ok {
			if validated, err := validator.ValidateToken(token); err == nil {
				actor = validated
			} else {
				log.Debug().Err(err).Msg("Ignoring invalid token on public endpoint")
			}
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// GetActorFromContext returns the caller stored by the auth middleware
func GetActorFromContext(c *gin.Context) (*model.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return nil, false
	}
	actor, ok := v.(*model.Actor)
	return actor, ok
}

// ActorOrGuest returns the caller, falling back to a guest
func ActorOrGuest(c *gin.Context) *model.Actor {
	if actor, ok := GetActorFromContext(c); ok && actor != nil {
		return actor
	}
	return model.GuestActor()
}
