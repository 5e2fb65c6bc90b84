package handler

import (
	"context"
	"net/http"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/middleware"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Authenticator issues session tokens
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*model.LoginResponse, error)
}

// AuthHandler serves login, logout and registration
type AuthHandler struct {
	authService Authenticator
	userService service.UserService
	pricing     service.PricingService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService Authenticator, userService service.UserService, pricing service.PricingService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		pricing:     pricing,
	}
}

// Login exchanges credentials for a token bound to a fresh session
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.pricing.InvalidateSession(response.SessionID)
	if previous, ok := middleware.GetActorFromContext(c); ok && !previous.IsGuest() {
		h.pricing.InvalidateSession(previous.SessionID)
	}

	log.Info().Str("username", response.User.Username).Str("role", response.User.Role).Msg("User logged in")
	c.JSON(http.StatusOK, response)
}

// Logout drops the cached rule of the caller's session
func (h *AuthHandler) Logout(c *gin.Context) {
	actor, exists := middleware.GetActorFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	h.pricing.InvalidateSession(actor.SessionID)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Register creates a customer account for a company
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	response, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}
