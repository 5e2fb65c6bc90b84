package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrInvalidToken is returned for expired, malformed or forged tokens
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingSecret is returned when no signing secret is configured
	ErrMissingSecret = errors.New("jwt secret is not configured")
)

// Service issues and validates access tokens. Each login starts a new
// session whose id travels in the token's jti claim.
type Service struct {
	users  service.UserService
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates a new authentication service
func NewService(users service.UserService, secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Login checks the credentials and returns a token for a fresh session
func (s *Service) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	user, err := s.users.ValidatePassword(ctx, username, password)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	token, err := s.generateJWT(user, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	log.Info().Str("username", user.Username).Str("session", sessionID).Msg("User logged in")

	return &model.LoginResponse{
		Token:     token,
		SessionID: sessionID,
		User:      *user,
	}, nil
}

// ValidateToken parses the token and returns the actor it was issued to
func (s *Service) ValidateToken(tokenString string) (*model.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*model.JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	role := claims.Role
	if role == "" {
		role = model.GuestRole
	}

	return &model.Actor{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      role,
		SessionID: claims.ID,
	}, nil
}

func (s *Service) generateJWT(user *model.User, sessionID string) (string, error) {
	now := s.now()
	claims := &model.JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
