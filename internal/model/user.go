package model

import "github.com/golang-jwt/jwt/v5"

// User is an account that can log in and carries one role
type User struct {
	ID       string `json:"id" gorm:"type:varchar(36);primaryKey"`
	Username string `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password string `json:"password,omitempty" gorm:"type:varchar(255);not null"`
	Email    string `json:"email" gorm:"type:varchar(255)"`
	Role     string `json:"role" gorm:"type:varchar(64);not null;index"`
}

// PricingRole returns the role used for price resolution
func (u *User) PricingRole() string {
	if u == nil || u.Role == "" {
		return GuestRole
	}
	return u.Role
}

// Actor is the authenticated (or anonymous) caller of a request
type Actor struct {
	UserID    string `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role"`
	SessionID string `json:"session_id,omitempty"`
}

// GuestActor returns the actor used for requests without a token
func GuestActor() *Actor {
	return &Actor{Role: GuestRole}
}

// IsGuest reports whether the actor is unauthenticated
func (a *Actor) IsGuest() bool {
	return a == nil || a.UserID == ""
}

// JWTClaims are the claims carried by access tokens.
// The registered ID claim holds the session id.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	User      User   `json:"user"`
}
