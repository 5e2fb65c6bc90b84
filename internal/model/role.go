package model

import "time"

// Core roles cannot be deleted
const (
	RoleAdministrator = "administrator"
	RoleCustomer      = "customer"
)

// CoreRoles lists the roles every installation needs
var CoreRoles = []string{RoleAdministrator, RoleCustomer, GuestRole}

// IsCoreRole reports whether slug names a built-in role
func IsCoreRole(slug string) bool {
	for _, r := range CoreRoles {
		if r == slug {
			return true
		}
	}
	return false
}

// Role is a customer group that can own a pricing rule
type Role struct {
	Slug      string    `json:"slug" gorm:"type:varchar(64);primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Core      bool      `json:"core" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}

// RoleRequest is the body of POST /roles
type RoleRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}
