package model

import (
	"time"
)

// Customer is the company profile attached to a B2B account
type Customer struct {
	ID          string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID      string    `json:"user_id" gorm:"type:varchar(36);uniqueIndex"`
	CompanyName string    `json:"company_name" gorm:"type:varchar(255);not null"`
	CVR         string    `json:"cvr" gorm:"type:varchar(8);index"`
	Phone       string    `json:"phone" gorm:"type:varchar(32)"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RegistrationRequest is the body of POST /auth/register
type RegistrationRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required,min=6"`
	Email       string `json:"email" binding:"required,email"`
	CompanyName string `json:"company_name" binding:"required"`
	CVR         string `json:"cvr" binding:"required"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

// RegistrationResponse is returned after a successful registration
type RegistrationResponse struct {
	User     User     `json:"user"`
	Customer Customer `json:"customer"`
}
