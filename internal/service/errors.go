package service

import "errors"

var (
	ErrRuleNotFound     = errors.New("rule not found")
	ErrRoleNotFound     = errors.New("role not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrUserNotFound     = errors.New("user not found")

	ErrRuleExists    = errors.New("a rule already exists for this role")
	ErrRoleExists    = errors.New("role already exists")
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrVersionConflict means the rule changed since the caller read it
	ErrVersionConflict = errors.New("rule was modified concurrently")

	ErrCoreRole           = errors.New("core roles cannot be deleted")
	ErrInvalidCopyType    = errors.New("invalid copy type")
	ErrEmptyQuery         = errors.New("search query must not be empty")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)
