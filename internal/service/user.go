package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/cvr"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService manages accounts and company registrations
type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	// ValidatePassword returns the user when the password matches
	ValidatePassword(ctx context.Context, username, password string) (*model.User, error)
	// Register creates a customer account with its company profile
	Register(ctx context.Context, req *model.RegistrationRequest) (*model.RegistrationResponse, error)
	ListUsers(ctx context.Context, filters UserFilters) ([]model.User, error)
}

// CreateUserRequest is used by seeding and administration
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Email    string `json:"email"`
	Role     string `json:"role" binding:"required"`
}

// UserFilters narrows a user listing
type UserFilters struct {
	Role string
}

type userServiceImpl struct {
	db *gorm.DB
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB) UserService {
	return &userServiceImpl{db: db}
}

func (s *userServiceImpl) checkUsername(tx *gorm.DB, username string) error {
	var count int64
	if err := tx.Model(&model.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrUsernameTaken, username)
	}
	return nil
}

func (s *userServiceImpl) checkRole(tx *gorm.DB, role string) error {
	var count int64
	if err := tx.Model(&model.Role{}).Where("slug = ?", role).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check role: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrRoleNotFound, role)
	}
	return nil
}

func (s *userServiceImpl) CreateUser(ctx context.Context, req *CreateUserRequest) (*model.User, error) {
	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:       uuid.NewString(),
		Username: strings.TrimSpace(req.Username),
		Password: hashedPassword,
		Email:    req.Email,
		Role:     req.Role,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkUsername(tx, user.Username); err != nil {
			return err
		}
		if err := s.checkRole(tx, user.Role); err != nil {
			return err
		}
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	user.Password = ""
	return user, nil
}

func (s *userServiceImpl) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Password = ""
	return &user, nil
}

// GetUserByUsername keeps the password hash for ValidatePassword
func (s *userServiceImpl) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *userServiceImpl) ValidatePassword(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user.Password = ""
	return user, nil
}

func (s *userServiceImpl) Register(ctx context.Context, req *model.RegistrationRequest) (*model.RegistrationResponse, error) {
	number := cvr.Normalize(req.CVR)
	if err := cvr.Validate(number); err != nil {
		return nil, fmt.Errorf("%w: %s", err, req.CVR)
	}

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:       uuid.NewString(),
		Username: strings.TrimSpace(req.Username),
		Password: hashedPassword,
		Email:    req.Email,
		Role:     model.RoleCustomer,
	}
	customer := &model.Customer{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		CompanyName: strings.TrimSpace(req.CompanyName),
		CVR:         number,
		Phone:       req.Phone,
		Address:     req.Address,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkUsername(tx, user.Username); err != nil {
			return err
		}
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := tx.Create(customer).Error; err != nil {
			return fmt.Errorf("failed to create customer profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("username", user.Username).Str("cvr", number).Msg("Company registered")

	user.Password = ""
	return &model.RegistrationResponse{User: *user, Customer: *customer}, nil
}

func (s *userServiceImpl) ListUsers(ctx context.Context, filters UserFilters) ([]model.User, error) {
	query := s.db.WithContext(ctx).Model(&model.User{})
	if filters.Role != "" {
		query = query.Where("role = ?", filters.Role)
	}

	var users []model.User
	if err := query.Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}
