package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// RoleService manages the customer groups rules are attached to
type RoleService interface {
	ListRoles(ctx context.Context) ([]model.Role, error)
	GetRole(ctx context.Context, slug string) (*model.Role, error)
	CreateRole(ctx context.Context, req *model.RoleRequest) (*model.Role, error)
	// DeleteRole removes a non-core role, its pricing rule, and moves its
	// users to the customer role
	DeleteRole(ctx context.Context, slug string, deletedBy string) error
	EnsureCoreRoles(ctx context.Context) error
}

type roleServiceImpl struct {
	db    *gorm.DB
	rules RuleStore
	audit AuditLog
}

// NewRoleService creates a new role service
func NewRoleService(db *gorm.DB, rules RuleStore, audit AuditLog) RoleService {
	return &roleServiceImpl{db: db, rules: rules, audit: audit}
}

var coreRoleNames = map[string]string{
	model.RoleAdministrator: "Administrator",
	model.RoleCustomer:      "Customer",
	model.GuestRole:         "Guest",
}

func (s *roleServiceImpl) ListRoles(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := s.db.WithContext(ctx).Order("slug").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (s *roleServiceImpl) GetRole(ctx context.Context, slug string) (*model.Role, error) {
	var role model.Role
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, slug)
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &role, nil
}

func (s *roleServiceImpl) CreateRole(ctx context.Context, req *model.RoleRequest) (*model.Role, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &model.ValidationError{Field: "name", Reason: "role name is required"}
	}
	slug := Slugify(req.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return nil, &model.ValidationError{Field: "slug", Reason: "role slug is required"}
	}

	role := &model.Role{Slug: slug, Name: name, Core: model.IsCoreRole(slug)}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Role{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing role: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", ErrRoleExists, slug)
		}
		if err := tx.Create(role).Error; err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("role", slug).Msg("Role created")
	return role, nil
}

func (s *roleServiceImpl) DeleteRole(ctx context.Context, slug string, deletedBy string) error {
	if model.IsCoreRole(slug) {
		return fmt.Errorf("%w: %s", ErrCoreRole, slug)
	}
	if _, err := s.GetRole(ctx, slug); err != nil {
		return err
	}

	rule, err := s.rules.GetRule(ctx, slug)
	if err != nil {
		return err
	}

	// users, role and rule go together or not at all
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).Where("role = ?", slug).Update("role", model.RoleCustomer).Error; err != nil {
			return fmt.Errorf("failed to reassign users of role %s: %w", slug, err)
		}
		if err := s.rules.WithTx(tx).DeleteRuleForRole(ctx, slug); err != nil {
			return err
		}
		if err := tx.Where("slug = ?", slug).Delete(&model.Role{}).Error; err != nil {
			return fmt.Errorf("failed to delete role %s: %w", slug, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if rule != nil {
		change := model.RuleChange{
			RuleID:    rule.ID,
			RoleSlug:  slug,
			Type:      model.ChangeRuleDelete,
			Before:    rule,
			ChangedBy: deletedBy,
			Reason:    "role deleted",
		}
		if err := s.audit.LogRuleChange(ctx, change); err != nil {
			log.Error().Err(err).Uint("rule_id", rule.ID).Msg("Failed to record rule deletion")
		}
	}

	log.Info().Str("role", slug).Str("by", deletedBy).Msg("Role deleted")
	return nil
}

// EnsureCoreRoles creates the built-in roles that are missing
func (s *roleServiceImpl) EnsureCoreRoles(ctx context.Context) error {
	for _, slug := range model.CoreRoles {
		role := model.Role{Slug: slug, Name: coreRoleNames[slug], Core: true}
		if err := s.db.WithContext(ctx).Where(model.Role{Slug: slug}).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("failed to ensure core role %s: %w", slug, err)
		}
	}
	return nil
}
