package service

import (
	_ "embed"
	"fmt"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"github.com/go-extras/go-kit/must"
	"github.com/rs/zerolog/log"
)

// Resources and actions guarded by the REST layer
const (
	ResourceRules   = "rules"
	ResourceRoles   = "roles"
	ResourceCatalog = "catalog"

	ActionRead  = "read"
	ActionWrite = "write"
)

//go:embed rbac_model.conf
var rbacModelText string

// anyAuthenticated matches every signed-in role
const anyAuthenticated = "*"

// defaultPolicies: administrators manage everything, every signed-in
// account may read the catalog
var defaultPolicies = [][]string{
	{model.RoleAdministrator, ResourceRules, "*"},
	{model.RoleAdministrator, ResourceRoles, "*"},
	{model.RoleAdministrator, ResourceCatalog, "*"},
	{anyAuthenticated, ResourceCatalog, ActionRead},
}

// AuthorizationService answers role/resource/action questions with casbin
type AuthorizationService struct {
	enforcer *casbin.Enforcer
}

// NewAuthorizationService creates the enforcer from the embedded model and
// the default policy set
func NewAuthorizationService() (*AuthorizationService, error) {
	m := must.Must(casbinmodel.NewModelFromString(rbacModelText))

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RBAC enforcer: %w", err)
	}
	if _, err := enforcer.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("failed to load default policies: %w", err)
	}

	return &AuthorizationService{enforcer: enforcer}, nil
}

// CheckPermission reports whether the actor's role may perform action on
// resource. Guests are never granted anything here; public endpoints do
// not go through the enforcer.
func (s *AuthorizationService) CheckPermission(actor *model.Actor, resource, action string) (bool, error) {
	if actor.IsGuest() {
		return false, nil
	}

	allowed, err := s.enforcer.Enforce(actor.Role, resource, action)
	if err != nil {
		return false, fmt.Errorf("RBAC permission check failed: %w", err)
	}

	log.Debug().
		Str("user", actor.Username).
		Str("role", actor.Role).
		Str("resource", resource).
		Str("action", action).
		Bool("allowed", allowed).
		Msg("Permission check")

	return allowed, nil
}

// GrantRole lets role inherit every permission of parent
func (s *AuthorizationService) GrantRole(role, parent string) error {
	if _, err := s.enforcer.AddGroupingPolicy(role, parent); err != nil {
		return fmt.Errorf("failed to grant %s to %s: %w", parent, role, err)
	}
	return nil
}

// RevokeRole drops every inheritance of role
func (s *AuthorizationService) RevokeRole(role string) error {
	if _, err := s.enforcer.RemoveFilteredGroupingPolicy(0, role); err != nil {
		return fmt.Errorf("failed to revoke inherited roles of %s: %w", role, err)
	}
	return nil
}

// GetRolePermissions lists the permissions that apply to role, including
// inherited ones and those granted to every signed-in account
func (s *AuthorizationService) GetRolePermissions(role string) ([][]string, error) {
	permissions, err := s.enforcer.GetImplicitPermissionsForUser(role)
	if err != nil {
		return nil, fmt.Errorf("failed to get role permissions: %w", err)
	}
	shared, err := s.enforcer.GetPermissionsForUser(anyAuthenticated)
	if err != nil {
		return nil, fmt.Errorf("failed to get shared permissions: %w", err)
	}
	return append(permissions, shared...), nil
}
