// Package app wires configuration, storage and services into one
// application value shared by the CLI commands.
package app

import (
	"context"
	"fmt"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/auth"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/config"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/handler"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/infrastructure"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/pricing"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// App holds the services of one running process
type App struct {
	Config *config.Config
	DB     *gorm.DB

	RuleStore service.RuleStore
	Audit     service.AuditLog
	Roles     service.RoleService
	Users     service.UserService
	Catalog   service.ProductService
	Rules     service.RuleService
	Pricing   service.PricingService
	Authz     *service.AuthorizationService
	Resolver  *pricing.Resolver
	RuleCache *pricing.RuleCache
}

// New connects to the configured database and builds every service
func New(cfg *config.Config) (*App, error) {
	loc, err := cfg.Pricing.Location()
	if err != nil {
		return nil, err
	}

	db, err := infrastructure.ConnectDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	authz, err := service.NewAuthorizationService()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize authorization service: %w", err)
	}

	for _, role := range cfg.Auth.AdminRoles {
		if err := authz.GrantRole(role, model.RoleAdministrator); err != nil {
			return nil, err
		}
	}

	a := &App{
		Config:    cfg,
		DB:        db,
		Authz:     authz,
		Resolver:  pricing.NewResolver(loc),
		RuleCache: pricing.NewRuleCache(cfg.Pricing.RuleCacheTTL),
	}

	store := service.NewGormRuleStore(db)
	audit := service.NewGormAuditLog(db)
	a.RuleStore = store
	a.Audit = audit
	a.Roles = service.NewRoleService(db, store, audit)
	a.Users = service.NewUserService(db)
	a.Catalog = service.NewProductService(db)
	a.Rules = service.NewRuleService(store, audit, a.Roles, a.Catalog, a.Resolver)
	a.Pricing = service.NewPricingService(store, a.RuleCache, a.Resolver, a.Catalog, cfg.Pricing.PriceDecimals)

	return a, nil
}

// Migrate creates or updates the schema and the core roles
func (a *App) Migrate(ctx context.Context) error {
	if err := infrastructure.MigrateAllSchemas(a.DB); err != nil {
		return fmt.Errorf("failed to migrate database schemas: %w", err)
	}
	return a.Roles.EnsureCoreRoles(ctx)
}

// Seed loads the sample data
func (a *App) Seed(ctx context.Context) error {
	seed := infrastructure.NewSeedDataManager(a.Roles, a.Users, a.Catalog, a.Rules, a.RuleStore)
	return seed.SeedAll(ctx)
}

// Router builds the HTTP API. It fails when no JWT secret is configured.
func (a *App) Router() (*gin.Engine, error) {
	authService, err := auth.NewService(a.Users, a.Config.Auth.JWTSecret, a.Config.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}

	return handler.NewRouter(handler.Services{
		Auth:     authService,
		Authz:    a.Authz,
		Users:    a.Users,
		Roles:    a.Roles,
		Rules:    a.Rules,
		Products: a.Catalog,
		Pricing:  a.Pricing,
	}), nil
}

// Close releases the database connection
func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Open loads the configuration from configFile and the environment,
// configures logging and builds the App
func Open(configFile string) (*App, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		return nil, err
	}
	return New(cfg)
}
