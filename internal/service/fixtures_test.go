package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/pricing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Customer{},
		&model.Category{},
		&model.Product{},
		&model.RuleRecord{},
		&model.RuleChangeDB{},
	))
	return db
}

// testEnv wires every service against one database
type testEnv struct {
	db       *gorm.DB
	store    *GormRuleStore
	audit    *GormAuditLog
	roles    RoleService
	catalog  ProductService
	rules    RuleService
	users    UserService
	cache    *pricing.RuleCache
	pricing  PricingService
	resolver *pricing.Resolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	env := &testEnv{db: db}
	env.store = NewGormRuleStore(db)
	env.audit = NewGormAuditLog(db)
	env.roles = NewRoleService(db, env.store, env.audit)
	env.catalog = NewProductService(db)
	env.resolver = pricing.NewResolver(time.UTC)
	env.rules = NewRuleService(env.store, env.audit, env.roles, env.catalog, env.resolver)
	env.users = NewUserService(db)
	env.cache = pricing.NewRuleCache(time.Minute)
	env.pricing = NewPricingService(env.store, env.cache, env.resolver, env.catalog, 2)

	require.NoError(t, env.roles.EnsureCoreRoles(context.Background()))
	return env
}

func (e *testEnv) role(t *testing.T, name string) *model.Role {
	t.Helper()
	role, err := e.roles.CreateRole(context.Background(), &model.RoleRequest{Name: name})
	require.NoError(t, err)
	return role
}

func (e *testEnv) category(t *testing.T, name string) *model.Category {
	t.Helper()
	c, err := e.catalog.CreateCategory(context.Background(), &model.CategoryRequest{Name: name})
	require.NoError(t, err)
	return c
}

func (e *testEnv) product(t *testing.T, name, price string, categories ...int64) *model.Product {
	t.Helper()
	p, err := e.catalog.CreateProduct(context.Background(), &model.ProductRequest{
		Name:         name,
		RegularPrice: decimal.RequireFromString(price),
		CategoryIDs:  categories,
	}, "test")
	require.NoError(t, err)
	return p
}

func adj(kind model.AdjustmentKind, value string) model.Adjustment {
	return model.NewAdjustment(kind, value)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
