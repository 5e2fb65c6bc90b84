package infrastructure

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/config"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/pricing"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := ConnectDatabase(config.DatabaseConfig{
		Driver: "sqlite",
		URL:    filepath.Join(t.TempDir(), "infra.db"),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, MigrateAllSchemas(db))
	return db
}

func TestConnectDatabase_UnknownDriver(t *testing.T) {
	_, err := ConnectDatabase(config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "oracle")
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(config.DatabaseConfig{
		Host:     "db.internal",
		Port:     "3306",
		User:     "pricing",
		Password: "s3cret",
		Name:     "b2b",
	})

	assert.Contains(t, dsn, "pricing:s3cret@tcp(db.internal:3306)/b2b")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestMigrateAllSchemas_Idempotent(t *testing.T) {
	db := openTestDatabase(t)
	require.NoError(t, MigrateAllSchemas(db))

	for _, table := range []interface{}{&model.RuleRecord{}, &model.RuleChangeDB{}, &model.Customer{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.True(t, db.Migrator().HasTable("product_categories"))
}

func TestSeedAll(t *testing.T) {
	db := openTestDatabase(t)
	ctx := context.Background()

	store := service.NewGormRuleStore(db)
	audit := service.NewGormAuditLog(db)
	roles := service.NewRoleService(db, store, audit)
	catalog := service.NewProductService(db)
	users := service.NewUserService(db)
	rules := service.NewRuleService(store, audit, roles, catalog, pricing.NewResolver(time.UTC))

	seed := NewSeedDataManager(roles, users, catalog, rules, store)
	require.NoError(t, seed.SeedAll(ctx))
	require.NoError(t, seed.SeedAll(ctx), "seeding twice is a no-op")

	allRoles, err := roles.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, allRoles, 4)

	allUsers, err := users.ListUsers(ctx, service.UserFilters{})
	require.NoError(t, err)
	assert.Len(t, allUsers, 3)

	categories, err := catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 3)

	rule, err := store.GetRule(ctx, WholesalerRole)
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.True(t, rule.Active)
	assert.Equal(t, 1, rule.Version)
	assert.Len(t, rule.ProductRules, 1)
	assert.Len(t, rule.CategoryRules, 1)
}
