package infrastructure

import (
	"fmt"
	"net"
	"time"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/config"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"

	"github.com/glebarez/sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DefaultDatabaseConfig returns the development database: a local sqlite file
func DefaultDatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver: "sqlite",
		Name:   "b2b_pricing",
	}
}

// ConnectDatabase opens the configured database using GORM
func ConnectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(time.Second),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite serializes writers; a single connection avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		dsn := cfg.URL
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
			)
		}
		connConfig, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
		}
		return postgres.New(postgres.Config{Conn: stdlib.OpenDB(*connConfig)}), nil

	case "mysql":
		if cfg.URL != "" {
			return mysql.Open(cfg.URL), nil
		}
		return mysql.Open(MySQLDSN(cfg)), nil

	case "sqlite":
		dsn := cfg.URL
		if dsn == "" {
			dsn = cfg.Name + ".db"
		}
		return sqlite.Open(dsn), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// MySQLDSN renders the connection string for the mysql driver
func MySQLDSN(cfg config.DatabaseConfig) string {
	mc := gomysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// MigrateAllSchemas performs all database migrations in the correct order
func MigrateAllSchemas(db *gorm.DB) error {
	// 1. Accounts
	if err := db.AutoMigrate(&model.Role{}); err != nil {
		return fmt.Errorf("failed to migrate Role table: %w", err)
	}

	if err := db.AutoMigrate(&model.User{}); err != nil {
		return fmt.Errorf("failed to migrate User table: %w", err)
	}

	if err := db.AutoMigrate(&model.Customer{}); err != nil {
		return fmt.Errorf("failed to migrate Customer table: %w", err)
	}

	// 2. Catalog
	if err := db.AutoMigrate(&model.Category{}, &model.Product{}); err != nil {
		return fmt.Errorf("failed to migrate catalog tables: %w", err)
	}

	// 3. Pricing rules and their audit trail
	if err := db.AutoMigrate(&model.RuleRecord{}); err != nil {
		return fmt.Errorf("failed to migrate RuleRecord table: %w", err)
	}

	if err := db.AutoMigrate(&model.RuleChangeDB{}); err != nil {
		return fmt.Errorf("failed to migrate RuleChange table: %w", err)
	}

	if err := createAdditionalIndexes(db); err != nil {
		return fmt.Errorf("failed to create additional indexes: %w", err)
	}

	return nil
}

// createAdditionalIndexes creates indexes AutoMigrate cannot express
func createAdditionalIndexes(db *gorm.DB) error {
	if db.Dialector.Name() == "mysql" {
		// MySQL lacks CREATE INDEX IF NOT EXISTS
		return nil
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_rule_changes_rule_changed_at
		ON rule_changes(rule_id, changed_at)
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_product_categories_category
		ON product_categories(category_id)
	`).Error; err != nil {
		return err
	}

	return nil
}
