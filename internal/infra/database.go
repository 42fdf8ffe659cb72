package infra

import (
	"fmt"

	"salescatalog/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// NewDatabase opens the catalog store and migrates the Product and Sale tables.
//
// The default store is SQLite in memory. It is pinned to a single connection:
// the shared-cache database only lives while a connection holds it open, and one
// connection also serializes every statement issued against the store.
func NewDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if db.Dialector.Name() == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}
	return db, nil
}

// RunMigrations creates or updates the catalog tables.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(&model.Product{}, &model.Sale{})
}

// Reset empties both tables and restarts id generation at 1.
func Reset(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == DriverPostgres {
			return tx.Exec("TRUNCATE TABLE sales, products RESTART IDENTITY CASCADE").Error
		}
		if err := tx.Exec("DELETE FROM sales").Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM products").Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM sqlite_sequence WHERE name IN ('sales', 'products')").Error
	})
}

// SyncSequences moves the Postgres id sequences past the highest stored id.
// Needed after rows were inserted with explicit ids; SQLite tracks this itself.
func SyncSequences(db *gorm.DB) error {
	if db.Dialector.Name() != DriverPostgres {
		return nil
	}
	for _, table := range []string{"products", "sales"} {
		stmt := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)",
			table)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("sync sequence %s: %w", table, err)
		}
	}
	return nil
}
