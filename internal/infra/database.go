package infra

import (
	"fmt"

	"github.com/darielruizg/Puntodeventa/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the store selected by driver ("postgres" or "sqlite")
// and migrates the schema. For sqlite, dsn is a file path or ":memory:".
func NewDatabase(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "postgres":
		return NewPostgres(dsn)
	case "sqlite", "":
		return NewSQLite(dsn)
	default:
		return nil, fmt.Errorf("STORE_DRIVER desconocido: %q", driver)
	}
}

// NewPostgres establishes a GORM connection backed by pgx and migrates.
func NewPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// NewSQLite opens the embedded single-file store. One open connection:
// SQLite serializes writers anyway, and a single connection keeps an
// in-memory database alive for the life of the pool. Every call made inside
// a transaction must therefore go through the tx handle.
func NewSQLite(path string) (*gorm.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates every table the core owns.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Producto{},
		&model.Venta{},
		&model.VentaItem{},
		&model.CierreDiario{},
		&model.MovimientoStock{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return nil
}
