package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"herdsnap/internal/logger"
	"herdsnap/internal/models"
)

// Manager handles database operations
type Manager struct {
	db     *gorm.DB
	config *Config
}

// NewManager creates a new database manager
func NewManager(config *Config) (*Manager, error) {
	var dialector gorm.Dialector
	switch config.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(config.DSN())
	default:
		dialector = postgres.New(postgres.Config{
			DSN:                  config.DSN(),
			PreferSimpleProtocol: true, // Required for Supabase Supavisor; harmless for direct connections
		})
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	if config.Driver == DriverSQLite {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY under load.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return &Manager{db: db, config: config}, nil
}

// RunMigrations brings the schema up to date. PostgreSQL uses the versioned
// SQL files under migrations/; SQLite dev databases are auto-migrated.
func (m *Manager) RunMigrations() error {
	logger.Get().Info("Running database migrations...")

	if m.config.Driver == DriverSQLite {
		if err := m.db.AutoMigrate(&models.Snapshot{}, &models.AnimalRow{}, &models.AuditLog{}); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Get().Info("Database migrations completed successfully")
		return nil
	}

	err := m.withMigrator(func(mig *migrate.Migrate) error { return mig.Up() })
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Get().Info("Database migrations completed successfully")
	return nil
}

// MigrateDown rolls back steps migrations, or all of them when steps <= 0.
func (m *Manager) MigrateDown(steps int) error {
	if m.config.Driver == DriverSQLite {
		return errors.New("down migrations are not supported for sqlite")
	}
	err := m.withMigrator(func(mig *migrate.Migrate) error {
		if steps <= 0 {
			return mig.Down()
		}
		return mig.Steps(-steps)
	})
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}

// MigrationVersion reports the applied schema version.
func (m *Manager) MigrationVersion() (version uint, dirty bool, err error) {
	if m.config.Driver == DriverSQLite {
		return 0, false, errors.New("sqlite schemas are not versioned")
	}
	err = m.withMigrator(func(mig *migrate.Migrate) error {
		var verr error
		version, dirty, verr = mig.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}
		return verr
	})
	return version, dirty, err
}

func (m *Manager) withMigrator(fn func(*migrate.Migrate) error) error {
	mig, err := migrate.New("file://"+m.config.MigrationsPath, m.config.MigrateURL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil {
			logger.Get().Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			logger.Get().Warnf("migrate database close error: %v", dbErr)
		}
	}()
	return fn(mig)
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
