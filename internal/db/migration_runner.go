package db

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sync"

	"github.com/igtmtakan/pyspiderNx-sub000/migrations"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/logging"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// goose keeps its dialect, base FS and logger in package globals.
var gooseMu sync.Mutex

// RunMigrations applies all pending migrations embedded in the binary.
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	return withGoose(logger, migrations.FS, func() error {
		if err := goose.Up(db, "."); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	})
}

// RunMigrationsWithDir applies all pending migrations from migrationDir.
func RunMigrationsWithDir(db *sql.DB, logger *zap.Logger, migrationDir string) error {
	return withGoose(logger, nil, func() error {
		if err := goose.Up(db, migrationDir); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	})
}

// Rollback rolls back the latest embedded migration.
func Rollback(db *sql.DB, logger *zap.Logger) error {
	return withGoose(logger, migrations.FS, func() error {
		if err := goose.Down(db, "."); err != nil {
			return fmt.Errorf("failed to rollback migration: %w", err)
		}
		return nil
	})
}

// RollbackWithDir rolls back the latest migration from migrationDir.
func RollbackWithDir(db *sql.DB, logger *zap.Logger, migrationDir string) error {
	return withGoose(logger, nil, func() error {
		if err := goose.Down(db, migrationDir); err != nil {
			return fmt.Errorf("failed to rollback migration: %w", err)
		}
		return nil
	})
}

// Status logs the state of every embedded migration.
func Status(db *sql.DB, logger *zap.Logger) error {
	return withGoose(logger, migrations.FS, func() error {
		return goose.Status(db, ".")
	})
}

// StatusWithDir logs the state of every migration in migrationDir.
func StatusWithDir(db *sql.DB, logger *zap.Logger, migrationDir string) error {
	return withGoose(logger, nil, func() error {
		return goose.Status(db, migrationDir)
	})
}

// Version returns the current schema version.
func Version(db *sql.DB, logger *zap.Logger) (int64, error) {
	var version int64
	err := withGoose(logger, migrations.FS, func() error {
		v, err := goose.GetDBVersion(db)
		if err != nil {
			return fmt.Errorf("failed to get schema version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}

// Migrate runs the embedded migrations, or those in migrationDir when it is
// not empty.
func Migrate(db *sql.DB, logger *zap.Logger, migrationDir string) error {
	if migrationDir == "" {
		return RunMigrations(db, logger)
	}
	return RunMigrationsWithDir(db, logger, migrationDir)
}

func withGoose(logger *zap.Logger, fsys fs.FS, fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(logging.NewPrintfLogger(logger.Named("migrations")))

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return fn()
}
