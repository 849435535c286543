package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/igtmtakan/pyspiderNx-sub000/pkg/config"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	_ "modernc.org/sqlite"
)

// Default configuration values for connection pooling.
const (
	defaultDriver          = "sqlite"
	defaultMaxOpenConns    = 5
	defaultMaxIdleConns    = 2
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 2 * time.Minute
	defaultBusyTimeout     = 5 * time.Second
)

// OpenDB opens the SQLite database described by cfg. Foreign keys, WAL
// journaling and the busy timeout are set through the DSN so that every
// pooled connection gets them, not just the first one.
func OpenDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	cfg = withDefaults(cfg)

	db, err := sql.Open(cfg.Driver, dsn(cfg.Path, cfg.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if cfg.Path == ":memory:" {
		// Each connection to :memory: is a separate database.
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// OpenInMemory opens an in-memory database with the default driver. The pool
// is pinned to one connection and never recycled so the data survives.
func OpenInMemory() (*sql.DB, error) {
	db, err := OpenDB(config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	return db, nil
}

func withDefaults(cfg config.DatabaseConfig) config.DatabaseConfig {
	if cfg.Driver == "" {
		cfg.Driver = defaultDriver
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = defaultMaxOpenConns
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = defaultMaxIdleConns
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = defaultConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime <= 0 {
		cfg.ConnMaxIdleTime = defaultConnMaxIdleTime
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = defaultBusyTimeout
	}
	return cfg
}

// dsn builds a file: URI understood by both the modernc and ncruces drivers.
func dsn(path string, busyTimeout time.Duration) string {
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	if path != ":memory:" {
		params.Add("_pragma", "journal_mode(WAL)")
		params.Add("_pragma", "synchronous(NORMAL)")
	}
	return "file:" + path + "?" + params.Encode()
}
