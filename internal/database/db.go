// Package database provides database connectivity and the repositories for
// tickets, categories, and classification runs. PostgreSQL is the production
// driver; SQLite backs local development and the CLI.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/csinsight/ticket-classifier/internal/config"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite3"

	pingTimeout = 5 * time.Second
)

// Connect opens a database connection for the configured driver and verifies
// it with a ping.
func Connect(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	var dsn string
	switch cfg.Driver {
	case driverPostgres:
		dsn = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
		)
	case driverSQLite:
		dsn = cfg.Path
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := sqlx.Connect(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// supportsReturning reports whether the driver handles INSERT ... RETURNING.
// SQLite goes through LastInsertId instead.
func supportsReturning(db *sqlx.DB) bool {
	return db.DriverName() == driverPostgres
}
