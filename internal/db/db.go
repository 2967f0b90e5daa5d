// Package db provides the database abstraction and its drivers.
package db

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"
)

// DB is the minimal surface the repository and webhook layers need. Drivers
// own placeholder dialect differences, so callers always write ? markers.
type DB interface {
	InitDB() error

	Get() *sql.DB
	Close() error

	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

var dbLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	dbLogger = l
}
