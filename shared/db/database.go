package db

import (
	"context"
	"database/sql"
)

// Database is a connectable SQL backend. The page cache uses it for its
// SQLite driver.
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	DB() *sql.DB
}
