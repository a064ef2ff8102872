package db

import (
	"context"
	"database/sql"
	"fmt"
)

// OpenSQLite opens the database file at path. The handle is limited to a
// single connection so writes are serialized and ":memory:" databases stay
// shared across callers. The sqlite3 driver registers itself through the
// go-sqlite3 import in errors.go.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}
