// Package helper contains test helpers for preparing a scratch schema in a
// real database. It lives in its own package so test suites across the repo
// can share it.
package helper

import (
	"context"
	"testing"

	kitlog "github.com/go-kit/kit/log"

	"github.com/ghivert/brioche/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS cats (
	id INT PRIMARY KEY,
	name TEXT NOT NULL,
	age INT,
	adopted_at TIMESTAMPTZ
)`

// PrepareDB connects to the database identified by connStr and creates a
// clean scratch table for the tests to work against.
func PrepareDB(t *testing.T, connStr string) *postgres.DB {
	t.Helper()

	db := postgres.NewDBFromURL(connStr, kitlog.NewNopLogger(), false)

	if err := db.Start(); err != nil {
		t.Fatalf("Failed to start db service: %v", err)
	}

	ctx := context.Background()

	if _, err := postgres.Exec(ctx, db, schema); err != nil {
		t.Fatalf("Failed to create scratch table: %v", err)
	}

	if _, err := postgres.Exec(ctx, db, "TRUNCATE cats"); err != nil {
		t.Fatalf("Failed to truncate scratch table: %v", err)
	}

	return db
}

// CleanDB drops the scratch table and stops the given DB.
func CleanDB(t *testing.T, db *postgres.DB) {
	t.Helper()

	if _, err := postgres.Exec(context.Background(), db, "DROP TABLE IF EXISTS cats"); err != nil {
		t.Fatalf("Failed to drop scratch table: %v", err)
	}

	if err := db.Stop(); err != nil {
		t.Fatalf("Failed to stop db service: %v", err)
	}
}
