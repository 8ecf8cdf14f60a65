package main

import (
	"path/filepath"
	"testing"

	"github.com/codr1/campusbook/internal/db"
)

func TestRunCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	sqlDB, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	m, err := db.NewMigrator(sqlDB)
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	defer m.Close()

	if err := run(m, "version", 0); err != nil {
		t.Fatalf("version on empty db: %v", err)
	}
	if err := run(m, "up", 0); err != nil {
		t.Fatalf("up: %v", err)
	}
	if err := run(m, "up", 0); err != nil {
		t.Fatalf("second up should be a no-op: %v", err)
	}
	if err := run(m, "steps", 0); err == nil {
		t.Fatal("expected steps without -n to fail")
	}
	if err := run(m, "sideways", 0); err == nil {
		t.Fatal("expected unknown command to fail")
	}
	if err := run(m, "down", 0); err != nil {
		t.Fatalf("down: %v", err)
	}
}
