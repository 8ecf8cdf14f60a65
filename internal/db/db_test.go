package db

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/codr1/campusbook/internal/db/dbq"
)

func TestWithSQLiteDefaults(t *testing.T) {
	got := withSQLiteDefaults("data/app.db")
	for _, want := range []string{"?_fk=1", "&_txlock=immediate", "&_busy_timeout=5000", "&_journal_mode=WAL"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}

	got = withSQLiteDefaults("file:app.db?_fk=0&_busy_timeout=100")
	if strings.Contains(got, "_fk=1") || strings.Contains(got, "_busy_timeout=5000") {
		t.Fatalf("explicit parameters must win: %q", got)
	}
	if !strings.HasPrefix(got, "file:app.db?_fk=0&_busy_timeout=100&") {
		t.Fatalf("unexpected DSN %q", got)
	}
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "tx.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	boom := errors.New("boom")
	var facilityID int64
	err = database.RunInTx(ctx, func(txdb *DB) error {
		id, err := txdb.Queries.CreateFacility(ctx, dbq.CreateFacilityParams{
			Name:        "Hall",
			Capacity:    10,
			OpeningTime: "07:00",
			ClosingTime: "22:00",
			IsAvailable: true,
			CreatedAt:   time.Now(),
		})
		if err != nil {
			return err
		}
		facilityID = id
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := database.Queries.GetFacility(ctx, facilityID); err == nil {
		t.Fatal("expected facility insert to be rolled back")
	}
}

func TestNewIsRerunnable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	first, err := New(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	first.Close()

	second, err := New(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	second.Close()
}

func TestNewMigratorReportsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version.db")
	database, err := New(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	database.Close()

	sqlDB, err := Open(path)
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	m, err := NewMigrator(sqlDB)
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 1 || dirty {
		t.Fatalf("expected clean version 1, got %d (dirty=%v)", version, dirty)
	}
}
