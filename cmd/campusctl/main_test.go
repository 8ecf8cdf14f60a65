package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codr1/campusbook/internal/api/auth"
	"github.com/codr1/campusbook/internal/booking"
	"github.com/codr1/campusbook/internal/catalog"
	"github.com/codr1/campusbook/internal/slot"
)

func TestFacilityCommands(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "ctl.db")

	var out bytes.Buffer
	err := run(ctx, []string{"facility-add", "-db", dbPath, "-name", "Music Room", "-capacity", "12", "-opens", "09:00", "-closes", "21:00"}, &out)
	if err != nil {
		t.Fatalf("facility-add: %v", err)
	}
	var facility catalog.Facility
	if err := json.Unmarshal(out.Bytes(), &facility); err != nil {
		t.Fatalf("decode facility: %v", err)
	}
	if facility.ID == 0 || facility.OpeningTime.String() != "09:00" || !facility.IsAvailable {
		t.Fatalf("unexpected facility %+v", facility)
	}

	id := "1"
	if err := run(ctx, []string{"facility-close", "-db", dbPath, "-id", id}, &out); err != nil {
		t.Fatalf("facility-close: %v", err)
	}
	if err := run(ctx, []string{"maintenance-add", "-db", dbPath, "-facility", id, "-from", "2026-07-01", "-reason", "Tuning"}, &out); err != nil {
		t.Fatalf("maintenance-add: %v", err)
	}
	if err := run(ctx, []string{"maintenance-add", "-db", dbPath, "-facility", id, "-from", "2026-07-05", "-to", "2026-07-01"}, &out); err == nil {
		t.Fatal("expected inverted range to fail")
	}

	out.Reset()
	if err := run(ctx, []string{"maintenance-list", "-db", dbPath, "-facility", id}, &out); err != nil {
		t.Fatalf("maintenance-list: %v", err)
	}
	var windows []catalog.MaintenanceWindow
	if err := json.Unmarshal(out.Bytes(), &windows); err != nil {
		t.Fatalf("decode windows: %v", err)
	}
	if len(windows) != 1 || windows[0].EndDate != slot.Date("2026-07-01") {
		t.Fatalf("unexpected windows %+v", windows)
	}

	out.Reset()
	if err := run(ctx, []string{"facility-list", "-db", dbPath}, &out); err != nil {
		t.Fatalf("facility-list: %v", err)
	}
	var facilities []catalog.Facility
	if err := json.Unmarshal(out.Bytes(), &facilities); err != nil {
		t.Fatalf("decode facilities: %v", err)
	}
	if len(facilities) != 1 || facilities[0].IsAvailable {
		t.Fatalf("expected one closed facility, got %+v", facilities)
	}
}

func TestUsageErrors(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "ctl.db")

	for _, args := range [][]string{
		nil,
		{"reboot"},
		{"facility-add", "-db", dbPath, "-name", "No Capacity"},
		{"token", "-role", "ADMIN"},
	} {
		if err := run(ctx, args, &bytes.Buffer{}); !errors.Is(err, errUsage) {
			t.Fatalf("%v: expected errUsage, got %v", args, err)
		}
	}
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("APP_SECRET_KEY", "ctl-secret")

	var out bytes.Buffer
	if err := run(context.Background(), []string{"token", "-user", "5", "-role", "security"}, &out); err != nil {
		t.Fatalf("token: %v", err)
	}

	tokens, err := auth.NewTokens("ctl-secret", "campusbook")
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	user, err := tokens.Parse(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if user.ID != 5 || user.Role != booking.RoleSecurity {
		t.Fatalf("unexpected user %+v", user)
	}
}
