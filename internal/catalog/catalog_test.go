package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/codr1/campusbook/internal/catalog"
	"github.com/codr1/campusbook/internal/slot"
	"github.com/codr1/campusbook/internal/testutil"
)

func TestStoreRoundTripsFacility(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := catalog.NewStore(database.Queries)
	ctx := context.Background()

	created, err := store.CreateFacility(ctx, catalog.Facility{
		Name:        "Main Hall",
		Capacity:    40,
		OpeningTime: slot.MustTimeOfDay("07:00"),
		ClosingTime: slot.MustTimeOfDay("22:00"),
		IsAvailable: true,
	})
	if err != nil {
		t.Fatalf("create facility: %v", err)
	}
	if created.ID == 0 || created.Capacity != 40 {
		t.Fatalf("unexpected facility %+v", created)
	}
	if created.Hours().Duration().Hours() != 15 {
		t.Fatalf("unexpected hours %s", created.Hours())
	}

	list, err := store.ListFacilities(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list facilities: %v (%d)", err, len(list))
	}

	if _, err := store.GetFacility(ctx, created.ID+100); !errors.Is(err, catalog.ErrFacilityNotFound) {
		t.Fatalf("expected ErrFacilityNotFound, got %v", err)
	}
}

func TestCreateFacilityRejectsInvertedHours(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := catalog.NewStore(database.Queries)

	_, err := store.CreateFacility(context.Background(), catalog.Facility{
		Name:        "Backwards",
		Capacity:    1,
		OpeningTime: slot.MustTimeOfDay("22:00"),
		ClosingTime: slot.MustTimeOfDay("07:00"),
	})
	if err == nil {
		t.Fatal("expected error for closing before opening")
	}
}

func TestIsUnderMaintenanceInclusiveRange(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := catalog.NewStore(database.Queries)
	ctx := context.Background()

	facility, err := store.CreateFacility(ctx, catalog.Facility{
		Name:        "Lab",
		Capacity:    10,
		OpeningTime: slot.MustTimeOfDay("08:00"),
		ClosingTime: slot.MustTimeOfDay("18:00"),
		IsAvailable: true,
	})
	if err != nil {
		t.Fatalf("create facility: %v", err)
	}
	if err := store.AddMaintenance(ctx, facility.ID, "2026-05-10", "2026-05-12", "Painting", nil); err != nil {
		t.Fatalf("add maintenance: %v", err)
	}

	tests := []struct {
		date slot.Date
		want bool
	}{
		{"2026-05-09", false},
		{"2026-05-10", true},
		{"2026-05-11", true},
		{"2026-05-12", true},
		{"2026-05-13", false},
	}
	for _, tt := range tests {
		got, err := store.IsUnderMaintenance(ctx, facility.ID, tt.date)
		if err != nil {
			t.Fatalf("IsUnderMaintenance(%s): %v", tt.date, err)
		}
		if got != tt.want {
			t.Fatalf("IsUnderMaintenance(%s) = %v, want %v", tt.date, got, tt.want)
		}
	}
}

func TestSetAvailabilityAndListMaintenance(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := catalog.NewStore(database.Queries)
	ctx := context.Background()

	facility, err := store.CreateFacility(ctx, catalog.Facility{
		Name:        "Studio",
		Capacity:    8,
		OpeningTime: slot.MustTimeOfDay("09:00"),
		ClosingTime: slot.MustTimeOfDay("17:00"),
		IsAvailable: true,
	})
	if err != nil {
		t.Fatalf("create facility: %v", err)
	}

	if err := store.SetAvailability(ctx, facility.ID, false); err != nil {
		t.Fatalf("close facility: %v", err)
	}
	closed, err := store.GetFacility(ctx, facility.ID)
	if err != nil {
		t.Fatalf("get facility: %v", err)
	}
	if closed.IsAvailable {
		t.Fatal("expected facility to be closed")
	}
	if err := store.SetAvailability(ctx, facility.ID+100, true); !errors.Is(err, catalog.ErrFacilityNotFound) {
		t.Fatalf("expected ErrFacilityNotFound, got %v", err)
	}

	userID, err := store.AddUser(ctx, "Facilities Office", "facilities@example.edu")
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	if err := store.AddMaintenance(ctx, facility.ID, "2026-06-01", "2026-06-03", "Floor refit", &userID); err != nil {
		t.Fatalf("add maintenance: %v", err)
	}
	windows, err := store.ListMaintenance(ctx, facility.ID)
	if err != nil {
		t.Fatalf("list maintenance: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	w := windows[0]
	if w.StartDate != "2026-06-01" || w.EndDate != "2026-06-03" || w.CreatedBy == nil || *w.CreatedBy != userID {
		t.Fatalf("unexpected window %+v", w)
	}
}
