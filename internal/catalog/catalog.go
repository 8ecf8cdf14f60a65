// Package catalog exposes the facility attributes and maintenance calendar the
// booking core reads. Catalog administration lives elsewhere; this package only
// provides lookups plus the operator writes used to seed and maintain a store.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/codr1/campusbook/internal/db/dbq"
	"github.com/codr1/campusbook/internal/slot"
)

var ErrFacilityNotFound = errors.New("facility not found")

type Facility struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	Location         string         `json:"location"`
	Capacity         int            `json:"capacity"`
	OpeningTime      slot.TimeOfDay `json:"openingTime"`
	ClosingTime      slot.TimeOfDay `json:"closingTime"`
	IsAvailable      bool           `json:"isAvailable"`
	RequiresApproval bool           `json:"requiresApproval"`
}

// Hours returns the operating window.
func (f Facility) Hours() slot.Window {
	return slot.Window{Start: f.OpeningTime, End: f.ClosingTime}
}

// Reader is what the booking core needs from the catalog.
type Reader interface {
	GetFacility(ctx context.Context, id int64) (Facility, error)
	IsUnderMaintenance(ctx context.Context, facilityID int64, date slot.Date) (bool, error)
}

type Store struct {
	queries *dbq.Queries
}

func NewStore(queries *dbq.Queries) *Store {
	return &Store{queries: queries}
}

func (s *Store) GetFacility(ctx context.Context, id int64) (Facility, error) {
	row, err := s.queries.GetFacility(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Facility{}, ErrFacilityNotFound
		}
		return Facility{}, fmt.Errorf("get facility %d: %w", id, err)
	}
	return facilityFromRow(row)
}

func (s *Store) ListFacilities(ctx context.Context) ([]Facility, error) {
	rows, err := s.queries.ListFacilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	facilities := make([]Facility, 0, len(rows))
	for _, row := range rows {
		facility, err := facilityFromRow(row)
		if err != nil {
			return nil, err
		}
		facilities = append(facilities, facility)
	}
	return facilities, nil
}

// IsUnderMaintenance reports whether any maintenance window on the facility
// covers date, inclusive of both ends.
func (s *Store) IsUnderMaintenance(ctx context.Context, facilityID int64, date slot.Date) (bool, error) {
	count, err := s.queries.CountMaintenanceWindowsOnDate(ctx, dbq.CountMaintenanceWindowsOnDateParams{
		FacilityID: facilityID,
		Date:       date.String(),
	})
	if err != nil {
		return false, fmt.Errorf("check maintenance for facility %d: %w", facilityID, err)
	}
	return count > 0, nil
}

func (s *Store) CreateFacility(ctx context.Context, facility Facility) (Facility, error) {
	if facility.ClosingTime <= facility.OpeningTime {
		return Facility{}, fmt.Errorf("closing time %s must be after opening time %s", facility.ClosingTime, facility.OpeningTime)
	}
	id, err := s.queries.CreateFacility(ctx, dbq.CreateFacilityParams{
		Name:             facility.Name,
		Location:         facility.Location,
		Capacity:         int64(facility.Capacity),
		OpeningTime:      facility.OpeningTime.String(),
		ClosingTime:      facility.ClosingTime.String(),
		IsAvailable:      facility.IsAvailable,
		RequiresApproval: facility.RequiresApproval,
		CreatedAt:        time.Now(),
	})
	if err != nil {
		return Facility{}, fmt.Errorf("create facility: %w", err)
	}
	return s.GetFacility(ctx, id)
}

// AddMaintenance blocks the facility from start through end inclusive.
func (s *Store) AddMaintenance(ctx context.Context, facilityID int64, start, end slot.Date, reason string, createdBy *int64) error {
	createdByValue := sql.NullInt64{}
	if createdBy != nil {
		createdByValue = sql.NullInt64{Int64: *createdBy, Valid: true}
	}
	_, err := s.queries.CreateMaintenanceWindow(ctx, dbq.CreateMaintenanceWindowParams{
		FacilityID: facilityID,
		StartDate:  start.String(),
		EndDate:    end.String(),
		Reason:     reason,
		CreatedBy:  createdByValue,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("add maintenance for facility %d: %w", facilityID, err)
	}
	return nil
}

// SetAvailability opens or closes the facility for new bookings.
func (s *Store) SetAvailability(ctx context.Context, facilityID int64, available bool) error {
	affected, err := s.queries.SetFacilityAvailability(ctx, dbq.SetFacilityAvailabilityParams{
		ID:          facilityID,
		IsAvailable: available,
	})
	if err != nil {
		return fmt.Errorf("set availability for facility %d: %w", facilityID, err)
	}
	if affected == 0 {
		return ErrFacilityNotFound
	}
	return nil
}

type MaintenanceWindow struct {
	ID         int64     `json:"id"`
	FacilityID int64     `json:"facilityId"`
	StartDate  slot.Date `json:"startDate"`
	EndDate    slot.Date `json:"endDate"`
	Reason     string    `json:"reason"`
	CreatedBy  *int64    `json:"createdBy,omitempty"`
}

func (s *Store) ListMaintenance(ctx context.Context, facilityID int64) ([]MaintenanceWindow, error) {
	rows, err := s.queries.ListMaintenanceWindowsByFacility(ctx, facilityID)
	if err != nil {
		return nil, fmt.Errorf("list maintenance for facility %d: %w", facilityID, err)
	}
	windows := make([]MaintenanceWindow, 0, len(rows))
	for _, row := range rows {
		window := MaintenanceWindow{
			ID:         row.ID,
			FacilityID: row.FacilityID,
			StartDate:  slot.Date(row.StartDate),
			EndDate:    slot.Date(row.EndDate),
			Reason:     row.Reason,
		}
		if row.CreatedBy.Valid {
			createdBy := row.CreatedBy.Int64
			window.CreatedBy = &createdBy
		}
		windows = append(windows, window)
	}
	return windows, nil
}

// AddUser records a notification contact. email may be empty.
func (s *Store) AddUser(ctx context.Context, displayName, email string) (int64, error) {
	emailValue := sql.NullString{}
	if email != "" {
		emailValue = sql.NullString{String: email, Valid: true}
	}
	id, err := s.queries.CreateUser(ctx, dbq.CreateUserParams{
		Email:       emailValue,
		DisplayName: displayName,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return 0, fmt.Errorf("add user: %w", err)
	}
	return id, nil
}

func facilityFromRow(row dbq.Facility) (Facility, error) {
	opens, err := slot.ParseTimeOfDay(row.OpeningTime)
	if err != nil {
		return Facility{}, fmt.Errorf("facility %d opening time: %w", row.ID, err)
	}
	closes, err := slot.ParseTimeOfDay(row.ClosingTime)
	if err != nil {
		return Facility{}, fmt.Errorf("facility %d closing time: %w", row.ID, err)
	}
	return Facility{
		ID:               row.ID,
		Name:             row.Name,
		Location:         row.Location,
		Capacity:         int(row.Capacity),
		OpeningTime:      opens,
		ClosingTime:      closes,
		IsAvailable:      row.IsAvailable,
		RequiresApproval: row.RequiresApproval,
	}, nil
}
