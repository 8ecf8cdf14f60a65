package dbq

import (
	"context"
	"database/sql"
	"time"
)

const facilityColumns = `id, name, location, capacity, opening_time, closing_time, is_available, requires_approval, created_at`

func scanFacility(row rowScanner) (Facility, error) {
	var i Facility
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Location,
		&i.Capacity,
		&i.OpeningTime,
		&i.ClosingTime,
		&i.IsAvailable,
		&i.RequiresApproval,
		&i.CreatedAt,
	)
	return i, err
}

const createFacility = `-- name: CreateFacility :execlastid
INSERT INTO facilities (name, location, capacity, opening_time, closing_time, is_available, requires_approval, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type CreateFacilityParams struct {
	Name             string    `json:"name"`
	Location         string    `json:"location"`
	Capacity         int64     `json:"capacity"`
	OpeningTime      string    `json:"opening_time"`
	ClosingTime      string    `json:"closing_time"`
	IsAvailable      bool      `json:"is_available"`
	RequiresApproval bool      `json:"requires_approval"`
	CreatedAt        time.Time `json:"created_at"`
}

func (q *Queries) CreateFacility(ctx context.Context, arg CreateFacilityParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createFacility,
		arg.Name,
		arg.Location,
		arg.Capacity,
		arg.OpeningTime,
		arg.ClosingTime,
		arg.IsAvailable,
		arg.RequiresApproval,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getFacility = `-- name: GetFacility :one
SELECT ` + facilityColumns + ` FROM facilities WHERE id = ?`

func (q *Queries) GetFacility(ctx context.Context, id int64) (Facility, error) {
	return scanFacility(q.db.QueryRowContext(ctx, getFacility, id))
}

const listFacilities = `-- name: ListFacilities :many
SELECT ` + facilityColumns + ` FROM facilities ORDER BY name, id`

func (q *Queries) ListFacilities(ctx context.Context) ([]Facility, error) {
	rows, err := q.db.QueryContext(ctx, listFacilities)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Facility{}
	for rows.Next() {
		i, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setFacilityAvailability = `-- name: SetFacilityAvailability :execrows
UPDATE facilities SET is_available = ? WHERE id = ?`

type SetFacilityAvailabilityParams struct {
	ID          int64 `json:"id"`
	IsAvailable bool  `json:"is_available"`
}

func (q *Queries) SetFacilityAvailability(ctx context.Context, arg SetFacilityAvailabilityParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setFacilityAvailability, arg.IsAvailable, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createMaintenanceWindow = `-- name: CreateMaintenanceWindow :execlastid
INSERT INTO maintenance_windows (facility_id, start_date, end_date, reason, created_by, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

type CreateMaintenanceWindowParams struct {
	FacilityID int64         `json:"facility_id"`
	StartDate  string        `json:"start_date"`
	EndDate    string        `json:"end_date"`
	Reason     string        `json:"reason"`
	CreatedBy  sql.NullInt64 `json:"created_by"`
	CreatedAt  time.Time     `json:"created_at"`
}

func (q *Queries) CreateMaintenanceWindow(ctx context.Context, arg CreateMaintenanceWindowParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createMaintenanceWindow,
		arg.FacilityID,
		arg.StartDate,
		arg.EndDate,
		arg.Reason,
		arg.CreatedBy,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const countMaintenanceWindowsOnDate = `-- name: CountMaintenanceWindowsOnDate :one
SELECT COUNT(*) FROM maintenance_windows
WHERE facility_id = ? AND start_date <= ? AND end_date >= ?`

type CountMaintenanceWindowsOnDateParams struct {
	FacilityID int64  `json:"facility_id"`
	Date       string `json:"date"`
}

func (q *Queries) CountMaintenanceWindowsOnDate(ctx context.Context, arg CountMaintenanceWindowsOnDateParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countMaintenanceWindowsOnDate, arg.FacilityID, arg.Date, arg.Date)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listMaintenanceWindowsByFacility = `-- name: ListMaintenanceWindowsByFacility :many
SELECT id, facility_id, start_date, end_date, reason, created_by, created_at
FROM maintenance_windows
WHERE facility_id = ?
ORDER BY start_date, id`

func (q *Queries) ListMaintenanceWindowsByFacility(ctx context.Context, facilityID int64) ([]MaintenanceWindow, error) {
	rows, err := q.db.QueryContext(ctx, listMaintenanceWindowsByFacility, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []MaintenanceWindow{}
	for rows.Next() {
		var i MaintenanceWindow
		if err := rows.Scan(
			&i.ID,
			&i.FacilityID,
			&i.StartDate,
			&i.EndDate,
			&i.Reason,
			&i.CreatedBy,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
