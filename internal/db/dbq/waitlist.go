package dbq

import (
	"context"
	"database/sql"
	"time"
)

const waitlistColumns = `id, facility_id, user_id, date, start_time, end_time, purpose, position, status, joined_at`

func scanWaitlistEntry(row rowScanner) (WaitlistEntry, error) {
	var i WaitlistEntry
	err := row.Scan(
		&i.ID,
		&i.FacilityID,
		&i.UserID,
		&i.Date,
		&i.StartTime,
		&i.EndTime,
		&i.Purpose,
		&i.Position,
		&i.Status,
		&i.JoinedAt,
	)
	return i, err
}

func (q *Queries) listWaitlistEntries(ctx context.Context, query string, args ...interface{}) ([]WaitlistEntry, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []WaitlistEntry{}
	for rows.Next() {
		i, err := scanWaitlistEntry(rows)
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

const createWaitlistEntry = `-- name: CreateWaitlistEntry :execlastid
INSERT INTO waitlist_entries (facility_id, user_id, date, start_time, end_time, purpose, position, status, joined_at)
VALUES (?, ?, ?, ?, ?, ?, ?, 'WAITING', ?)`

type CreateWaitlistEntryParams struct {
	FacilityID int64          `json:"facility_id"`
	UserID     int64          `json:"user_id"`
	Date       string         `json:"date"`
	StartTime  string         `json:"start_time"`
	EndTime    string         `json:"end_time"`
	Purpose    sql.NullString `json:"purpose"`
	Position   int64          `json:"position"`
	JoinedAt   time.Time      `json:"joined_at"`
}

func (q *Queries) CreateWaitlistEntry(ctx context.Context, arg CreateWaitlistEntryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createWaitlistEntry,
		arg.FacilityID,
		arg.UserID,
		arg.Date,
		arg.StartTime,
		arg.EndTime,
		arg.Purpose,
		arg.Position,
		arg.JoinedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getWaitlistEntry = `-- name: GetWaitlistEntry :one
SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE id = ?`

func (q *Queries) GetWaitlistEntry(ctx context.Context, id int64) (WaitlistEntry, error) {
	return scanWaitlistEntry(q.db.QueryRowContext(ctx, getWaitlistEntry, id))
}

const countWaitingForUser = `-- name: CountWaitingForUser :one
SELECT COUNT(*) FROM waitlist_entries
WHERE facility_id = ? AND user_id = ? AND date = ? AND start_time = ? AND status = 'WAITING'`

type CountWaitingForUserParams struct {
	FacilityID int64  `json:"facility_id"`
	UserID     int64  `json:"user_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
}

func (q *Queries) CountWaitingForUser(ctx context.Context, arg CountWaitingForUserParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countWaitingForUser, arg.FacilityID, arg.UserID, arg.Date, arg.StartTime)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countWaitingEntries = `-- name: CountWaitingEntries :one
SELECT COUNT(*) FROM waitlist_entries
WHERE facility_id = ? AND date = ? AND start_time = ? AND status = 'WAITING'`

type CountWaitingEntriesParams struct {
	FacilityID int64  `json:"facility_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
}

func (q *Queries) CountWaitingEntries(ctx context.Context, arg CountWaitingEntriesParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countWaitingEntries, arg.FacilityID, arg.Date, arg.StartTime)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listWaitingEntriesForSlot = `-- name: ListWaitingEntriesForSlot :many
SELECT ` + waitlistColumns + ` FROM waitlist_entries
WHERE facility_id = ? AND date = ? AND start_time = ? AND status = 'WAITING'
ORDER BY position, joined_at, id`

type ListWaitingEntriesForSlotParams struct {
	FacilityID int64  `json:"facility_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
}

func (q *Queries) ListWaitingEntriesForSlot(ctx context.Context, arg ListWaitingEntriesForSlotParams) ([]WaitlistEntry, error) {
	return q.listWaitlistEntries(ctx, listWaitingEntriesForSlot, arg.FacilityID, arg.Date, arg.StartTime)
}

const listWaitlistByUser = `-- name: ListWaitlistByUser :many
SELECT ` + waitlistColumns + ` FROM waitlist_entries
WHERE user_id = ?
ORDER BY date, start_time, position`

func (q *Queries) ListWaitlistByUser(ctx context.Context, userID int64) ([]WaitlistEntry, error) {
	return q.listWaitlistEntries(ctx, listWaitlistByUser, userID)
}

const listWaitlistByFacility = `-- name: ListWaitlistByFacility :many
SELECT ` + waitlistColumns + ` FROM waitlist_entries
WHERE facility_id = ? AND status = 'WAITING'
ORDER BY date, start_time, position`

func (q *Queries) ListWaitlistByFacility(ctx context.Context, facilityID int64) ([]WaitlistEntry, error) {
	return q.listWaitlistEntries(ctx, listWaitlistByFacility, facilityID)
}

const listStaleWaitingEntries = `-- name: ListStaleWaitingEntries :many
SELECT ` + waitlistColumns + ` FROM waitlist_entries
WHERE status = 'WAITING' AND date <= ?
ORDER BY facility_id, date, start_time, position`

// ListStaleWaitingEntries returns WAITING entries dated on or before
// throughDate. Callers filter same-day entries by start time.
func (q *Queries) ListStaleWaitingEntries(ctx context.Context, throughDate string) ([]WaitlistEntry, error) {
	return q.listWaitlistEntries(ctx, listStaleWaitingEntries, throughDate)
}

const updateWaitlistStatus = `-- name: UpdateWaitlistStatus :execrows
UPDATE waitlist_entries SET status = ? WHERE id = ? AND status = 'WAITING'`

type UpdateWaitlistStatusParams struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

func (q *Queries) UpdateWaitlistStatus(ctx context.Context, arg UpdateWaitlistStatusParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateWaitlistStatus, arg.Status, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const shiftWaitlistPositions = `-- name: ShiftWaitlistPositions :execrows
UPDATE waitlist_entries
SET position = position - 1
WHERE facility_id = ? AND date = ? AND start_time = ? AND status = 'WAITING' AND position > ?`

type ShiftWaitlistPositionsParams struct {
	FacilityID    int64  `json:"facility_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	AfterPosition int64  `json:"after_position"`
}

// ShiftWaitlistPositions closes the gap left by a departed entry.
func (q *Queries) ShiftWaitlistPositions(ctx context.Context, arg ShiftWaitlistPositionsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, shiftWaitlistPositions,
		arg.FacilityID,
		arg.Date,
		arg.StartTime,
		arg.AfterPosition,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listWaitlistEntries = `-- name: ListWaitlistEntries :many
SELECT ` + waitlistColumns + ` FROM waitlist_entries
WHERE status = 'WAITING'
ORDER BY facility_id, date, start_time, position`

func (q *Queries) ListWaitlistEntries(ctx context.Context) ([]WaitlistEntry, error) {
	return q.listWaitlistEntries(ctx, listWaitlistEntries)
}

const deleteWaitlistEntry = `-- name: DeleteWaitlistEntry :execrows
DELETE FROM waitlist_entries WHERE id = ?`

func (q *Queries) DeleteWaitlistEntry(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteWaitlistEntry, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
