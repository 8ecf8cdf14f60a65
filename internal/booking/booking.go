package booking

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/codr1/campusbook/internal/db/dbq"
	"github.com/codr1/campusbook/internal/slot"
)

type Booking struct {
	ID              int64           `json:"id"`
	FacilityID      int64           `json:"facilityId"`
	UserID          int64           `json:"userId"`
	Date            slot.Date       `json:"date"`
	StartTime       slot.TimeOfDay  `json:"startTime"`
	EndTime         slot.TimeOfDay  `json:"endTime"`
	Status          Status          `json:"status"`
	Purpose         string          `json:"purpose"`
	Attendees       int             `json:"attendees"`
	IsRecurring     bool            `json:"isRecurring"`
	RecurrenceRule  string          `json:"recurrenceRule,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CheckInTime     *time.Time      `json:"checkInTime,omitempty"`
	CheckOutTime    *time.Time      `json:"checkOutTime,omitempty"`
	MaxExtensions   int             `json:"maxExtensions"`
	ExtensionCount  int             `json:"extensionCount"`
	OriginalEndTime *slot.TimeOfDay `json:"originalEndTime,omitempty"`
	ExpiredAt       *time.Time      `json:"expiredAt,omitempty"`
	ReminderSent    bool            `json:"reminderSent"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (b Booking) Window() slot.Window {
	return slot.Window{Start: b.StartTime, End: b.EndTime}
}

// EndsAt is the end of the booking as an instant in loc.
func (b Booking) EndsAt(loc *time.Location) time.Time {
	return b.Date.At(b.EndTime, loc)
}

// Request holds the caller-supplied fields of a create or update.
type Request struct {
	FacilityID     int64
	Date           slot.Date
	StartTime      slot.TimeOfDay
	EndTime        slot.TimeOfDay
	Purpose        string
	Attendees      int
	Notes          string
	IsRecurring    bool
	RecurrenceRule string
}

func (r Request) window() slot.Window {
	return slot.Window{Start: r.StartTime, End: r.EndTime}
}

// validate reports malformed or missing fields. Business rules are checked
// later, in order, by validateProposal.
func (r Request) validate() error {
	fields := map[string]string{}
	if r.FacilityID <= 0 {
		fields["facilityId"] = "is required"
	}
	if _, err := slot.ParseDate(string(r.Date)); err != nil {
		fields["date"] = "must be a date in YYYY-MM-DD format"
	}
	if !r.StartTime.Valid() {
		fields["startTime"] = "must be a time of day"
	}
	if !r.EndTime.Valid() {
		fields["endTime"] = "must be a time of day"
	}
	if strings.TrimSpace(r.Purpose) == "" {
		fields["purpose"] = "is required"
	}
	if r.Attendees < 1 {
		fields["attendees"] = "must be at least 1"
	}
	if r.IsRecurring && strings.TrimSpace(r.RecurrenceRule) == "" {
		fields["recurrenceRule"] = "is required when isRecurring is set"
	}
	if len(fields) > 0 {
		return validationError(fields)
	}
	return nil
}

func bookingFromRow(row dbq.Booking) (Booking, error) {
	start, err := slot.ParseTimeOfDay(row.StartTime)
	if err != nil {
		return Booking{}, fmt.Errorf("booking %d start time: %w", row.ID, err)
	}
	end, err := slot.ParseTimeOfDay(row.EndTime)
	if err != nil {
		return Booking{}, fmt.Errorf("booking %d end time: %w", row.ID, err)
	}
	b := Booking{
		ID:             row.ID,
		FacilityID:     row.FacilityID,
		UserID:         row.UserID,
		Date:           slot.Date(row.Date),
		StartTime:      start,
		EndTime:        end,
		Status:         Status(row.Status),
		Purpose:        row.Purpose,
		Attendees:      int(row.Attendees),
		IsRecurring:    row.IsRecurring,
		RecurrenceRule: row.RecurrenceRule.String,
		Notes:          row.Notes.String,
		CheckInTime:    timePtr(row.CheckInTime),
		CheckOutTime:   timePtr(row.CheckOutTime),
		MaxExtensions:  int(row.MaxExtensions),
		ExtensionCount: int(row.ExtensionCount),
		ExpiredAt:      timePtr(row.ExpiredAt),
		ReminderSent:   row.ReminderSent,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if row.OriginalEndTime.Valid {
		original, err := slot.ParseTimeOfDay(row.OriginalEndTime.String)
		if err != nil {
			return Booking{}, fmt.Errorf("booking %d original end time: %w", row.ID, err)
		}
		b.OriginalEndTime = &original
	}
	return b, nil
}

func bookingsFromRows(rows []dbq.Booking) ([]Booking, error) {
	out := make([]Booking, 0, len(rows))
	for _, row := range rows {
		b, err := bookingFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
