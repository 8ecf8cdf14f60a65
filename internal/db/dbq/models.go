package dbq

import (
	"database/sql"
	"time"
)

type Booking struct {
	ID              int64          `json:"id"`
	FacilityID      int64          `json:"facility_id"`
	UserID          int64          `json:"user_id"`
	Date            string         `json:"date"`
	StartTime       string         `json:"start_time"`
	EndTime         string         `json:"end_time"`
	Status          string         `json:"status"`
	Purpose         string         `json:"purpose"`
	Attendees       int64          `json:"attendees"`
	IsRecurring     bool           `json:"is_recurring"`
	RecurrenceRule  sql.NullString `json:"recurrence_rule"`
	Notes           sql.NullString `json:"notes"`
	CheckInTime     sql.NullTime   `json:"check_in_time"`
	CheckOutTime    sql.NullTime   `json:"check_out_time"`
	MaxExtensions   int64          `json:"max_extensions"`
	ExtensionCount  int64          `json:"extension_count"`
	OriginalEndTime sql.NullString `json:"original_end_time"`
	ExpiredAt       sql.NullTime   `json:"expired_at"`
	ReminderSent    bool           `json:"reminder_sent"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type BookingApproval struct {
	ID         int64          `json:"id"`
	BookingID  int64          `json:"booking_id"`
	ReviewedBy sql.NullInt64  `json:"reviewed_by"`
	Decision   string         `json:"decision"`
	Remarks    sql.NullString `json:"remarks"`
	DecidedAt  time.Time      `json:"decided_at"`
}

type Facility struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Location         string    `json:"location"`
	Capacity         int64     `json:"capacity"`
	OpeningTime      string    `json:"opening_time"`
	ClosingTime      string    `json:"closing_time"`
	IsAvailable      bool      `json:"is_available"`
	RequiresApproval bool      `json:"requires_approval"`
	CreatedAt        time.Time `json:"created_at"`
}

type MaintenanceWindow struct {
	ID         int64         `json:"id"`
	FacilityID int64         `json:"facility_id"`
	StartDate  string        `json:"start_date"`
	EndDate    string        `json:"end_date"`
	Reason     string        `json:"reason"`
	CreatedBy  sql.NullInt64 `json:"created_by"`
	CreatedAt  time.Time     `json:"created_at"`
}

type Notification struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"user_id"`
	BookingID sql.NullInt64 `json:"booking_id"`
	Type      string        `json:"type"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	IsRead    bool          `json:"is_read"`
	CreatedAt time.Time     `json:"created_at"`
}

type User struct {
	ID          int64          `json:"id"`
	Email       sql.NullString `json:"email"`
	DisplayName string         `json:"display_name"`
	CreatedAt   time.Time      `json:"created_at"`
}

type WaitlistEntry struct {
	ID         int64          `json:"id"`
	FacilityID int64          `json:"facility_id"`
	UserID     int64          `json:"user_id"`
	Date       string         `json:"date"`
	StartTime  string         `json:"start_time"`
	EndTime    string         `json:"end_time"`
	Purpose    sql.NullString `json:"purpose"`
	Position   int64          `json:"position"`
	Status     string         `json:"status"`
	JoinedAt   time.Time      `json:"joined_at"`
}
