// Package slot holds the calendar primitives shared by the booking core: calendar
// dates, times of day on a minute grid, half-open windows and the 30-minute
// availability grid.
package slot

import (
	"encoding/json"
	"fmt"
	"iter"
	"strings"
	"time"
)

// Length is the fixed grid unit. Availability is reported in Length steps and
// every extension adds exactly one Length.
const Length = 30 * time.Minute

const (
	dateLayout       = "2006-01-02"
	timeLayout       = "15:04"
	timeLayoutSecond = "15:04:05"
	minutesPerDay    = 24 * 60
)

// TimeOfDay is a wall-clock time expressed as minutes after midnight.
type TimeOfDay int

// ParseTimeOfDay accepts "15:04" or "15:04:05"; seconds must be zero.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("time of day is required")
	}
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		parsed, err = time.Parse(timeLayoutSecond, value)
		if err != nil {
			return 0, fmt.Errorf("invalid time of day %q: expected HH:MM", value)
		}
		if parsed.Second() != 0 {
			return 0, fmt.Errorf("invalid time of day %q: seconds are not supported", value)
		}
	}
	return TimeOfDay(parsed.Hour()*60 + parsed.Minute()), nil
}

// MustTimeOfDay is ParseTimeOfDay for literals; it panics on bad input.
func MustTimeOfDay(value string) TimeOfDay {
	t, err := ParseTimeOfDay(value)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Add shifts t by d, truncated to whole minutes. The result may pass midnight;
// callers bound it against operating hours.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return t + TimeOfDay(d/time.Minute)
}

// Sub returns the duration t-u.
func (t TimeOfDay) Sub(u TimeOfDay) time.Duration {
	return time.Duration(t-u) * time.Minute
}

// Valid reports whether t is within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < minutesPerDay
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Date is a calendar day formatted 2006-01-02. The zero value is invalid.
type Date string

// ParseDate validates and normalises a 2006-01-02 date.
func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return Date(parsed.Format(dateLayout)), nil
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// At combines the date with a time of day in loc.
func (d Date) At(t TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(dateLayout, string(d), loc)
	if err != nil {
		return time.Time{}
	}
	return day.Add(time.Duration(t) * time.Minute)
}

func (d Date) String() string {
	return string(d)
}

// Window is the half-open interval [Start, End) on a single day.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Overlaps is the half-open overlap test: touching endpoints do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start < other.End && w.End > other.Start
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// Slot is one grid cell of an availability listing.
type Slot struct {
	StartTime TimeOfDay `json:"startTime"`
	EndTime   TimeOfDay `json:"endTime"`
	Available bool      `json:"available"`
}

// Grid yields the Length-sized slots from opens to closes. A slot is emitted only
// when it ends at or before closes; it is unavailable when any occupied window
// overlaps it. The sequence is recomputed on every iteration.
func Grid(opens, closes TimeOfDay, occupied []Window) iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		for cursor := opens; cursor.Add(Length) <= closes; cursor = cursor.Add(Length) {
			cell := Window{Start: cursor, End: cursor.Add(Length)}
			available := true
			for _, w := range occupied {
				if w.Overlaps(cell) {
					available = false
					break
				}
			}
			if !yield(Slot{StartTime: cell.Start, EndTime: cell.End, Available: available}) {
				return
			}
		}
	}
}
