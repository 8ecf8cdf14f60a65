package apiutil

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/codr1/campusbook/internal/slot"
)

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, FieldError{Field: field, Reason: "must be greater than 0"}
	}
	return value, nil
}

// PathID parses the positive integer path value named key.
func PathID(r *http.Request, key string) (int64, error) {
	return ParsePositiveInt64Field(r.PathValue(key), key)
}

// QueryID parses a required positive integer query parameter.
func QueryID(r *http.Request, key string) (int64, error) {
	return ParsePositiveInt64Field(r.URL.Query().Get(key), key)
}

// QueryDate parses a YYYY-MM-DD query parameter. An absent parameter yields
// nil when optional is set.
func QueryDate(r *http.Request, key string, optional bool) (*slot.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		if optional {
			return nil, nil
		}
		return nil, FieldError{Field: key, Reason: "is required"}
	}
	date, err := slot.ParseDate(raw)
	if err != nil {
		return nil, FieldError{Field: key, Reason: fmt.Sprintf("must be a date in YYYY-MM-DD format, got %q", raw)}
	}
	return &date, nil
}

// QueryBool reads a boolean query flag. Anything unparsable is false.
func QueryBool(r *http.Request, key string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(key)))
	return err == nil && value
}
