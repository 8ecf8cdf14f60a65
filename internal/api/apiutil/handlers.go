package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/campusbook/internal/api/authz"
	"github.com/codr1/campusbook/internal/booking"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Timestamp time.Time         `json:"timestamp"`
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

// DecodeOptionalJSON is DecodeJSON for endpoints whose body may be empty.
func DecodeOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := DecodeJSON(r, dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// Respond writes payload and logs a failed write.
func Respond(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write JSON response")
	}
}

// WriteError maps err onto a status code and the error envelope. Internal
// failures are logged in full and reported with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())
	body := ErrorResponse{Timestamp: time.Now().UTC()}

	var bookingErr *booking.Error
	var handlerErr HandlerError
	var fieldErr FieldError
	switch {
	case errors.As(err, &bookingErr):
		body.Status = bookingStatus(bookingErr.Kind)
		body.Message = bookingErr.Message
		body.Fields = bookingErr.Fields
		logger.Debug().Str("kind", string(bookingErr.Kind)).Str("message", bookingErr.Message).Msg("Request rejected")
	case errors.As(err, &handlerErr):
		body.Status = handlerErr.Status
		body.Message = handlerErr.Message
		if handlerErr.Status >= http.StatusInternalServerError {
			logger.Error().Err(handlerErr.Err).Msg(handlerErr.Message)
		}
	case errors.As(err, &fieldErr):
		body.Status = http.StatusBadRequest
		body.Message = "Validation failed"
		body.Fields = map[string]string{fieldErr.Field: fieldErr.Reason}
	case errors.Is(err, authz.ErrUnauthenticated):
		body.Status = http.StatusUnauthorized
		body.Message = "Authentication required"
	case errors.Is(err, authz.ErrForbidden):
		body.Status = http.StatusForbidden
		body.Message = "You are not authorised to perform this action."
	default:
		body.Status = http.StatusInternalServerError
		body.Message = "An unexpected error occurred"
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	body.Error = http.StatusText(body.Status)
	Respond(w, r, body.Status, body)
}

func bookingStatus(kind booking.Kind) int {
	switch kind {
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// BadRequest wraps a malformed-body error as a 400.
func BadRequest(err error) error {
	return HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err}
}
