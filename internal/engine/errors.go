package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/hotel-room-booking/internal/calendar"
)

// ErrNotAdmin is returned when a caller without the admin role
// attempts a ledger mutation. Handlers translate it into 403.
var ErrNotAdmin = errors.New("admin role required")

// FieldError names a single invalid field of a booking draft and
// why it was rejected.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports structural problems with a booking draft.
// It is client-correctable and never reaches storage.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "invalid booking draft: " + strings.Join(parts, "; ")
}

// ConflictError reports that a requested span is not bookable. Date
// is the first conflicting day so a calendar UI can highlight it.
type ConflictError struct {
	Date time.Time
}

func (e *ConflictError) Error() string {
	return "room is not available on " + calendar.FormatDay(e.Date)
}

// UpstreamError wraps a failed store call. Op distinguishes fetch
// from write failures; callers may retry reads freely but must not
// blindly retry admission writes (the idempotency key makes a
// deliberate retry safe).
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("store %s failed: %v", e.Op, e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }

func fetchErr(op string, err error) error  { return &UpstreamError{Op: "fetch " + op, Err: err} }
func writeErr(op string, err error) error  { return &UpstreamError{Op: "write " + op, Err: err} }
