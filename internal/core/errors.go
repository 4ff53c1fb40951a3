package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Service errors wrap one of these so callers can branch with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrExceedsAvailable     = errors.New("exceeds available stock")
	ErrUnitMismatch         = errors.New("unit mismatch")
	ErrUnknownProduct       = errors.New("unknown product")
	ErrMissingWarehouseLink = errors.New("store has no linked warehouse")
	ErrIllegalTransition    = errors.New("illegal status transition")
)

// FieldError is one validation failure keyed by the request field it concerns.
// Item-level fields use the form "items[2].requested_qty".
type FieldError struct {
	Field   string `json:"field"`
	Kind    error  `json:"-"`
	Message string `json:"message"`
}

// ValidationErrors collects every failure found while checking a request.
// Order is the order in which checks ran.
type ValidationErrors []FieldError

func (v *ValidationErrors) Add(field string, kind error, format string, args ...any) {
	*v = append(*v, FieldError{Field: field, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is reports whether any contained field error is of the target kind.
func (v ValidationErrors) Is(target error) bool {
	for _, fe := range v {
		if errors.Is(fe.Kind, target) {
			return true
		}
	}
	return false
}

// Fields returns a field → message map; the first message wins for repeated fields.
func (v ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(v))
	for _, fe := range v {
		if _, ok := out[fe.Field]; !ok {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

// OrNil returns nil when no errors were collected.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
