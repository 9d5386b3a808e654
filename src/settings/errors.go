package settings

import (
	"errors"
	"fmt"

	"github.com/spf13/cast"
)

var (
	// ErrUnsupportedField is returned for a field that is not on the strategy's whitelist.
	ErrUnsupportedField = errors.New("unsupported setting field")
	// ErrUnknownStrategy is returned when writing to a strategy that is not registered.
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrInvalidEnum is returned for a value outside a closed set (side, exchange, routing policy...).
	ErrInvalidEnum = errors.New("invalid enum value")
	// ErrInvalidValue is returned when a value cannot be coerced to the field type.
	ErrInvalidValue = errors.New("invalid setting value")
)

// ValidationError is a recoverable out of range value.
type ValidationError struct {
	Field string
	Value any
	Min   float64
	Max   float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: enter a value between %s and %s",
		e.Field, cast.ToString(e.Min), cast.ToString(e.Max))
}

// IsRecoverable reports whether err should be relayed back to the person
// entering the value instead of being treated as a caller bug.
func IsRecoverable(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrInvalidValue)
}
