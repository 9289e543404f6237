package params

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adaptivepwm/pwm-go/pkg/config"
)

// Parameter errors. Use errors.Is against a *ParameterError.
var (
	ErrUnknownParameter   = errors.New("unknown parameter")
	ErrOutOfRange         = errors.New("value out of range")
	ErrIncompleteSnapshot = errors.New("incomplete snapshot")
)

// ErrorKind classifies a rejected write.
type ErrorKind uint8

const (
	// KindUnknownParameter means the name is not a parameter.
	KindUnknownParameter ErrorKind = iota + 1

	// KindOutOfRange means the value violated a bound or was not finite.
	KindOutOfRange
)

// ParameterError is returned by Store.Write. The store is unchanged.
type ParameterError struct {
	Kind  ErrorKind
	Name  string
	Value float64

	// Range is the configured range (KindOutOfRange with a range only).
	Range *config.Range

	// Bound is the violated bound value and BoundName is "min" or "max".
	Bound     float64
	BoundName string
}

func (e *ParameterError) Error() string {
	switch e.Kind {
	case KindUnknownParameter:
		return fmt.Sprintf("unknown parameter: %s (known: %s)", e.Name, strings.Join(names, ", "))
	case KindOutOfRange:
		if e.Range == nil {
			return fmt.Sprintf("%s must be a finite number, got %g", e.Name, e.Value)
		}
		return fmt.Sprintf("%s must be between %g and %g, got %g (violates %s %g)",
			e.Name, e.Range.Min, e.Range.Max, e.Value, e.BoundName, e.Bound)
	default:
		return "parameter error"
	}
}

// Unwrap returns the kind sentinel.
func (e *ParameterError) Unwrap() error {
	switch e.Kind {
	case KindUnknownParameter:
		return ErrUnknownParameter
	case KindOutOfRange:
		return ErrOutOfRange
	default:
		return nil
	}
}
