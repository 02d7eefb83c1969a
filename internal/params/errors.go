package params

import (
	"errors"
	"fmt"
)

var (
	// ErrParameterFormat is matched by every FormatError.
	ErrParameterFormat = errors.New("parameter format error")

	// ErrUnsupportedParameterType is matched by every UnsupportedTypeError.
	ErrUnsupportedParameterType = errors.New("unsupported parameter type")
)

// FormatError reports a raw value that cannot be parsed as its declared kind.
type FormatError struct {
	Name  string
	Value string
	Kind  Kind
	Err   error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s value %q for parameter %s: %v", e.Kind, e.Value, e.Name, e.Err)
	}
	return fmt.Sprintf("invalid %s value %q for parameter %s", e.Kind, e.Value, e.Name)
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrParameterFormat }

// UnsupportedTypeError reports a schema entry whose kind is not recognized.
type UnsupportedTypeError struct {
	Name string
	Kind Kind
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported parameter type: %s for parameter: %s", e.Kind, e.Name)
}

func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrUnsupportedParameterType }
