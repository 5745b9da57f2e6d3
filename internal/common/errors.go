package common

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a promotion that cannot be evaluated as registered.
	ErrConfiguration = errors.New("invalid promotion configuration")
	// ErrProductUnitMismatch marks a bundle holding a product that is not sold per piece.
	ErrProductUnitMismatch = errors.New("invalid product unit for bundle")
	// ErrRegistrationConflict marks a second promotion for a product that already has one.
	ErrRegistrationConflict = errors.New("product already has a promotion")
	// ErrQuantityValidation marks an unusable purchase quantity or an unknown product.
	ErrQuantityValidation = errors.New("invalid purchase quantity")
)

// AppError represents a domain error with an attached code and the offending input.
type AppError struct {
	Code    string
	Message string
	Product string
	Value   any
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError for the given kind. The message is
// formatted with args and the offending product is kept for callers that
// surface it to users.
func NewAppError(kind error, code, product string, value any, format string, args ...any) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Product: product,
		Value:   value,
		Err:     kind,
	}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// Kind reports which of the domain error kinds err belongs to, or nil.
func Kind(err error) error {
	for _, kind := range []error{ErrConfiguration, ErrProductUnitMismatch, ErrRegistrationConflict, ErrQuantityValidation} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
