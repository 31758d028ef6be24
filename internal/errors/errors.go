// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrTradeNotFound  = errors.New("trade not found")
	ErrInvalidTrade   = errors.New("invalid trade")
	ErrOverExit       = errors.New("exit quantity exceeds entry quantity")
	ErrUnknownField   = errors.New("unknown field")
	ErrInvalidBasis   = errors.New("invalid accounting basis")
	ErrConfigInvalid  = errors.New("invalid configuration")
	ErrDatabaseError  = errors.New("database error")
	ErrComputeFailure = errors.New("metric computation failed")
)

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidTrade.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidTrade
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ComputeError is a failure while deriving one trade's metrics.
type ComputeError struct {
	TradeID string
	Stage   string
	Err     error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("compute error [%s] %s: %v", e.TradeID, e.Stage, e.Err)
}

func (e *ComputeError) Unwrap() error {
	return e.Err
}

// Is matches ErrComputeFailure.
func (e *ComputeError) Is(target error) bool {
	return target == ErrComputeFailure
}

// NewComputeError creates a new ComputeError.
func NewComputeError(tradeID, stage string, err error) *ComputeError {
	return &ComputeError{
		TradeID: tradeID,
		Stage:   stage,
		Err:     err,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Key      string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Key, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, key, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Key:      key,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join combines errors, dropping nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
