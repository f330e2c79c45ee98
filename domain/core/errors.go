package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Station-side errors. These are fatal to a single station's
	// contribution, never to the whole analysis run.
	ErrSchema           = errors.New("schema error")
	ErrColumnMissing    = fmt.Errorf("%w: requested column not present", ErrSchema)
	ErrColumnNotNumeric = fmt.Errorf("%w: requested column not numeric", ErrSchema)

	ErrData         = errors.New("data error")
	ErrEmptyTable   = fmt.Errorf("%w: empty table", ErrData)
	ErrNoUsableRows = fmt.Errorf("%w: no usable rows", ErrData)

	ErrPrivacy = errors.New("privacy error: too few records to disclose aggregates")

	// Coordinator-side errors. Fatal to the whole analysis unless they
	// concern a single column, in which case only that column is skipped.
	ErrAggregation     = errors.New("aggregation error")
	ErrNoUsableResults = fmt.Errorf("%w: no usable station results", ErrAggregation)
	ErrShapeMismatch   = fmt.Errorf("%w: station results disagree on shape", ErrAggregation)
	ErrGroupCount      = fmt.Errorf("%w: exactly two groups required", ErrAggregation)
	ErrZeroDenominator = fmt.Errorf("%w: degenerate zero denominator", ErrAggregation)

	// User input errors at the coordinator boundary.
	ErrUserInput = errors.New("invalid user input")
)

// Error constructors with context

// NewSchemaError reports columns requested but absent from a station's table.
func NewSchemaError(missing []string) error {
	return fmt.Errorf("%w: %v", ErrColumnMissing, missing)
}

// NewNonNumericError reports columns that exist but hold non-numeric data.
func NewNonNumericError(columns []string) error {
	return fmt.Errorf("%w: %v", ErrColumnNotNumeric, columns)
}

// NewPrivacyError reports a refusal to compute over too few records.
func NewPrivacyError(n, minimum int) error {
	return fmt.Errorf("%w: %d records, minimum is %d", ErrPrivacy, n, minimum)
}

// NewUserInputError reports a bad parameter supplied to the coordinator.
func NewUserInputError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUserInput, fmt.Sprintf(format, args...))
}

// Error checking helpers

func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

func IsDataError(err error) bool {
	return errors.Is(err, ErrData)
}

func IsPrivacyError(err error) bool {
	return errors.Is(err, ErrPrivacy)
}

func IsAggregationError(err error) bool {
	return errors.Is(err, ErrAggregation)
}

func IsUserInputError(err error) bool {
	return errors.Is(err, ErrUserInput)
}

// IsStationError reports whether an error belongs to a single station's
// failure domain; such errors are carried into aggregation as tagged
// payloads rather than aborting the run.
func IsStationError(err error) bool {
	return IsSchemaError(err) || IsDataError(err) || IsPrivacyError(err)
}
