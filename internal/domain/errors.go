package domain

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is matching of the aggregation error taxonomy.
var (
	// ErrInvalidParameter marks malformed or out-of-order query parameters.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDataSource marks an unreachable event source or a malformed result.
	ErrDataSource = errors.New("data source error")

	// ErrDivisionUndefined marks a per-user average over zero users.
	ErrDivisionUndefined = errors.New("division undefined")
)

// InvalidParameterError is always the caller's fault and is never retried.
type InvalidParameterError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid parameter %s=%q: %s", e.Field, e.Value, e.Reason)
}

// Is matches ErrInvalidParameter.
func (e *InvalidParameterError) Is(target error) bool { return target == ErrInvalidParameter }

// DataSourceError wraps failures of the event source: connectivity,
// authentication, execution, or a result whose schema does not match.
type DataSourceError struct {
	Source string // event source name, e.g. "clickhouse"
	Op     string // aggregation kind or operation
	Err    error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %s: %s: %v", e.Source, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *DataSourceError) Unwrap() error { return e.Err }

// Is matches ErrDataSource.
func (e *DataSourceError) Is(target error) bool { return target == ErrDataSource }

// DivisionUndefinedError is returned when a per-user average is requested
// for a range with no users.
type DivisionUndefinedError struct {
	Metric string
}

func (e *DivisionUndefinedError) Error() string {
	return fmt.Sprintf("%s is undefined: user count is zero", e.Metric)
}

// Is matches ErrDivisionUndefined.
func (e *DivisionUndefinedError) Is(target error) bool { return target == ErrDivisionUndefined }
