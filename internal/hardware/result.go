package hardware

import "fmt"

// Status is the outcome class of a probe.
type Status int

const (
	// StatusUnavailable means the metric source does not exist.
	StatusUnavailable Status = iota
	// StatusError means the source exists but could not be read.
	StatusError
	// StatusValue means Value holds a reading.
	StatusValue
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusUnavailable:
		return "unavailable"
	case StatusError:
		return "error"
	case StatusValue:
		return "value"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the outcome of one probe.
type Result[T any] struct {
	Status Status
	Value  T
	Err    error
}

// Unavailable returns a Result for a missing source.
func Unavailable[T any]() Result[T] {
	return Result[T]{Status: StatusUnavailable}
}

// Failed returns a Result carrying err.
func Failed[T any](err error) Result[T] {
	return Result[T]{Status: StatusError, Err: err}
}

// Ok returns a Result carrying v.
func Ok[T any](v T) Result[T] {
	return Result[T]{Status: StatusValue, Value: v}
}
