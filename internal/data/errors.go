package data

import "fmt"

// Reason tags why an instance text could not be parsed.
type Reason string

const (
	ReasonHeader          Reason = "header"
	ReasonCapacity        Reason = "capacity"
	ReasonProduct         Reason = "product"
	ReasonDemandTruncated Reason = "demand_truncated"
	ReasonInvalid         Reason = "invalid"
)

// MalformedInstanceError is returned for any instance text the parser rejects.
type MalformedInstanceError struct {
	Reason Reason
	Line   int // 1-based line in the input text, 0 when not tied to a line
	Msg    string
	Err    error
}

func (e *MalformedInstanceError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed instance (%s) at line %d: %s", e.Reason, e.Line, e.Msg)
	}
	return fmt.Sprintf("malformed instance (%s): %s", e.Reason, e.Msg)
}

func (e *MalformedInstanceError) Unwrap() error { return e.Err }

func malformed(reason Reason, line int, format string, args ...any) *MalformedInstanceError {
	return &MalformedInstanceError{Reason: reason, Line: line, Msg: fmt.Sprintf(format, args...)}
}
