// SPDX-License-Identifier: MIT

package zke

import "fmt"

// DecodeReason classifies why a received frame was rejected.
type DecodeReason int

const (
	ReasonLength DecodeReason = iota
	ReasonBeginMarker
	ReasonEndMarker
	ReasonChecksum
	ReasonRequestCode
	ReasonStatus
	ReasonProgram
	ReasonModel
)

// DecodeError reports a malformed or unrecognized frame. Decoding never
// panics on bad input; every violation surfaces as one of these.
type DecodeError struct {
	Reason  DecodeReason
	Message string
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	return e.Message
}

func decodeErrorf(reason DecodeReason, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ParameterError reports an out-of-range or malformed user-supplied value.
// It is always surfaced to the caller and never retried.
type ParameterError struct {
	Param   string
	Message string
}

// Error implements the error interface
func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s", e.Param, e.Message)
}

func parameterErrorf(param, format string, args ...interface{}) *ParameterError {
	return &ParameterError{Param: param, Message: fmt.Sprintf(format, args...)}
}

// PreconditionError reports an operation requested while the session is not
// in the state the device expects. The device silently ignores out-of-order
// commands on the wire, so these are logged no-ops, never fatal.
type PreconditionError struct {
	Op       string
	Required string
	Actual   SessionState
}

// Error implements the error interface
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s requires %s, session is %s", e.Op, e.Required, e.Actual)
}
