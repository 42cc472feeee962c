package wire

import "fmt"

// Error is a server-reported call failure
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// NewError creates a new wire error
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// TransportError is an opaque failure of the underlying wire call. It is
// broadcast to every member of the chunk that issued the call, since the
// members share one call and per-key outcomes cannot be distinguished once
// the channel itself has failed.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PartialBatchFailureError reports that a specific member's item key was
// missing or errored in an otherwise-successful batch response. It is
// reported only to that member; siblings are unaffected.
type PartialBatchFailureError struct {
	Resource string
	Key      string
	Cause    *Error
}

func (e *PartialBatchFailureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: batch entry %q failed: %s", e.Resource, e.Key, e.Cause.Message)
	}
	return fmt.Sprintf("%s: batch entry %q missing from response", e.Resource, e.Key)
}

func (e *PartialBatchFailureError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return nil
}
