package tuplecall

import (
	"fmt"

	"github.com/machinefabric/tuplecall-go/wire"
)

// InvalidArgumentError reports a caller contract violation. It is raised
// before any remote call is issued and is never retried.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return "tuplecall: invalid argument: " + e.Reason
}

// errInvalidArgument is a shorthand constructor used by the dispatcher's
// validation checks.
func errInvalidArgument(reason string) error {
	return &InvalidArgumentError{Reason: reason}
}

// RemoteCallError reports a transport or server-side failure. The call
// context carries the function name and parameter count but never the
// parameter values, so the error is safe to log.
type RemoteCallError struct {
	Function   string
	ParamCount int
	RequestID  string
	Err        error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("tuplecall: remote call %q failed (params=%d, request=%s): %v",
		e.Function, e.ParamCount, e.RequestID, e.Err)
}

// Unwrap exposes the underlying transport error
func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// MappingError reports that a conversion could not produce the requested
// shape: the offending wire shape and the target type are attached.
type MappingError struct {
	WireShape wire.Shape
	Target    string
	Reason    string
	Err       error
}

func (e *MappingError) Error() string {
	msg := fmt.Sprintf("tuplecall: cannot map %s value to %s: %s", e.WireShape, e.Target, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying conversion error, if any
func (e *MappingError) Unwrap() error {
	return e.Err
}
