// errs.go — the broker's error taxonomy.
// Every failure the core can produce is one of these Kinds; the dispatcher
// maps Kind to a stable, LLM-facing structured error code (see internal/mcp).
package errs

import "fmt"

// Kind classifies a broker failure. Values name the stable, wire-level
// failure taxonomy, not Go error types — callers use errors.As to recover
// a *Error and switch on Kind.
type Kind string

const (
	NotConnected      Kind = "not_connected"
	AlreadyConnected  Kind = "already_connected"
	LaunchError       Kind = "launch_error"
	ConnectError      Kind = "connect_error"
	PortUnavailable   Kind = "port_unavailable"
	ClassNotFound     Kind = "class_not_found"
	FieldNotFound     Kind = "field_not_found"
	MethodNotFound    Kind = "method_not_found"
	NoCodeAtLine      Kind = "no_code_at_line"
	NotThrowable      Kind = "not_throwable"
	NoDebugInfo       Kind = "no_debug_info"
	ThreadNotFound    Kind = "thread_not_found"
	ThreadNotSuspended Kind = "thread_not_suspended"
	FrameOutOfRange   Kind = "frame_out_of_range"
	NativeFrame       Kind = "native_frame"
	ObjectNotFound    Kind = "object_not_found"
	InvalidExpression Kind = "invalid_expression"
	NullDereference   Kind = "null_dereference"
	OverloadAmbiguous Kind = "overload_ambiguous"
	TypeMismatch      Kind = "type_mismatch"
	ThrownException   Kind = "thrown_exception"
	CapabilityMissing Kind = "capability_missing"
	Timeout           Kind = "timeout"
	VmDisconnected    Kind = "vm_disconnected"
	Interrupted       Kind = "interrupted"
	RateLimited       Kind = "rate_limited"
	InternalError     Kind = "internal_error"

	// NotFound is used by registries/stores for an unknown id on
	// remove/enable/disable/removeWatch.
	NotFound Kind = "not_found"
)

// Error is the broker's error type. Detail carries optional structured
// context (e.g. the offending param name) that a dispatcher can surface.
type Error struct {
	Kind    Kind
	Message string
	Detail  map[string]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an *Error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetail attaches a key/value to the error and returns it for chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Detail == nil {
		e.Detail = make(map[string]string)
	}
	e.Detail[key] = value
	return e
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error.
// Unrecognized errors classify as InternalError.
func KindOf(err error) Kind {
	var e *Error
	if As(err, &e) {
		return e.Kind
	}
	return InternalError
}

// As is a tiny errors.As wrapper kept local so this package has no
// dependency beyond the standard library's error chain convention.
func As(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
