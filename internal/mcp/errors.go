// errors.go — Structured error handling and error codes for MCP tools.
// Defines error constants, StructuredError type, and error response construction.
package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/dev-console/debugctl/internal/errs"
)

// Error codes are the debug-control taxonomy (internal/errs.Kind) rendered
// as self-describing snake_case strings, so an LLM tool caller never needs
// a separate lookup table to act on a failure.
const (
	ErrNotConnected      = string(errs.NotConnected)
	ErrAlreadyConnected  = string(errs.AlreadyConnected)
	ErrLaunchError       = string(errs.LaunchError)
	ErrConnectError      = string(errs.ConnectError)
	ErrPortUnavailable   = string(errs.PortUnavailable)
	ErrClassNotFound     = string(errs.ClassNotFound)
	ErrFieldNotFound     = string(errs.FieldNotFound)
	ErrMethodNotFound    = string(errs.MethodNotFound)
	ErrNoCodeAtLine      = string(errs.NoCodeAtLine)
	ErrNotThrowable      = string(errs.NotThrowable)
	ErrNoDebugInfo       = string(errs.NoDebugInfo)
	ErrThreadNotFound    = string(errs.ThreadNotFound)
	ErrThreadNotSuspended = string(errs.ThreadNotSuspended)
	ErrFrameOutOfRange   = string(errs.FrameOutOfRange)
	ErrNativeFrame       = string(errs.NativeFrame)
	ErrObjectNotFound    = string(errs.ObjectNotFound)
	ErrInvalidExpression = string(errs.InvalidExpression)
	ErrNullDereference   = string(errs.NullDereference)
	ErrOverloadAmbiguous = string(errs.OverloadAmbiguous)
	ErrTypeMismatch      = string(errs.TypeMismatch)
	ErrThrownException   = string(errs.ThrownException)
	ErrCapabilityMissing = string(errs.CapabilityMissing)
	ErrTimeout           = string(errs.Timeout)
	ErrVMDisconnected    = string(errs.VmDisconnected)
	ErrInterrupted       = string(errs.Interrupted)
	ErrRateLimited       = string(errs.RateLimited)
	ErrNotFound          = string(errs.NotFound)
	ErrInternal          = string(errs.InternalError)

	// ErrInvalidJSON/ErrInvalidParam/ErrMissingParam are transport-level
	// (malformed request envelope, not a broker Kind), needed before a
	// request's arguments ever reach a handler.
	ErrInvalidJSON  = "invalid_json"
	ErrMissingParam = "missing_param"
	ErrInvalidParam = "invalid_param"
)

// StructuredError is embedded in MCP text content. Every field is
// self-describing so an LLM can act on it without a lookup table.
type StructuredError struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	Retry        string `json:"retry"`
	Retryable    bool   `json:"retryable"`
	RetryAfterMs int    `json:"retry_after_ms,omitempty"`
	Final        bool   `json:"final,omitempty"`
	Param        string `json:"param,omitempty"`
	Hint         string `json:"hint,omitempty"`
}

// StructuredErrorResponse constructs an MCP error response. Format:
//
//	Error: thread_not_suspended — Suspend the thread (or wait for a stop) and retry
//	{"error":"thread_not_suspended","message":"...","retry":"...","retryable":true,...}
//
// The retry string is a plain-English instruction the LLM can follow directly.
func StructuredErrorResponse(code, message, retry string, opts ...func(*StructuredError)) json.RawMessage {
	se := StructuredError{Error: code, Message: message, Retry: retry}
	// Apply retryable defaults based on error code first, then user opts can override
	for _, defaultOpt := range RetryDefaultsForCode(code) {
		defaultOpt(&se)
	}
	for _, opt := range opts {
		opt(&se)
	}

	// Error impossible: StructuredError is a simple struct with no circular refs or unsupported types
	seJSON, _ := json.Marshal(se)
	text := fmt.Sprintf("Error: %s — %s\n%s", code, retry, string(seJSON))

	result := MCPToolResult{
		Content: []MCPContentBlock{{Type: "text", Text: text}},
		IsError: true,
	}
	return SafeMarshal(result, `{"content":[{"type":"text","text":"Internal error: failed to marshal result"}],"isError":true}`)
}

// FromBrokerError builds a StructuredErrorResponse directly from an
// *errs.Error, which is how every dispatcher tool handler reports a core
// failure back over the JSON-RPC channel.
func FromBrokerError(err *errs.Error, retry string) json.RawMessage {
	opts := make([]func(*StructuredError), 0, 1)
	for key, value := range err.Detail {
		if key == "param" {
			opts = append(opts, WithParam(value))
		}
	}
	return StructuredErrorResponse(string(err.Kind), err.Message, retry, opts...)
}

// WithParam is an option function to add param field to StructuredError.
func WithParam(p string) func(*StructuredError) {
	return func(se *StructuredError) { se.Param = p }
}

// WithHint is an option function to add hint field to StructuredError.
func WithHint(h string) func(*StructuredError) {
	return func(se *StructuredError) { se.Hint = h }
}

// WithRetryable marks whether the error is retryable by the LLM.
func WithRetryable(retryable bool) func(*StructuredError) {
	return func(se *StructuredError) { se.Retryable = retryable }
}

// WithRetryAfterMs sets the suggested delay before retrying (milliseconds).
func WithRetryAfterMs(ms int) func(*StructuredError) {
	return func(se *StructuredError) { se.RetryAfterMs = ms }
}

// WithFinal marks a structured error as terminal/non-terminal for async command flows.
func WithFinal(final bool) func(*StructuredError) {
	return func(se *StructuredError) { se.Final = final }
}

// RetryDefaultsForCode returns option functions that set retryable and
// retry_after_ms based on the error code: Timeout and ThreadNotSuspended
// are retryable (the thread may suspend shortly after, or the wait simply
// expired), as is anything rate-limited; every other code requires the
// caller to change its input or connection state first.
func RetryDefaultsForCode(code string) []func(*StructuredError) {
	switch code {
	case ErrTimeout:
		return []func(*StructuredError){WithRetryable(true), WithRetryAfterMs(500)}
	case ErrThreadNotSuspended:
		return []func(*StructuredError){WithRetryable(true), WithRetryAfterMs(200)}
	case ErrRateLimited:
		return []func(*StructuredError){WithRetryable(true), WithRetryAfterMs(1000)}
	default:
		return []func(*StructuredError){WithRetryable(false)}
	}
}
