// Package stopreason implements the immutable StopReason value: the
// broker's classification of the most recent suspension, used to wake
// wait_for_stop callers.
package stopreason

import (
	"github.com/dev-console/debugctl/internal/adapter"
)

// Kind enumerates the possible classifications of a stop.
type Kind string

const (
	None             Kind = "NONE"
	BreakpointHit    Kind = "BREAKPOINT_HIT"
	StepComplete     Kind = "STEP_COMPLETE"
	ExceptionThrown  Kind = "EXCEPTION_THROWN"
	WatchpointAccess Kind = "WATCHPOINT_ACCESS"
	WatchpointModify Kind = "WATCHPOINT_MODIFY"
	MethodEntry      Kind = "METHOD_ENTRY"
	MethodExit       Kind = "METHOD_EXIT"
	UserSuspend      Kind = "USER_SUSPEND"
	VMStart          Kind = "VM_START"
	VMDisconnect     Kind = "VM_DISCONNECT"
)

// detailEntry preserves insertion order for the detail map: a stop
// reason's detail needs an insertion-ordered string->string map (Go maps
// do not preserve order, so StopReason keeps parallel slices instead).
type detailEntry struct {
	Key, Value string
}

// StopReason is immutable once constructed: every field is set at
// construction time via one of the factory functions below.
type StopReason struct {
	Kind        Kind
	TimestampMs int64
	Thread      adapter.ThreadRef
	Location    adapter.Location
	HasLocation bool
	details     []detailEntry
}

// IsStopped reports whether the target is considered suspended.
func (s StopReason) IsStopped() bool { return s.Kind != None }

// Detail returns the value for key and whether it was present.
func (s StopReason) Detail(key string) (string, bool) {
	for _, e := range s.details {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Details returns the detail map as an ordered slice of key/value pairs.
func (s StopReason) Details() []struct{ Key, Value string } {
	out := make([]struct{ Key, Value string }, len(s.details))
	for i, e := range s.details {
		out[i] = struct{ Key, Value string }{e.Key, e.Value}
	}
	return out
}

// DetailMap returns the details as a plain map, for JSON encoding — callers
// that need ordering should use Details() instead.
func (s StopReason) DetailMap() map[string]string {
	m := make(map[string]string, len(s.details))
	for _, e := range s.details {
		m[e.Key] = e.Value
	}
	return m
}

func withDetail(s StopReason, key, value string) StopReason {
	s.details = append(append([]detailEntry(nil), s.details...), detailEntry{key, value})
	return s
}

// NoneReason builds the sentinel "not stopped" reason.
func NoneReason() StopReason {
	return StopReason{Kind: None}
}

// UserSuspendReason builds the reason for an explicit thread_suspend/suspend tool call.
func UserSuspendReason(nowMs int64) StopReason {
	return StopReason{Kind: UserSuspend, TimestampMs: nowMs}
}

// VMStartReason builds the reason for a VM_START event.
func VMStartReason(nowMs int64) StopReason {
	return StopReason{Kind: VMStart, TimestampMs: nowMs}
}

// VMDisconnectReason builds the terminal VM_DISCONNECT reason.
func VMDisconnectReason(nowMs int64) StopReason {
	return StopReason{Kind: VMDisconnect, TimestampMs: nowMs}
}

// BreakpointLookup resolves a location to a line-breakpoint id, used by
// FromEvent to attach "breakpointId" to the detail map.
type BreakpointLookup func(loc adapter.Location) (id string, ok bool)

// FromEvent classifies a single stop event into a StopReason. lookup supplies
// the line-breakpoint id attached to BREAKPOINT_HIT events.
func FromEvent(ev adapter.Event, nowMs int64, lookup BreakpointLookup) StopReason {
	s := StopReason{TimestampMs: nowMs, Thread: ev.Thread}
	if ev.HasLocation {
		s.Location = ev.Location
		s.HasLocation = true
	}

	switch ev.Kind {
	case adapter.EventBreakpoint:
		s.Kind = BreakpointHit
		if lookup != nil {
			if id, ok := lookup(ev.Location); ok {
				s = withDetail(s, "breakpointId", id)
			}
		}
	case adapter.EventStep:
		s.Kind = StepComplete
	case adapter.EventException:
		s.Kind = ExceptionThrown
		s = withDetail(s, "exceptionClass", ev.ExceptionType)
		if ev.Caught {
			s = withDetail(s, "caught", "true")
			if ev.HasCatchLocation {
				s = withDetail(s, "catchClass", ev.CatchLocation.TypeName)
				s = withDetail(s, "catchLine", itoa(ev.CatchLocation.Line))
			}
		} else {
			s = withDetail(s, "caught", "false")
		}
	case adapter.EventWatchpointAccess:
		s.Kind = WatchpointAccess
		s = withDetail(s, "field", ev.FieldName)
	case adapter.EventWatchpointModify:
		s.Kind = WatchpointModify
		s = withDetail(s, "field", ev.FieldName)
		s = withDetail(s, "newValue", ev.NewValueText)
	case adapter.EventMethodEntry:
		s.Kind = MethodEntry
	case adapter.EventMethodExit:
		s.Kind = MethodExit
	case adapter.EventVMStart:
		s.Kind = VMStart
	default:
		s.Kind = None
	}
	return s
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
