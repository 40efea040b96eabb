// Package eventmon implements the event-monitor subscription store:
// class-prepare/unload and thread-start/death and monitor-contend/wait
// subscriptions, each backed by a monitoring (non-suspending) adapter
// request, plus a bounded capture FIFO shared across all six kinds.
package eventmon

import (
	"sync"

	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/buffers"
	"github.com/dev-console/debugctl/internal/errs"
)

// Kind enumerates the six captured-event kinds.
type Kind string

const (
	ClassPrepare          Kind = "class_prepare"
	ClassUnload           Kind = "class_unload"
	ThreadStart           Kind = "thread_start"
	ThreadDeath           Kind = "thread_death"
	MonitorContend        Kind = "monitor_contend"
	MonitorWait           Kind = "monitor_wait"
)

// CapturedEvent is one entry in the capture FIFO.
type CapturedEvent struct {
	Kind        Kind
	TimestampMs int64
	Detail      map[string]string
}

const capacity = 100

// subscription is the stored state for one subscription id.
type subscription struct {
	kind   Kind
	filter string
	handle adapter.RequestHandle
}

// Store is the event-monitor registry.
type Store struct {
	mu            sync.Mutex
	counters      map[string]int // prefix -> next sequence number
	subs          map[string]*subscription
	buf           *buffers.RingBuffer[CapturedEvent]
	cursor        buffers.BufferCursor
}

// New builds an empty store.
func New() *Store {
	return &Store{
		counters: map[string]int{"cp-": 0, "cu-": 0, "ts-": 0, "td-": 0, "mc-": 0},
		subs:     make(map[string]*subscription),
		buf:      buffers.NewRingBuffer[CapturedEvent](capacity),
	}
}

func (s *Store) nextID(prefix string) string {
	s.counters[prefix]++
	return prefix + itoa(s.counters[prefix])
}

// SubscribeClassPrepare arms a class-prepare watch (cp-N), optionally scoped
// to a class-name filter pattern.
func (s *Store) SubscribeClassPrepare(a adapter.Adapter, t adapter.Target, filter string) (string, error) {
	h, err := a.CreateClassPrepareWatch(t, filter)
	if err != nil {
		return "", err
	}
	return s.store("cp-", ClassPrepare, filter, h), nil
}

// SubscribeClassUnload arms a class-unload watch (cu-N).
func (s *Store) SubscribeClassUnload(a adapter.Adapter, t adapter.Target, filter string) (string, error) {
	h, err := a.CreateClassUnloadWatch(t, filter)
	if err != nil {
		return "", err
	}
	return s.store("cu-", ClassUnload, filter, h), nil
}

// SubscribeThreadStart arms a thread-start watch (ts-N).
func (s *Store) SubscribeThreadStart(a adapter.Adapter, t adapter.Target) (string, error) {
	h, err := a.CreateThreadStartWatch(t)
	if err != nil {
		return "", err
	}
	return s.store("ts-", ThreadStart, "", h), nil
}

// SubscribeThreadDeath arms a thread-death watch (td-N).
func (s *Store) SubscribeThreadDeath(a adapter.Adapter, t adapter.Target) (string, error) {
	h, err := a.CreateThreadDeathWatch(t)
	if err != nil {
		return "", err
	}
	return s.store("td-", ThreadDeath, "", h), nil
}

// SubscribeMonitorContend arms a monitor-contended-enter watch (mc-N).
func (s *Store) SubscribeMonitorContend(a adapter.Adapter, t adapter.Target) (string, error) {
	h, err := a.CreateMonitorContendWatch(t)
	if err != nil {
		return "", err
	}
	return s.store("mc-", MonitorContend, "", h), nil
}

func (s *Store) store(prefix string, kind Kind, filter string, h adapter.RequestHandle) string {
	_ = h.SetSuspendPolicy(adapter.SuspendNone)
	_ = h.Enable()
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID(prefix)
	s.subs[id] = &subscription{kind: kind, filter: filter, handle: h}
	return id
}

// Remove deletes a subscription's adapter handle and entry by id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return errs.New(errs.NotFound, "no event subscription %q", id)
	}
	_ = sub.handle.Delete()
	delete(s.subs, id)
	return nil
}

// List returns the ids and kinds of every live subscription.
func (s *Store) List() map[string]Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Kind, len(s.subs))
	for id, sub := range s.subs {
		out[id] = sub.kind
	}
	return out
}

// CaptureEvent classifies an adapter event into a captured-event kind and
// appends it to the FIFO; event kinds outside the six monitored kinds are
// ignored. dropped reports whether the FIFO was already at capacity, so an
// oldest entry was evicted to make room.
func (s *Store) CaptureEvent(ev adapter.Event, nowMs int64) (dropped bool) {
	var ce CapturedEvent
	ce.TimestampMs = nowMs
	switch ev.Kind {
	case adapter.EventClassPrepare:
		ce.Kind = ClassPrepare
		ce.Detail = map[string]string{"className": ev.ClassName}
	case adapter.EventClassUnload:
		ce.Kind = ClassUnload
		ce.Detail = map[string]string{"className": ev.ClassName}
	case adapter.EventThreadStart:
		ce.Kind = ThreadStart
		if ev.Thread != nil {
			ce.Detail = map[string]string{"threadName": ev.Thread.Name()}
		}
	case adapter.EventThreadDeath:
		ce.Kind = ThreadDeath
		if ev.Thread != nil {
			ce.Detail = map[string]string{"threadName": ev.Thread.Name()}
		}
	case adapter.EventMonitorContendedEnter:
		ce.Kind = MonitorContend
		if ev.Thread != nil {
			ce.Detail = map[string]string{"threadName": ev.Thread.Name()}
		}
	case adapter.EventMonitorWait:
		ce.Kind = MonitorWait
		if ev.Thread != nil {
			ce.Detail = map[string]string{"threadName": ev.Thread.Name()}
		}
	default:
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped = s.buf.Len() == s.buf.Cap()
	s.buf.WriteOne(ce)
	return dropped
}

// GetPending drains the FIFO: events returned here are not returned again
// by a later GetPending call.
func (s *Store) GetPending() []CapturedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, cursor := s.buf.ReadFrom(s.cursor)
	s.cursor = cursor
	return events
}

// PeekPending returns a snapshot of every event currently retained in the
// buffer without advancing the drain cursor.
func (s *Store) PeekPending() []CapturedEvent {
	return s.buf.ReadAll()
}

// Reset deletes every subscription's handle (best-effort) and clears the
// FIFO and cursor; called by the session on disconnect.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		_ = sub.handle.Delete()
	}
	s.subs = make(map[string]*subscription)
	s.buf.Clear()
	s.cursor = buffers.BufferCursor{}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
