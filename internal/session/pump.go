package session

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/stopreason"
)

const pumpPollTimeout = 100 * time.Millisecond

// RefreshPendingMetrics reports the current pending-record count per
// deferrable registry kind (gauge: debugctl_pending_breakpoints).
func (s *Session) RefreshPendingMetrics() {
	countPending := func(pendingFlags []bool) int {
		n := 0
		for _, p := range pendingFlags {
			if p {
				n++
			}
		}
		return n
	}

	lineRecs := s.Lines.List()
	linePending := make([]bool, len(lineRecs))
	for i, r := range lineRecs {
		linePending[i] = r.Pending
	}
	s.metrics.SetPendingBreakpoints("line", countPending(linePending))

	watchRecs := s.Watches.List()
	watchPending := make([]bool, len(watchRecs))
	for i, r := range watchRecs {
		watchPending[i] = r.Pending
	}
	s.metrics.SetPendingBreakpoints("watch", countPending(watchPending))

	methodRecs := s.Methods.List()
	methodPending := make([]bool, len(methodRecs))
	for i, r := range methodRecs {
		methodPending[i] = r.Pending
	}
	s.metrics.SetPendingBreakpoints("method", countPending(methodPending))
}

// startPump launches the single dedicated event-pump worker.
func (s *Session) startPump() {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	s.mu.Lock()
	s.pumpCancel = cancel
	s.pumpGroup = g
	s.mu.Unlock()

	g.Go(func() error {
		s.runPump(gctx)
		return nil
	})
}

func (s *Session) runPump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		target, err := s.Target()
		if err != nil {
			return
		}

		es, err := s.adapter.PullEvents(target, pumpPollTimeout)
		if err != nil {
			s.log.Warn("event pump: adapter disconnected", zap.Error(err))
			s.setStopReason(stopreason.VMDisconnectReason(s.clock()))
			return
		}
		if len(es.Events) == 0 {
			continue
		}
		s.handleEventSet(target, es)
	}
}

func (s *Session) handleEventSet(target adapter.Target, es adapter.EventSet) {
	now := s.clock()
	sawStop := false

	for _, ev := range es.Events {
		if ev.Kind.IsStopEvent() {
			sawStop = true
			reason := stopreason.FromEvent(ev, now, s.Lines.FindByLocation)
			s.metrics.ObserveStopEvent(reason.Kind)
			s.setStopReason(reason)
			if ev.Kind == adapter.EventStep && ev.RequestHandle != nil {
				_ = ev.RequestHandle.Delete()
			}
			continue
		}

		if dropped := s.Events.CaptureEvent(ev, now); dropped {
			s.metrics.IncCapturedEventsDropped()
		}

		switch ev.Kind {
		case adapter.EventClassPrepare:
			s.Lines.OnClassPrepare(s.adapter, target, ev.ClassName)
			s.Watches.OnClassPrepare(s.adapter, target, ev.ClassName)
			s.Methods.OnClassPrepare(s.adapter, target, ev.ClassName)
			s.RefreshPendingMetrics()
		case adapter.EventClassUnload:
			s.Cache.Invalidate(ev.ClassName)
		}
	}

	if !sawStop {
		_ = s.adapter.ResumeTarget(target)
	}
}

// --- Stop / wait primitive  ---

func (s *Session) currentStopReason() stopreason.StopReason {
	s.stopMu.Lock()
	defer s.stopMu.Unlock()
	return s.stopped
}

func (s *Session) setStopReason(r stopreason.StopReason) {
	s.stopMu.Lock()
	s.stopped = r
	s.stopCond.Broadcast()
	s.stopMu.Unlock()
}

func (s *Session) clearStopReason() {
	s.stopMu.Lock()
	s.stopped = stopreason.NoneReason()
	s.stopMu.Unlock()
}

// ClearStopReasonForStep lets the thread-operations layer clear the stop
// reason before resuming a single stepped thread, mirroring the ordering
// guarantee Resume gives whole-target resumes.
func (s *Session) ClearStopReasonForStep() { s.clearStopReason() }

// WaitForStop blocks until a stop reason is available or timeoutMs elapses
// . sync.Cond has no timed wait, so each loop iteration races
// a broadcast against a timer on a private channel; the helper goroutine
// left behind by a losing timer is harmless; it exits on the next
// broadcast.
func (s *Session) WaitForStop(timeoutMs int) stopreason.StopReason {
	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)

	s.stopMu.Lock()
	defer s.stopMu.Unlock()

	for s.stopped.Kind == stopreason.None {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return stopreason.NoneReason()
		}

		woken := make(chan struct{})
		go func() {
			s.stopMu.Lock()
			s.stopCond.Wait()
			s.stopMu.Unlock()
			close(woken)
		}()

		s.stopMu.Unlock()
		timer := time.NewTimer(remaining)
		select {
		case <-woken:
		case <-timer.C:
		}
		timer.Stop()
		s.stopMu.Lock()
	}
	return s.stopped
}

// Resume clears the stop reason, then resumes the whole target — ordering
// guarantees a subsequent WaitForStop observes only the *next* stop.
func (s *Session) Resume() error {
	target, err := s.Target()
	if err != nil {
		return err
	}
	s.clearStopReason()
	return s.adapter.ResumeTarget(target)
}

// --- Smart step-into  ---

// SmartStepInto arms a step-INTO request on thread with a suspend-ALL
// policy, clears the stop reason, and resumes the thread. It applies no
// class-name or count filter, and it does not delete a step request already
// armed on the thread.
func (s *Session) SmartStepInto(thread adapter.ThreadRef) error {
	target, err := s.Target()
	if err != nil {
		return err
	}
	handle, err := s.adapter.CreateStep(target, thread, adapter.StepInto)
	if err != nil {
		return err
	}
	_ = handle.SetSuspendPolicy(adapter.SuspendAll)
	_ = handle.Enable()
	s.clearStopReason()
	return s.adapter.ResumeThread(target, thread)
}

// ListStepIntoCandidates enumerates plausibly-callable methods from the
// frame's declaring type and its visible-local types, deduplicated by
// "class.method" and truncated at 20.
func (s *Session) ListStepIntoCandidates(fr adapter.FrameRef) ([]string, error) {
	target, err := s.Target()
	if err != nil {
		return nil, err
	}
	loc, err := s.adapter.FrameLocation(target, fr)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []string
	add := func(className, methodName string) {
		key := className + "." + methodName
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, key)
	}

	if types, err := s.Cache.Resolve(s.adapter, target, loc.TypeName); err == nil {
		for _, typ := range types {
			if ms, err := s.adapter.MethodsByName(target, typ, ""); err == nil {
				for _, m := range ms {
					add(typ.Name(), m.Name())
				}
			}
		}
	}

	locals, err := s.adapter.VisibleLocals(target, fr)
	if err == nil {
		names := make([]string, 0, len(locals))
		for name := range locals {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			v := locals[name]
			if v.Kind() != adapter.KindObject {
				continue
			}
			if types, err := s.Cache.Resolve(s.adapter, target, v.TypeName()); err == nil {
				for _, typ := range types {
					if ms, err := s.adapter.MethodsByName(target, typ, ""); err == nil {
						for _, m := range ms {
							add(typ.Name(), m.Name())
						}
					}
				}
			}
		}
	}

	if len(out) > 20 {
		out = out[:20]
	}
	return out, nil
}

// --- Async stack summary  ---

// AsyncGroup is one cluster of suspended threads believed to share a
// logical asynchronous task.
type AsyncGroup struct {
	Heuristic string
	Threads   []string
}

var asyncMarkers = []string{"CompletableFuture", "kotlinx.coroutines", "reactor.core", "io.netty", "ForkJoinPool"}

// AsyncStackSummary groups suspended threads by name-prefix or recognised
// async-framework marker in their top frames. Read-only; no adapter state
// is mutated.
func (s *Session) AsyncStackSummary() ([]AsyncGroup, error) {
	target, err := s.Target()
	if err != nil {
		return nil, err
	}
	threads, err := s.adapter.AllThreads(target)
	if err != nil {
		return nil, err
	}

	byPrefix := make(map[string][]string)
	byMarker := make(map[string][]string)

	for _, th := range threads {
		suspended, err := s.adapter.IsSuspended(target, th)
		if err != nil || !suspended {
			continue
		}
		prefix := poolPrefix(th.Name())
		if prefix != "" {
			byPrefix[prefix] = append(byPrefix[prefix], th.Name())
		}

		frames, err := s.adapter.Frames(target, th)
		if err != nil {
			continue
		}
		limit := len(frames)
		if limit > 10 {
			limit = 10
		}
		for _, fr := range frames[:limit] {
			loc, err := s.adapter.FrameLocation(target, fr)
			if err != nil {
				continue
			}
			for _, marker := range asyncMarkers {
				if strings.Contains(loc.TypeName, marker) {
					byMarker[marker] = append(byMarker[marker], th.Name())
					break
				}
			}
		}
	}

	var groups []AsyncGroup
	for prefix, names := range byPrefix {
		if len(names) > 1 {
			groups = append(groups, AsyncGroup{Heuristic: "pool-prefix:" + prefix, Threads: names})
		}
	}
	for marker, names := range byMarker {
		groups = append(groups, AsyncGroup{Heuristic: "framework-marker:" + marker, Threads: names})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Heuristic < groups[j].Heuristic })
	return groups, nil
}

// poolPrefix extracts a shared thread-pool name prefix (text before the
// last "-N" numeric suffix), e.g. "pool-3-thread-7" -> "pool-3-thread".
func poolPrefix(name string) string {
	idx := strings.LastIndex(name, "-")
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}
	suffix := name[idx+1:]
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return name[:idx]
}
