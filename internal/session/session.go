// Package session implements the Debug Session: the
// lifecycle, event pump, and stop/wait synchroniser that is the heart of
// the broker. Follows a subprocess bridge/spawn pattern with dedicated
// stdout/stderr drain goroutines, retargeted from respawning its own
// binary to launching an arbitrary debuggee and dialing its debug port.
package session

import (
	"context"
	"fmt"
	"io"
	"net"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/bpspec"
	"github.com/dev-console/debugctl/internal/breakpoints"
	"github.com/dev-console/debugctl/internal/bridge"
	"github.com/dev-console/debugctl/internal/errs"
	"github.com/dev-console/debugctl/internal/eventmon"
	"github.com/dev-console/debugctl/internal/resolvecache"
	"github.com/dev-console/debugctl/internal/stopreason"
	"github.com/dev-console/debugctl/internal/util"
)

// ConnectionKind classifies how the current target was obtained.
type ConnectionKind string

const (
	ConnNone         ConnectionKind = "NONE"
	ConnLaunch       ConnectionKind = "LAUNCH"
	ConnAttachSocket ConnectionKind = "ATTACH_SOCKET"
	ConnAttachPid    ConnectionKind = "ATTACH_PID"
)

// State is a snapshot of SessionState.
type State struct {
	Connection     ConnectionKind
	Detail         string
	ConnectedAtMs  int64
	LastStopReason stopreason.StopReason
	// SessionID is a uuid v4 minted once per successful connect, used only
	// as a log/metric correlation key — never part of the bp-N/wa-N/...
	// identifier contract.
	SessionID string
}

// Metrics receives lifecycle observations; nil-safe no-op when unset, so
// the core never depends on the concrete prometheus registry.
type Metrics interface {
	ObserveStopEvent(kind stopreason.Kind)
	SetPendingBreakpoints(kind string, n int)
	IncCapturedEventsDropped()
}

type noopMetrics struct{}

func (noopMetrics) ObserveStopEvent(stopreason.Kind)    {}
func (noopMetrics) SetPendingBreakpoints(string, int)   {}
func (noopMetrics) IncCapturedEventsDropped()           {}

// Clock lets tests control time; production uses realClock.
type Clock func() int64

func realClock() int64 { return time.Now().UnixMilli() }

// Session is the debug session: exactly one target at a time.
type Session struct {
	log     *zap.Logger
	adapter adapter.Adapter
	clock   Clock
	metrics Metrics

	Lines      *breakpoints.LineRegistry
	Watches    *breakpoints.WatchpointRegistry
	Methods    *breakpoints.MethodBreakRegistry
	Exceptions *breakpoints.ExceptionRegistry
	Events     *eventmon.Store
	Cache      *resolvecache.Cache

	mu     sync.Mutex
	target adapter.Target
	state  State
	proc   *exec.Cmd

	stopMu   sync.Mutex
	stopCond *sync.Cond
	stopped  stopreason.StopReason

	pumpCancel context.CancelFunc
	pumpGroup  *errgroup.Group

	classPrepareHandle adapter.RequestHandle
}

// New builds a disconnected session.
func New(log *zap.Logger, a adapter.Adapter, metrics Metrics) *Session {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	cache := resolvecache.New()
	s := &Session{
		log:        log,
		adapter:    a,
		clock:      realClock,
		metrics:    metrics,
		Lines:      breakpoints.NewLineRegistry(cache),
		Watches:    breakpoints.NewWatchpointRegistry(cache),
		Methods:    breakpoints.NewMethodBreakRegistry(cache),
		Exceptions: breakpoints.NewExceptionRegistry(cache),
		Events:     eventmon.New(),
		Cache:      cache,
		state:      State{Connection: ConnNone},
		stopped:    stopreason.NoneReason(),
	}
	s.stopCond = sync.NewCond(&s.stopMu)
	s.wireClassPrepare()
	return s
}

// wireClassPrepare lets each deferrable registry arm a shared class-prepare
// watch exactly once, the first time it gets a pending record.
func (s *Session) wireClassPrepare() {
	arm := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.classPrepareHandle != nil || s.target == nil {
			return nil
		}
		h, err := s.adapter.CreateClassPrepareWatch(s.target, "")
		if err != nil {
			return err
		}
		_ = h.SetSuspendPolicy(adapter.SuspendNone)
		_ = h.Enable()
		s.classPrepareHandle = h
		return nil
	}
	s.Lines.ArmClassPrepare = arm
	s.Watches.ArmClassPrepare = arm
	s.Methods.ArmClassPrepare = arm
}

// State returns a snapshot of the session's connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.LastStopReason = s.currentStopReason()
	return st
}

func (s *Session) isConnectedLocked() bool { return s.state.Connection != ConnNone }

// Launch spawns a debuggee subprocess and connects to it.
func (s *Session) Launch(ctx context.Context, main string, classpath, jvmArgs []string, suspendOnStart bool) error {
	s.mu.Lock()
	if s.isConnectedLocked() {
		s.mu.Unlock()
		return errs.New(errs.AlreadyConnected, "a debug session is already active")
	}
	s.mu.Unlock()

	port, err := freePort()
	if err != nil {
		return errs.New(errs.PortUnavailable, "no free local port: %v", err)
	}

	args := append([]string{fmt.Sprintf("-agentlib:jdwp=transport=dt_socket,server=y,suspend=%s,address=127.0.0.1:%d",
		boolYN(suspendOnStart), port)}, jvmArgs...)
	if len(classpath) > 0 {
		args = append(args, "-cp", strings.Join(classpath, ":"))
	}
	args = append(args, main)

	cmd := exec.CommandContext(ctx, "java", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errs.New(errs.LaunchError, "stdout pipe: %v", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errs.New(errs.LaunchError, "stderr pipe: %v", err)
	}
	if err := cmd.Start(); err != nil {
		return errs.New(errs.LaunchError, "spawn failed: %v", err)
	}
	util.SafeGo(func() { drain(stdout) })
	util.SafeGo(func() { drain(stderr) })

	if err := waitForPort("127.0.0.1", port, 10*time.Second); err != nil {
		_ = cmd.Process.Kill()
		return errs.New(errs.LaunchError, "debuggee never opened its debug port: %v", err)
	}

	target, err := s.adapter.ConnectSocket(ctx, "127.0.0.1", port)
	if err != nil {
		_ = cmd.Process.Kill()
		return errs.New(errs.ConnectError, "connect after launch failed: %v", err)
	}

	s.mu.Lock()
	s.target = target
	s.proc = cmd
	s.state = State{Connection: ConnLaunch, Detail: fmt.Sprintf("launch:%s", main), ConnectedAtMs: s.clock(), SessionID: uuid.NewString()}
	s.mu.Unlock()

	s.startPump()
	return nil
}

// AttachSocket connects to an already-listening debug port.
func (s *Session) AttachSocket(ctx context.Context, host string, port int) error {
	s.mu.Lock()
	if s.isConnectedLocked() {
		s.mu.Unlock()
		return errs.New(errs.AlreadyConnected, "a debug session is already active")
	}
	s.mu.Unlock()

	target, err := s.adapter.ConnectSocket(ctx, host, port)
	if err != nil {
		if bridge.IsConnectionError(err) {
			return errs.New(errs.PortUnavailable, "nothing is listening on %s:%d: %v", host, port, err)
		}
		return errs.New(errs.ConnectError, "attach to %s:%d failed: %v", host, port, err)
	}
	s.mu.Lock()
	s.target = target
	s.state = State{Connection: ConnAttachSocket, Detail: fmt.Sprintf("%s:%d", host, port), ConnectedAtMs: s.clock(), SessionID: uuid.NewString()}
	s.mu.Unlock()
	s.startPump()
	return nil
}

// AttachPid connects to a local process by pid.
func (s *Session) AttachPid(ctx context.Context, pid int) error {
	s.mu.Lock()
	if s.isConnectedLocked() {
		s.mu.Unlock()
		return errs.New(errs.AlreadyConnected, "a debug session is already active")
	}
	s.mu.Unlock()

	target, err := s.adapter.ConnectPid(ctx, pid)
	if err != nil {
		return errs.New(errs.ConnectError, "attach to pid %d failed: %v", pid, err)
	}
	s.mu.Lock()
	s.target = target
	s.state = State{Connection: ConnAttachPid, Detail: fmt.Sprintf("pid:%d", pid), ConnectedAtMs: s.clock(), SessionID: uuid.NewString()}
	s.mu.Unlock()
	s.startPump()
	return nil
}

// Disconnect tears the session down; idempotent.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if !s.isConnectedLocked() {
		s.mu.Unlock()
		return
	}
	target := s.target
	proc := s.proc
	cancel := s.pumpCancel
	group := s.pumpGroup
	s.target = nil
	s.proc = nil
	s.pumpCancel = nil
	s.pumpGroup = nil
	s.classPrepareHandle = nil
	s.state = State{Connection: ConnNone}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if group != nil {
		_ = group.Wait()
	}
	if target != nil {
		func() {
			defer func() { _ = recover() }()
			s.adapter.Disconnect(target)
		}()
	}
	if proc != nil && proc.Process != nil {
		_ = proc.Process.Kill()
	}

	s.Lines.ClearAll()
	s.Watches.ClearAll()
	s.Methods.ClearAll()
	s.Exceptions.ClearAll()
	s.Events.Reset()
	s.clearStopReason()
}

// Suspend suspends the whole target and records a user-suspend stop reason
// (the `suspend` tool call is one of the two sources of
// UserSuspendReason, alongside thread_suspend via MarkUserSuspend).
func (s *Session) Suspend() error {
	target, err := s.Target()
	if err != nil {
		return err
	}
	if err := s.adapter.SuspendTarget(target); err != nil {
		return err
	}
	s.setStopReason(stopreason.UserSuspendReason(s.clock()))
	return nil
}

// MarkUserSuspend records a user-suspend stop reason for a caller (the
// thread_suspend tool) that already performed the adapter-level suspend
// itself.
func (s *Session) MarkUserSuspend() {
	s.setStopReason(stopreason.UserSuspendReason(s.clock()))
}

// Target returns the active target, or an error if none.
func (s *Session) Target() (adapter.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return nil, errs.New(errs.NotConnected, "no active debug session")
	}
	return s.target, nil
}

// Adapter exposes the bound adapter for tool handlers.
func (s *Session) Adapter() adapter.Adapter { return s.adapter }

// LineSetter adapts the session's active target and line registry to
// bpspec.Setter, so the breakpoint-spec watcher can drive
// breakpoint_set/remove without importing session or adapter itself.
func (s *Session) LineSetter() bpspec.Setter { return lineSetter{s} }

type lineSetter struct{ s *Session }

func (l lineSetter) Set(className string, line int) (string, error) {
	target, err := l.s.Target()
	if err != nil {
		return "", err
	}
	rec, err := l.s.Lines.Set(l.s.adapter, target, className, line)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (l lineSetter) Remove(id string) error { return l.s.Lines.Remove(id) }

func freePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}

func waitForPort(host string, port int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	addr := fmt.Sprintf("%s:%d", host, port)
	var lastErr error
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		lastErr = err
		time.Sleep(50 * time.Millisecond)
	}
	return lastErr
}

func drain(r io.Reader) {
	buf := make([]byte, 4096)
	for {
		if _, err := r.Read(buf); err != nil {
			return
		}
	}
}

func boolYN(b bool) string {
	if b {
		return "y"
	}
	return "n"
}
