// Package tools implements the ~50 tool handler shims that
// marshal JSON arguments into calls against the core components (session,
// the four breakpoint/watchpoint registries, the event-monitor store, the
// expression evaluator, and the pending-thread operations) and format
// their results as MCP text-block results. One handler per tool name,
// rather than one handler per verb-group, since the debug-control surface
// has no verb/action sub-parameter.
package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/bpspec"
	"github.com/dev-console/debugctl/internal/errs"
	"github.com/dev-console/debugctl/internal/eval"
	"github.com/dev-console/debugctl/internal/mcp"
	"github.com/dev-console/debugctl/internal/session"
	"github.com/dev-console/debugctl/internal/stopreason"
	"github.com/dev-console/debugctl/internal/threadops"
	"github.com/dev-console/debugctl/internal/watch"
)

// Controller wires every core component a tool handler might need. One
// Controller is built per broker process ('s single top-level
// controller struct resolving the "process-wide singletons" design note);
// tests construct a fresh Controller per case.
type Controller struct {
	Log        *zap.Logger
	Sess       *session.Session
	Ops        *threadops.Ops
	WatchExprs *watch.Store
	Clock      func() int64
	// BpSpec, when set, is applied (and its fsnotify watch armed) after
	// every successful connect: a declarative starting set of line
	// breakpoints. Optional — nil when no --breakpoint-spec-file was given.
	BpSpec *bpspec.Watcher
}

// NewController builds a Controller with a real wall-clock.
func NewController(log *zap.Logger, sess *session.Session, ops *threadops.Ops, watchExprs *watch.Store) *Controller {
	return &Controller{
		Log:        log,
		Sess:       sess,
		Ops:        ops,
		WatchExprs: watchExprs,
		Clock:      func() int64 { return time.Now().UnixMilli() },
	}
}

// evaluator builds an expression evaluator bound to the active target,
// resolving @id literals through the thread-scan object lookup.
func (c *Controller) evaluator() (*eval.Evaluator, error) {
	target, err := c.Sess.Target()
	if err != nil {
		return nil, err
	}
	return eval.New(c.Sess.Adapter(), target, c.Sess.Cache, c.Ops.ObjectByID), nil
}

// applyBpSpec runs the breakpoint-spec file against a freshly
// connected target, logging (not failing the connect call) on error.
func (c *Controller) applyBpSpec() {
	if c.BpSpec == nil {
		return
	}
	if err := c.BpSpec.ApplyInitial(); err != nil {
		c.Log.Warn("breakpoint spec file apply failed", zap.Error(err))
		return
	}
	if _, err := c.BpSpec.Start(); err != nil {
		c.Log.Warn("breakpoint spec file watch failed", zap.Error(err))
	}
}

// --- JSON argument decoding ---

// decodeArgs unmarshals a tool call's arguments. Unrecognized top-level
// fields are logged to stderr (not rejected) so a misspelled parameter
// from the calling agent is visible instead of silently doing nothing.
func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return nil
	}
	warnings, err := mcp.UnmarshalWithWarnings(args, v)
	if err != nil {
		return errs.New(errs.InvalidExpression, "invalid arguments: %v", err)
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "[debugctl] %s\n", w)
	}
	return nil
}

func missingParam(name string) json.RawMessage {
	return mcp.StructuredErrorResponse(mcp.ErrMissingParam, fmt.Sprintf("missing required parameter %q", name), "Add the parameter and retry", mcp.WithParam(name))
}

// --- frame/object/thread identifier parsing ---

// parseFrameID splits a "threadId:frameIndex" handle into its parts.
func parseFrameID(s string) (threadID uint64, index int, err error) {
	before, after, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, errs.New(errs.InvalidExpression, "frameId %q is not of the form threadId:frameIndex", s)
	}
	threadID, err = strconv.ParseUint(before, 10, 64)
	if err != nil {
		return 0, 0, errs.New(errs.InvalidExpression, "frameId %q has a non-numeric thread id", s)
	}
	index64, err := strconv.Atoi(after)
	if err != nil {
		return 0, 0, errs.New(errs.InvalidExpression, "frameId %q has a non-numeric frame index", s)
	}
	return threadID, index64, nil
}

func frameIDOf(threadID uint64, index int) string {
	return fmt.Sprintf("%d:%d", threadID, index)
}

// parseObjectID accepts either "@123" (the evaluator/set_variable handle
// form) or a bare "123", so every tool that names an object by id shares
// one lenient parser.
func parseObjectID(s string) (uint64, error) {
	s = strings.TrimPrefix(s, "@")
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errs.New(errs.ObjectNotFound, "invalid object id %q", s)
	}
	return id, nil
}

func (c *Controller) resolveObject(idText string) (adapter.Value, error) {
	id, err := parseObjectID(idText)
	if err != nil {
		return nil, err
	}
	v, ok := c.Ops.ObjectByID(id)
	if !ok {
		return nil, errs.New(errs.ObjectNotFound, "no live object with id %d", id)
	}
	return v, nil
}

// --- result rendering ---

func renderValue(v adapter.Value) map[string]any {
	if v == nil {
		return map[string]any{"kind": "null"}
	}
	switch v.Kind() {
	case adapter.KindNull:
		return map[string]any{"kind": "null"}
	case adapter.KindPrimitive:
		return map[string]any{"kind": "primitive", "type": v.TypeName(), "text": v.Text()}
	case adapter.KindString:
		return map[string]any{"kind": "string", "text": v.Text()}
	case adapter.KindArray:
		av := v.(adapter.ArrayValue)
		return map[string]any{"kind": "array", "type": v.TypeName(), "length": av.Length()}
	case adapter.KindObject:
		ov := v.(adapter.ObjectValue)
		return map[string]any{"kind": "object", "type": v.TypeName(), "handle": fmt.Sprintf("@%d", ov.ObjectID())}
	default:
		return map[string]any{"kind": "unknown", "text": v.Text()}
	}
}

func renderValueMap(m map[string]adapter.Value) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = renderValue(v)
	}
	return out
}

func renderLocation(loc adapter.Location) map[string]any {
	return map[string]any{
		"className":  loc.TypeName,
		"methodName": loc.MethodName,
		"line":       loc.Line,
	}
}

func renderStopReason(r stopreason.StopReason) map[string]any {
	out := map[string]any{
		"stopped": r.IsStopped(),
		"kind":    string(r.Kind),
		"details": r.DetailMap(),
	}
	if r.HasLocation {
		out["location"] = renderLocation(r.Location)
	}
	return out
}

// --- error envelope ---

// retryHints gives the LLM-facing retry instruction per error kind, so
// error messages stay reliable enough for an agent to act on directly.
var retryHints = map[errs.Kind]string{
	errs.NotConnected:      "Call debug_launch/debug_attach_socket/debug_attach_pid first",
	errs.AlreadyConnected:  "Call debug_disconnect before starting a new session",
	errs.ThreadNotSuspended: "Suspend the thread (or wait for a stop) and retry",
	errs.ThreadNotFound:    "Call threads_list to find a live thread id",
	errs.FrameOutOfRange:   "Call stack_frames to see the valid frame range",
	errs.NativeFrame:       "Step from a frame with a source line instead",
	errs.ObjectNotFound:    "The object may have been collected; re-evaluate to get a fresh handle",
	errs.ClassNotFound:     "Wait for the class to load, or check the class name",
	errs.FieldNotFound:     "Check the field name against the class's declared fields",
	errs.MethodNotFound:    "Check the method name and argument count",
	errs.NoCodeAtLine:      "Pick a line with executable code",
	errs.InvalidExpression: "Fix the expression syntax and retry",
	errs.NullDereference:   "Guard against null before dereferencing",
	errs.OverloadAmbiguous: "Disambiguate by argument count or type",
	errs.TypeMismatch:      "Check the value's type against what the operation expects",
	errs.ThrownException:   "Inspect the thrown exception before retrying",
	errs.CapabilityMissing: "This adapter does not support the requested operation",
	errs.Timeout:           "Retry, optionally with a longer timeout",
	errs.VmDisconnected:    "The target disconnected; reconnect with debug_launch/debug_attach_*",
	errs.Interrupted:       "Retry the operation",
	errs.RateLimited:       "Wait briefly before invoking another method",
	errs.NotFound:          "Call the matching *_list tool to see live ids",
	errs.PortUnavailable:   "Retry, or specify a different port",
	errs.LaunchError:       "Check the main class and classpath, then retry",
	errs.ConnectError:      "Check the host/port or pid and retry",
}

func retryHint(kind errs.Kind) string {
	if hint, ok := retryHints[kind]; ok {
		return hint
	}
	return "Check the error details and adjust the request"
}

// errorResult converts any error returned by a core component into the
// structured error envelope.
func errorResult(err error) json.RawMessage {
	var e *errs.Error
	if !errs.As(err, &e) {
		e = errs.New(errs.InternalError, "%v", err)
	}
	return mcp.FromBrokerError(e, retryHint(e.Kind))
}
