package tools

import (
	"encoding/json"

	"github.com/dev-console/debugctl/internal/mcp"
)

type classFilterArgs struct {
	Filter string `json:"filter,omitempty"`
}

// classPrepareWatch/classUnloadWatch arm a monitoring (non-suspending)
// class-lifecycle watch, optionally scoped to a class-name filter.
func (c *Controller) classPrepareWatch(args json.RawMessage) json.RawMessage {
	var p classFilterArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	target, err := c.Sess.Target()
	if err != nil {
		return errorResult(err)
	}
	id, err := c.Sess.Events.SubscribeClassPrepare(c.Sess.Adapter(), target, p.Filter)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("class prepare watch armed", map[string]any{"id": id})
}

func (c *Controller) classUnloadWatch(args json.RawMessage) json.RawMessage {
	var p classFilterArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	target, err := c.Sess.Target()
	if err != nil {
		return errorResult(err)
	}
	id, err := c.Sess.Events.SubscribeClassUnload(c.Sess.Adapter(), target, p.Filter)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("class unload watch armed", map[string]any{"id": id})
}

// threadStartWatch/threadDeathWatch/monitorContentionWatch arm global,
// unfiltered monitoring watches.
func (c *Controller) threadStartWatch(json.RawMessage) json.RawMessage {
	target, err := c.Sess.Target()
	if err != nil {
		return errorResult(err)
	}
	id, err := c.Sess.Events.SubscribeThreadStart(c.Sess.Adapter(), target)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("thread start watch armed", map[string]any{"id": id})
}

func (c *Controller) threadDeathWatch(json.RawMessage) json.RawMessage {
	target, err := c.Sess.Target()
	if err != nil {
		return errorResult(err)
	}
	id, err := c.Sess.Events.SubscribeThreadDeath(c.Sess.Adapter(), target)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("thread death watch armed", map[string]any{"id": id})
}

func (c *Controller) monitorContentionWatch(json.RawMessage) json.RawMessage {
	target, err := c.Sess.Target()
	if err != nil {
		return errorResult(err)
	}
	id, err := c.Sess.Events.SubscribeMonitorContend(c.Sess.Adapter(), target)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("monitor contention watch armed", map[string]any{"id": id})
}

type eventsPendingArgs struct {
	Peek bool `json:"peek,omitempty"`
}

// eventsPending drains (or, with peek=true, snapshots) the captured-event
// FIFO.
func (c *Controller) eventsPending(args json.RawMessage) json.RawMessage {
	var p eventsPendingArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	var events []mcpCapturedEvent
	if p.Peek {
		for _, e := range c.Sess.Events.PeekPending() {
			events = append(events, mcpCapturedEvent{Kind: string(e.Kind), TimestampMs: e.TimestampMs, Detail: e.Detail})
		}
	} else {
		for _, e := range c.Sess.Events.GetPending() {
			events = append(events, mcpCapturedEvent{Kind: string(e.Kind), TimestampMs: e.TimestampMs, Detail: e.Detail})
		}
	}
	return mcp.JSONResponse("pending events", map[string]any{"events": events})
}

// mcpCapturedEvent is the wire shape of one eventmon.CapturedEvent.
type mcpCapturedEvent struct {
	Kind        string            `json:"kind"`
	TimestampMs int64             `json:"timestampMs"`
	Detail      map[string]string `json:"detail,omitempty"`
}

// eventWatchRemove deletes a subscription by id, any of the six kinds.
func (c *Controller) eventWatchRemove(args json.RawMessage) json.RawMessage {
	var p idArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ID == "" {
		return missingParam("id")
	}
	if err := c.Sess.Events.Remove(p.ID); err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("event watch removed", map[string]any{"id": p.ID})
}
