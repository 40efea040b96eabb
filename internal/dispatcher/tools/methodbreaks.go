package tools

import (
	"encoding/json"

	"github.com/dev-console/debugctl/internal/breakpoints"
	"github.com/dev-console/debugctl/internal/mcp"
)

func renderMethodBreakRecord(r breakpoints.MethodBreakRecord) map[string]any {
	return map[string]any{
		"id":        r.ID,
		"kind":      string(r.Kind),
		"className": r.ClassName,
		"enabled":   r.Enabled,
		"pending":   r.Pending,
	}
}

type methodBreakArgs struct {
	ClassName string `json:"className"`
}

// methodEntryBreak/methodExitBreak arm a type-scoped method breakpoint
// (fires for every method of the type).
func (c *Controller) methodEntryBreak(args json.RawMessage) json.RawMessage {
	return c.setMethodBreak(args, breakpoints.MethodEntry)
}

func (c *Controller) methodExitBreak(args json.RawMessage) json.RawMessage {
	return c.setMethodBreak(args, breakpoints.MethodExit)
}

func (c *Controller) setMethodBreak(args json.RawMessage, kind breakpoints.MethodEventKind) json.RawMessage {
	var p methodBreakArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ClassName == "" {
		return missingParam("className")
	}
	target, err := c.Sess.Target()
	if err != nil {
		return errorResult(err)
	}
	rec, err := c.Sess.Methods.Set(c.Sess.Adapter(), target, kind, p.ClassName)
	if err != nil {
		return errorResult(err)
	}
	c.Sess.RefreshPendingMetrics()
	return mcp.JSONResponse("method breakpoint set", renderMethodBreakRecord(*rec))
}

// methodBreakpointRemove deletes a method breakpoint by id, either kind.
func (c *Controller) methodBreakpointRemove(args json.RawMessage) json.RawMessage {
	var p idArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ID == "" {
		return missingParam("id")
	}
	if err := c.Sess.Methods.Remove(p.ID); err != nil {
		return errorResult(err)
	}
	c.Sess.RefreshPendingMetrics()
	return mcp.JSONResponse("method breakpoint removed", map[string]any{"id": p.ID})
}

// methodBreakpointList lists every method breakpoint, both kinds.
func (c *Controller) methodBreakpointList(json.RawMessage) json.RawMessage {
	recs := c.Sess.Methods.List()
	out := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		out = append(out, renderMethodBreakRecord(r))
	}
	return mcp.JSONResponse("method breakpoints", map[string]any{"methodBreakpoints": out})
}
