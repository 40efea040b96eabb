package tools

import (
	"encoding/json"

	"github.com/dev-console/debugctl/internal/breakpoints"
	"github.com/dev-console/debugctl/internal/mcp"
)

func renderLineRecord(r breakpoints.LineRecord) map[string]any {
	return map[string]any{
		"id":        r.ID,
		"className": r.ClassName,
		"line":      r.Line,
		"enabled":   r.Enabled,
		"pending":   r.Pending,
		"hitCount":  r.HitCount,
	}
}

type lineBreakpointArgs struct {
	ClassName string `json:"className"`
	LineNumber int   `json:"lineNumber"`
}

// breakpointSet creates or resolves a line breakpoint.
func (c *Controller) breakpointSet(args json.RawMessage) json.RawMessage {
	var p lineBreakpointArgs
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
	rec, err := c.Sess.Lines.Set(c.Sess.Adapter(), target, p.ClassName, p.LineNumber)
	if err != nil {
		return errorResult(err)
	}
	c.Sess.RefreshPendingMetrics()
	return mcp.JSONResponse("breakpoint set", renderLineRecord(*rec))
}

type idArgs struct {
	ID string `json:"id"`
}

// breakpointRemove deletes a line breakpoint by id.
func (c *Controller) breakpointRemove(args json.RawMessage) json.RawMessage {
	var p idArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ID == "" {
		return missingParam("id")
	}
	if err := c.Sess.Lines.Remove(p.ID); err != nil {
		return errorResult(err)
	}
	c.Sess.RefreshPendingMetrics()
	return mcp.JSONResponse("breakpoint removed", map[string]any{"id": p.ID})
}

// breakpointList lists every line breakpoint.
func (c *Controller) breakpointList(json.RawMessage) json.RawMessage {
	recs := c.Sess.Lines.List()
	out := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		out = append(out, renderLineRecord(r))
	}
	return mcp.JSONResponse("breakpoints", map[string]any{"breakpoints": out})
}

// breakpointEnable/breakpointDisable set a line breakpoint's enabled state.
func (c *Controller) breakpointEnable(args json.RawMessage) json.RawMessage {
	var p idArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ID == "" {
		return missingParam("id")
	}
	if err := c.Sess.Lines.SetEnabled(p.ID, true); err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("breakpoint enabled", map[string]any{"id": p.ID, "enabled": true})
}

func (c *Controller) breakpointDisable(args json.RawMessage) json.RawMessage {
	var p idArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ID == "" {
		return missingParam("id")
	}
	if err := c.Sess.Lines.SetEnabled(p.ID, false); err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("breakpoint disabled", map[string]any{"id": p.ID, "enabled": false})
}
