package tools

import (
	"encoding/json"

	"github.com/dev-console/debugctl/internal/breakpoints"
	"github.com/dev-console/debugctl/internal/mcp"
)

func renderWatchpointRecord(r breakpoints.WatchpointRecord) map[string]any {
	return map[string]any{
		"id":        r.ID,
		"kind":      string(r.Kind),
		"className": r.ClassName,
		"field":     r.Field,
		"enabled":   r.Enabled,
		"pending":   r.Pending,
	}
}

type fieldWatchArgs struct {
	ClassName string `json:"className"`
	FieldName string `json:"fieldName"`
}

// watchpointAccess/watchpointModification create a field watchpoint of the
// matching kind.
func (c *Controller) watchpointAccess(args json.RawMessage) json.RawMessage {
	return c.setWatchpoint(args, breakpoints.WatchAccess)
}

func (c *Controller) watchpointModification(args json.RawMessage) json.RawMessage {
	return c.setWatchpoint(args, breakpoints.WatchModify)
}

func (c *Controller) setWatchpoint(args json.RawMessage, kind breakpoints.WatchKind) json.RawMessage {
	var p fieldWatchArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ClassName == "" {
		return missingParam("className")
	}
	if p.FieldName == "" {
		return missingParam("fieldName")
	}
	target, err := c.Sess.Target()
	if err != nil {
		return errorResult(err)
	}
	rec, err := c.Sess.Watches.Set(c.Sess.Adapter(), target, kind, p.ClassName, p.FieldName)
	if err != nil {
		return errorResult(err)
	}
	c.Sess.RefreshPendingMetrics()
	return mcp.JSONResponse("watchpoint set", renderWatchpointRecord(*rec))
}

// watchpointRemove deletes a field watchpoint by id.
func (c *Controller) watchpointRemove(args json.RawMessage) json.RawMessage {
	var p idArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ID == "" {
		return missingParam("id")
	}
	if err := c.Sess.Watches.Remove(p.ID); err != nil {
		return errorResult(err)
	}
	c.Sess.RefreshPendingMetrics()
	return mcp.JSONResponse("watchpoint removed", map[string]any{"id": p.ID})
}

// watchpointList lists every field watchpoint, both kinds.
func (c *Controller) watchpointList(json.RawMessage) json.RawMessage {
	recs := c.Sess.Watches.List()
	out := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		out = append(out, renderWatchpointRecord(r))
	}
	return mcp.JSONResponse("watchpoints", map[string]any{"watchpoints": out})
}
