package tools

import (
	"encoding/json"

	"github.com/dev-console/debugctl/internal/mcp"
	"github.com/dev-console/debugctl/internal/watch"
)

func renderWatchExpression(e watch.Expression) map[string]any {
	row := map[string]any{
		"id":                e.ID,
		"expression":        e.Source,
		"lastEvaluatedAtMs": e.LastEvaluatedAtMs,
	}
	if e.HasLastValue {
		row["value"] = e.LastValueText
	}
	if e.HasLastError {
		row["error"] = e.LastErrorText
	}
	return row
}

type watchAddArgs struct {
	Expression string `json:"expression"`
}

// watchAdd registers a persistent watch expression.
func (c *Controller) watchAdd(args json.RawMessage) json.RawMessage {
	var p watchAddArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.Expression == "" {
		return missingParam("expression")
	}
	id := c.WatchExprs.Add(p.Expression)
	return mcp.JSONResponse("watch added", map[string]any{"id": id, "expression": p.Expression})
}

// watchRemove deletes a watch expression by id.
func (c *Controller) watchRemove(args json.RawMessage) json.RawMessage {
	var p idArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ID == "" {
		return missingParam("id")
	}
	if err := c.WatchExprs.Remove(p.ID); err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("watch removed", map[string]any{"id": p.ID})
}

// watchList lists every watch expression with its last evaluation, if any.
func (c *Controller) watchList(json.RawMessage) json.RawMessage {
	exprs := c.WatchExprs.List()
	out := make([]map[string]any, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, renderWatchExpression(e))
	}
	return mcp.JSONResponse("watch expressions", map[string]any{"watchExpressions": out})
}

type watchEvaluateAllArgs struct {
	FrameID string `json:"frameId"`
}

// watchEvaluateAll re-evaluates every watch expression against frameId,
// memoising value-or-error on each record.
func (c *Controller) watchEvaluateAll(args json.RawMessage) json.RawMessage {
	var p watchEvaluateAllArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.FrameID == "" {
		return missingParam("frameId")
	}
	fr, err := c.resolveFrame(p.FrameID)
	if err != nil {
		return errorResult(err)
	}
	ev, err := c.evaluator()
	if err != nil {
		return errorResult(err)
	}

	exprs := c.WatchExprs.List()
	out := make([]map[string]any, 0, len(exprs))
	for _, e := range exprs {
		now := c.Clock()
		v, evalErr := ev.Eval(fr, e.Source)
		if evalErr != nil {
			_ = c.WatchExprs.SetError(e.ID, evalErr.Error(), now)
		} else {
			_ = c.WatchExprs.SetValue(e.ID, v.Text(), now)
		}
		rec, _ := c.WatchExprs.Get(e.ID)
		out = append(out, renderWatchExpression(rec))
	}
	return mcp.JSONResponse("watch evaluation", map[string]any{"watchExpressions": out})
}
