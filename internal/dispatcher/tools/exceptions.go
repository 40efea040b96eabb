package tools

import (
	"encoding/json"

	"github.com/dev-console/debugctl/internal/breakpoints"
	"github.com/dev-console/debugctl/internal/errs"
	"github.com/dev-console/debugctl/internal/mcp"
)

func renderExceptionRecord(r breakpoints.ExceptionRecord) map[string]any {
	return map[string]any{
		"id":            r.ID,
		"className":     r.ClassName,
		"catchCaught":   r.CatchCaught,
		"catchUncaught": r.CatchUncaught,
		"enabled":       r.Enabled,
	}
}

type exceptionBreakArgs struct {
	ClassName     string `json:"className"`
	CatchCaught   bool   `json:"catchCaught,omitempty"`
	CatchUncaught bool   `json:"catchUncaught,omitempty"`
}

// exceptionBreakOn arms an exception breakpoint on className (—
// never defers, since Throwable and its subclasses are always loaded).
func (c *Controller) exceptionBreakOn(args json.RawMessage) json.RawMessage {
	var p exceptionBreakArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ClassName == "" {
		return missingParam("className")
	}
	if !p.CatchCaught && !p.CatchUncaught {
		p.CatchCaught, p.CatchUncaught = true, true
	}
	target, err := c.Sess.Target()
	if err != nil {
		return errorResult(err)
	}
	rec, err := c.Sess.Exceptions.Set(c.Sess.Adapter(), target, p.ClassName, p.CatchCaught, p.CatchUncaught)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("exception breakpoint set", renderExceptionRecord(*rec))
}

// exceptionBreakRemove deletes an exception breakpoint by id.
func (c *Controller) exceptionBreakRemove(args json.RawMessage) json.RawMessage {
	var p idArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ID == "" {
		return missingParam("id")
	}
	if err := c.Sess.Exceptions.Remove(p.ID); err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("exception breakpoint removed", map[string]any{"id": p.ID})
}

// exceptionBreakList lists every exception breakpoint.
func (c *Controller) exceptionBreakList(json.RawMessage) json.RawMessage {
	recs := c.Sess.Exceptions.List()
	out := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		out = append(out, renderExceptionRecord(r))
	}
	return mcp.JSONResponse("exception breakpoints", map[string]any{"exceptionBreakpoints": out})
}

// exceptionInfo reports the full detail of a single exception breakpoint,
// distinct from the list operation's summary rows.
func (c *Controller) exceptionInfo(args json.RawMessage) json.RawMessage {
	var p idArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ID == "" {
		return missingParam("id")
	}
	rec, ok := c.Sess.Exceptions.Get(p.ID)
	if !ok {
		return errorResult(errs.New(errs.NotFound, "no exception breakpoint %q", p.ID))
	}
	return mcp.JSONResponse("exception breakpoint info", renderExceptionRecord(rec))
}
