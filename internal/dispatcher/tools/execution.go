package tools

import (
	"encoding/json"

	"github.com/dev-console/debugctl/internal/errs"
	"github.com/dev-console/debugctl/internal/mcp"
)

// resume resumes the whole target.
func (c *Controller) resume(json.RawMessage) json.RawMessage {
	if err := c.Sess.Resume(); err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("resumed", map[string]any{"ok": true})
}

// suspend suspends the whole target and records a user-suspend stop reason.
func (c *Controller) suspend(json.RawMessage) json.RawMessage {
	if err := c.Sess.Suspend(); err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("suspended", map[string]any{"ok": true})
}

type threadIDArgs struct {
	ThreadID uint64 `json:"threadId"`
}

func parseThreadIDArgs(args json.RawMessage) (uint64, error) {
	var p threadIDArgs
	if err := decodeArgs(args, &p); err != nil {
		return 0, err
	}
	if p.ThreadID == 0 {
		return 0, errs.New(errs.ThreadNotFound, "missing required parameter \"threadId\"")
	}
	return p.ThreadID, nil
}

// stepInto/stepOver/stepOut single-step a suspended thread.
func (c *Controller) stepInto(args json.RawMessage) json.RawMessage {
	threadID, err := parseThreadIDArgs(args)
	if err != nil {
		return errorResult(err)
	}
	if err := c.Ops.StepInto(threadID); err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("stepping", map[string]any{"threadId": threadID, "direction": "INTO"})
}

func (c *Controller) stepOver(args json.RawMessage) json.RawMessage {
	threadID, err := parseThreadIDArgs(args)
	if err != nil {
		return errorResult(err)
	}
	if err := c.Ops.StepOver(threadID); err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("stepping", map[string]any{"threadId": threadID, "direction": "OVER"})
}

func (c *Controller) stepOut(args json.RawMessage) json.RawMessage {
	threadID, err := parseThreadIDArgs(args)
	if err != nil {
		return errorResult(err)
	}
	if err := c.Ops.StepOut(threadID); err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("stepping", map[string]any{"threadId": threadID, "direction": "OUT"})
}

type waitForStopArgs struct {
	TimeoutMs int `json:"timeoutMs,omitempty"`
}

// waitForStop blocks until the next stop or timeoutMs elapses (default
// 30s, max 300s).
func (c *Controller) waitForStop(args json.RawMessage) json.RawMessage {
	p := waitForStopArgs{TimeoutMs: 30000}
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.TimeoutMs > 300000 {
		p.TimeoutMs = 300000
	}
	start := c.Clock()
	reason := c.Sess.WaitForStop(p.TimeoutMs)
	waitedMs := c.Clock() - start
	result := renderStopReason(reason)
	result["waitedMs"] = waitedMs
	return mcp.JSONResponse("wait result", result)
}

type runToLineArgs struct {
	ClassName string `json:"className"`
	LineNumber int   `json:"lineNumber"`
	TimeoutMs int    `json:"timeoutMs,omitempty"`
}

// runToLine is the composite set/resume/wait/remove op.
func (c *Controller) runToLine(args json.RawMessage) json.RawMessage {
	p := runToLineArgs{TimeoutMs: 30000}
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ClassName == "" {
		return missingParam("className")
	}
	result, err := c.Ops.RunToLine(p.ClassName, p.LineNumber, p.TimeoutMs)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("run to line result", map[string]any{
		"landed":      result.Landed,
		"stopKind":    result.StopKind,
		"atClassName": result.AtClassName,
		"atLine":      result.AtLine,
	})
}

type smartStepIntoArgs struct {
	ThreadID   uint64 `json:"threadId"`
	MethodName string `json:"methodName,omitempty"`
}

// smartStepInto either performs the step (methodName given) or lists
// plausibly-callable candidates from the current frame.
func (c *Controller) smartStepInto(args json.RawMessage) json.RawMessage {
	var p smartStepIntoArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ThreadID == 0 {
		return missingParam("threadId")
	}
	if p.MethodName != "" {
		thread, err := c.Ops.ResolveThread(p.ThreadID)
		if err != nil {
			return errorResult(err)
		}
		if err := c.Sess.SmartStepInto(thread); err != nil {
			return errorResult(err)
		}
		return mcp.JSONResponse("smart step into", map[string]any{"threadId": p.ThreadID, "steppingInto": p.MethodName})
	}

	fr, err := c.Ops.FrameByIndex(p.ThreadID, 0)
	if err != nil {
		return errorResult(err)
	}
	candidates, err := c.Sess.ListStepIntoCandidates(fr)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("smart step into candidates", map[string]any{"candidates": candidates})
}

type executionLocationArgs struct {
	ThreadID   uint64 `json:"threadId"`
	FrameIndex int    `json:"frameIndex,omitempty"`
}

// executionLocation reports the location of one frame of a suspended thread.
func (c *Controller) executionLocation(args json.RawMessage) json.RawMessage {
	var p executionLocationArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ThreadID == 0 {
		return missingParam("threadId")
	}
	fr, err := c.Ops.FrameByIndex(p.ThreadID, p.FrameIndex)
	if err != nil {
		return errorResult(err)
	}
	target, err := c.Sess.Target()
	if err != nil {
		return errorResult(err)
	}
	loc, err := c.Sess.Adapter().FrameLocation(target, fr)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("execution location", renderLocation(loc))
}
