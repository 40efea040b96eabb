package tools

import (
	"encoding/json"

	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/errs"
	"github.com/dev-console/debugctl/internal/mcp"
)

// threadsList reports every known thread and its suspend state.
func (c *Controller) threadsList(json.RawMessage) json.RawMessage {
	threads, err := c.Ops.Threads()
	if err != nil {
		return errorResult(err)
	}
	target, err := c.Sess.Target()
	if err != nil {
		return errorResult(err)
	}
	out := make([]map[string]any, 0, len(threads))
	for _, th := range threads {
		suspended, _ := c.Sess.Adapter().IsSuspended(target, th)
		out = append(out, map[string]any{
			"threadId":  th.ID(),
			"name":      th.Name(),
			"suspended": suspended,
		})
	}
	return mcp.JSONResponse("threads", map[string]any{"threads": out})
}

// threadSuspend/threadResume act on a single thread by id.
func (c *Controller) threadSuspend(args json.RawMessage) json.RawMessage {
	threadID, err := parseThreadIDArgs(args)
	if err != nil {
		return errorResult(err)
	}
	if err := c.Ops.SuspendThread(threadID); err != nil {
		return errorResult(err)
	}
	c.Sess.MarkUserSuspend()
	return mcp.JSONResponse("thread suspended", map[string]any{"threadId": threadID})
}

func (c *Controller) threadResume(args json.RawMessage) json.RawMessage {
	threadID, err := parseThreadIDArgs(args)
	if err != nil {
		return errorResult(err)
	}
	if err := c.Ops.ResumeThread(threadID); err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("thread resumed", map[string]any{"threadId": threadID})
}

// stackFrames lists every frame of a suspended thread, with frameId values
// usable by the variable/evaluation tools.
func (c *Controller) stackFrames(args json.RawMessage) json.RawMessage {
	threadID, err := parseThreadIDArgs(args)
	if err != nil {
		return errorResult(err)
	}
	frames, err := c.Ops.Frames(threadID)
	if err != nil {
		return errorResult(err)
	}
	target, err := c.Sess.Target()
	if err != nil {
		return errorResult(err)
	}
	out := make([]map[string]any, 0, len(frames))
	for i, fr := range frames {
		loc, err := c.Sess.Adapter().FrameLocation(target, fr)
		if err != nil {
			return errorResult(err)
		}
		row := renderLocation(loc)
		row["frameId"] = frameIDOf(threadID, i)
		row["index"] = i
		out = append(out, row)
	}
	return mcp.JSONResponse("stack frames", map[string]any{"frames": out})
}

type frameIDArgs struct {
	FrameID string `json:"frameId"`
}

func (c *Controller) resolveFrame(frameID string) (adapter.FrameRef, error) {
	threadID, index, err := parseFrameID(frameID)
	if err != nil {
		return nil, err
	}
	return c.Ops.FrameByIndex(threadID, index)
}

// variablesLocal/variablesArguments list a frame's visible locals or
// parameters.
func (c *Controller) variablesLocal(args json.RawMessage) json.RawMessage {
	var p frameIDArgs
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
	locals, err := c.Ops.Locals(fr)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("locals", map[string]any{"locals": renderValueMap(locals)})
}

func (c *Controller) variablesArguments(args json.RawMessage) json.RawMessage {
	var p frameIDArgs
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
	args2, err := c.Ops.Arguments(fr)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("arguments", map[string]any{"arguments": renderValueMap(args2)})
}

type variableInspectArgs struct {
	FrameID string `json:"frameId"`
	Name    string `json:"name"`
}

// variableInspect reports one named local's current value.
func (c *Controller) variableInspect(args json.RawMessage) json.RawMessage {
	var p variableInspectArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.FrameID == "" {
		return missingParam("frameId")
	}
	if p.Name == "" {
		return missingParam("name")
	}
	fr, err := c.resolveFrame(p.FrameID)
	if err != nil {
		return errorResult(err)
	}
	v, err := c.Ops.Variable(fr, p.Name)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("variable", renderValue(v))
}

// thisObject reports the receiver of an instance frame, if any.
func (c *Controller) thisObject(args json.RawMessage) json.RawMessage {
	var p frameIDArgs
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
	v, err := c.Ops.This(fr)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("this", renderValue(v))
}

type objectIDArgs struct {
	ObjectID string `json:"objectId"`
}

// objectFields enumerates every declared field of a heap object.
func (c *Controller) objectFields(args json.RawMessage) json.RawMessage {
	var p objectIDArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ObjectID == "" {
		return missingParam("objectId")
	}
	obj, err := c.resolveObject(p.ObjectID)
	if err != nil {
		return errorResult(err)
	}
	fields, err := c.Ops.ObjectFields(obj)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("object fields", map[string]any{"fields": renderValueMap(fields)})
}

type arrayElementsArgs struct {
	ObjectID   string `json:"objectId"`
	StartIndex int    `json:"startIndex,omitempty"`
	Count      int    `json:"count,omitempty"`
}

// arrayElements slices an array value (defaults: startIndex=0, count=20;
// startIndex==length is out of range, and a request that overruns the end
// is truncated rather than erroring).
func (c *Controller) arrayElements(args json.RawMessage) json.RawMessage {
	p := arrayElementsArgs{Count: 20}
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ObjectID == "" {
		return missingParam("objectId")
	}
	obj, err := c.resolveObject(p.ObjectID)
	if err != nil {
		return errorResult(err)
	}
	arr, ok := obj.(adapter.ArrayValue)
	if !ok {
		return errorResult(errs.New(errs.TypeMismatch, "%s is not an array", obj.TypeName()))
	}
	length := arr.Length()
	if p.StartIndex < 0 || p.StartIndex >= length {
		return errorResult(errs.New(errs.FrameOutOfRange, "start index %d out of range [0,%d)", p.StartIndex, length))
	}
	count := p.Count
	truncated := false
	if p.StartIndex+count > length {
		count = length - p.StartIndex
		truncated = true
	}
	elems, err := c.Ops.ArrayElements(arr, p.StartIndex, count)
	if err != nil {
		return errorResult(err)
	}
	out := make([]map[string]any, 0, len(elems))
	for _, v := range elems {
		out = append(out, renderValue(v))
	}
	return mcp.JSONResponse("array elements", map[string]any{
		"elements":   out,
		"length":     length,
		"startIndex": p.StartIndex,
		"truncated":  truncated,
	})
}

// asyncStackTrace groups suspended threads by recognised async-framework
// markers or name prefixes, a best-effort heuristic.
func (c *Controller) asyncStackTrace(json.RawMessage) json.RawMessage {
	groups, err := c.Sess.AsyncStackSummary()
	if err != nil {
		return errorResult(err)
	}
	out := make([]map[string]any, 0, len(groups))
	for _, g := range groups {
		out = append(out, map[string]any{"heuristic": g.Heuristic, "threads": g.Threads})
	}
	return mcp.JSONResponse("async stack trace", map[string]any{"groups": out})
}
