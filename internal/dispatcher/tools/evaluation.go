package tools

import (
	"encoding/json"

	"github.com/dev-console/debugctl/internal/mcp"
)

type evaluateExpressionArgs struct {
	FrameID    string `json:"frameId"`
	Expression string `json:"expression"`
}

// evaluateExpression evaluates a narrow-grammar expression against a
// suspended frame.
func (c *Controller) evaluateExpression(args json.RawMessage) json.RawMessage {
	var p evaluateExpressionArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.FrameID == "" {
		return missingParam("frameId")
	}
	if p.Expression == "" {
		return missingParam("expression")
	}
	fr, err := c.resolveFrame(p.FrameID)
	if err != nil {
		return errorResult(err)
	}
	ev, err := c.evaluator()
	if err != nil {
		return errorResult(err)
	}
	v, err := ev.Eval(fr, p.Expression)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("evaluation result", renderValue(v))
}

type setVariableArgs struct {
	FrameID string `json:"frameId"`
	Name    string `json:"name"`
	Value   string `json:"value"`
}

// setVariable assigns a frame-local from a literal or @id handle.
func (c *Controller) setVariable(args json.RawMessage) json.RawMessage {
	var p setVariableArgs
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
	if err := c.Ops.SetVariable(fr, p.Name, p.Value, c.Ops.ObjectByID); err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("variable set", map[string]any{"name": p.Name})
}

type invokeMethodArgs struct {
	ThreadID   uint64   `json:"threadId"`
	ObjectID   string   `json:"objectId"`
	TypeName   string   `json:"typeName"`
	MethodName string   `json:"methodName"`
	Args       []string `json:"args,omitempty"`
}

// invokeMethod calls an instance method on a live object.
func (c *Controller) invokeMethod(args json.RawMessage) json.RawMessage {
	var p invokeMethodArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ThreadID == 0 {
		return missingParam("threadId")
	}
	if p.ObjectID == "" {
		return missingParam("objectId")
	}
	if p.TypeName == "" {
		return missingParam("typeName")
	}
	if p.MethodName == "" {
		return missingParam("methodName")
	}
	obj, err := c.resolveObject(p.ObjectID)
	if err != nil {
		return errorResult(err)
	}
	result, err := c.Ops.Invoke(p.ThreadID, obj, p.TypeName, p.MethodName, p.Args, c.Ops.ObjectByID)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("invocation result", renderValue(result))
}

type invokeStaticArgs struct {
	ThreadID   uint64   `json:"threadId"`
	TypeName   string   `json:"typeName"`
	MethodName string   `json:"methodName"`
	Args       []string `json:"args,omitempty"`
}

// invokeStatic calls a static method.
func (c *Controller) invokeStatic(args json.RawMessage) json.RawMessage {
	var p invokeStaticArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.ThreadID == 0 {
		return missingParam("threadId")
	}
	if p.TypeName == "" {
		return missingParam("typeName")
	}
	if p.MethodName == "" {
		return missingParam("methodName")
	}
	result, err := c.Ops.Invoke(p.ThreadID, nil, p.TypeName, p.MethodName, p.Args, c.Ops.ObjectByID)
	if err != nil {
		return errorResult(err)
	}
	return mcp.JSONResponse("invocation result", renderValue(result))
}
