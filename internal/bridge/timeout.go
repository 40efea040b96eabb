// timeout.go — Per-request timeout logic for MCP tool calls.
package bridge

import (
	"encoding/json"
	"time"
)

// Timeout constants for different tool categories.
const (
	FastTimeout  = 10 * time.Second
	SlowTimeout  = 35 * time.Second
	BlockingPoll = 305 * time.Second
)

// waitingTools block on the debuggee's own pace (wait_for_stop's explicit
// timeoutMs, or a run_to_line/invocation that may run arbitrary target
// code) and need headroom past the target's own bound plus network slop.
var waitingTools = map[string]bool{
	"wait_for_stop":  true,
	"run_to_line":    true,
	"invoke_method":  true,
	"invoke_static":  true,
	"smart_step_into": true,
}

// connectTools spawn or dial a debuggee and may legitimately take longer
// than a simple state query.
var connectTools = map[string]bool{
	"debug_launch":       true,
	"debug_attach_socket": true,
	"debug_attach_pid":    true,
}

// ToolCallTimeout returns the per-request timeout based on the MCP method
// and tool name: wait_for_stop/run_to_line/invocation tools get a long
// bound since the caller supplies its own timeoutMs or the target may run
// arbitrary code; connect tools get a moderate bound; every other tool
// call is a fast, synchronous, in-process query.
//
// method is the JSON-RPC method (e.g. "tools/call", "resources/read").
// params is the raw JSON of the request params.
func ToolCallTimeout(method string, params json.RawMessage) time.Duration {
	if method == "resources/read" {
		return FastTimeout
	}
	if method != "tools/call" {
		return FastTimeout
	}

	var p struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(params, &p) != nil {
		return FastTimeout
	}

	switch {
	case waitingTools[p.Name]:
		return BlockingPoll
	case connectTools[p.Name]:
		return SlowTimeout
	default:
		return FastTimeout
	}
}

// ExtractToolAction extracts the tool name from a tools/call request. The
// debug-control tool surface is flat — one tool name per operation, no
// action sub-parameter — so the second return is always empty; the
// signature is kept two-valued so existing logging/metrics call sites
// that expect a (name, action) pair don't need a second adaptation pass.
func ExtractToolAction(method string, params json.RawMessage) (toolName, action string) {
	if method != "tools/call" {
		return "", ""
	}
	var p struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(params, &p) != nil {
		return "", ""
	}
	return p.Name, ""
}
