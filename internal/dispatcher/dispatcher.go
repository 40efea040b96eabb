// Package dispatcher implements the JSON-RPC tool registry: a
// name -> handler lookup for the ~50 tool surface, deliberately thin
// since the real logic lives in the core components each handler calls
// into. One handler per tool name, since the debug-control surface has
// no verb/action sub-parameter the way a multi-purpose observe/analyze/
// interact tool grouping would.
package dispatcher

import (
	"encoding/json"

	"github.com/dev-console/debugctl/internal/mcp"
)

// Handler executes one tool call's arguments and returns the MCP result
// envelope (content blocks, isError).
type Handler func(args json.RawMessage) json.RawMessage

// Tool pairs a handler with the display metadata tools/list advertises.
type Tool struct {
	Name        string
	Description string
	Handler     Handler
}

// Dispatcher is the name->handler registry.
type Dispatcher struct {
	tools map[string]Tool
	order []string
}

// New builds an empty registry.
func New() *Dispatcher {
	return &Dispatcher{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool by name.
func (d *Dispatcher) Register(t Tool) {
	if _, exists := d.tools[t.Name]; !exists {
		d.order = append(d.order, t.Name)
	}
	d.tools[t.Name] = t
}

// List returns every registered tool's MCP descriptor, in registration
// order, for a tools/list response.
func (d *Dispatcher) List() []mcp.MCPTool {
	out := make([]mcp.MCPTool, 0, len(d.order))
	for _, name := range d.order {
		t := d.tools[name]
		out = append(out, mcp.MCPTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: map[string]any{"type": "object"},
		})
	}
	return out
}

// Dispatch runs a tools/call request by tool name. ok is false when name
// is not registered, so the caller can report method_not_found-equivalent
// behaviour at the transport layer.
func (d *Dispatcher) Dispatch(req mcp.JSONRPCRequest, name string, args json.RawMessage) (mcp.JSONRPCResponse, bool) {
	t, ok := d.tools[name]
	if !ok {
		return mcp.JSONRPCResponse{}, false
	}
	return mcp.JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: t.Handler(args)}, true
}
