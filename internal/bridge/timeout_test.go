// timeout_test.go — Tests for ToolCallTimeout and ExtractToolAction.
package bridge

import (
	"encoding/json"
	"testing"
	"time"
)

func TestToolCallTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		method   string
		params   string
		expected time.Duration
	}{
		{"ping gets fast timeout", "ping", `{}`, FastTimeout},
		{"resources/read gets fast timeout", "resources/read", `{}`, FastTimeout},
		{"tools/list gets fast timeout", "tools/list", `{}`, FastTimeout},
		{"debug_status gets fast timeout", "tools/call", `{"name":"debug_status","arguments":{}}`, FastTimeout},
		{"stack_frames gets fast timeout", "tools/call", `{"name":"stack_frames","arguments":{"threadId":1}}`, FastTimeout},
		{"evaluate_expression gets fast timeout", "tools/call", `{"name":"evaluate_expression","arguments":{"frameId":"1:0"}}`, FastTimeout},
		{"wait_for_stop gets blocking poll", "tools/call", `{"name":"wait_for_stop","arguments":{"timeoutMs":60000}}`, BlockingPoll},
		{"run_to_line gets blocking poll", "tools/call", `{"name":"run_to_line","arguments":{"className":"pkg.Foo","line":10}}`, BlockingPoll},
		{"invoke_method gets blocking poll", "tools/call", `{"name":"invoke_method","arguments":{}}`, BlockingPoll},
		{"debug_launch gets slow timeout", "tools/call", `{"name":"debug_launch","arguments":{"main":"pkg.Main"}}`, SlowTimeout},
		{"debug_attach_socket gets slow timeout", "tools/call", `{"name":"debug_attach_socket","arguments":{"port":5005}}`, SlowTimeout},
		{"malformed params gets fast timeout", "tools/call", `{bad json}`, FastTimeout},
		{"unknown tool gets fast timeout", "tools/call", `{"name":"unknown_tool","arguments":{}}`, FastTimeout},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ToolCallTimeout(tc.method, json.RawMessage(tc.params))
			if got != tc.expected {
				t.Errorf("ToolCallTimeout(%s, %s) = %v, want %v", tc.method, tc.params, got, tc.expected)
			}
		})
	}
}

func TestExtractToolAction(t *testing.T) {
	t.Parallel()

	t.Run("non-tools/call returns empty", func(t *testing.T) {
		name, action := ExtractToolAction("ping", json.RawMessage(`{}`))
		if name != "" || action != "" {
			t.Errorf("expected empty, got name=%q action=%q", name, action)
		}
	})

	t.Run("tools/call returns tool name, no action", func(t *testing.T) {
		name, action := ExtractToolAction("tools/call", json.RawMessage(`{"name":"breakpoint_set","arguments":{"className":"pkg.Foo","line":10}}`))
		if name != "breakpoint_set" || action != "" {
			t.Errorf("expected breakpoint_set/<empty>, got name=%q action=%q", name, action)
		}
	})

	t.Run("malformed params", func(t *testing.T) {
		name, action := ExtractToolAction("tools/call", json.RawMessage(`{bad`))
		if name != "" || action != "" {
			t.Errorf("expected empty for malformed, got name=%q action=%q", name, action)
		}
	})
}
