package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/dev-console/debugctl/internal/mcp"
)

type launchArgs struct {
	Main           string   `json:"main"`
	Classpath      []string `json:"classpath,omitempty"`
	JvmArgs        []string `json:"jvmArgs,omitempty"`
	SuspendOnStart bool     `json:"suspendOnStart,omitempty"`
}

// debugLaunch spawns a debuggee and connects to it.
func (c *Controller) debugLaunch(args json.RawMessage) json.RawMessage {
	var p launchArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.Main == "" {
		return missingParam("main")
	}
	if err := c.Sess.Launch(context.Background(), p.Main, p.Classpath, p.JvmArgs, p.SuspendOnStart); err != nil {
		return errorResult(err)
	}
	c.applyBpSpec()
	return mcp.JSONResponse("launched", map[string]any{"main": p.Main, "state": c.Sess.State().Connection})
}

type attachSocketArgs struct {
	Host         string `json:"host,omitempty"`
	Port         int    `json:"port"`
	WaitForPort  bool   `json:"waitForPort,omitempty"`
	WaitTimeoutMs int   `json:"waitTimeoutMs,omitempty"`
}

// debugAttachSocket dials an already-listening debug port (defaults:
// host="localhost", waitForPort=false, waitTimeout 60s max 300s).
func (c *Controller) debugAttachSocket(args json.RawMessage) json.RawMessage {
	p := attachSocketArgs{Host: "localhost", WaitTimeoutMs: 60000}
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.Port == 0 {
		return missingParam("port")
	}
	if p.WaitTimeoutMs > 300000 {
		p.WaitTimeoutMs = 300000
	}
	if p.WaitForPort {
		if err := waitForPort(p.Host, p.Port, time.Duration(p.WaitTimeoutMs)*time.Millisecond); err != nil {
			return errorResult(err)
		}
	}
	if err := c.Sess.AttachSocket(context.Background(), p.Host, p.Port); err != nil {
		return errorResult(err)
	}
	c.applyBpSpec()
	return mcp.JSONResponse("attached", map[string]any{"host": p.Host, "port": p.Port})
}

// waitForPort polls a raw TCP dial until it succeeds or timeout elapses.
// session.waitForPort performs the equivalent wait on the launch path;
// this is the attach-path's user-requested counterpart.
func waitForPort(host string, port int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	addr := fmt.Sprintf("%s:%d", host, port)
	var lastErr error
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		lastErr = err
		time.Sleep(50 * time.Millisecond)
	}
	return lastErr
}

type attachPidArgs struct {
	Pid int `json:"pid"`
}

// debugAttachPid attaches to a local process by pid.
func (c *Controller) debugAttachPid(args json.RawMessage) json.RawMessage {
	var p attachPidArgs
	if err := decodeArgs(args, &p); err != nil {
		return errorResult(err)
	}
	if p.Pid == 0 {
		return missingParam("pid")
	}
	if err := c.Sess.AttachPid(context.Background(), p.Pid); err != nil {
		return errorResult(err)
	}
	c.applyBpSpec()
	return mcp.JSONResponse("attached", map[string]any{"pid": p.Pid})
}

// debugDisconnect tears the session down; infallible externally.
func (c *Controller) debugDisconnect(json.RawMessage) json.RawMessage {
	c.Sess.Disconnect()
	return mcp.JSONResponse("disconnected", map[string]any{"state": "NONE"})
}

// debugStatus reports the connection state and last stop reason.
func (c *Controller) debugStatus(json.RawMessage) json.RawMessage {
	st := c.Sess.State()
	return mcp.JSONResponse("status", map[string]any{
		"connection":    st.Connection,
		"detail":        st.Detail,
		"connectedAtMs": st.ConnectedAtMs,
		"sessionId":     st.SessionID,
		"lastStopReason": renderStopReason(st.LastStopReason),
	})
}

// vmInfo reports target identity, distinct from debugStatus's lifecycle
// view (lists both as separate tools).
func (c *Controller) vmInfo(json.RawMessage) json.RawMessage {
	target, err := c.Sess.Target()
	if err != nil {
		return errorResult(err)
	}
	st := c.Sess.State()
	return mcp.JSONResponse("vm info", map[string]any{
		"target":     target.String(),
		"connection": st.Connection,
		"sessionId":  st.SessionID,
	})
}

// ping is a trivial liveness probe for the JSON-RPC channel itself.
func (c *Controller) ping(json.RawMessage) json.RawMessage {
	return mcp.JSONResponse("pong", map[string]any{"timestampMs": c.Clock()})
}
