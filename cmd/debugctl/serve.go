package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dev-console/debugctl/internal/adapter/fake"
	"github.com/dev-console/debugctl/internal/bpspec"
	"github.com/dev-console/debugctl/internal/bridge"
	"github.com/dev-console/debugctl/internal/config"
	"github.com/dev-console/debugctl/internal/dispatcher"
	"github.com/dev-console/debugctl/internal/dispatcher/tools"
	"github.com/dev-console/debugctl/internal/mcp"
	"github.com/dev-console/debugctl/internal/metrics"
	"github.com/dev-console/debugctl/internal/session"
	"github.com/dev-console/debugctl/internal/threadops"
	"github.com/dev-console/debugctl/internal/watch"
)

const serverVersion = "0.1.0"

// invokeRatePerSecond/invokeBurst bound invoke_method/invoke_static traffic
// via a token-bucket limiter.
const (
	invokeRatePerSecond = 5.0
	invokeBurst         = 10
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the debug-control broker over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Resolve(cmd, nil)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
	config.BindFlags(cmd)
	return cmd
}

func newLogger(level string) (*zap.Logger, error) {
	var zl zapcore.Level
	if err := zl.UnmarshalText([]byte(level)); err != nil {
		zl = zapcore.InfoLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zl)
	// stdout is reserved for the JSON-RPC channel; every log line goes
	// to stderr instead.
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

func runServe(cfg config.Config) error {
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	metricsReg := metrics.New()
	a := fake.New()
	sess := session.New(log, a, metricsReg)

	ops := threadops.New(sess, invokeRatePerSecond, invokeBurst)
	watchExprs := watch.New()
	controller := tools.NewController(log, sess, ops, watchExprs)
	if cfg.BreakpointSpecFile != "" {
		controller.BpSpec = bpspec.New(log, cfg.BreakpointSpecFile, sess.LineSetter())
	}

	disp := dispatcher.New()
	for _, t := range tools.BuildAll(controller) {
		disp.Register(t)
	}

	if cfg.MetricsPort != 0 {
		go serveMetrics(log, cfg.MetricsPort, metricsReg)
	}

	return runStdioLoop(log, disp)
}

func serveMetrics(log *zap.Logger, port int, reg *metrics.Registry) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Info("metrics listener starting", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil { //nolint:gosec
		log.Warn("metrics listener stopped", zap.Error(err))
	}
}

// maxBodySize caps a single framed MCP message, bounding resource usage
// against a misbehaving client.
const maxBodySize = 10 * 1024 * 1024

func runStdioLoop(log *zap.Logger, disp *dispatcher.Dispatcher) error {
	reader := bufio.NewReaderSize(os.Stdin, 64*1024)
	writer := bufio.NewWriter(os.Stdout)
	defer writer.Flush() //nolint:errcheck

	for {
		line, err := bridge.ReadStdioMessage(reader, maxBodySize)
		if err != nil {
			return nil
		}
		if len(line) == 0 {
			continue
		}

		var req mcp.JSONRPCRequest
		if unmarshalErr := json.Unmarshal(line, &req); unmarshalErr != nil {
			writeResponse(log, writer, mcp.JSONRPCResponse{
				JSONRPC: "2.0",
				Error:   &mcp.JSONRPCError{Code: -32700, Message: "Parse error: " + unmarshalErr.Error()},
			})
			continue
		}

		resp := handleRequest(disp, req)
		writeResponse(log, writer, resp)
	}
}

func handleRequest(disp *dispatcher.Dispatcher, req mcp.JSONRPCRequest) mcp.JSONRPCResponse {
	switch req.Method {
	case "initialize":
		result := mcp.MCPInitializeResult{
			ProtocolVersion: "2024-11-05",
			ServerInfo:      mcp.MCPServerInfo{Name: "debugctl", Version: serverVersion},
			Capabilities:    mcp.MCPCapabilities{Tools: mcp.MCPToolsCapability{}},
		}
		return mcp.JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: mcp.SafeMarshal(result, "{}")}
	case "initialized", "notifications/initialized":
		return mcp.JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`{}`)}
	case "tools/list":
		result := map[string]any{"tools": disp.List()}
		return mcp.JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: mcp.SafeMarshal(result, `{"tools":[]}`)}
	case "tools/call":
		return handleToolsCall(disp, req)
	default:
		return mcp.JSONRPCResponse{
			JSONRPC: "2.0", ID: req.ID,
			Error: &mcp.JSONRPCError{Code: -32601, Message: "Method not found: " + req.Method},
		}
	}
}

func handleToolsCall(disp *dispatcher.Dispatcher, req mcp.JSONRPCRequest) mcp.JSONRPCResponse {
	var call struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &call); err != nil {
		return mcp.JSONRPCResponse{
			JSONRPC: "2.0", ID: req.ID,
			Error: &mcp.JSONRPCError{Code: -32602, Message: "Invalid params: " + err.Error()},
		}
	}
	resp, ok := disp.Dispatch(req, call.Name, call.Arguments)
	if !ok {
		return mcp.JSONRPCResponse{
			JSONRPC: "2.0", ID: req.ID,
			Error: &mcp.JSONRPCError{Code: -32601, Message: "Unknown tool: " + call.Name},
		}
	}
	return resp
}

func writeResponse(log *zap.Logger, w *bufio.Writer, resp mcp.JSONRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Error("marshal response failed", zap.Error(err))
		return
	}
	if _, err := w.Write(data); err != nil {
		log.Error("write response failed", zap.Error(err))
		return
	}
	if err := w.WriteByte('\n'); err != nil {
		log.Error("write response failed", zap.Error(err))
		return
	}
	if err := w.Flush(); err != nil {
		log.Error("flush response failed", zap.Error(err))
	}
}
