package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/ironsheep/kana-sketch-mcp/internal/imaging"
	"github.com/ironsheep/kana-sketch-mcp/internal/pipeline"
	"github.com/ironsheep/kana-sketch-mcp/internal/romaji"
	"github.com/ironsheep/kana-sketch-mcp/internal/session"
)

// ServerName is reported in the initialize handshake.
const ServerName = "kana-sketch-mcp"

// Server handles MCP protocol communication
type Server struct {
	sessions *session.Manager
	cache    *imaging.ImageCache
	images   *pipeline.Pipeline
	romaji   *romaji.Service
	upload   session.Prepare
	logger   *slog.Logger
	version  string
}

// Deps are the collaborators a Server dispatches to.
type Deps struct {
	// Sessions backs the sketch_* tools.
	Sessions *session.Manager
	// Images runs image_recognize. Its options give the defaults for
	// compact display, translation and language.
	Images *pipeline.Pipeline
	// Romaji backs romaji_convert.
	Romaji *romaji.Service
	// Upload controls preprocessing of image files. CropToInk is ignored.
	Upload  session.Prepare
	Logger  *slog.Logger
	Version string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	return &Server{
		sessions: deps.Sessions,
		cache:    imaging.NewImageCache(),
		images:   deps.Images,
		romaji:   deps.Romaji,
		upload:   deps.Upload,
		logger:   logger,
		version:  version,
	}
}

// Run serves stdin and stdout until stdin closes or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w.
// Open sessions are closed when it returns.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	defer func() {
		if s.sessions != nil {
			s.sessions.CloseAll()
		}
	}()

	scanner := bufio.NewScanner(r)
	// Strokes and image paths fit easily; allow large point lists.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", "error", err)
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", "error", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) (resp *MCPResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("request panic", "method", req.Method, "panic", r, "stack", string(debug.Stack()))
			resp = s.errorResponse(req.ID, -32603, "Internal error", fmt.Sprint(r))
		}
	}()

	s.logger.Debug("request", "method", req.Method, "id", req.ID)
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": s.version,
			},
		},
	}
}
