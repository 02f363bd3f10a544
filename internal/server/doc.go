// Package server implements the MCP (Model Context Protocol) server for
// handwritten and photographed Japanese text.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Drawing sessions stand in for a handwriting pad. The client forwards
// pointer events; the server records strokes, renders them, and recognizes
// the drawing once the pen has rested for the debounce period:
//   - sketch_open, sketch_close: Session lifecycle
//   - sketch_resize: Canvas and display size
//   - sketch_pointer, sketch_stroke: Pen input
//   - sketch_undo, sketch_clear: Editing
//   - sketch_snapshot: Canvas as PNG
//   - sketch_result: Text currently shown
//   - sketch_analyze: Recognize immediately
//
// Image files go through the same pipeline with error banners enabled:
//   - image_recognize: OCR, romaji and optional translation
//   - image_inspect: Size, format and dominant colors
//
// Text:
//   - romaji_convert: Romanize Japanese text
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Recognition failures are not tool errors: they come back as a cleared
// result, a banner, or "Translation unavailable".
//
// # Usage
//
//	srv := server.New(server.Deps{Sessions: mgr, Images: p, Romaji: rs})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
