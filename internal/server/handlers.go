package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/kana-sketch-mcp/internal/imaging"
	"github.com/ironsheep/kana-sketch-mcp/internal/ocr"
	"github.com/ironsheep/kana-sketch-mcp/internal/pipeline"
	"github.com/ironsheep/kana-sketch-mcp/internal/session"
	"github.com/ironsheep/kana-sketch-mcp/internal/sketch"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "sketch_open", "image_recognize").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Looks up the session or loads the image
//  4. Calls the session, pipeline or romaji service
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Drawing sessions
	case "sketch_open":
		return s.handleSketchOpen(args)
	case "sketch_close":
		return s.handleSketchClose(args)
	case "sketch_resize":
		return s.handleSketchResize(args)
	case "sketch_pointer":
		return s.handleSketchPointer(args)
	case "sketch_stroke":
		return s.handleSketchStroke(args)
	case "sketch_undo":
		return s.handleSketchUndo(args)
	case "sketch_clear":
		return s.handleSketchClear(args)
	case "sketch_snapshot":
		return s.handleSketchSnapshot(args)
	case "sketch_result":
		return s.handleSketchResult(args)
	case "sketch_analyze":
		return s.handleSketchAnalyze(ctx, args)

	// Image files
	case "image_recognize":
		return s.handleImageRecognize(ctx, args)
	case "image_inspect":
		return s.handleImageInspect(args)

	// Text
	case "romaji_convert":
		return s.handleRomajiConvert(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Drawing Session Handlers ===

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

// session decodes args into dst and returns the session named by its
// session_id.
func (s *Server) session(args json.RawMessage, dst interface{}) (*session.Session, error) {
	if s.sessions == nil {
		return nil, errors.New("drawing sessions are not available")
	}
	if err := json.Unmarshal(args, dst); err != nil {
		return nil, err
	}
	var id sessionArgs
	if err := json.Unmarshal(args, &id); err != nil {
		return nil, err
	}
	if id.SessionID == "" {
		return nil, errors.New("session_id is required")
	}
	return s.sessions.Get(id.SessionID)
}

type sketchOpenArgs struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleSketchOpen(args json.RawMessage) (interface{}, error) {
	if s.sessions == nil {
		return nil, errors.New("drawing sessions are not available")
	}
	var a sketchOpenArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Width < 0 || a.Height < 0 {
		return nil, fmt.Errorf("width and height must not be negative")
	}
	sess, err := s.sessions.Open(a.Width, a.Height)
	if err != nil {
		return nil, err
	}
	return sess.State(), nil
}

func (s *Server) handleSketchClose(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if _, err := s.session(args, &a); err != nil {
		return nil, err
	}
	if err := s.sessions.Close(a.SessionID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"session_id": a.SessionID, "closed": true}, nil
}

type sketchResizeArgs struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	DisplayWidth  float64 `json:"display_width"`
	DisplayHeight float64 `json:"display_height"`
	OffsetX       float64 `json:"offset_x"`
	OffsetY       float64 `json:"offset_y"`
}

func (s *Server) handleSketchResize(args json.RawMessage) (interface{}, error) {
	var a sketchResizeArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}
	return sess.Resize(sketch.Viewport{
		BackingWidth:  a.Width,
		BackingHeight: a.Height,
		DisplayWidth:  a.DisplayWidth,
		DisplayHeight: a.DisplayHeight,
		OffsetX:       a.OffsetX,
		OffsetY:       a.OffsetY,
	})
}

type sketchPointerArgs struct {
	Event string  `json:"event"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

func (s *Server) handleSketchPointer(args json.RawMessage) (interface{}, error) {
	var a sketchPointerArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}
	return sess.Pointer(session.PointerKind(strings.ToLower(a.Event)), a.X, a.Y)
}

type sketchStrokeArgs struct {
	Points []sketch.Point `json:"points"`
}

func (s *Server) handleSketchStroke(args json.RawMessage) (interface{}, error) {
	var a sketchStrokeArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}
	return sess.Stroke(a.Points)
}

func (s *Server) handleSketchUndo(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}
	removed, st, err := sess.Undo()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"removed": removed, "state": st}, nil
}

func (s *Server) handleSketchClear(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}
	return sess.Clear()
}

// SnapshotResult is a canvas image returned to the client.
type SnapshotResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

func (s *Server) handleSketchSnapshot(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}
	data, err := sess.Snapshot()
	if err != nil {
		return nil, err
	}
	st := sess.State()
	return &SnapshotResult{
		Width:       st.Width,
		Height:      st.Height,
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}

// SketchResult is what a session currently shows.
type SketchResult struct {
	Display session.View     `json:"display"`
	State   session.State    `json:"state"`
	LastRun *pipeline.Result `json:"last_run,omitempty"`
}

func (s *Server) handleSketchResult(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}
	return &SketchResult{
		Display: sess.Display().View(),
		State:   sess.State(),
		LastRun: sess.LastResult(),
	}, nil
}

func (s *Server) handleSketchAnalyze(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}
	res, err := sess.Analyze(ctx)
	if err != nil {
		return nil, err
	}
	return &SketchResult{
		Display: sess.Display().View(),
		State:   sess.State(),
		LastRun: &res,
	}, nil
}

// === Image File Handlers ===

type imageRecognizeArgs struct {
	Path      string `json:"path"`
	Language  string `json:"language"`
	Translate *bool  `json:"translate"`
	Compact   bool   `json:"compact"`
}

// RecognizeResult is the outcome of recognizing an image file.
type RecognizeResult struct {
	Path        string           `json:"path"`
	Format      string           `json:"format,omitempty"`
	Width       int              `json:"width,omitempty"`
	Height      int              `json:"height,omitempty"`
	Inverted    bool             `json:"inverted"`
	Source      string           `json:"source"`
	Romaji      string           `json:"romaji"`
	Translation string           `json:"translation,omitempty"`
	Banner      string           `json:"banner,omitempty"`
	Error       string           `json:"error,omitempty"`
	Run         *pipeline.Result `json:"run,omitempty"`
}

// handleImageRecognize runs the upload flow. Unlike drawings it reports
// failures with a banner: a file that cannot be read or prepared gives the
// processing banner, an image without text gives the no-text banner.
func (s *Server) handleImageRecognize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if s.images == nil {
		return nil, errors.New("image recognition is not available")
	}
	var a imageRecognizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	opts := s.images.Options()
	opts.Quiet = false
	opts.Compact = a.Compact
	if a.Translate != nil {
		opts.Translate = *a.Translate
	}
	if a.Language != "" {
		opts.Lang = a.Language
	}

	out := &RecognizeResult{Path: a.Path}
	art, err := s.prepareUpload(a.Path, out)
	if err != nil {
		s.logger.Warn("image could not be processed", "path", a.Path, "error", err)
		out.Banner = pipeline.BannerProcessFailed
		out.Error = err.Error()
		return out, nil
	}

	res := s.images.RunWith(ctx, art, nil, opts)
	out.Source = res.Fields.Source
	out.Romaji = res.Fields.Romaji
	out.Translation = res.Fields.Translation
	out.Banner = res.Banner
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	out.Run = &res
	return out, nil
}

// prepareUpload loads path and turns it into an OCR artifact, filling in
// the image details of out.
func (s *Server) prepareUpload(path string, out *RecognizeResult) (ocr.Artifact, error) {
	up, err := s.cache.Load(path)
	if err != nil {
		return ocr.Artifact{}, err
	}
	b := up.Image.Bounds()
	out.Format = up.Format
	out.Width, out.Height = b.Dx(), b.Dy()

	img := up.Image
	if s.upload.Enabled {
		out.Inverted = imaging.HasDarkBackground(up.Image)
		img, err = imaging.PrepareForOCR(up.Image, imaging.PrepareOptions{
			Margin:    s.upload.Margin,
			Invert:    out.Inverted,
			Threshold: s.upload.Threshold,
			MinHeight: s.upload.MinHeight,
		})
		if err != nil {
			return ocr.Artifact{}, err
		}
	}
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return ocr.Artifact{}, err
	}
	return ocr.Artifact{PNG: data, Width: out.Width, Height: out.Height}, nil
}

type imageInspectArgs struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// InspectResult describes an image file.
type InspectResult struct {
	Path           string                   `json:"path"`
	Format         string                   `json:"format"`
	Width          int                      `json:"width"`
	Height         int                      `json:"height"`
	Bytes          int                      `json:"bytes"`
	DarkBackground bool                     `json:"dark_background"`
	DominantColors []imaging.ColorFrequency `json:"dominant_colors"`
}

func (s *Server) handleImageInspect(args json.RawMessage) (interface{}, error) {
	var a imageInspectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 5
	}
	up, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	colors, err := imaging.DominantColors(up.Image, a.Count, up.Image.Bounds())
	if err != nil {
		return nil, err
	}
	b := up.Image.Bounds()
	return &InspectResult{
		Path:           a.Path,
		Format:         up.Format,
		Width:          b.Dx(),
		Height:         b.Dy(),
		Bytes:          len(up.Data),
		DarkBackground: imaging.HasDarkBackground(up.Image),
		DominantColors: colors,
	}, nil
}

// === Text Handlers ===

type romajiConvertArgs struct {
	Text string `json:"text"`
}

// RomajiResult is a transliteration.
type RomajiResult struct {
	Text   string `json:"text"`
	Romaji string `json:"romaji"`
	// Analyzer is false when the kana table was used because the analyzer
	// was still loading.
	Analyzer bool `json:"analyzer"`
}

func (s *Server) handleRomajiConvert(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if s.romaji == nil {
		return nil, errors.New("romaji conversion is not available")
	}
	var a romajiConvertArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if strings.TrimSpace(a.Text) == "" {
		return nil, errors.New("text is required")
	}
	out := s.romaji.Convert(ctx, a.Text)
	return &RomajiResult{Text: a.Text, Romaji: out, Analyzer: s.romaji.Ready()}, nil
}
