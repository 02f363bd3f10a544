package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var sessionIDProperty = map[string]interface{}{
	"type":        "string",
	"description": "Session id returned by sketch_open",
}

// sessionOnly is the schema of tools that take nothing but a session id.
func sessionOnly() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"session_id": sessionIDProperty,
		},
		"required": []string{"session_id"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Drawing sessions
		{
			Name:        "sketch_open",
			Description: "Open a drawing pad for handwritten Japanese. Returns a session id. Strokes are recognized automatically a short moment after the pen is lifted.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Canvas width in pixels. Defaults to the configured size (400)",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Canvas height in pixels. Defaults to the configured size (400)",
					},
				},
			},
		},
		{
			Name:        "sketch_close",
			Description: "Close a drawing session and discard its strokes.",
			InputSchema: sessionOnly(),
		},
		{
			Name:        "sketch_resize",
			Description: "Change the canvas pixel size and the size it is displayed at. Strokes are redrawn; later pointer coordinates are scaled from display to canvas pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty,
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Canvas width in pixels",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Canvas height in pixels",
					},
					"display_width": map[string]interface{}{
						"type":        "number",
						"description": "Displayed width in client units. Defaults to width",
					},
					"display_height": map[string]interface{}{
						"type":        "number",
						"description": "Displayed height in client units. Defaults to height",
					},
					"offset_x": map[string]interface{}{
						"type":        "number",
						"description": "Client X of the canvas's left edge. Default 0",
					},
					"offset_y": map[string]interface{}{
						"type":        "number",
						"description": "Client Y of the canvas's top edge. Default 0",
					},
				},
				"required": []string{"session_id", "width", "height"},
			},
		},
		{
			Name:        "sketch_pointer",
			Description: "Send one pointer event in client coordinates. 'down' starts a stroke, 'move' extends it, 'up' or 'leave' ends it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty,
					"event": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"down", "move", "up", "leave"},
						"description": "Pointer event type",
					},
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Client X coordinate",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Client Y coordinate",
					},
				},
				"required": []string{"session_id", "event", "x", "y"},
			},
		},
		{
			Name:        "sketch_stroke",
			Description: "Draw a whole stroke from a list of client coordinates, as if the pen went down at the first point and up at the last.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty,
					"points": map[string]interface{}{
						"type":        "array",
						"description": "Stroke points in drawing order",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "number"},
								"y": map[string]interface{}{"type": "number"},
							},
							"required": []string{"x", "y"},
						},
						"minItems": 1,
					},
				},
				"required": []string{"session_id", "points"},
			},
		},
		{
			Name:        "sketch_undo",
			Description: "Remove the last stroke. Remaining strokes are recognized again; undoing the last one clears the result.",
			InputSchema: sessionOnly(),
		},
		{
			Name:        "sketch_clear",
			Description: "Erase every stroke and clear the recognized text.",
			InputSchema: sessionOnly(),
		},
		{
			Name:        "sketch_snapshot",
			Description: "Return the canvas as a base64-encoded PNG.",
			InputSchema: sessionOnly(),
		},
		{
			Name:        "sketch_result",
			Description: "Return the text currently shown for a session: recognized characters, romaji and translation, plus details of the last recognition run.",
			InputSchema: sessionOnly(),
		},
		{
			Name:        "sketch_analyze",
			Description: "Recognize the drawing now instead of waiting for the pen to rest, and return the result.",
			InputSchema: sessionOnly(),
		},

		// Image files
		{
			Name:        "image_recognize",
			Description: "Recognize Japanese text in an image file (photo, scan or screenshot), romanize it and optionally translate it. Reports a banner message when nothing could be read.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file (PNG, JPEG, GIF, BMP, TIFF or WebP)",
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Defaults to the configured language (jpn)",
					},
					"translate": map[string]interface{}{
						"type":        "boolean",
						"description": "Translate the text. Defaults to the configured setting",
					},
					"compact": map[string]interface{}{
						"type":        "boolean",
						"description": "Keep only the first word. Default false",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_inspect",
			Description: "Report an image file's size, format and dominant colors, and whether it will be inverted (light text on a dark background) before recognition.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colors to return. Default 5",
						"default":     5,
					},
				},
				"required": []string{"path"},
			},
		},

		// Text
		{
			Name:        "romaji_convert",
			Description: "Convert Japanese text to romaji. Uses the morphological analyzer when it is loaded and a kana table otherwise.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Japanese text",
					},
				},
				"required": []string{"text"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
