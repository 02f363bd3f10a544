package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"sketch_open",
		"sketch_close",
		"sketch_resize",
		"sketch_pointer",
		"sketch_stroke",
		"sketch_undo",
		"sketch_clear",
		"sketch_snapshot",
		"sketch_result",
		"sketch_analyze",
		"image_recognize",
		"image_inspect",
		"romaji_convert",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			// Every required field must be declared.
			required, _ := tool.InputSchema["required"].([]string)
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("required field %s not in properties", r)
				}
			}
		})
	}
}

func TestToolDefinitions_RequiredSessionID(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		if tool.Name == "sketch_open" || len(tool.Name) < 7 || tool.Name[:7] != "sketch_" {
			continue
		}
		t.Run(tool.Name, func(t *testing.T) {
			required, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}
			found := false
			for _, r := range required {
				if r == "session_id" {
					found = true
				}
			}
			if !found {
				t.Error("session_id should be required")
			}
		})
	}
}
