package message

import (
	"encoding/json"
	"testing"
)

func TestRole_Constants(t *testing.T) {
	tests := []struct {
		role     Role
		expected string
	}{
		{RoleSystem, "SYSTEM"},
		{RoleUser, "USER"},
		{RoleAssistant, "ASSISTANT"},
		{RoleTool, "TOOL"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if string(tt.role) != tt.expected {
				t.Errorf("role = %q, want %q", tt.role, tt.expected)
			}
		})
	}
}

func TestMsg_Text(t *testing.T) {
	msg := Msg{
		Role: RoleAssistant,
		Content: []ContentBlock{
			Thinking{Thinking: "pondering"},
			Text{Text: "hello "},
			Text{Text: "world"},
		},
	}
	if got := msg.Text(); got != "hello world" {
		t.Errorf("Text() = %q, want %q", got, "hello world")
	}
}

func TestMsg_ToolUses(t *testing.T) {
	msg := Msg{
		Role: RoleAssistant,
		Content: []ContentBlock{
			Text{Text: "calling tools"},
			ToolUse{ID: "1", Name: "calculator", Input: map[string]any{"op": "add"}},
			ToolUse{ID: "2", Name: "test_tool"},
		},
	}
	uses := msg.ToolUses()
	if len(uses) != 2 {
		t.Fatalf("ToolUses() len = %d, want 2", len(uses))
	}
	if uses[0].ID != "1" || uses[1].ID != "2" {
		t.Errorf("ToolUses() order = %+v, want preserved input order", uses)
	}
}

func TestMsg_Clone_Independent(t *testing.T) {
	original := Msg{
		ID:       "m1",
		Role:     RoleUser,
		Content:  []ContentBlock{Text{Text: "hi"}},
		Metadata: map[string]any{"k": "v"},
		Usage:    &ChatUsage{InputTokens: 10},
	}
	clone := original.Clone()
	clone.Content[0] = Text{Text: "mutated"}
	clone.Metadata["k"] = "mutated"
	clone.Usage.InputTokens = 99

	if original.Content[0].(Text).Text != "hi" {
		t.Error("Clone() did not deep-copy Content")
	}
	if original.Metadata["k"] != "v" {
		t.Error("Clone() did not deep-copy Metadata")
	}
	if original.Usage.InputTokens != 10 {
		t.Error("Clone() did not deep-copy Usage")
	}
}

func TestContentBlock_RoundTrip(t *testing.T) {
	blocks := []ContentBlock{
		Text{Text: "hello"},
		Thinking{Thinking: "internal"},
		ToolUse{ID: "tu1", Name: "search", Input: map[string]any{"q": "go"}},
		ToolResult{ID: "tu1", Name: "search", Output: []ContentBlock{Text{Text: "result"}}},
		Image{Source: MediaSource{URL: "https://example.com/x.png"}},
		Audio{Source: MediaSource{Base64: &Base64Media{MediaType: "audio/wav", Data: "AAA="}}},
	}

	data, err := MarshalContentBlocks(blocks)
	if err != nil {
		t.Fatalf("MarshalContentBlocks() error = %v", err)
	}
	decoded, err := UnmarshalContentBlocks(data, false)
	if err != nil {
		t.Fatalf("UnmarshalContentBlocks() error = %v", err)
	}
	if len(decoded) != len(blocks) {
		t.Fatalf("decoded len = %d, want %d", len(decoded), len(blocks))
	}
	for i := range blocks {
		if decoded[i].Kind() != blocks[i].Kind() {
			t.Errorf("block %d kind = %q, want %q", i, decoded[i].Kind(), blocks[i].Kind())
		}
	}
}

func TestUnmarshalContentBlocks_UnknownKind_FailsClosed(t *testing.T) {
	raw := []byte(`[{"kind":"mystery_block","text":"oops"}]`)
	if _, err := UnmarshalContentBlocks(raw, false); err == nil {
		t.Error("expected error for unknown content block kind, got nil")
	}
	decoded, err := UnmarshalContentBlocks(raw, true)
	if err != nil {
		t.Fatalf("allowUnknown=true returned error: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("allowUnknown=true should drop unknown blocks, got %d", len(decoded))
	}
}

func TestMsg_JSONRoundTrip(t *testing.T) {
	original := Msg{
		ID:   "m1",
		Name: "agent-1",
		Role: RoleAssistant,
		Content: []ContentBlock{
			Text{Text: "answer"},
			ToolUse{ID: "t1", Name: "calc", Input: map[string]any{"a": float64(1)}},
		},
		Metadata: map[string]any{"structured_data": map[string]any{"x": float64(1)}},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded Msg
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.ID != original.ID || decoded.Role != original.Role {
		t.Errorf("decoded = %+v, want id/role preserved from %+v", decoded, original)
	}
	if decoded.Text() != "answer" {
		t.Errorf("decoded.Text() = %q, want %q", decoded.Text(), "answer")
	}
}
