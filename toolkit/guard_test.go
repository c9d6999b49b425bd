package toolkit

import (
	"testing"

	"github.com/nexuscore/agentkit/message"
)

func TestResultGuard_InertByDefault(t *testing.T) {
	g := ResultGuard{}
	blocks := []message.ContentBlock{message.Text{Text: "password=hunter2hunter2"}}
	got := g.Apply("any_tool", blocks)
	if got[0].(message.Text).Text != "password=hunter2hunter2" {
		t.Fatalf("zero-value ResultGuard should not modify output, got %v", got)
	}
}

func TestResultGuard_SanitizeSecretsRedacts(t *testing.T) {
	g := ResultGuard{SanitizeSecrets: true}
	blocks := []message.ContentBlock{message.Text{Text: "password=hunter2hunter2 the rest is fine"}}
	got := g.Apply("any_tool", blocks)
	text := got[0].(message.Text).Text
	if text == blocks[0].(message.Text).Text {
		t.Fatalf("expected secret to be redacted, got %q", text)
	}
}

func TestResultGuard_DenylistRedactsEntireOutput(t *testing.T) {
	g := ResultGuard{Denylist: []string{"raw_db_query"}}
	blocks := []message.ContentBlock{message.Text{Text: "select * from users"}}
	got := g.Apply("raw_db_query", blocks)
	if got[0].(message.Text).Text != "[REDACTED]" {
		t.Fatalf("denylisted tool output = %q, want [REDACTED]", got[0].(message.Text).Text)
	}
}

func TestResultGuard_MaxCharsTruncates(t *testing.T) {
	g := ResultGuard{MaxChars: 5}
	blocks := []message.ContentBlock{message.Text{Text: "0123456789"}}
	got := g.Apply("any_tool", blocks)
	text := got[0].(message.Text).Text
	if text != "01234...[truncated]" {
		t.Fatalf("truncated output = %q", text)
	}
}

func TestResultGuard_NonTextBlocksPassThrough(t *testing.T) {
	g := ResultGuard{SanitizeSecrets: true}
	blocks := []message.ContentBlock{message.ToolUse{ID: "x", Name: "y"}}
	got := g.Apply("any_tool", blocks)
	if _, ok := got[0].(message.ToolUse); !ok {
		t.Fatalf("non-Text block should pass through unchanged, got %#v", got[0])
	}
}
