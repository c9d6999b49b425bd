package plan

import (
	"context"
	"testing"

	"github.com/nexuscore/agentkit/hooks"
)

func TestHintHook_NoActivePlan_NoOp(t *testing.T) {
	n := NewNotebook(0)
	h := NewHintHook(n)

	out := h.Handle(context.Background(), hooks.Event{Phase: hooks.PhasePreReasoning})
	if len(out.Messages) != 0 {
		t.Fatalf("Handle() Messages = %+v, want none with no active plan", out.Messages)
	}
}

func TestHintHook_ActivePlan_InjectsHint(t *testing.T) {
	n := NewNotebook(0)
	n.CreatePlan("Ship feature", "desc", "outcome", []SubtaskInput{{Name: "Test Task", Description: "d"}})
	h := NewHintHook(n)

	out := h.Handle(context.Background(), hooks.Event{Phase: hooks.PhasePreReasoning})
	if len(out.Messages) != 1 {
		t.Fatalf("Handle() Messages = %+v, want exactly one injected message", out.Messages)
	}
	text := out.Messages[0].Text()
	if !contains(text, "<system-hint>") || !contains(text, "Test Task") {
		t.Errorf("Handle() injected message = %q, want system-hint with subtask name", text)
	}
}

func TestHintHook_IgnoresOtherPhases(t *testing.T) {
	n := NewNotebook(0)
	n.CreatePlan("p", "d", "o", []SubtaskInput{{Name: "a", Description: "d"}})
	h := NewHintHook(n)

	out := h.Handle(context.Background(), hooks.Event{Phase: hooks.PhasePostActing})
	if len(out.Messages) != 0 {
		t.Fatalf("Handle() fired hint injection on PostActing, want no-op")
	}
}
