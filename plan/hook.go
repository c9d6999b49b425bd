package plan

import (
	"context"

	"github.com/nexuscore/agentkit/hooks"
	"github.com/nexuscore/agentkit/message"
)

// HintHook appends a <system-hint>-wrapped rendering of the active plan
// to the outgoing messages on every PreReasoning event, so the model can
// reference current subtask state without it being re-derived from the
// transcript.
type HintHook struct {
	Notebook *Notebook
}

// NewHintHook returns a Hook that injects the plan render from n.
func NewHintHook(n *Notebook) *HintHook { return &HintHook{Notebook: n} }

// Handle implements hooks.Hook.
func (h *HintHook) Handle(ctx context.Context, event hooks.Event) hooks.Event {
	if event.Phase != hooks.PhasePreReasoning {
		return event
	}
	rendered := h.Notebook.RenderHint()
	if rendered == "" {
		return event
	}
	event.Messages = append(event.Messages, message.Msg{
		Role:    message.RoleUser,
		Content: []message.ContentBlock{message.Text{Text: rendered}},
	})
	return event
}
