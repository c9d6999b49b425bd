package plan

import (
	"context"
	"fmt"

	"github.com/nexuscore/agentkit/message"
	"github.com/nexuscore/agentkit/toolkit"
)

// FinishToolName is the tool name the ReAct loop recognizes as a plan
// finish sentinel (spec §4.1/§4.5), alongside the structured-output
// coordinator's generate_response.
const FinishToolName = "finish_plan"

func textResult(s string) []message.ContentBlock {
	return []message.ContentBlock{message.Text{Text: s}}
}

func argString(input map[string]any, key string) string {
	if v, ok := input[key].(string); ok {
		return v
	}
	return ""
}

// RegisterTools adds the four plan-notebook tools (spec §4.5) to kit,
// backed by n.
func RegisterTools(kit *toolkit.Toolkit, n *Notebook) {
	kit.Register(toolkit.Tool{
		Name:        "create_plan",
		Description: "Create or replace the active plan with a name, description, expected outcome, and an ordered list of subtasks.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":             map[string]any{"type": "string"},
				"description":      map[string]any{"type": "string"},
				"expected_outcome": map[string]any{"type": "string"},
				"subtasks": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":             map[string]any{"type": "string"},
							"description":      map[string]any{"type": "string"},
							"expected_outcome": map[string]any{"type": "string"},
						},
						"required": []string{"name", "description"},
					},
				},
			},
			"required": []string{"name", "description", "subtasks"},
		},
		Handler: func(ctx context.Context, input map[string]any) ([]message.ContentBlock, error) {
			rawSubtasks, _ := input["subtasks"].([]any)
			subtasks := make([]SubtaskInput, 0, len(rawSubtasks))
			for _, raw := range rawSubtasks {
				m, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				subtasks = append(subtasks, SubtaskInput{
					Name:            argString(m, "name"),
					Description:     argString(m, "description"),
					ExpectedOutcome: argString(m, "expected_outcome"),
				})
			}

			p, err := n.CreatePlan(argString(input, "name"), argString(input, "description"), argString(input, "expected_outcome"), subtasks)
			if err != nil {
				return nil, err
			}
			return textResult(fmt.Sprintf("plan %q created with %d subtasks", p.Name, len(p.Subtasks))), nil
		},
	})

	kit.Register(toolkit.Tool{
		Name:        "update_subtask_state",
		Description: "Transition a subtask's state. Legal transitions: TODO -> IN_PROGRESS -> {DONE, ABANDONED}.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"subtask_id": map[string]any{"type": "string"},
				"state":      map[string]any{"type": "string", "enum": []string{"TODO", "IN_PROGRESS", "DONE", "ABANDONED"}},
				"note":       map[string]any{"type": "string"},
			},
			"required": []string{"subtask_id", "state"},
		},
		Handler: func(ctx context.Context, input map[string]any) ([]message.ContentBlock, error) {
			st, err := n.UpdateSubtaskState(argString(input, "subtask_id"), State(argString(input, "state")), argString(input, "note"))
			if err != nil {
				return nil, err
			}
			return textResult(fmt.Sprintf("subtask %q is now %s", st.Name, st.State)), nil
		},
	})

	kit.Register(toolkit.Tool{
		Name:        "finish_subtask",
		Description: "Mark a subtask DONE and record the evidence supporting completion.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"subtask_id": map[string]any{"type": "string"},
				"evidence":   map[string]any{"type": "string"},
			},
			"required": []string{"subtask_id", "evidence"},
		},
		Handler: func(ctx context.Context, input map[string]any) ([]message.ContentBlock, error) {
			st, err := n.FinishSubtask(argString(input, "subtask_id"), argString(input, "evidence"))
			if err != nil {
				return nil, err
			}
			return textResult(fmt.Sprintf("subtask %q finished", st.Name)), nil
		},
	})

	kit.Register(toolkit.Tool{
		Name:        FinishToolName,
		Description: "Finish the active plan once every subtask is DONE or ABANDONED. Acts as a terminal signal for the current task.",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"summary": map[string]any{"type": "string"}},
			"required":   []string{"summary"},
		},
		Handler: func(ctx context.Context, input map[string]any) ([]message.ContentBlock, error) {
			p, err := n.FinishPlan(argString(input, "summary"))
			if err != nil {
				return nil, err
			}
			return textResult(fmt.Sprintf("plan %q finished: %s", p.Name, argString(input, "summary"))), nil
		},
	})
}
