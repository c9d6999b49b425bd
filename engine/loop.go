package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/nexuscore/agentkit/agenterr"
	"github.com/nexuscore/agentkit/hooks"
	"github.com/nexuscore/agentkit/internal/concurrency"
	"github.com/nexuscore/agentkit/message"
	"github.com/nexuscore/agentkit/model"
	"github.com/nexuscore/agentkit/stream"
	"github.com/nexuscore/agentkit/structuredoutput"
	"github.com/nexuscore/agentkit/toolkit"
)

// run is the REASON/ACT state machine shared by Call and CallStream. pub
// is nil for a non-streaming Call; when non-nil, reasoning chunks and
// tool results are additionally published to it.
func (e *Engine) run(ctx context.Context, input *message.Msg, opts CallOptions, pub *stream.Publisher) (message.Msg, error) {
	runID := e.nextRunID()
	bus := e.Hooks
	if bus == nil {
		bus = hooks.NewBus(runID)
	}

	token := concurrency.NewToken(ctx, 0)
	defer token.Release()

	if input != nil {
		appended := *input
		if appended.ID == "" {
			appended.ID = newMsgID()
		}
		if appended.Role == "" {
			appended.Role = message.RoleUser
		}
		if err := e.Memory.Append(appended); err != nil {
			return message.Msg{}, agenterr.NewModelError("append input to memory", err)
		}
	}

	for iter := 0; iter < e.Config.MaxIterations; iter++ {
		if token.Interrupted() || ctx.Err() != nil {
			return e.handleInterrupt(ctx, opts)
		}

		assistant, err := e.reason(ctx, bus, opts, pub, false)
		if err != nil {
			return message.Msg{}, err
		}

		toolUses := assistant.ToolUses()
		if len(toolUses) == 0 {
			if e.StructuredOutput != nil {
				e.StructuredOutput.ObserveRound(false)
				if e.StructuredOutput.ExceededRetries() {
					return message.Msg{}, agenterr.NewModelError("structured output", agenterr.NewSchemaError(fmt.Errorf("model never called %s", structuredoutput.ToolName), nil))
				}
				continue
			}
			return assistant, nil
		}

		if e.Steering != nil {
			if skipped, err := e.applySteering(toolUses); err != nil {
				return message.Msg{}, err
			} else if skipped {
				continue
			}
		}

		finished, err := e.act(ctx, bus, token, toolUses, pub)
		if err != nil {
			return message.Msg{}, err
		}
		if finished {
			if e.StructuredOutput != nil {
				if e.structuredPayload == nil {
					// generate_response was rejected (or not called): retry.
					e.StructuredOutput.ObserveRound(false)
					if e.StructuredOutput.ExceededRetries() {
						return message.Msg{}, agenterr.NewModelError("structured output", agenterr.NewSchemaError(fmt.Errorf("no valid %s payload", structuredoutput.ToolName), nil))
					}
					continue
				}
				if assistant.Metadata == nil {
					assistant.Metadata = make(map[string]any, 1)
				}
				assistant.Metadata["structured_data"] = e.structuredPayload
				e.structuredPayload = nil
				e.StructuredOutput.Reset()
			}
			return assistant, nil
		}
	}

	return e.summarize(ctx, bus, opts, pub)
}

// reason runs one REASON round: pre-reasoning hooks, the model stream
// (accumulating chunks and publishing them), and post-reasoning hooks.
// The returned Msg is appended to memory before ACT classification, per
// the ordering guarantee in spec §5.
func (e *Engine) reason(ctx context.Context, bus *hooks.Bus, opts CallOptions, pub *stream.Publisher, _ bool) (message.Msg, error) {
	messages := e.memoryWithSystemPrompt()
	generateOpts := opts.GenerateOptions
	if e.StructuredOutput != nil {
		generateOpts = generateOpts.Merge(e.StructuredOutput.GenerateOptionsOverride())
		if e.StructuredOutput.NeedsReminder() {
			reminder := e.StructuredOutput.ReminderMessage()
			messages = append(messages, reminder)
			if pub != nil {
				cumulative := reminder
				pub.Publish(ctx, stream.Event{Type: stream.EventHint, Cumulative: &cumulative})
			}
		}
	}

	preCount := len(messages)
	preEvent := bus.Dispatch(ctx, hooks.Event{Phase: hooks.PhasePreReasoning, Messages: messages, Options: generateOpts})
	messages = preEvent.Messages
	generateOpts = preEvent.Options
	if pub != nil {
		for i := preCount; i < len(messages); i++ {
			injected := messages[i]
			pub.Publish(ctx, stream.Event{Type: stream.EventHint, Cumulative: &injected})
		}
	}

	var tools []model.ToolSchema
	if e.Toolkit != nil {
		tools = e.Toolkit.Schemas()
	}

	respCh, err := e.Model.Stream(ctx, messages, tools, generateOpts)
	if err != nil {
		return message.Msg{}, agenterr.NewModelError("start model stream", err)
	}

	accumulated := message.Msg{ID: newMsgID(), Role: message.RoleAssistant, Name: e.Name}
	for delta := range respCh {
		if delta.Err != nil {
			return message.Msg{}, agenterr.NewModelError("model stream failed", delta.Err)
		}
		for _, block := range delta.Content {
			accumulated.Content = append(accumulated.Content, block)
			bus.Dispatch(ctx, hooks.Event{Phase: hooks.PhaseReasoningChunk, Response: delta})
			if pub != nil {
				msgCopy := accumulated
				pub.Publish(ctx, stream.Event{Type: stream.EventReasoning, Delta: block, Cumulative: &msgCopy})
			}
		}
		if delta.Usage != nil {
			accumulated.Usage = delta.Usage
		}
	}

	postEvent := bus.Dispatch(ctx, hooks.Event{Phase: hooks.PhasePostReasoning, Response: model.ChatResponse{Content: accumulated.Content}})
	if postEvent.GotoReasoning {
		if err := e.Memory.Extend(postEvent.Messages); err != nil {
			return message.Msg{}, agenterr.NewModelError("append hook-injected messages", err)
		}
		return e.reason(ctx, bus, opts, pub, false)
	}

	if err := e.Memory.Append(accumulated); err != nil {
		return message.Msg{}, agenterr.NewModelError("append assistant message", err)
	}
	if e.StructuredOutput != nil {
		for _, tu := range accumulated.ToolUses() {
			if tu.Name == structuredoutput.ToolName {
				e.StructuredOutput.ObserveRound(true)
			}
		}
	}
	return accumulated, nil
}

// applySteering drains e.Steering and, if any queued message asks to skip
// the remaining tool batch, short-circuits toolUses into "skipped"
// ToolResults instead of invoking them — the queued Content is appended to
// Memory either way so the next REASON round sees it.
func (e *Engine) applySteering(toolUses []message.ToolUse) (skipped bool, err error) {
	msgs := e.Steering.drain()
	if len(msgs) == 0 {
		return false, nil
	}

	skipRemaining := false
	var texts []string
	for _, m := range msgs {
		if strings.TrimSpace(m.Content) != "" {
			texts = append(texts, m.Content)
		}
		if m.SkipRemainingTools {
			skipRemaining = true
		}
	}

	if skipRemaining && len(toolUses) > 0 {
		toolMsg := message.Msg{ID: newMsgID(), Role: message.RoleTool, Name: e.Name}
		for _, tu := range toolUses {
			toolMsg.Content = append(toolMsg.Content, message.ToolResult{
				ID:     tu.ID,
				Name:   tu.Name,
				Output: []message.ContentBlock{message.Text{Text: "Skipped due to steering message"}},
			})
		}
		if err := e.Memory.Append(toolMsg); err != nil {
			return false, agenterr.NewModelError("append steering-skipped tool results", err)
		}
		skipped = true
	}

	for _, t := range texts {
		msg := message.Msg{ID: newMsgID(), Role: message.RoleUser, Content: []message.ContentBlock{message.Text{Text: t}}}
		if err := e.Memory.Append(msg); err != nil {
			return false, agenterr.NewModelError("append steering message", err)
		}
	}
	return skipped, nil
}

// act executes every ToolUse block from one assistant turn, in order,
// bounded by Config.ToolConcurrency, rejoining results in input order
// into a single TOOL-role message (spec §5 ordering guarantees). It
// returns true if any invoked tool was a finish sentinel.
func (e *Engine) act(ctx context.Context, bus *hooks.Bus, token *concurrency.Token, toolUses []message.ToolUse, pub *stream.Publisher) (bool, error) {
	bus.Dispatch(ctx, hooks.Event{Phase: hooks.PhasePreActing})

	type outcome struct {
		result message.ToolResult
	}

	results := concurrency.FanOut(ctx, toolUses, e.Config.ToolConcurrency, func(ctx context.Context, tu message.ToolUse, _ int) outcome {
		preEvent := bus.Dispatch(ctx, hooks.Event{Phase: hooks.PhasePreTool, ToolName: tu.Name, ToolCallID: tu.ID, ToolInput: tu.Input})

		toolCtx, cancel := token.WithToolTimeout(e.Config.DefaultToolTimeout)
		defer cancel()

		var blocks []message.ContentBlock
		var err error
		if e.Approval != nil && e.Approval.Check(toolCtx, tu.Name, preEvent.ToolInput) == toolkit.ApprovalDenied {
			err = toolkit.ErrToolDenied{Name: tu.Name}
			blocks = errorToTextBlocks(toolCtx, err)
		} else {
			blocks, err = e.Toolkit.Invoke(toolCtx, tu.Name, preEvent.ToolInput)
			if err != nil {
				blocks = errorToTextBlocks(toolCtx, err)
			}
		}
		if e.ResultGuard != nil {
			blocks = e.ResultGuard.Apply(tu.Name, blocks)
		}

		postEvent := bus.Dispatch(ctx, hooks.Event{Phase: hooks.PhasePostTool, ToolName: tu.Name, ToolCallID: tu.ID, ToolResult: blocks, ToolErr: err})

		result := message.ToolResult{ID: tu.ID, Name: tu.Name, Output: postEvent.ToolResult}
		if pub != nil {
			cumulative := message.Msg{Role: message.RoleTool, Content: []message.ContentBlock{result}}
			pub.Publish(ctx, stream.Event{Type: stream.EventToolResult, ToolName: tu.Name, ToolCallID: tu.ID, Cumulative: &cumulative})
		}
		return outcome{result: result}
	})

	toolMsg := message.Msg{ID: newMsgID(), Role: message.RoleTool, Name: e.Name}
	finished := false
	for i, tu := range toolUses {
		toolMsg.Content = append(toolMsg.Content, results[i].result)
		if finishSentinels[tu.Name] {
			finished = true
		}
	}

	postActing := bus.Dispatch(ctx, hooks.Event{Phase: hooks.PhasePostActing})

	if err := e.Memory.Append(toolMsg); err != nil {
		return false, agenterr.NewModelError("append tool results", err)
	}
	if postActing.Cancel {
		token.Interrupt()
	}
	return finished, nil
}

// errorToTextBlocks converts a tool handler failure (or timeout) into the
// single `Error: ...` text block the spec requires (§4.1/§4.3).
func errorToTextBlocks(ctx context.Context, err error) []message.ContentBlock {
	if ctx.Err() != nil {
		return []message.ContentBlock{message.Text{Text: "Tool execution timeout"}}
	}
	return []message.ContentBlock{message.Text{Text: "Error: " + err.Error()}}
}

// summarize handles max-iteration overflow: inject a hint and call the
// model once more, returning whatever it produces as terminal.
func (e *Engine) summarize(ctx context.Context, bus *hooks.Bus, opts CallOptions, pub *stream.Publisher) (message.Msg, error) {
	hint := message.Msg{
		ID:      newMsgID(),
		Role:    message.RoleUser,
		Content: []message.ContentBlock{message.Text{Text: "failed to generate response within the iteration budget; summarizing what has been done so far."}},
	}
	if err := e.Memory.Append(hint); err != nil {
		return message.Msg{}, agenterr.NewModelError("append summarization hint", err)
	}

	assistant, err := e.reason(ctx, bus, opts, pub, true)
	if err != nil {
		return message.Msg{}, err
	}
	if pub != nil {
		cumulative := assistant
		pub.Publish(ctx, stream.Event{Type: stream.EventSummary, Cumulative: &cumulative})
	}
	return assistant, nil
}

// handleInterrupt returns a terminal InterruptError, optionally appending
// a synthetic INTERRUPT message to memory first.
func (e *Engine) handleInterrupt(ctx context.Context, opts CallOptions) (message.Msg, error) {
	if opts.AppendInterruptMessage {
		interruptMsg := message.Msg{
			ID:      newMsgID(),
			Role:    message.RoleAssistant,
			Name:    e.Name,
			Content: []message.ContentBlock{message.Text{Text: "call interrupted"}},
		}
		_ = e.Memory.Append(interruptMsg)
	}
	return message.Msg{}, agenterr.NewInterruptError(ctx.Err())
}

// memoryWithSystemPrompt prepends the engine's system prompt as a
// SYSTEM-role message to the current memory snapshot, unless empty.
func (e *Engine) memoryWithSystemPrompt() []message.Msg {
	snapshot := e.Memory.Snapshot()
	if e.SystemPrompt == "" {
		return snapshot
	}
	out := make([]message.Msg, 0, len(snapshot)+1)
	out = append(out, message.Msg{
		ID:      "system-prompt",
		Role:    message.RoleSystem,
		Content: []message.ContentBlock{message.Text{Text: e.SystemPrompt}},
	})
	return append(out, snapshot...)
}
