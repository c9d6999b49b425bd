// Package model declares the abstract streaming chat contract the ReAct
// engine consumes. No concrete provider client lives here — per spec §1 the
// LLM provider adapter is an external collaborator the core only depends on
// through this interface, analogous to how the teacher's
// internal/agent.LLMProvider keeps Anthropic/OpenAI specifics out of the
// loop package.
package model

import (
	"context"

	"github.com/nexuscore/agentkit/message"
)

// ToolChoice constrains which tool (if any) the model must call on its next
// turn.
type ToolChoice struct {
	// Mode is one of "auto", "none", or "specific".
	Mode string
	// Name is the tool name when Mode is "specific".
	Name string
}

// ToolChoiceAuto lets the model decide whether to call a tool.
func ToolChoiceAuto() ToolChoice { return ToolChoice{Mode: "auto"} }

// ToolChoiceNone forbids tool calls on the next turn.
func ToolChoiceNone() ToolChoice { return ToolChoice{Mode: "none"} }

// ToolChoiceSpecific forces the model to call the named tool.
func ToolChoiceSpecific(name string) ToolChoice { return ToolChoice{Mode: "specific", Name: name} }

// GenerateOptions configures a single Model.Stream call. Unset fields (zero
// values) inherit the caller's configured defaults; the structured-output
// coordinator and hooks may merge overlays onto caller-supplied options.
type GenerateOptions struct {
	Temperature         *float64
	TopP                *float64
	MaxTokens           int
	FrequencyPenalty    *float64
	PresencePenalty     *float64
	ThinkingBudget      int
	ToolChoice          ToolChoice
	AdditionalBodyParams map[string]any
}

// Merge returns a copy of o with every field that overlay sets (non-zero)
// replaced by overlay's value; fields overlay leaves unset keep o's value.
// AdditionalBodyParams are merged key by key, overlay's keys winning.
// Pointer fields are replaced only when
// overlay's pointer is non-nil; ToolChoice is replaced only when overlay's
// Mode is non-empty.
func (o GenerateOptions) Merge(overlay GenerateOptions) GenerateOptions {
	merged := o
	if overlay.Temperature != nil {
		merged.Temperature = overlay.Temperature
	}
	if overlay.TopP != nil {
		merged.TopP = overlay.TopP
	}
	if overlay.MaxTokens > 0 {
		merged.MaxTokens = overlay.MaxTokens
	}
	if overlay.FrequencyPenalty != nil {
		merged.FrequencyPenalty = overlay.FrequencyPenalty
	}
	if overlay.PresencePenalty != nil {
		merged.PresencePenalty = overlay.PresencePenalty
	}
	if overlay.ThinkingBudget > 0 {
		merged.ThinkingBudget = overlay.ThinkingBudget
	}
	if overlay.ToolChoice.Mode != "" {
		merged.ToolChoice = overlay.ToolChoice
	}
	if len(overlay.AdditionalBodyParams) > 0 {
		merged.AdditionalBodyParams = make(map[string]any, len(overlay.AdditionalBodyParams))
		for k, v := range o.AdditionalBodyParams {
			merged.AdditionalBodyParams[k] = v
		}
		for k, v := range overlay.AdditionalBodyParams {
			merged.AdditionalBodyParams[k] = v
		}
	}
	return merged
}

// ToolSchema is the wire shape of a tool description sent to the model each
// round (see toolkit.Toolkit.Schemas).
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ChatResponse is one element of the lazy stream a Model produces. The
// engine treats the stream as unbounded and incremental: successive
// elements may extend text/thinking content or finalize tool-use blocks,
// and the engine is responsible for accumulating deltas into a single
// terminal Msg. Err is set on the final element when the model failed
// mid-stream; the engine surfaces it as a ModelError and stops accumulating.
type ChatResponse struct {
	ID      string
	Content []message.ContentBlock
	Usage   *message.ChatUsage
	Err     error
}

// Model is the one collaborator the ReAct engine requires to reason. A
// concrete implementation wraps a vendor SDK/HTTP client; the engine never
// imports one directly.
type Model interface {
	// Stream sends messages and the currently active tool schemas to the
	// model and returns a channel of incremental ChatResponse deltas. The
	// channel is closed when the model finishes generating or ctx is
	// cancelled. An error returned directly indicates the call could not
	// be started at all; an error surfaced via ChatResponse.Err indicates
	// the stream failed after it was already underway.
	Stream(ctx context.Context, messages []message.Msg, tools []ToolSchema, opts GenerateOptions) (<-chan ChatResponse, error)
}
