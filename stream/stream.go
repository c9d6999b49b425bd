// Package stream implements the public event stream CallStream publishes
// to: a filtered, bounded-channel projection of the hooks bus onto a
// consumer-facing event type, adapted from the teacher's
// EventEmitter+ChanSink pair (internal/agent/event_emitter.go,
// internal/agent/event_sink.go) generalized to the spec's filterable
// StreamOptions instead of the teacher's fixed AgentEventType enum.
package stream

import (
	"context"

	"github.com/nexuscore/agentkit/message"
)

// EventType classifies an emitted Event for StreamOptions filtering.
type EventType string

const (
	EventReasoning   EventType = "REASONING"
	EventToolResult  EventType = "TOOL_RESULT"
	EventHint        EventType = "HINT"
	EventSummary     EventType = "SUMMARY"
	EventAgentResult EventType = "AGENT_RESULT"
)

// allEventTypes is the full set StreamOptions{} (zero value) resolves to,
// matching the spec's "Default: all types" rule.
var allEventTypes = map[EventType]bool{
	EventReasoning:   true,
	EventToolResult:  true,
	EventHint:        true,
	EventSummary:     true,
	EventAgentResult: true,
}

// Event is one item on the public stream.
type Event struct {
	Type EventType

	// Delta is the incremental content for this emission (a single new
	// content block, e.g. a text fragment); kept on REASONING events only
	// when both Options.Incremental and IncludeReasoningChunk are set.
	Delta message.ContentBlock

	// Cumulative is the full accumulated message so far; populated for
	// REASONING events when IncludeReasoningResult is set, and always for
	// TOOL_RESULT/HINT/SUMMARY/AGENT_RESULT events.
	Cumulative *message.Msg

	// ToolName/ToolCallID identify the tool a TOOL_RESULT event belongs to.
	ToolName   string
	ToolCallID string
}

// Options filters and shapes what Publisher.Publish actually forwards to
// the consumer channel. The zero value is the spec's documented default:
// every event type, incremental chunks, and both chunk and result for
// reasoning events.
type Options struct {
	EventTypes             map[EventType]bool
	Incremental            bool
	IncludeReasoningChunk  bool
	IncludeReasoningResult bool

	explicit bool // true once resolve() has normalized zero-value defaults
}

func (o Options) resolve() Options {
	if o.explicit {
		return o
	}
	resolved := o
	if resolved.EventTypes == nil {
		resolved.EventTypes = allEventTypes
	}
	if !anyFieldSet(o) {
		resolved.Incremental = true
		resolved.IncludeReasoningChunk = true
		resolved.IncludeReasoningResult = true
	}
	resolved.explicit = true
	return resolved
}

func anyFieldSet(o Options) bool {
	return o.Incremental || o.IncludeReasoningChunk || o.IncludeReasoningResult || len(o.EventTypes) > 0
}

// DefaultCapacity is the bounded consumer channel size the spec mandates
// absent an override.
const DefaultCapacity = 64

// Publisher filters Events through Options and pushes the survivors onto
// a bounded channel, blocking the producer (the engine) when the consumer
// falls behind — the spec's documented back-pressure contract.
type Publisher struct {
	opts Options
	ch   chan Event
}

// NewPublisher returns a Publisher with the given options and channel
// capacity. A capacity of 0 uses DefaultCapacity.
func NewPublisher(opts Options, capacity int) *Publisher {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Publisher{opts: opts.resolve(), ch: make(chan Event, capacity)}
}

// Events returns the consumer-facing receive channel.
func (p *Publisher) Events() <-chan Event { return p.ch }

// Close closes the consumer channel. Call once, after the engine has
// finished publishing for this call.
func (p *Publisher) Close() { close(p.ch) }

// Publish filters event according to the Publisher's Options and, if it
// survives, sends it on the consumer channel. Publish blocks until the
// send completes or ctx is done, implementing the documented
// back-pressure-pauses-the-engine behavior.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if !p.opts.EventTypes[event.Type] {
		return
	}
	if event.Type == EventReasoning {
		if event.Delta != nil && !(p.opts.Incremental && p.opts.IncludeReasoningChunk) {
			event.Delta = nil
		}
		if event.Cumulative != nil && !p.opts.IncludeReasoningResult {
			event.Cumulative = nil
		}
		if event.Delta == nil && event.Cumulative == nil {
			return
		}
	}

	select {
	case p.ch <- event:
	case <-ctx.Done():
	}
}
