// Package hooks implements the engine's interception bus (spec §5). Unlike
// the teacher's EventSink/EventEmitter, which only ever emit events
// one-way to observers, a Hook here is consulted synchronously and may
// mutate the event it receives before returning it — the engine applies
// whatever mutation survives the full, ordered hook chain. The sequencing
// and RunID/sequence-number bookkeeping is adapted directly from the
// teacher's EventEmitter.
package hooks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nexuscore/agentkit/message"
	"github.com/nexuscore/agentkit/model"
)

// Phase names the point in the ReAct loop a hook fires at.
type Phase string

const (
	PhasePreReasoning   Phase = "pre_reasoning"
	PhaseReasoningChunk Phase = "reasoning_chunk"
	PhasePostReasoning  Phase = "post_reasoning"
	PhasePreActing      Phase = "pre_acting"
	PhasePostActing     Phase = "post_acting"
	PhasePreTool        Phase = "pre_tool"
	PhasePostTool       Phase = "post_tool"
)

// Event is the mutable payload passed through a hook chain. Only the
// fields relevant to Phase are populated by the engine; a hook must check
// Phase before reading or writing phase-specific fields.
type Event struct {
	Phase     Phase
	RunID     string
	Sequence  uint64
	Time      time.Time
	TurnIndex int

	// Populated for PreReasoning: the transcript the engine is about to
	// send, and the generate options a hook may override for this round
	// only (e.g. forcing a ToolChoice). On PostReasoning the engine leaves
	// both empty; a hook that sets GotoReasoning puts the messages to
	// append to memory in Messages.
	Messages []message.Msg
	Options  model.GenerateOptions

	// Populated for ReasoningChunk (the delta just received from the
	// model) and PostReasoning (the full accumulated response).
	Response model.ChatResponse

	// Populated for PreTool/PostTool: the tool call under consideration
	// and, after execution, its result blocks.
	ToolName   string
	ToolCallID string
	ToolInput  map[string]any
	ToolResult []message.ContentBlock
	ToolErr    error

	// GotoReasoning, when set true by a hook during PostReasoning, makes
	// the engine discard the response it just received, append Messages to
	// memory, and run REASON again. It is not read on other phases.
	GotoReasoning bool

	// Cancel, when set true by a hook, stops the rest of the hook chain for
	// this dispatch. The engine acts on it only for PostActing, where it
	// interrupts the engine's cancellation Token so the call ends before
	// the next REASON round (unless that round already finished the call).
	Cancel bool
}

// Hook observes or mutates an Event and returns the (possibly modified)
// Event to pass to the next hook in the chain.
type Hook interface {
	Handle(ctx context.Context, event Event) Event
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx context.Context, event Event) Event

func (f HookFunc) Handle(ctx context.Context, event Event) Event { return f(ctx, event) }

// Bus dispatches events to registered hooks in registration order, one
// phase at a time, threading each hook's return value into the next —
// the sequential-mutation semantics spec §5 requires in place of the
// teacher's fire-and-forget EventSink fan-out.
type Bus struct {
	mu       sync.RWMutex
	byPhase  map[Phase][]Hook
	runID    string
	sequence uint64
}

// NewBus returns an empty Bus scoped to one agent run.
func NewBus(runID string) *Bus {
	return &Bus{byPhase: make(map[Phase][]Hook), runID: runID}
}

// On registers hook to fire at phase, in the order registered.
func (b *Bus) On(phase Phase, hook Hook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byPhase[phase] = append(b.byPhase[phase], hook)
}

func (b *Bus) nextSeq() uint64 {
	return atomic.AddUint64(&b.sequence, 1)
}

// Dispatch runs every hook registered for event.Phase in order, returning
// the event as mutated by the last hook in the chain. If no hooks are
// registered for the phase, event is returned unchanged aside from the
// stamped RunID/Sequence/Time.
func (b *Bus) Dispatch(ctx context.Context, event Event) Event {
	event.RunID = b.runID
	event.Sequence = b.nextSeq()
	event.Time = time.Now()

	b.mu.RLock()
	chain := append([]Hook(nil), b.byPhase[event.Phase]...)
	b.mu.RUnlock()

	for _, hook := range chain {
		event = hook.Handle(ctx, event)
		if event.Cancel {
			break
		}
	}
	return event
}
