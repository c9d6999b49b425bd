package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nexuscore/agentkit/agenterr"
	"github.com/nexuscore/agentkit/hooks"
	"github.com/nexuscore/agentkit/memory"
	"github.com/nexuscore/agentkit/message"
	"github.com/nexuscore/agentkit/model"
	"github.com/nexuscore/agentkit/plan"
	"github.com/nexuscore/agentkit/session"
	"github.com/nexuscore/agentkit/stream"
	"github.com/nexuscore/agentkit/structuredoutput"
	"github.com/nexuscore/agentkit/toolkit"
)

// finishSentinels names the tool calls that terminate the ACT phase
// directly rather than looping back to REASON (spec §4.1).
var finishSentinels = map[string]bool{
	structuredoutput.ToolName: true,
	plan.FinishToolName:       true,
}

// Engine drives one agent's ReAct loop. Concurrent calls on the same
// Engine are serialized by mu, matching the spec's shared-mutable-state
// rule for Memory/Toolkit/PlanNotebook (§5).
type Engine struct {
	Name         string
	SystemPrompt string

	Model   model.Model
	Toolkit *toolkit.Toolkit
	Memory  *memory.Memory
	Hooks   *hooks.Bus

	// StructuredOutput, when non-nil, registers generate_response and
	// drives its retry/reminder lifecycle across rounds.
	StructuredOutput *structuredoutput.Coordinator
	// PlanNotebook, when non-nil, has its four tools already registered
	// on Toolkit and its hint hook registered on Hooks by the caller.
	PlanNotebook *plan.Notebook

	// Approval, when non-nil, gates every tool call through a policy
	// before Toolkit.Invoke runs. Disabled by default.
	Approval *toolkit.ApprovalChecker
	// Steering, when non-nil, lets a caller redirect a run mid-ACT
	// without cancelling it. Disabled by default.
	Steering *SteeringQueue
	// ResultGuard, when non-nil, scrubs tool output before it reaches
	// Memory. Disabled by default.
	ResultGuard *toolkit.ResultGuard

	Config Config

	mu                sync.Mutex
	runSeq            int
	structuredPayload map[string]any
}

// ConfigureStructuredOutput registers coordinator's synthetic tool on the
// engine's Toolkit and wires its accepted payload back onto the engine so
// the terminal message can carry metadata.structured_data (spec §4.4/P5).
func (e *Engine) ConfigureStructuredOutput(coordinator *structuredoutput.Coordinator) {
	e.StructuredOutput = coordinator
	coordinator.RegisterTool(e.Toolkit, func(payload map[string]any) {
		e.structuredPayload = payload
	})
}

// New constructs an Engine with cfg merged onto DefaultConfig.
func New(name string, m model.Model, kit *toolkit.Toolkit, mem *memory.Memory, bus *hooks.Bus, cfg Config) *Engine {
	return &Engine{
		Name:    name,
		Model:   m,
		Toolkit: kit,
		Memory:  mem,
		Hooks:   bus,
		Config:  mergeConfig(DefaultConfig(), cfg),
	}
}

// CallOptions configures a single Call/CallStream invocation.
type CallOptions struct {
	GenerateOptions model.GenerateOptions
	// AppendInterruptMessage controls whether an INTERRUPT synthetic
	// terminal message is appended to memory on cancellation.
	AppendInterruptMessage bool
}

func (e *Engine) nextRunID() string {
	e.runSeq++
	return fmt.Sprintf("%s-run-%d", e.Name, e.runSeq)
}

// Call runs the ReAct loop to completion and returns the terminal
// message. input may be nil to "continue" from existing memory without
// appending a new user message (spec §4.1 continue mode).
func (e *Engine) Call(ctx context.Context, input *message.Msg, opts CallOptions) (message.Msg, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.run(ctx, input, opts, nil)
}

// CallStream runs the ReAct loop to completion, additionally publishing
// hook-derived events to a bounded channel filtered by streamOpts. The
// returned channel is closed once the terminal message is available or
// the call fails; the terminal result/error is delivered on the second
// return value exactly once.
func (e *Engine) CallStream(ctx context.Context, input *message.Msg, opts CallOptions, streamOpts stream.Options) (<-chan stream.Event, <-chan Result) {
	resultCh := make(chan Result, 1)
	pub := stream.NewPublisher(streamOpts, 0)

	go func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		defer pub.Close()

		msg, err := e.run(ctx, input, opts, pub)
		if err == nil {
			cumulative := msg
			pub.Publish(ctx, stream.Event{Type: stream.EventAgentResult, Cumulative: &cumulative})
		}
		resultCh <- Result{Msg: msg, Err: err}
		close(resultCh)
	}()

	return pub.Events(), resultCh
}

// Result is the terminal outcome of a CallStream invocation.
type Result struct {
	Msg message.Msg
	Err error
}

// SaveTo writes the engine's state to store under key, one field per flag
// set in persist: agent_meta (AgentManaged), memory_messages (MemoryManaged,
// one list item appended per message in memory) and toolkit_activeGroups
// (ToolkitManaged, when Toolkit is set). PlanNotebookManaged is not acted
// on: plan_notebook is never written.
func (e *Engine) SaveTo(ctx context.Context, store session.Store, key session.SessionKey, persist session.StatePersistence) error {
	if persist.AgentManaged {
		meta := map[string]any{"id": e.Name, "name": e.Name, "systemPrompt": e.SystemPrompt}
		encoded, err := json.Marshal(meta)
		if err != nil {
			return agenterr.NewStateError("encode agent_meta", err)
		}
		if err := store.Put(ctx, key, session.FieldAgentMeta, encoded); err != nil {
			return agenterr.NewStateError("save agent_meta", err)
		}
	}
	if persist.MemoryManaged {
		for _, msg := range e.Memory.Snapshot() {
			encoded, err := json.Marshal(msg)
			if err != nil {
				return agenterr.NewStateError("encode memory message", err)
			}
			if err := store.AppendList(ctx, key, session.FieldMemoryMessages, encoded); err != nil {
				return agenterr.NewStateError("save memory message", err)
			}
		}
	}
	if persist.ToolkitManaged && e.Toolkit != nil {
		encoded, err := json.Marshal(map[string]any{"activeGroups": e.Toolkit.ActiveGroups()})
		if err != nil {
			return agenterr.NewStateError("encode toolkit_activeGroups", err)
		}
		if err := store.Put(ctx, key, session.FieldToolkitActiveGroups, encoded); err != nil {
			return agenterr.NewStateError("save toolkit_activeGroups", err)
		}
	}
	return nil
}

// LoadFrom restores memory_messages (MemoryManaged) and toolkit_activeGroups
// (ToolkitManaged) from store, using SaveTo's field layout. It is a no-op
// (returning nil) for any module whose field is absent, matching
// loadIfExists semantics. agent_meta and plan_notebook are not read.
func (e *Engine) LoadFrom(ctx context.Context, store session.Store, key session.SessionKey, persist session.StatePersistence) error {
	if persist.MemoryManaged {
		items, err := store.GetList(ctx, key, session.FieldMemoryMessages)
		if err != nil {
			return agenterr.NewStateError("load memory messages", err)
		}
		msgs := make([]message.Msg, 0, len(items))
		for _, raw := range items {
			var msg message.Msg
			if err := json.Unmarshal(raw, &msg); err != nil {
				return agenterr.NewStateError("decode memory message", err)
			}
			msgs = append(msgs, msg)
		}
		if len(msgs) > 0 {
			e.Memory.Load(msgs)
		}
	}
	if persist.ToolkitManaged && e.Toolkit != nil {
		raw, ok, err := store.Get(ctx, key, session.FieldToolkitActiveGroups)
		if err != nil {
			return agenterr.NewStateError("load toolkit_activeGroups", err)
		}
		if ok {
			var decoded struct {
				ActiveGroups []string `json:"activeGroups"`
			}
			if err := json.Unmarshal(raw, &decoded); err != nil {
				return agenterr.NewStateError("decode toolkit_activeGroups", err)
			}
			e.Toolkit.SetActiveGroups(decoded.ActiveGroups)
		}
	}
	return nil
}

func newMsgID() string { return uuid.NewString() }
