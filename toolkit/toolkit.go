// Package toolkit is the tool registry the ReAct engine dispatches against.
// It is adapted from the teacher's internal/agent.ToolRegistry (name-keyed
// map with thread-safe registration and lookup) generalized with the
// spec's active-group filter — a simplified, tool-name-only version of
// internal/tools/policy's Allow/Deny/Profile resolver, since the spec names
// only a group-tag filter, not a full policy language.
package toolkit

import (
	"context"
	"fmt"
	"sync"

	"github.com/nexuscore/agentkit/message"
	"github.com/nexuscore/agentkit/model"
)

// HandlerFunc executes a tool call and returns the content blocks that make
// up the ToolResult's Output. Returning an error is equivalent to the
// handler failing; the engine converts every such error into a single
// `Error: <message>` Text block (or "Tool execution timeout" when the
// call's context is done) rather than aborting the loop.
type HandlerFunc func(ctx context.Context, input map[string]any) ([]message.ContentBlock, error)

// Tool is a declarative tool descriptor: a name, description, and JSON
// Schema exposed to the model, plus the handler invoked when the model
// calls it. Group, when set, lets a Toolkit's ActiveGroups filter include
// or exclude the tool per round.
type Tool struct {
	Name        string
	Description string
	Schema      map[string]any
	Handler     HandlerFunc
	Group       string
}

// Toolkit maps tool names to descriptors and filters exposure by active
// group tags. The zero value is not usable; construct with New.
type Toolkit struct {
	mu           sync.RWMutex
	tools        map[string]Tool
	activeGroups map[string]bool // nil/empty means "all groups active"
}

// New returns an empty Toolkit with no group filter (every registered tool
// is exposed).
func New() *Toolkit {
	return &Toolkit{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool by name.
func (k *Toolkit) Register(tool Tool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.tools[tool.Name] = tool
}

// Unregister removes a tool by name.
func (k *Toolkit) Unregister(name string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.tools, name)
}

// Get returns a tool descriptor by name, regardless of active-group
// filtering (filtering only affects Schemas()).
func (k *Toolkit) Get(name string) (Tool, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	t, ok := k.tools[name]
	return t, ok
}

// SetActiveGroups restricts which tools Schemas() exposes to the groups
// named. An empty or nil set disables filtering (all tools are active);
// tools with no Group are always considered active regardless of the
// filter, since they have no group to test against.
func (k *Toolkit) SetActiveGroups(groups []string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(groups) == 0 {
		k.activeGroups = nil
		return
	}
	active := make(map[string]bool, len(groups))
	for _, g := range groups {
		active[g] = true
	}
	k.activeGroups = active
}

// ActiveGroups returns the currently active group tags, or nil if
// filtering is disabled.
func (k *Toolkit) ActiveGroups() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if len(k.activeGroups) == 0 {
		return nil
	}
	groups := make([]string, 0, len(k.activeGroups))
	for g := range k.activeGroups {
		groups = append(groups, g)
	}
	return groups
}

func (k *Toolkit) isActive(t Tool) bool {
	if len(k.activeGroups) == 0 || t.Group == "" {
		return true
	}
	return k.activeGroups[t.Group]
}

// Schemas returns the model.ToolSchema list for every currently active
// tool, for passing to Model.Stream each reasoning round.
func (k *Toolkit) Schemas() []model.ToolSchema {
	k.mu.RLock()
	defer k.mu.RUnlock()
	schemas := make([]model.ToolSchema, 0, len(k.tools))
	for _, t := range k.tools {
		if !k.isActive(t) {
			continue
		}
		schemas = append(schemas, model.ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Schema,
		})
	}
	return schemas
}

// ErrToolNotFound is returned by Invoke when name has no registered
// handler.
type ErrToolNotFound struct{ Name string }

func (e ErrToolNotFound) Error() string { return fmt.Sprintf("toolkit: tool not found: %s", e.Name) }

// ErrToolTimeout is returned by Invoke when ctx is done before the
// handler returns. The handler goroutine itself is left running — a
// HandlerFunc that ignores ctx cannot be killed out from under itself,
// only abandoned — so handlers that perform side effects should still
// check ctx themselves wherever possible.
type ErrToolTimeout struct{ Name string }

func (e ErrToolTimeout) Error() string { return fmt.Sprintf("toolkit: tool timed out: %s", e.Name) }

// Invoke runs a tool's handler on its own goroutine and races it against
// ctx, so a handler that never checks ctx itself still can't block the
// ACT phase past its deadline (spec §4.3's per-tool ExecutionConfig
// timeout). The engine's PostTool hook still fires once Invoke returns;
// a timed-out handler's eventual result, if any, is discarded.
func (k *Toolkit) Invoke(ctx context.Context, name string, input map[string]any) ([]message.ContentBlock, error) {
	k.mu.RLock()
	tool, ok := k.tools[name]
	k.mu.RUnlock()
	if !ok {
		return nil, ErrToolNotFound{Name: name}
	}

	type outcome struct {
		blocks []message.ContentBlock
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		blocks, err := tool.Handler(ctx, input)
		done <- outcome{blocks, err}
	}()

	select {
	case out := <-done:
		return out.blocks, out.err
	case <-ctx.Done():
		return nil, ErrToolTimeout{Name: name}
	}
}
