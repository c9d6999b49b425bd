// Package structuredoutput implements the structured-output coordinator
// (spec §4.4): a synthetic generate_response tool keyed to a target
// schema, with TOOL_CHOICE (forcing) and PROMPT (reminder-only) modes and
// schema validation via santhosh-tekuri/jsonschema/v5, grounded on the
// teacher's pkg/pluginsdk/validation.go compileSchema/cache pattern.
package structuredoutput

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nexuscore/agentkit/agenterr"
	"github.com/nexuscore/agentkit/message"
	"github.com/nexuscore/agentkit/model"
	"github.com/nexuscore/agentkit/schema"
	"github.com/nexuscore/agentkit/toolkit"
)

// Mode selects how the coordinator nudges the model toward calling the
// synthetic tool.
type Mode string

const (
	// ModeToolChoice is preferred: on retry after a missed call, the
	// coordinator forces ToolChoice = Specific(ToolName) in addition to
	// injecting a reminder message.
	ModeToolChoice Mode = "TOOL_CHOICE"
	// ModePrompt never forces tool choice; only the reminder message is
	// injected on retry.
	ModePrompt Mode = "PROMPT"
)

// ToolName is the synthetic tool the coordinator registers.
const ToolName = "generate_response"

// Metadata keys stamped onto the injected reminder message (spec §4.4).
const (
	MetaReminder          = "STRUCTURED_OUTPUT_REMINDER"
	MetaReminderType      = "STRUCTURED_OUTPUT_REMINDER_TYPE"
	MetaBypassHistoryFold = "BYPASS_MULTIAGENT_HISTORY_MERGE"
)

// DefaultMaxRetries is the schema-validation retry cap before a failure
// is surfaced as a ModelError wrapping a SchemaError.
const DefaultMaxRetries = 2

// Coordinator drives one target schema's generate_response lifecycle
// across reasoning rounds.
type Coordinator struct {
	mode        Mode
	maxRetries  int
	target        any
	schema        map[string]any
	compiled      *jsonschema.Schema
	mu            sync.Mutex
	needsRetry    bool
	needsReminder bool
	attempts      int
}

// New builds a Coordinator for target (a pointer to a struct used purely
// for its type/tags) using gen to reflect its JSON Schema. maxRetries <=
// 0 uses DefaultMaxRetries.
func New(mode Mode, target any, gen schema.Generator, maxRetries int) (*Coordinator, error) {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	generated, err := gen.Generate(target)
	if err != nil {
		return nil, agenterr.NewConfigError("structured output: failed to generate schema: " + err.Error())
	}

	encoded, err := json.Marshal(generated)
	if err != nil {
		return nil, agenterr.NewConfigError("structured output: failed to encode schema: " + err.Error())
	}
	compiled, err := jsonschema.CompileString(ToolName+".schema.json", string(encoded))
	if err != nil {
		return nil, agenterr.NewConfigError("structured output: invalid schema: " + err.Error())
	}

	return &Coordinator{mode: mode, maxRetries: maxRetries, target: target, schema: generated, compiled: compiled}, nil
}

// RegisterTool adds the synthetic generate_response tool to kit. Its
// handler validates the call's input against the target schema and, on
// success, stores the decoded payload for the engine to surface as
// metadata.structured_data; on failure it returns a SchemaError, which
// the engine routes back through the coordinator's retry logic rather
// than surfacing to the caller directly.
func (c *Coordinator) RegisterTool(kit *toolkit.Toolkit, onAccepted func(payload map[string]any)) {
	kit.Register(toolkit.Tool{
		Name:        ToolName,
		Description: "Emit the final structured response matching the required schema.",
		Schema:      c.schema,
		Handler: func(ctx context.Context, input map[string]any) ([]message.ContentBlock, error) {
			if err := c.Validate(input); err != nil {
				return nil, err
			}
			c.mu.Lock()
			c.needsRetry = false
			c.needsReminder = false
			c.attempts = 0
			c.mu.Unlock()
			if onAccepted != nil {
				onAccepted(input)
			}
			return []message.ContentBlock{message.Text{Text: "structured response accepted"}}, nil
		},
	})
}

// Validate checks payload against the coordinator's compiled schema,
// returning a *agenterr.SchemaError listing every validation failure.
func (c *Coordinator) Validate(payload map[string]any) error {
	if err := c.compiled.Validate(payload); err != nil {
		var details []string
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			for _, cause := range verr.Causes {
				details = append(details, cause.Error())
			}
		}
		if len(details) == 0 {
			details = []string{err.Error()}
		}
		return agenterr.NewSchemaError(err, details)
	}
	return nil
}

// ObserveRound inspects whether the assistant's response called the
// synthetic tool; if not, it flags needsRetry/needsReminder for the next
// round's ReminderMessage/GenerateOptionsOverride to pick up.
func (c *Coordinator) ObserveRound(calledTool bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if calledTool {
		return
	}
	c.needsRetry = true
	c.needsReminder = true
	c.attempts++
}

// ExceededRetries reports whether the coordinator has already retried
// maxRetries times without a valid structured response.
func (c *Coordinator) ExceededRetries() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts > c.maxRetries
}

// NeedsReminder reports whether the next reasoning round should receive
// the injected reminder message.
func (c *Coordinator) NeedsReminder() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.needsReminder
}

// ReminderMessage builds the tagged reminder USER-role message injected
// when NeedsReminder is true.
func (c *Coordinator) ReminderMessage() message.Msg {
	return message.Msg{
		Role:    message.RoleUser,
		Content: []message.ContentBlock{message.Text{Text: "You must call the " + ToolName + " tool with your final answer matching the required schema."}},
		Metadata: map[string]any{
			MetaReminder:          true,
			MetaReminderType:      string(c.mode),
			MetaBypassHistoryFold: true,
		},
	}
}

// GenerateOptionsOverride returns the GenerateOptions overlay to apply to
// the next round: ToolChoice forced to generate_response when the mode is
// TOOL_CHOICE and a retry is in flight, otherwise the zero value (no
// override).
func (c *Coordinator) GenerateOptionsOverride() model.GenerateOptions {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeToolChoice && c.needsRetry {
		return model.GenerateOptions{ToolChoice: model.ToolChoiceSpecific(ToolName)}
	}
	return model.GenerateOptions{}
}

// Reset clears retry/reminder state, called after a successful terminal
// response regardless of whether this coordinator's tool was the one
// that finished the call.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.needsRetry = false
	c.needsReminder = false
	c.attempts = 0
}
