// Package agenterr defines the engine's closed error taxonomy (spec §4.4):
// ModelError, ToolError, SchemaError, InterruptError, ConfigError, and
// StateError, each a typed error supporting errors.Is/errors.As. Adapted
// from the teacher's internal/agent.ToolError/LoopError pair, generalized
// from two ad hoc types into the full six-kind taxonomy the spec names
// and collapsed onto one embeddable base so every kind shares Error()/
// Unwrap() formatting instead of reimplementing it per type.
package agenterr

import "fmt"

// Kind names one of the six closed error categories.
type Kind string

const (
	KindModel     Kind = "model"
	KindTool      Kind = "tool"
	KindSchema    Kind = "schema"
	KindInterrupt Kind = "interrupt"
	KindConfig    Kind = "config"
	KindState     Kind = "state"
)

// AgentError is the common shape every taxonomy member wraps. Callers use
// errors.As with the concrete *ModelError/*ToolError/etc. types below
// rather than this one directly; it exists so kind/message/cause
// formatting is written once.
type AgentError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AgentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AgentError) Unwrap() error { return e.Cause }

// ModelError is an unrecoverable upstream model failure; surfaced to the
// caller as the call's terminal failure.
type ModelError struct{ *AgentError }

// NewModelError wraps cause as a ModelError.
func NewModelError(message string, cause error) *ModelError {
	return &ModelError{&AgentError{Kind: KindModel, Message: message, Cause: cause}}
}

// ToolError is a handler failure or timeout; the engine captures it as a
// text block inside the ToolResult and continues the loop rather than
// aborting the call.
type ToolError struct {
	*AgentError
	ToolName   string
	ToolCallID string
}

// NewToolError wraps cause as a ToolError for the named tool call.
func NewToolError(toolName, toolCallID string, cause error) *ToolError {
	return &ToolError{
		AgentError: &AgentError{Kind: KindTool, Message: cause.Error(), Cause: cause},
		ToolName:   toolName,
		ToolCallID: toolCallID,
	}
}

// SchemaError is raised when a structured-output payload fails schema
// validation; the coordinator retries up to a configurable cap before
// surfacing this as the call's terminal ModelError.
type SchemaError struct {
	*AgentError
	ValidationErrors []string
}

// NewSchemaError wraps the jsonschema validation failures as a
// SchemaError.
func NewSchemaError(cause error, validationErrors []string) *SchemaError {
	return &SchemaError{
		AgentError:       &AgentError{Kind: KindSchema, Message: "structured output failed schema validation", Cause: cause},
		ValidationErrors: validationErrors,
	}
}

// InterruptError is a terminal cancellation, either user-requested or a
// deadline expiry.
type InterruptError struct{ *AgentError }

// NewInterruptError wraps cause (typically context.Canceled or
// context.DeadlineExceeded) as an InterruptError.
func NewInterruptError(cause error) *InterruptError {
	return &InterruptError{&AgentError{Kind: KindInterrupt, Message: "call interrupted", Cause: cause}}
}

// ConfigError is invalid setup detected at construction time (for
// example, both a target struct and a raw schema node supplied to
// structured output simultaneously).
type ConfigError struct{ *AgentError }

// NewConfigError wraps message as a ConfigError.
func NewConfigError(message string) *ConfigError {
	return &ConfigError{&AgentError{Kind: KindConfig, Message: message}}
}

// StateError is a session persistence I/O failure, surfaced at the
// save/load boundary.
type StateError struct{ *AgentError }

// NewStateError wraps cause as a StateError.
func NewStateError(message string, cause error) *StateError {
	return &StateError{&AgentError{Kind: KindState, Message: message, Cause: cause}}
}
