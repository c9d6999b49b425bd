// Package session implements the typed key/field persistence layer (spec
// §4.6): a Store interface keyed by (SessionKey, field) and three
// backends (in-memory, file-backed JSON, SQL), plus the StatePersistence
// selector that Engine.SaveTo/LoadFrom take and the StateModule contract.
// Grounded on the teacher's
// internal/sessions.Store (CRUD + history interface shape) generalized
// from session/message CRUD onto the spec's flatter field-keyed model.
package session

import "context"

// SessionKey identifies one persisted session.
type SessionKey string

// Store is a typed key/field persistence backend. Get/Put operate on
// single JSON-serializable values; GetList/AppendList operate on
// append-only lists (used for memory_messages) without requiring the
// caller to read-modify-write the whole list.
type Store interface {
	Get(ctx context.Context, key SessionKey, field string) ([]byte, bool, error)
	Put(ctx context.Context, key SessionKey, field string, value []byte) error
	GetList(ctx context.Context, key SessionKey, field string) ([][]byte, error)
	AppendList(ctx context.Context, key SessionKey, field string, values ...[]byte) error
	Exists(ctx context.Context, key SessionKey, field string) (bool, error)
}

// Reserved field names under the stable persisted-state layout (spec §6).
const (
	FieldAgentMeta           = "agent_meta"
	FieldMemoryMessages      = "memory_messages"
	FieldToolkitActiveGroups = "toolkit_activeGroups"
	FieldPlanNotebook        = "plan_notebook"
)

// StateModule is the contract for a component that serializes and restores
// itself to/from a Store. Engine's SaveTo/LoadFrom take an extra
// StatePersistence argument and so do not implement it.
type StateModule interface {
	SaveTo(ctx context.Context, store Store, key SessionKey) error
	LoadFrom(ctx context.Context, store Store, key SessionKey) error
}

// StatePersistence selects which parts of state Engine.SaveTo/LoadFrom
// persist.
// ToolkitManaged persists only the active-group set, per spec §4.6.
type StatePersistence struct {
	AgentManaged        bool
	MemoryManaged       bool
	ToolkitManaged      bool
	PlanNotebookManaged bool
}

// None persists only agent_meta (the minimal "this session exists" marker).
func None() StatePersistence { return StatePersistence{AgentManaged: true} }

// All persists every managed module.
func All() StatePersistence {
	return StatePersistence{AgentManaged: true, MemoryManaged: true, ToolkitManaged: true, PlanNotebookManaged: true}
}

// MemoryOnly persists just the conversation transcript.
func MemoryOnly() StatePersistence {
	return StatePersistence{MemoryManaged: true}
}

// LoadIfExists reports whether a session exists at key by checking for
// agent_meta, the layout's required marker field, and returns false
// without error if the key has never been saved to.
func LoadIfExists(ctx context.Context, store Store, key SessionKey) (bool, error) {
	return store.Exists(ctx, key, FieldAgentMeta)
}
