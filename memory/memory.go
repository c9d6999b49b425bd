// Package memory holds the ordered, append-mostly transcript the ReAct
// engine reads from and writes to during a call. It is adapted from the
// teacher's per-session message list (internal/sessions.MemoryStore) but
// reshaped into the single ordered-log abstraction the spec names: no
// session keying, no implicit eviction, and a ReplaceRange operation for
// summarization.
package memory

import (
	"fmt"
	"sync"

	"github.com/nexuscore/agentkit/message"
)

// Memory is an ordered, append-mostly sequence of Msg. It is safe for
// concurrent use; callers that need to serialize an entire call still take
// the engine's own per-agent mutex (see engine.Engine) since Memory alone
// cannot make multi-step operations atomic across a reasoning round.
type Memory struct {
	mu       sync.RWMutex
	messages []message.Msg
	byID     map[string]int
}

// New returns an empty Memory.
func New() *Memory {
	return &Memory{byID: make(map[string]int)}
}

// Append adds a single message. It returns an error if the message's ID
// collides with an existing one, preserving the "ID unique within a
// memory" invariant.
func (m *Memory) Append(msg message.Msg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(msg)
}

func (m *Memory) appendLocked(msg message.Msg) error {
	if msg.ID != "" {
		if _, exists := m.byID[msg.ID]; exists {
			return fmt.Errorf("memory: duplicate message id %q", msg.ID)
		}
	}
	m.messages = append(m.messages, msg)
	if msg.ID != "" {
		m.byID[msg.ID] = len(m.messages) - 1
	}
	return nil
}

// Extend appends every message in order, atomically with respect to other
// Memory operations. It stops and returns an error on the first duplicate
// ID, leaving prior messages in the batch appended.
func (m *Memory) Extend(msgs []message.Msg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		if err := m.appendLocked(msg); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns a copy of the current transcript, each message copied
// with Msg.Clone.
func (m *Memory) Snapshot() []message.Msg {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]message.Msg, len(m.messages))
	for i, msg := range m.messages {
		out[i] = msg.Clone()
	}
	return out
}

// Len returns the number of messages currently stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// ReplaceRange replaces messages[from:to] with msgs, for example to collapse
// an overlong transcript into a single summary message. The engine's
// max-iteration summarization pass does not call it; it appends a hint
// message instead. from and to are half-open bounds into the current
// message slice; to == -1 means "through the end".
func (m *Memory) ReplaceRange(from, to int, msgs []message.Msg) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if to < 0 || to > len(m.messages) {
		to = len(m.messages)
	}
	if from < 0 || from > to {
		return fmt.Errorf("memory: invalid range [%d:%d) for length %d", from, to, len(m.messages))
	}

	rebuilt := make([]message.Msg, 0, from+len(msgs)+(len(m.messages)-to))
	rebuilt = append(rebuilt, m.messages[:from]...)
	rebuilt = append(rebuilt, msgs...)
	rebuilt = append(rebuilt, m.messages[to:]...)

	m.messages = rebuilt
	m.rebuildIndexLocked()
	return nil
}

func (m *Memory) rebuildIndexLocked() {
	m.byID = make(map[string]int, len(m.messages))
	for i, msg := range m.messages {
		if msg.ID != "" {
			m.byID[msg.ID] = i
		}
	}
}

// LastByPredicate scans from the end of the transcript and returns the
// first message matching pred, or ok=false if no message matches (or the
// transcript is empty).
func (m *Memory) LastByPredicate(pred func(message.Msg) bool) (msg message.Msg, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.messages) - 1; i >= 0; i-- {
		if pred(m.messages[i]) {
			return m.messages[i].Clone(), true
		}
	}
	return message.Msg{}, false
}

// ByID returns the message with the given ID, if present.
func (m *Memory) ByID(id string) (msg message.Msg, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, exists := m.byID[id]
	if !exists {
		return message.Msg{}, false
	}
	return m.messages[idx].Clone(), true
}

// Load replaces the entire transcript, used when restoring Memory from a
// session.Store (session.StatePersistence with MemoryManaged set).
func (m *Memory) Load(msgs []message.Msg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = make([]message.Msg, len(msgs))
	copy(m.messages, msgs)
	m.rebuildIndexLocked()
}
