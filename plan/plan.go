// Package plan implements the hierarchical plan notebook (spec §4.5):
// a single active Plan broken into ordered SubTasks with a constrained
// state machine, exposed to the model as four tools and rendered into a
// pre-reasoning hint message. Generalized from the teacher's pack-mate
// todotool.TodoManager (a flat, per-session todo list keyed by string
// status) into a single hierarchical Plan/SubTask tree with an enforced
// transition graph and a dedicated finish-plan sentinel, since the spec
// requires structure the flat todo list does not have.
package plan

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// State is a SubTask's position in its lifecycle.
type State string

const (
	StateTodo       State = "TODO"
	StateInProgress State = "IN_PROGRESS"
	StateDone       State = "DONE"
	StateAbandoned  State = "ABANDONED"
)

// terminal reports whether s admits no further transitions.
func (s State) terminal() bool { return s == StateDone || s == StateAbandoned }

// legalTransitions enumerates the allowed State graph: TODO -> IN_PROGRESS
// -> {DONE, ABANDONED} only.
var legalTransitions = map[State]map[State]bool{
	StateTodo:       {StateInProgress: true},
	StateInProgress: {StateDone: true, StateAbandoned: true},
}

// SubTask is one unit of work within a Plan.
type SubTask struct {
	ID              string
	Name            string
	Description     string
	ExpectedOutcome string
	State           State
	FinishEvidence  string
}

// Plan is the single active unit of work a PlanNotebook tracks. Subtasks
// preserve creation order.
type Plan struct {
	ID              string
	Name            string
	Description     string
	ExpectedOutcome string
	Subtasks        []*SubTask
}

// ErrNoActivePlan is returned by operations that require a plan to exist.
var ErrNoActivePlan = fmt.Errorf("plan: no active plan")

// ErrTooManySubtasks is returned by CreatePlan when the requested subtask
// count exceeds MaxSubtasks.
type ErrTooManySubtasks struct{ Requested, Max int }

func (e ErrTooManySubtasks) Error() string {
	return fmt.Sprintf("plan: %d subtasks requested, exceeds max of %d", e.Requested, e.Max)
}

// ErrSubtaskNotFound is returned when a subtask_id does not resolve
// against the active plan.
type ErrSubtaskNotFound struct{ ID string }

func (e ErrSubtaskNotFound) Error() string { return fmt.Sprintf("plan: subtask not found: %s", e.ID) }

// ErrIllegalTransition is returned when a requested state transition is
// not in the legal graph.
type ErrIllegalTransition struct {
	From, To State
}

func (e ErrIllegalTransition) Error() string {
	return fmt.Sprintf("plan: illegal transition %s -> %s", e.From, e.To)
}

// ErrSubtasksNotTerminal is returned by FinishPlan when at least one
// subtask is still TODO or IN_PROGRESS.
var ErrSubtasksNotTerminal = fmt.Errorf("plan: all subtasks must be DONE or ABANDONED to finish the plan")

// SubtaskInput describes one subtask to create, as supplied by the
// create_plan tool call.
type SubtaskInput struct {
	Name            string
	Description     string
	ExpectedOutcome string
}

// Notebook owns at most one active Plan and enforces its invariants.
// Concurrency-safe: the engine serializes calls on one agent via a
// per-agent mutex already, but Notebook guards itself independently since
// hint rendering may race a concurrent tool call in future use.
type Notebook struct {
	mu          sync.RWMutex
	active      *Plan
	maxSubtasks int
}

// NewNotebook returns an empty Notebook allowing at most maxSubtasks per
// plan. maxSubtasks <= 0 means unlimited.
func NewNotebook(maxSubtasks int) *Notebook {
	return &Notebook{maxSubtasks: maxSubtasks}
}

// CreatePlan replaces the current plan atomically.
func (n *Notebook) CreatePlan(name, description, expectedOutcome string, subtasks []SubtaskInput) (*Plan, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.maxSubtasks > 0 && len(subtasks) > n.maxSubtasks {
		return nil, ErrTooManySubtasks{Requested: len(subtasks), Max: n.maxSubtasks}
	}

	p := &Plan{
		ID:              uuid.NewString(),
		Name:            name,
		Description:     description,
		ExpectedOutcome: expectedOutcome,
		Subtasks:        make([]*SubTask, 0, len(subtasks)),
	}
	for _, in := range subtasks {
		p.Subtasks = append(p.Subtasks, &SubTask{
			ID:              uuid.NewString(),
			Name:            in.Name,
			Description:     in.Description,
			ExpectedOutcome: in.ExpectedOutcome,
			State:           StateTodo,
		})
	}

	n.active = p
	return p, nil
}

// Active returns the current plan, or nil if none is active.
func (n *Notebook) Active() *Plan {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.active
}

func (n *Notebook) findLocked(subtaskID string) (*SubTask, error) {
	if n.active == nil {
		return nil, ErrNoActivePlan
	}
	for _, st := range n.active.Subtasks {
		if st.ID == subtaskID {
			return st, nil
		}
	}
	return nil, ErrSubtaskNotFound{ID: subtaskID}
}

// UpdateSubtaskState transitions a subtask, rejecting illegal transitions
// per the TODO -> IN_PROGRESS -> {DONE, ABANDONED} graph. note is accepted
// but neither validated nor stored.
func (n *Notebook) UpdateSubtaskState(subtaskID string, to State, note string) (*SubTask, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	st, err := n.findLocked(subtaskID)
	if err != nil {
		return nil, err
	}
	if !legalTransitions[st.State][to] {
		return nil, ErrIllegalTransition{From: st.State, To: to}
	}
	st.State = to
	return st, nil
}

// FinishSubtask marks a subtask DONE and records evidence, enforcing the
// same transition legality as UpdateSubtaskState(id, DONE, ...).
func (n *Notebook) FinishSubtask(subtaskID, evidence string) (*SubTask, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	st, err := n.findLocked(subtaskID)
	if err != nil {
		return nil, err
	}
	if !legalTransitions[st.State][StateDone] {
		return nil, ErrIllegalTransition{From: st.State, To: StateDone}
	}
	st.State = StateDone
	st.FinishEvidence = evidence
	return st, nil
}

// FinishPlan requires every subtask to be in a terminal state and returns
// the active plan on success; it is the plan notebook's finish sentinel
// for the ReAct loop (spec §4.1/§4.5).
func (n *Notebook) FinishPlan(summary string) (*Plan, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.active == nil {
		return nil, ErrNoActivePlan
	}
	for _, st := range n.active.Subtasks {
		if !st.State.terminal() {
			return nil, ErrSubtasksNotTerminal
		}
	}
	_ = summary // recorded by the caller alongside the finish-sentinel tool result
	return n.active, nil
}

// RenderHint produces the <system-hint>-wrapped plan view a pre-reasoning
// hook injects as a USER-role message when a plan is active. Returns ""
// if no plan is active, signaling the hook should not inject anything.
func (n *Notebook) RenderHint() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.active == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("<system-hint>\n")
	fmt.Fprintf(&b, "Active plan: %s\n%s\n", n.active.Name, n.active.Description)
	for _, st := range n.active.Subtasks {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", st.State, st.Name, st.Description)
	}
	b.WriteString("</system-hint>")
	return b.String()
}
