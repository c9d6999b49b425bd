package engine

import "sync"

// SteeringMessage redirects a run mid-ACT without cancelling it — a
// generalization of spec §5's interrupt mechanism for "redirect without
// full cancellation."
type SteeringMessage struct {
	// Content is appended to memory as a USER message when the engine next
	// drains the queue (empty Content is dropped).
	Content string
	// SkipRemainingTools, when true, stops the current round's tool batch
	// from running: each call gets a "Skipped due to steering message"
	// ToolResult, Content is appended after those results, and the engine
	// goes straight back to REASON.
	SkipRemainingTools bool
}

// SteeringQueue holds pending steering messages for one Engine. Nil
// (Engine.Steering) by default — steering is opt-in.
type SteeringQueue struct {
	mu       sync.Mutex
	messages []SteeringMessage
}

// NewSteeringQueue returns an empty queue.
func NewSteeringQueue() *SteeringQueue {
	return &SteeringQueue{}
}

// Steer queues msg. run() drains the queue after a REASON round whose
// response contains ToolUse blocks, before ACT; a round without tool calls
// leaves the queue untouched.
func (q *SteeringQueue) Steer(msg SteeringMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, msg)
}

// Pending reports whether any steering messages are queued.
func (q *SteeringQueue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages) > 0
}

// drain removes and returns every queued message, in FIFO order.
func (q *SteeringQueue) drain() []SteeringMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	msgs := q.messages
	q.messages = nil
	return msgs
}
