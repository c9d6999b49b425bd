package hooks

import (
	"context"
	"testing"
)

func TestBus_Dispatch_OrderedMutation(t *testing.T) {
	b := NewBus("run-1")

	var order []string
	b.On(PhasePreTool, HookFunc(func(ctx context.Context, e Event) Event {
		order = append(order, "first")
		e.ToolInput = map[string]any{"seen": "first"}
		return e
	}))
	b.On(PhasePreTool, HookFunc(func(ctx context.Context, e Event) Event {
		order = append(order, "second")
		if e.ToolInput["seen"] != "first" {
			t.Errorf("second hook did not see first hook's mutation: %+v", e.ToolInput)
		}
		e.ToolInput["seen"] = "second"
		return e
	}))

	out := b.Dispatch(context.Background(), Event{Phase: PhasePreTool})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("hook order = %v, want [first second]", order)
	}
	if out.ToolInput["seen"] != "second" {
		t.Errorf("Dispatch() final ToolInput = %+v, want seen=second", out.ToolInput)
	}
}

func TestBus_Dispatch_NoHooksReturnsEventUnchanged(t *testing.T) {
	b := NewBus("run-1")
	out := b.Dispatch(context.Background(), Event{Phase: PhasePostTool, ToolName: "echo"})
	if out.ToolName != "echo" {
		t.Errorf("Dispatch() = %+v, want ToolName preserved", out)
	}
	if out.RunID != "run-1" {
		t.Errorf("Dispatch() RunID = %q, want run-1", out.RunID)
	}
}

func TestBus_Dispatch_CancelStopsChain(t *testing.T) {
	b := NewBus("run-1")
	called := false

	b.On(PhasePreActing, HookFunc(func(ctx context.Context, e Event) Event {
		e.Cancel = true
		return e
	}))
	b.On(PhasePreActing, HookFunc(func(ctx context.Context, e Event) Event {
		called = true
		return e
	}))

	out := b.Dispatch(context.Background(), Event{Phase: PhasePreActing})
	if called {
		t.Errorf("hook chain continued after Cancel was set")
	}
	if !out.Cancel {
		t.Errorf("Dispatch() Cancel = false, want true")
	}
}

func TestBus_Dispatch_DifferentPhasesIsolated(t *testing.T) {
	b := NewBus("run-1")
	fired := false
	b.On(PhasePreReasoning, HookFunc(func(ctx context.Context, e Event) Event {
		fired = true
		return e
	}))

	b.Dispatch(context.Background(), Event{Phase: PhasePostReasoning})
	if fired {
		t.Errorf("hook registered for PreReasoning fired on PostReasoning dispatch")
	}
}

func TestBus_Dispatch_SequenceMonotonic(t *testing.T) {
	b := NewBus("run-1")
	first := b.Dispatch(context.Background(), Event{Phase: PhasePreTool})
	second := b.Dispatch(context.Background(), Event{Phase: PhasePreTool})
	if second.Sequence <= first.Sequence {
		t.Errorf("Sequence not monotonic: first=%d second=%d", first.Sequence, second.Sequence)
	}
}
