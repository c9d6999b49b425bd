package stream

import (
	"context"
	"testing"

	"github.com/nexuscore/agentkit/message"
)

func TestPublisher_DefaultOptions_PassesEverything(t *testing.T) {
	p := NewPublisher(Options{}, 4)
	msg := message.Msg{Role: message.RoleAssistant}

	p.Publish(context.Background(), Event{Type: EventReasoning, Delta: message.Text{Text: "hi"}, Cumulative: &msg})
	p.Publish(context.Background(), Event{Type: EventToolResult, Cumulative: &msg})
	p.Close()

	var got []EventType
	for e := range p.Events() {
		got = append(got, e.Type)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(got), got)
	}
}

func TestPublisher_FiltersByEventType(t *testing.T) {
	p := NewPublisher(Options{EventTypes: map[EventType]bool{EventHint: true}}, 4)

	p.Publish(context.Background(), Event{Type: EventReasoning, Delta: message.Text{Text: "hi"}})
	p.Publish(context.Background(), Event{Type: EventHint, Cumulative: &message.Msg{}})
	p.Close()

	var got []EventType
	for e := range p.Events() {
		got = append(got, e.Type)
	}
	if len(got) != 1 || got[0] != EventHint {
		t.Fatalf("got %+v, want only EventHint", got)
	}
}

func TestPublisher_ReasoningChunkSuppressedWhenNotIncremental(t *testing.T) {
	p := NewPublisher(Options{
		EventTypes:             allEventTypes,
		Incremental:            false,
		IncludeReasoningResult: true,
	}, 4)

	msg := message.Msg{Role: message.RoleAssistant}
	p.Publish(context.Background(), Event{Type: EventReasoning, Delta: message.Text{Text: "partial"}})
	p.Publish(context.Background(), Event{Type: EventReasoning, Cumulative: &msg})
	p.Close()

	var events []Event
	for e := range p.Events() {
		events = append(events, e)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (delta-only event should be dropped)", len(events))
	}
	if events[0].Delta != nil {
		t.Errorf("event Delta = %+v, want nil when Incremental=false", events[0].Delta)
	}
}

func TestPublisher_BlocksOnFullChannelUntilContextDone(t *testing.T) {
	p := NewPublisher(Options{EventTypes: allEventTypes, Incremental: true, IncludeReasoningChunk: true}, 1)
	p.Publish(context.Background(), Event{Type: EventReasoning, Delta: message.Text{Text: "1"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// channel already full at capacity 1; this publish must not block forever
	p.Publish(ctx, Event{Type: EventReasoning, Delta: message.Text{Text: "2"}})
}
