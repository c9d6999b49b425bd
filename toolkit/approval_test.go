package toolkit

import (
	"context"
	"testing"
	"time"
)

func TestApprovalChecker_DenylistWinsOverDefault(t *testing.T) {
	c := NewApprovalChecker(ApprovalPolicy{
		Denylist:        []string{"rm_*"},
		DefaultDecision: ApprovalAllowed,
	}, nil, time.Second)

	if got := c.Check(context.Background(), "rm_rf", nil); got != ApprovalDenied {
		t.Fatalf("Check() = %v, want denied", got)
	}
	if got := c.Check(context.Background(), "read_file", nil); got != ApprovalAllowed {
		t.Fatalf("Check() = %v, want allowed", got)
	}
}

func TestApprovalChecker_PendingWithoutSinkDenies(t *testing.T) {
	c := NewApprovalChecker(ApprovalPolicy{
		RequireApproval: []string{"send_email"},
	}, nil, time.Second)

	if got := c.Check(context.Background(), "send_email", nil); got != ApprovalDenied {
		t.Fatalf("Check() = %v, want denied (no sink to resolve Pending)", got)
	}
}

type fakeApprovalSink struct {
	decision ApprovalDecision
	err      error
}

func (f fakeApprovalSink) Await(ctx context.Context, toolName string, input map[string]any) (ApprovalDecision, error) {
	return f.decision, f.err
}

func TestApprovalChecker_PendingResolvedBySink(t *testing.T) {
	c := NewApprovalChecker(ApprovalPolicy{
		RequireApproval: []string{"send_email"},
	}, fakeApprovalSink{decision: ApprovalAllowed}, time.Second)

	if got := c.Check(context.Background(), "send_email", nil); got != ApprovalAllowed {
		t.Fatalf("Check() = %v, want allowed", got)
	}
}

func TestApprovalChecker_SinkTimeoutDenies(t *testing.T) {
	c := NewApprovalChecker(ApprovalPolicy{
		RequireApproval: []string{"send_email"},
	}, fakeApprovalSink{err: context.DeadlineExceeded}, 10*time.Millisecond)

	if got := c.Check(context.Background(), "send_email", nil); got != ApprovalDenied {
		t.Fatalf("Check() = %v, want denied on sink error", got)
	}
}
