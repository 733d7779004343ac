package order

import "testing"

func TestLegalTransitions(t *testing.T) {
	sm := NewStateMachine()
	legal := []StateTransition{
		{StatusPending, StatusExecuting},
		{StatusExecuting, StatusFilled},
		{StatusExecuting, StatusRejected},
	}
	for _, tr := range legal {
		if err := sm.ValidateTransition(tr.From, tr.To); err != nil {
			t.Fatalf("expected %s -> %s to be legal: %v", tr.From, tr.To, err)
		}
	}
}

func TestIllegalTransitions(t *testing.T) {
	sm := NewStateMachine()
	illegal := []StateTransition{
		{StatusPending, StatusFilled},
		{StatusPending, StatusRejected},
		{StatusFilled, StatusExecuting},
		{StatusFilled, StatusRejected},
		{StatusRejected, StatusFilled},
		{StatusExecuting, StatusPending},
		// 状态不允许原地重入
		{StatusPending, StatusPending},
		{StatusExecuting, StatusExecuting},
	}
	for _, tr := range illegal {
		if err := sm.ValidateTransition(tr.From, tr.To); err == nil {
			t.Fatalf("expected %s -> %s to be illegal", tr.From, tr.To)
		}
	}
}

func TestFinalStates(t *testing.T) {
	sm := NewStateMachine()
	if !sm.IsFinalState(StatusFilled) || !sm.IsFinalState(StatusRejected) {
		t.Fatalf("filled/rejected should be final")
	}
	if sm.IsFinalState(StatusPending) || sm.IsFinalState(StatusExecuting) {
		t.Fatalf("pending/executing should not be final")
	}
	for _, final := range []Status{StatusFilled, StatusRejected} {
		if len(sm.AllowedTransitions(final)) != 0 {
			t.Fatalf("final state %s must have no outgoing transitions", final)
		}
	}
}
