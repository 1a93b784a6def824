package mongo

import (
	"context"
	"testing"
	"time"
)

func TestWithTimeout_UsesShorterParentDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, cancelChild := WithTimeout(parent, time.Hour)
	defer cancelChild()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline")
	}
	if time.Until(deadline) > time.Second {
		t.Errorf("deadline should follow the parent, got %v", time.Until(deadline))
	}
}

func TestWithTimeout_AppliesTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline")
	}
	if d := time.Until(deadline); d <= 50*time.Second || d > time.Minute {
		t.Errorf("unexpected remaining time %v", d)
	}
}
