package logger

import (
	"context"
	"testing"
	"time"

	"cruise/cruiseos/kernel"
	"cruise/hal"
)

func TestServiceFansOutAndDrains(t *testing.T) {
	q := kernel.NewQueue[string](8)
	a, b := &hal.MemLogger{}, &hal.MemLogger{}
	s := New(q, a, nil, b)

	q.TrySend("one")
	q.TrySend("two")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for len(b.Lines()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("lines not delivered: %q", b.Lines())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() err = %v", err)
	}

	q.TrySend("late")
	s.Drain()
	got := a.Lines()
	if len(got) != 3 || got[0] != "one" || got[1] != "two" || got[2] != "late" {
		t.Fatalf("lines = %q", got)
	}
}
