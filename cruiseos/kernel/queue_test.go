package kernel

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"
)

func TestQueueTryRecvEmpty(t *testing.T) {
	q := NewQueue[string](4)

	if _, ok := q.TryRecv(); ok {
		t.Fatalf("TryRecv() ok = true, want false")
	}
}

func TestQueueTrySendFull(t *testing.T) {
	const slots = 4
	q := NewQueue[int](slots)

	for i := 0; i < slots; i++ {
		if ok := q.TrySend(i); !ok {
			t.Fatalf("TrySend() ok = false at slot %d, want true", i)
		}
	}
	if ok := q.TrySend(99); ok {
		t.Fatalf("TrySend() ok = true when full, want false")
	}
	if got := q.Dropped(); got != 1 {
		t.Fatalf("Dropped() = %d, want 1", got)
	}

	for i := 0; i < slots; i++ {
		v, ok := q.TryRecv()
		if !ok {
			t.Fatalf("TryRecv() ok = false at slot %d, want true", i)
		}
		if v != i {
			t.Fatalf("TryRecv() = %d, want %d", v, i)
		}
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	oldProcs := runtime.GOMAXPROCS(1)
	defer runtime.GOMAXPROCS(oldProcs)

	const (
		producers = 4
		perProd   = 1_000
		total     = producers * perProd
	)

	q := NewQueue[int](total)

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(producers)
	for producerID := 0; producerID < producers; producerID++ {
		go func(producerID int) {
			defer wg.Done()
			<-start
			for i := 0; i < perProd; i++ {
				q.TrySend(producerID*perProd + i)
			}
		}(producerID)
	}
	close(start)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seen := make([]bool, total)
	for i := 0; i < total; i++ {
		id, err := q.Recv(ctx)
		if err != nil {
			t.Fatalf("Recv() err = %v at item %d", err, i)
		}
		if seen[id] {
			t.Fatalf("Recv() duplicate id %d", id)
		}
		seen[id] = true
	}
	wg.Wait()

	if got := q.Len(); got != 0 {
		t.Fatalf("Len() = %d, want 0", got)
	}
}

func TestQueueRecvCanceled(t *testing.T) {
	q := NewQueue[string](1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Recv(ctx); err != context.Canceled {
		t.Fatalf("Recv() err = %v, want %v", err, context.Canceled)
	}
}
