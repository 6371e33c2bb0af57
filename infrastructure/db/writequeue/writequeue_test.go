package writequeue

import (
	"sync"
	"testing"
	"time"
)

func TestWaitIsExclusive(t *testing.T) {
	queue := New()
	guard := queue.Wait(BlockProcessor)

	acquired := make(chan struct{})
	go func() {
		g := queue.Wait(ConfirmationHeight)
		close(acquired)
		g.Release()
	}()

	select {
	case <-acquired:
		t.Fatalf("TestWaitIsExclusive: second writer acquired the queue while it was held")
	case <-time.After(50 * time.Millisecond):
	}

	guard.Release()
	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatalf("TestWaitIsExclusive: second writer was never granted the queue")
	}
}

// waitUntilQueued blocks until the queue has the expected number of waiters.
func waitUntilQueued(t *testing.T, queue *Queue, expected int) {
	deadline := time.Now().Add(5 * time.Second)
	for queue.Waiting() != expected {
		if time.Now().After(deadline) {
			t.Fatalf("waitUntilQueued: expected %d waiters but got %d", expected, queue.Waiting())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPriorityOrder(t *testing.T) {
	queue := New()
	guard := queue.Wait(Generic)

	var orderLock sync.Mutex
	var order []Writer
	var wg sync.WaitGroup

	enqueue := func(writer Writer, expectedWaiters int) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := queue.Wait(writer)
			orderLock.Lock()
			order = append(order, writer)
			orderLock.Unlock()
			g.Release()
		}()
		waitUntilQueued(t, queue, expectedWaiters)
	}
	enqueue(BlockProcessor, 1)
	enqueue(ConfirmationHeight, 2)
	enqueue(Testing, 3)

	guard.Release()
	wg.Wait()

	expected := []Writer{Testing, ConfirmationHeight, BlockProcessor}
	for i := range expected {
		if order[i] != expected[i] {
			t.Fatalf("TestPriorityOrder: expected order %v but got %v", expected, order)
		}
	}
}

func TestNoStarvation(t *testing.T) {
	const maxConsecutive = 2
	queue := NewWithMaxConsecutiveGrants(maxConsecutive)
	guard := queue.Wait(ConfirmationHeight)

	var orderLock sync.Mutex
	var order []Writer
	var wg sync.WaitGroup

	// One low priority writer waits behind a backlog of high priority ones
	enqueue := func(writer Writer, expectedWaiters int) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := queue.Wait(writer)
			orderLock.Lock()
			order = append(order, writer)
			orderLock.Unlock()
			g.Release()
		}()
		waitUntilQueued(t, queue, expectedWaiters)
	}
	enqueue(BlockProcessor, 1)
	for i := 0; i < 4; i++ {
		enqueue(ConfirmationHeight, i+2)
	}

	guard.Release()
	wg.Wait()

	// The initial holder counts as the first ConfirmationHeight grant, so the
	// block processor gets its turn after one more
	blockProcessorPosition := -1
	for i, writer := range order {
		if writer == BlockProcessor {
			blockProcessorPosition = i
		}
	}
	if blockProcessorPosition != maxConsecutive-1 {
		t.Fatalf("TestNoStarvation: expected BlockProcessor at position %d but got order %v",
			maxConsecutive-1, order)
	}
}

func TestDoubleReleasePanics(t *testing.T) {
	queue := New()
	guard := queue.Wait(Testing)
	guard.Release()

	defer func() {
		if recover() == nil {
			t.Fatalf("TestDoubleReleasePanics: expected a panic")
		}
	}()
	guard.Release()
}
