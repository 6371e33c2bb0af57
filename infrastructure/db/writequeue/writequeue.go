// Package writequeue serializes write transactions on the ledger database.
//
// Only one writer holds the queue at a time. Waiting writers are granted the
// queue by class priority, except that a class which has been granted the
// queue maxConsecutiveGrants times in a row yields to the oldest waiter of
// another class.
package writequeue

import (
	"sync"
)

// Writer is the class of a party asking for the write queue.
type Writer uint8

// Writer classes, highest priority first.
const (
	Testing Writer = iota
	ConfirmationHeight
	BlockProcessor
	Generic
)

var writerNames = map[Writer]string{
	Testing:            "Testing",
	ConfirmationHeight: "ConfirmationHeight",
	BlockProcessor:     "BlockProcessor",
	Generic:            "Generic",
}

func (w Writer) String() string {
	if name, ok := writerNames[w]; ok {
		return name
	}
	return "Unknown"
}

const defaultMaxConsecutiveGrants = 8

type waiter struct {
	writer  Writer
	ticket  uint64
	granted bool
}

// Queue is the write queue.
type Queue struct {
	mtx  sync.Mutex
	cond *sync.Cond

	waiters    []*waiter
	nextTicket uint64
	held       bool

	lastGranted          Writer
	consecutiveGrants    int
	maxConsecutiveGrants int
}

// New returns an empty write queue.
func New() *Queue {
	return NewWithMaxConsecutiveGrants(defaultMaxConsecutiveGrants)
}

// NewWithMaxConsecutiveGrants returns an empty write queue in which a class
// may be granted the queue at most maxConsecutiveGrants times in a row while
// other classes are waiting.
func NewWithMaxConsecutiveGrants(maxConsecutiveGrants int) *Queue {
	if maxConsecutiveGrants < 1 {
		maxConsecutiveGrants = 1
	}
	q := &Queue{maxConsecutiveGrants: maxConsecutiveGrants}
	q.cond = sync.NewCond(&q.mtx)
	return q
}

// Guard is held by the current writer. Release must be called exactly once.
type Guard struct {
	queue    *Queue
	writer   Writer
	released bool
}

// Writer returns the class the guard was granted to.
func (g *Guard) Writer() Writer {
	return g.writer
}

// Release hands the queue to the next writer. Releasing twice panics.
func (g *Guard) Release() {
	if g.released {
		panic("write queue guard released twice")
	}
	g.released = true
	g.queue.release()
}

// Wait blocks until writer is granted the queue.
func (q *Queue) Wait(writer Writer) *Guard {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	w := &waiter{writer: writer, ticket: q.nextTicket}
	q.nextTicket++
	q.waiters = append(q.waiters, w)
	q.grantIfIdle()

	for !w.granted {
		q.cond.Wait()
	}
	return &Guard{queue: q, writer: writer}
}

// Contains returns whether writer currently waits for the queue.
func (q *Queue) Contains(writer Writer) bool {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	for _, w := range q.waiters {
		if w.writer == writer {
			return true
		}
	}
	return false
}

// Waiting returns the number of writers blocked in Wait.
func (q *Queue) Waiting() int {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	return len(q.waiters)
}

func (q *Queue) release() {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	q.held = false
	q.grantIfIdle()
}

// grantIfIdle must be called with mtx held.
func (q *Queue) grantIfIdle() {
	if q.held || len(q.waiters) == 0 {
		return
	}

	index := q.nextWaiterIndex()
	next := q.waiters[index]
	q.waiters = append(q.waiters[:index], q.waiters[index+1:]...)

	if next.writer == q.lastGranted {
		q.consecutiveGrants++
	} else {
		q.lastGranted = next.writer
		q.consecutiveGrants = 1
	}
	q.held = true
	next.granted = true
	q.cond.Broadcast()
}

func (q *Queue) nextWaiterIndex() int {
	best := 0
	for i, w := range q.waiters {
		if w.writer < q.waiters[best].writer {
			best = i
		}
	}

	if q.waiters[best].writer != q.lastGranted || q.consecutiveGrants < q.maxConsecutiveGrants {
		return best
	}

	// The preferred class had its share, the oldest waiter of another class goes first
	oldestOther := -1
	for i, w := range q.waiters {
		if w.writer == q.lastGranted {
			continue
		}
		if oldestOther == -1 || w.ticket < q.waiters[oldestOther].ticket {
			oldestOther = i
		}
	}
	if oldestOther == -1 {
		return best
	}
	return oldestOther
}
