package router

import (
	"sync"

	"github.com/orvnet/orvd/app/appmessage"
	"github.com/pkg/errors"
)

const (
	// DefaultMaxMessages is the default capacity for a route with a capacity defined
	DefaultMaxMessages = 1000
)

var (
	// ErrRouteClosed indicates that a route was closed while reading/writing.
	ErrRouteClosed = errors.New("route is closed")

	// ErrRouteCapacityReached indicates that route's capacity has been reached
	ErrRouteCapacityReached = errors.New("route capacity has been reached")
)

// OverflowPolicy decides what a full route does with a new message
type OverflowPolicy int

const (
	// RejectNewest refuses the new message with ErrRouteCapacityReached
	RejectNewest OverflowPolicy = iota

	// DropOldest evicts the oldest queued message to make room
	DropOldest
)

func (p OverflowPolicy) String() string {
	switch p {
	case RejectNewest:
		return "reject-newest"
	case DropOldest:
		return "drop-oldest"
	}
	return "unknown"
}

// Route is a bounded FIFO of messages arriving from one peer
type Route struct {
	name     string
	capacity int
	policy   OverflowPolicy

	lock     sync.Mutex
	cond     *sync.Cond
	messages []appmessage.Message
	closed   bool
	dropped  uint64
}

func newRoute(name string, capacity int, policy OverflowPolicy) *Route {
	route := &Route{
		name:     name,
		capacity: capacity,
		policy:   policy,
		messages: make([]appmessage.Message, 0, capacity),
	}
	route.cond = sync.NewCond(&route.lock)
	return route
}

// Enqueue enqueues a message to the Route. It never blocks.
func (r *Route) Enqueue(message appmessage.Message) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return errors.WithStack(ErrRouteClosed)
	}
	if len(r.messages) >= r.capacity {
		if r.policy == RejectNewest {
			return errors.Wrapf(ErrRouteCapacityReached, "route '%s' reached capacity of %d", r.name, r.capacity)
		}
		r.messages[0] = nil
		r.messages = r.messages[1:]
		r.dropped++
	}
	r.messages = append(r.messages, message)
	r.cond.Signal()
	return nil
}

// Dequeue blocks until a message is available and returns it. Messages still
// queued when the route is closed are discarded.
func (r *Route) Dequeue() (appmessage.Message, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	for len(r.messages) == 0 && !r.closed {
		r.cond.Wait()
	}
	if r.closed {
		return nil, errors.Wrapf(ErrRouteClosed, "route '%s' is closed", r.name)
	}
	message := r.messages[0]
	r.messages[0] = nil
	r.messages = r.messages[1:]
	return message, nil
}

// Len returns the number of queued messages
func (r *Route) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.messages)
}

// Dropped returns how many messages a DropOldest route has evicted
func (r *Route) Dropped() uint64 {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.dropped
}

// Close closes this route. Closing twice is a no-op.
func (r *Route) Close() {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.messages = nil
	r.cond.Broadcast()
}
