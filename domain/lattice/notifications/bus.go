package notifications

import (
	"sync"

	"github.com/google/uuid"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/pkg/errors"
)

// Listener receives the events published to a Bus, one at a time and in
// publication order
type Listener func(event externalapi.Event)

// Bus fans events out to its subscribers. Every subscriber has its own
// unbounded queue drained by its own goroutine, so Publish never blocks on a
// slow listener and never drops an event.
type Bus struct {
	sync.RWMutex
	subscribers map[uuid.UUID]*subscriber
}

// NewBus creates a new Bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[uuid.UUID]*subscriber),
	}
}

// Subscribe registers listener and returns the id to unsubscribe it with
func (b *Bus) Subscribe(listener Listener) uuid.UUID {
	b.Lock()
	defer b.Unlock()

	s := newSubscriber(uuid.New(), listener)
	b.subscribers[s.id] = s
	spawn("notifications-deliver", s.deliver)
	log.Debugf("Added subscriber %s", s.id)
	return s.id
}

// Unsubscribe removes the subscriber with the given id. Events still queued
// for it are discarded.
func (b *Bus) Unsubscribe(id uuid.UUID) error {
	b.Lock()
	defer b.Unlock()

	s, ok := b.subscribers[id]
	if !ok {
		return errors.Errorf("subscriber %s not found", id)
	}
	s.close()
	delete(b.subscribers, id)
	log.Debugf("Removed subscriber %s", id)
	return nil
}

// Publish queues event for every subscriber
func (b *Bus) Publish(event externalapi.Event) {
	b.RLock()
	defer b.RUnlock()

	for _, s := range b.subscribers {
		s.enqueue(event)
	}
}

// Flush waits until every event published so far has been delivered
func (b *Bus) Flush() {
	b.RLock()
	subscribers := make([]*subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subscribers = append(subscribers, s)
	}
	b.RUnlock()

	for _, s := range subscribers {
		s.flush()
	}
}

// Close removes every subscriber
func (b *Bus) Close() {
	b.Lock()
	defer b.Unlock()

	for id, s := range b.subscribers {
		s.close()
		delete(b.subscribers, id)
	}
}

type subscriber struct {
	id       uuid.UUID
	listener Listener

	mtx        sync.Mutex
	cond       *sync.Cond
	queue      []externalapi.Event
	delivering bool
	closed     bool
}

func newSubscriber(id uuid.UUID, listener Listener) *subscriber {
	s := &subscriber{id: id, listener: listener}
	s.cond = sync.NewCond(&s.mtx)
	return s
}

func (s *subscriber) enqueue(event externalapi.Event) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, event)
	s.cond.Broadcast()
}

func (s *subscriber) close() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.closed = true
	s.queue = nil
	s.cond.Broadcast()
}

func (s *subscriber) flush() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for !s.closed && (len(s.queue) > 0 || s.delivering) {
		s.cond.Wait()
	}
}

func (s *subscriber) deliver() {
	for {
		s.mtx.Lock()
		s.delivering = false
		s.cond.Broadcast()
		for !s.closed && len(s.queue) == 0 {
			s.cond.Wait()
		}
		if s.closed {
			s.mtx.Unlock()
			return
		}
		event := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.delivering = true
		s.mtx.Unlock()

		s.listener(event)
	}
}
