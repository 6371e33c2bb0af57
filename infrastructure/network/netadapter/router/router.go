package router

import (
	"sync"

	"github.com/orvnet/orvd/app/appmessage"
	"github.com/pkg/errors"
)

// Router routes the messages arriving from one peer by type to their
// respective incoming routes
type Router struct {
	incomingRoutes     map[appmessage.MessageCommand]*Route
	incomingRoutesLock sync.RWMutex
}

// NewRouter creates a new empty router
func NewRouter() *Router {
	router := Router{
		incomingRoutes: make(map[appmessage.MessageCommand]*Route),
	}
	return &router
}

// AddIncomingRoute registers the messages of types `messageTypes` to
// be routed to a new route of default capacity that rejects messages once full
func (r *Router) AddIncomingRoute(name string, messageTypes []appmessage.MessageCommand) (*Route, error) {
	return r.AddIncomingRouteWithCapacity(name, DefaultMaxMessages, RejectNewest, messageTypes)
}

// AddIncomingRouteWithCapacity registers the messages of types `messageTypes` to
// be routed to a new route holding up to `capacity` messages. `policy` decides
// what happens to messages arriving at a full route.
func (r *Router) AddIncomingRouteWithCapacity(name string, capacity int, policy OverflowPolicy,
	messageTypes []appmessage.MessageCommand) (*Route, error) {

	if capacity <= 0 {
		return nil, errors.Errorf("route '%s' must have a positive capacity", name)
	}
	route := newRoute(name, capacity, policy)
	err := r.initializeIncomingRoute(route, messageTypes)
	if err != nil {
		return nil, err
	}
	return route, nil
}

func (r *Router) initializeIncomingRoute(route *Route, messageTypes []appmessage.MessageCommand) error {
	r.incomingRoutesLock.Lock()
	defer r.incomingRoutesLock.Unlock()

	for _, messageType := range messageTypes {
		if _, ok := r.incomingRoutes[messageType]; ok {
			return errors.Errorf("a route for '%s' already exists", messageType)
		}
	}
	for _, messageType := range messageTypes {
		r.incomingRoutes[messageType] = route
	}
	return nil
}

// RemoveRoute unregisters the messages of types `messageTypes` from
// the router
func (r *Router) RemoveRoute(messageTypes []appmessage.MessageCommand) error {
	r.incomingRoutesLock.Lock()
	defer r.incomingRoutesLock.Unlock()

	for _, messageType := range messageTypes {
		if _, ok := r.incomingRoutes[messageType]; !ok {
			return errors.Errorf("a route for '%s' does not exist", messageType)
		}
		delete(r.incomingRoutes, messageType)
	}
	return nil
}

// EnqueueIncomingMessage enqueues the given message to the
// appropriate route
func (r *Router) EnqueueIncomingMessage(message appmessage.Message) error {
	route, ok := r.incomingRoute(message.Command())
	if !ok {
		return errors.Errorf("a route for '%s' does not exist", message.Command())
	}
	return route.Enqueue(message)
}

// Close shuts down the router by closing all registered incoming routes
func (r *Router) Close() {
	r.incomingRoutesLock.Lock()
	defer r.incomingRoutesLock.Unlock()

	incomingRoutes := make(map[*Route]struct{})
	for _, route := range r.incomingRoutes {
		incomingRoutes[route] = struct{}{}
	}
	for route := range incomingRoutes {
		route.Close()
	}
}

func (r *Router) incomingRoute(messageType appmessage.MessageCommand) (*Route, bool) {
	r.incomingRoutesLock.RLock()
	defer r.incomingRoutesLock.RUnlock()

	route, ok := r.incomingRoutes[messageType]
	return route, ok
}
