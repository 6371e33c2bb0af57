package protocol

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/orvnet/orvd/app/appmessage"
	"github.com/orvnet/orvd/app/protocol/flowcontext"
	"github.com/orvnet/orvd/app/protocol/flows/blockrelay"
	"github.com/orvnet/orvd/app/protocol/flows/voterelay"
	"github.com/orvnet/orvd/domain/lattice"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/infrastructure/network/netadapter"
	"github.com/orvnet/orvd/infrastructure/network/netadapter/router"
	"github.com/pkg/errors"
)

// voteRouteCapacity is the capacity of the route votes are queued on. A full
// vote route evicts its oldest vote.
const voteRouteCapacity = 4 * router.DefaultMaxMessages

// Manager manages the p2p protocol
type Manager struct {
	context          *flowcontext.FlowContext
	routersWaitGroup sync.WaitGroup
	isClosed         uint32
}

// NewManager creates a new instance of the p2p protocol manager
func NewManager(lattice lattice.Lattice, netAdapter *netadapter.NetAdapter) *Manager {
	manager := Manager{
		context: flowcontext.New(lattice, netAdapter),
	}
	netAdapter.SetRouterInitializer(manager.routerInitializer)
	return &manager
}

// Close closes the protocol manager and waits until all p2p flows
// finish. The routers must have been closed first.
func (m *Manager) Close() {
	if !atomic.CompareAndSwapUint32(&m.isClosed, 0, 1) {
		panic(errors.New("The protocol manager was already closed"))
	}
	m.routersWaitGroup.Wait()
}

// Context returns the manager's flow context
func (m *Manager) Context() *flowcontext.FlowContext {
	return m.context
}

type flow struct {
	name    string
	route   *router.Route
	execute func(route *router.Route) error
}

func (m *Manager) routerInitializer(peerRouter *router.Router, peer externalapi.PeerID) {
	if atomic.LoadUint32(&m.isClosed) != 0 {
		peerRouter.Close()
		return
	}

	flows := []*flow{
		m.addFlow(peerRouter, "HandleBlocks", router.DefaultMaxMessages, router.RejectNewest,
			[]appmessage.MessageCommand{appmessage.CmdBlock},
			func(route *router.Route) error {
				return blockrelay.HandleBlocks(m.context, route, peer)
			}),
		m.addFlow(peerRouter, "HandleVotes", voteRouteCapacity, router.DropOldest,
			[]appmessage.MessageCommand{appmessage.CmdVote},
			func(route *router.Route) error {
				return voterelay.HandleVotes(m.context, route, peer)
			}),
		m.addFlow(peerRouter, "HandleConfirmRequests", router.DefaultMaxMessages, router.RejectNewest,
			[]appmessage.MessageCommand{appmessage.CmdConfirmRequest},
			func(route *router.Route) error {
				return voterelay.HandleConfirmRequests(m.context, route, peer)
			}),
	}

	m.routersWaitGroup.Add(len(flows))
	for _, f := range flows {
		f := f
		spawn(fmt.Sprintf("flow-%s-%s", f.name, peer), func() {
			defer m.routersWaitGroup.Done()
			err := f.execute(f.route)
			m.context.HandleError(err, f.name)
		})
	}
}

func (m *Manager) addFlow(peerRouter *router.Router, name string, capacity int, policy router.OverflowPolicy,
	messageTypes []appmessage.MessageCommand, execute func(route *router.Route) error) *flow {

	route, err := peerRouter.AddIncomingRouteWithCapacity(name, capacity, policy, messageTypes)
	if err != nil {
		panic(err)
	}
	return &flow{name: name, route: route, execute: execute}
}
