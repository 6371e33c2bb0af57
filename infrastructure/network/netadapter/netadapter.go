package netadapter

import (
	"sort"
	"sync"

	"github.com/orvnet/orvd/app/appmessage"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/infrastructure/network/netadapter/router"
	"github.com/orvnet/orvd/util/mstime"
	"github.com/pkg/errors"
)

// RouterInitializer is called with the router of every new peer so that the
// protocol can register its incoming routes and start handling them
type RouterInitializer func(router *router.Router, peer externalapi.PeerID)

// Hub connects the NetAdapters of nodes running in the same process
type Hub struct {
	sync.RWMutex
	adapters map[externalapi.PeerID]*NetAdapter
}

// NewHub creates a new, empty Hub
func NewHub() *Hub {
	return &Hub{adapters: make(map[externalapi.PeerID]*NetAdapter)}
}

// NewNetAdapter registers a node under id and returns its NetAdapter
func (h *Hub) NewNetAdapter(id externalapi.PeerID) (*NetAdapter, error) {
	h.Lock()
	defer h.Unlock()

	if _, ok := h.adapters[id]; ok {
		return nil, errors.Errorf("a node with id %s is already registered", id)
	}
	na := &NetAdapter{
		id:      id,
		hub:     h,
		routers: make(map[externalapi.PeerID]*router.Router),
	}
	h.adapters[id] = na
	return na, nil
}

// Connect connects the nodes a and b in both directions
func (h *Hub) Connect(a, b externalapi.PeerID) error {
	if a == b {
		return errors.Errorf("cannot connect %s to itself", a)
	}
	first, err := h.adapter(a)
	if err != nil {
		return err
	}
	second, err := h.adapter(b)
	if err != nil {
		return err
	}
	err = first.addPeer(b)
	if err != nil {
		return err
	}
	return second.addPeer(a)
}

// Disconnect removes the connection between a and b, if any
func (h *Hub) Disconnect(a, b externalapi.PeerID) {
	if first, err := h.adapter(a); err == nil {
		first.removePeer(b)
	}
	if second, err := h.adapter(b); err == nil {
		second.removePeer(a)
	}
}

func (h *Hub) adapter(id externalapi.PeerID) (*NetAdapter, error) {
	h.RLock()
	defer h.RUnlock()

	na, ok := h.adapters[id]
	if !ok {
		return nil, errors.Errorf("node %s is not registered", id)
	}
	return na, nil
}

func (h *Hub) remove(id externalapi.PeerID) {
	h.Lock()
	defer h.Unlock()
	delete(h.adapters, id)
}

// NetAdapter is the network of one node. It implements model.Network. Sends
// never block: a message a peer has no room for is dropped and logged.
type NetAdapter struct {
	id  externalapi.PeerID
	hub *Hub

	sync.RWMutex
	routers           map[externalapi.PeerID]*router.Router
	routerInitializer RouterInitializer
}

// ID returns the id the node is registered under
func (na *NetAdapter) ID() externalapi.PeerID {
	return na.id
}

// SetRouterInitializer sets the function called for every new peer. It
// must be set before the node is connected.
func (na *NetAdapter) SetRouterInitializer(routerInitializer RouterInitializer) {
	na.Lock()
	defer na.Unlock()
	na.routerInitializer = routerInitializer
}

func (na *NetAdapter) addPeer(peer externalapi.PeerID) error {
	na.Lock()
	if _, ok := na.routers[peer]; ok {
		na.Unlock()
		return errors.Errorf("%s is already connected to %s", na.id, peer)
	}
	peerRouter := router.NewRouter()
	na.routers[peer] = peerRouter
	routerInitializer := na.routerInitializer
	na.Unlock()

	if routerInitializer != nil {
		routerInitializer(peerRouter, peer)
	}
	log.Debugf("%s connected to %s", na.id, peer)
	return nil
}

func (na *NetAdapter) removePeer(peer externalapi.PeerID) {
	na.Lock()
	peerRouter, ok := na.routers[peer]
	delete(na.routers, peer)
	na.Unlock()

	if ok {
		peerRouter.Close()
		log.Debugf("%s disconnected from %s", na.id, peer)
	}
}

// Peers returns the ids of the connected nodes, sorted
func (na *NetAdapter) Peers() []externalapi.PeerID {
	na.RLock()
	defer na.RUnlock()

	peers := make([]externalapi.PeerID, 0, len(na.routers))
	for peer := range na.routers {
		peers = append(peers, peer)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i] < peers[j] })
	return peers
}

// FloodBlock sends block to every connected node
func (na *NetAdapter) FloodBlock(block externalapi.Block) {
	for _, peer := range na.Peers() {
		na.send(peer, appmessage.NewMsgBlock(block))
	}
}

// SendBlock sends block to peer
func (na *NetAdapter) SendBlock(block externalapi.Block, peer externalapi.PeerID) {
	na.send(peer, appmessage.NewMsgBlock(block))
}

// SendConfirmReq asks peer to vote on block
func (na *NetAdapter) SendConfirmReq(block externalapi.Block, peer externalapi.PeerID) {
	na.send(peer, appmessage.NewMsgConfirmRequest(block))
}

// SendVote sends vote to peer
func (na *NetAdapter) SendVote(vote *externalapi.Vote, peer externalapi.PeerID) {
	na.send(peer, appmessage.NewMsgVote(vote))
}

func (na *NetAdapter) send(peer externalapi.PeerID, message appmessage.Message) {
	remote, err := na.hub.adapter(peer)
	if err != nil {
		log.Debugf("Not sending %s to %s: %s", message.Command(), peer, err)
		return
	}
	remote.RLock()
	remoteRouter, ok := remote.routers[na.id]
	remote.RUnlock()
	if !ok {
		log.Debugf("Not sending %s to %s: not connected", message.Command(), peer)
		return
	}

	message.SetReceivedAt(mstime.Now())
	err = remoteRouter.EnqueueIncomingMessage(message)
	if err != nil {
		log.Warnf("Dropped %s from %s to %s: %s", message.Command(), na.id, peer, err)
	}
}

// Close disconnects the node from all of its peers and unregisters it
func (na *NetAdapter) Close() {
	for _, peer := range na.Peers() {
		na.hub.Disconnect(na.id, peer)
	}
	na.hub.remove(na.id)
}
