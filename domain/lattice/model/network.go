package model

import "github.com/orvnet/orvd/domain/lattice/model/externalapi"

// Network is the outbound side of the transport collaborator. Calls never
// block on the remote side.
type Network interface {
	FloodBlock(block externalapi.Block)
	SendBlock(block externalapi.Block, peer externalapi.PeerID)
	SendConfirmReq(block externalapi.Block, peer externalapi.PeerID)
	SendVote(vote *externalapi.Vote, peer externalapi.PeerID)
	Peers() []externalapi.PeerID
}

// EventPublisher delivers events to outward observers without blocking
type EventPublisher interface {
	Publish(event externalapi.Event)
}
