package model

import "github.com/orvnet/orvd/domain/lattice/model/externalapi"

// VoteProcessedHandler is called with the outcome of every vote the
// processor handled
type VoteProcessedHandler func(vote *externalapi.Vote, code externalapi.VoteCode)

// VoteProcessor validates inbound votes and hands them to Elections
type VoteProcessor interface {
	Start()
	Stop()

	// Vote verifies and applies vote synchronously.
	Vote(vote *externalapi.Vote, source externalapi.PeerID) externalapi.VoteCode

	// VoteAsync queues vote for verification on the worker pool. It returns
	// false when the queue is full and the vote was dropped.
	VoteAsync(vote *externalapi.Vote, source externalapi.PeerID) bool

	Flush()

	AddVoteProcessedHandler(handler VoteProcessedHandler)
}
