package model

import "github.com/orvnet/orvd/domain/lattice/model/externalapi"

// Elections is the active election container. It owns one election per
// contested root.
type Elections interface {
	Start()
	Stop()

	// Insert starts an election for block's root, or adds block as a
	// candidate to the election already running for that root.
	Insert(block externalapi.Block) (inserted bool, err error)

	// Publish adds block as a candidate to an existing election. It returns
	// false when no election is running for block's root.
	Publish(block externalapi.Block) bool

	// Vote applies an already verified vote.
	Vote(vote *externalapi.Vote) externalapi.VoteCode

	// BlockCemented confirms any election still holding the cemented block.
	BlockCemented(blockHash externalapi.DomainHash)

	// BlockRolledBack withdraws a block removed from the ledger.
	BlockRolledBack(blockHash externalapi.DomainHash)

	Active(root externalapi.DomainHash) bool
	ActiveByHash(blockHash externalapi.DomainHash) bool
	Status(root externalapi.DomainHash) (*externalapi.ElectionStatus, bool)
	List() []*externalapi.ElectionStatus
	Size() int
}
