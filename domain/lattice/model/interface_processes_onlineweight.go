package model

import (
	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
)

// OnlineWeightTracker tracks the voting weight of representatives seen
// online and derives the quorum threshold from it
type OnlineWeightTracker interface {
	Start()
	Stop()

	// Observe records that representative was seen voting.
	Observe(representative externalapi.Account)

	// Sample takes and persists a sample of the current online weight.
	Sample() error

	Online() uint256.Int
	Trended() uint256.Int

	// Delta returns the weight a candidate needs to confirm an election.
	Delta() uint256.Int
}
