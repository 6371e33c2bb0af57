package model

import (
	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
)

// RepresentationStore represents a store of representative voting weights
type RepresentationStore interface {
	Store
	Weight(dbContext DBReader, representative externalapi.Account) (uint256.Int, error)
	Put(dbTx DBWriter, representative externalapi.Account, weight uint256.Int) error
	ForEach(dbContext DBReader, f func(representative externalapi.Account, weight uint256.Int) error) error
}
