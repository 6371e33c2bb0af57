package model

import (
	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
)

// OnlineWeightStore represents a store of online weight samples keyed by time
type OnlineWeightStore interface {
	Store
	Put(dbTx DBWriter, timestamp int64, weight uint256.Int) error
	Delete(dbTx DBWriter, timestamp int64) error
	Samples(dbContext DBReader) ([]*externalapi.OnlineWeightSample, error)
}
