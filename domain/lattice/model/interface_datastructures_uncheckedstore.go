package model

import "github.com/orvnet/orvd/domain/lattice/model/externalapi"

// UncheckedStore represents a store of blocks waiting for a missing dependency
type UncheckedStore interface {
	Store
	Put(dbTx DBWriter, dependency externalapi.DomainHash, block externalapi.Block) error
	Dependents(dbContext DBReader, dependency externalapi.DomainHash) ([]externalapi.Block, error)
	Delete(dbTx DBWriter, dependency externalapi.DomainHash, blockHash externalapi.DomainHash) error
	Count(dbContext DBReader) (uint64, error)
}
