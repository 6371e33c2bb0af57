package model

import "github.com/orvnet/orvd/domain/lattice/model/externalapi"

// BlockStore represents a store of blocks together with their sidebands
type BlockStore interface {
	Store
	Put(dbTx DBWriter, blockHash externalapi.DomainHash, block *externalapi.BlockWithSideband) error
	Block(dbContext DBReader, blockHash externalapi.DomainHash) (*externalapi.BlockWithSideband, error)
	HasBlock(dbContext DBReader, blockHash externalapi.DomainHash) (bool, error)
	Delete(dbTx DBWriter, blockHash externalapi.DomainHash) error
	SetSuccessor(dbTx DBWriter, blockHash externalapi.DomainHash, successor externalapi.DomainHash) error
	Count(dbContext DBReader) (uint64, error)
}
