package model

import "github.com/orvnet/orvd/domain/lattice/model/externalapi"

// PendingStore represents a store of receivable entries
type PendingStore interface {
	Store
	Put(dbTx DBWriter, key externalapi.PendingKey, info *externalapi.PendingInfo) error
	PendingInfo(dbContext DBReader, key externalapi.PendingKey) (*externalapi.PendingInfo, error)
	HasPending(dbContext DBReader, key externalapi.PendingKey) (bool, error)
	Delete(dbTx DBWriter, key externalapi.PendingKey) error
	Pending(dbContext DBReader, account externalapi.Account) ([]*externalapi.PendingEntry, error)
	HasAnyPending(dbContext DBReader, account externalapi.Account) (bool, error)
}
