package model

import "github.com/orvnet/orvd/domain/lattice/model/externalapi"

// ConfirmationHeightStore represents a store of per-account cementing boundaries
type ConfirmationHeightStore interface {
	Store
	Put(dbTx DBWriter, account externalapi.Account, info externalapi.ConfirmationHeightInfo) error
	ConfirmationHeight(dbContext DBReader, account externalapi.Account) (externalapi.ConfirmationHeightInfo, error)
	Delete(dbTx DBWriter, account externalapi.Account) error
	ForEach(dbContext DBReader, f func(account externalapi.Account, info externalapi.ConfirmationHeightInfo) error) error
}
