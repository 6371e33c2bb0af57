package model

import "github.com/orvnet/orvd/domain/lattice/model/externalapi"

// AccountStore represents a store of per-account ledger heads
type AccountStore interface {
	Store
	Put(dbTx DBWriter, account externalapi.Account, info *externalapi.AccountInfo) error
	AccountInfo(dbContext DBReader, account externalapi.Account) (*externalapi.AccountInfo, error)
	HasAccount(dbContext DBReader, account externalapi.Account) (bool, error)
	Delete(dbTx DBWriter, account externalapi.Account) error
	ForEach(dbContext DBReader, f func(account externalapi.Account, info *externalapi.AccountInfo) error) error
}
