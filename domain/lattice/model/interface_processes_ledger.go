package model

import (
	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
)

// Ledger validates blocks, applies them to the ledger and reverses them.
// It is the only component allowed to mutate chain state.
type Ledger interface {
	// Process validates block and, when valid, applies it inside dbTx.
	// Validation failures are returned as ruleerrors.RuleError.
	Process(dbTx DBTransaction, block externalapi.Block) error

	// Rollback reverses every block from the head of the account owning
	// blockHash down to and including blockHash, along with any receives in
	// other accounts that depend on the reversed sends. It returns the
	// reversed blocks, newest first. Cemented blocks are never reversed.
	Rollback(dbTx DBTransaction, blockHash externalapi.DomainHash) ([]*externalapi.BlockWithSideband, error)

	InitializeGenesis(dbTx DBTransaction) error

	Block(dbContext DBReader, blockHash externalapi.DomainHash) (*externalapi.BlockWithSideband, error)
	BlockExists(dbContext DBReader, blockHash externalapi.DomainHash) (bool, error)
	AccountInfo(dbContext DBReader, account externalapi.Account) (*externalapi.AccountInfo, error)
	Balance(dbContext DBReader, account externalapi.Account) (uint256.Int, error)
	Weight(dbContext DBReader, representative externalapi.Account) (uint256.Int, error)
	Pending(dbContext DBReader, account externalapi.Account) ([]*externalapi.PendingEntry, error)
	ConfirmationHeight(dbContext DBReader, account externalapi.Account) (externalapi.ConfirmationHeightInfo, error)
	IsCemented(dbContext DBReader, blockHash externalapi.DomainHash) (bool, error)

	// BlockAtRoot returns the hash of the ledger block occupying the chain
	// slot identified by root, if any.
	BlockAtRoot(dbContext DBReader, root externalapi.DomainHash) (externalapi.DomainHash, bool, error)

	// Amount returns the amount moved by the given block.
	Amount(dbContext DBReader, blockHash externalapi.DomainHash) (uint256.Int, error)

	Cache() *LedgerCache
}
