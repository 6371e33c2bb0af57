package ledger

import (
	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
)

func (l *ledger) Block(dbContext model.DBReader, blockHash externalapi.DomainHash) (*externalapi.BlockWithSideband, error) {
	return l.blockStore.Block(dbContext, blockHash)
}

func (l *ledger) BlockExists(dbContext model.DBReader, blockHash externalapi.DomainHash) (bool, error) {
	return l.blockStore.HasBlock(dbContext, blockHash)
}

func (l *ledger) AccountInfo(dbContext model.DBReader, account externalapi.Account) (*externalapi.AccountInfo, error) {
	return l.accountStore.AccountInfo(dbContext, account)
}

// Balance returns zero for unopened accounts
func (l *ledger) Balance(dbContext model.DBReader, account externalapi.Account) (uint256.Int, error) {
	info, err := l.accountInfoOrNil(dbContext, account)
	if err != nil {
		return uint256.Int{}, err
	}
	if info == nil {
		return uint256.Int{}, nil
	}
	return info.Balance, nil
}

func (l *ledger) Weight(dbContext model.DBReader, representative externalapi.Account) (uint256.Int, error) {
	return l.representationStore.Weight(dbContext, representative)
}

func (l *ledger) Pending(dbContext model.DBReader, account externalapi.Account) ([]*externalapi.PendingEntry, error) {
	return l.pendingStore.Pending(dbContext, account)
}

func (l *ledger) ConfirmationHeight(dbContext model.DBReader, account externalapi.Account) (
	externalapi.ConfirmationHeightInfo, error) {

	return l.confirmationHeightStore.ConfirmationHeight(dbContext, account)
}

// IsCemented returns false for blocks not in the ledger
func (l *ledger) IsCemented(dbContext model.DBReader, blockHash externalapi.DomainHash) (bool, error) {
	block, err := l.blockStore.Block(dbContext, blockHash)
	if database.IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	confirmationHeight, err := l.confirmationHeightStore.ConfirmationHeight(dbContext, block.Sideband.Account)
	if err != nil {
		return false, err
	}
	return block.Sideband.Height <= confirmationHeight.Height, nil
}

func (l *ledger) BlockAtRoot(dbContext model.DBReader, root externalapi.DomainHash) (externalapi.DomainHash, bool, error) {
	rootBlock, err := l.blockStore.Block(dbContext, root)
	if err == nil {
		if rootBlock.Sideband.Successor.IsZero() {
			return externalapi.DomainHash{}, false, nil
		}
		return rootBlock.Sideband.Successor, true, nil
	}
	if !database.IsNotFoundError(err) {
		return externalapi.DomainHash{}, false, err
	}

	info, err := l.accountInfoOrNil(dbContext, externalapi.AccountFromHash(root))
	if err != nil {
		return externalapi.DomainHash{}, false, err
	}
	if info == nil {
		return externalapi.DomainHash{}, false, nil
	}
	return info.OpenBlock, true, nil
}

func (l *ledger) Amount(dbContext model.DBReader, blockHash externalapi.DomainHash) (uint256.Int, error) {
	block, err := l.blockStore.Block(dbContext, blockHash)
	if err != nil {
		return uint256.Int{}, err
	}
	previousHash := block.Block.Previous()
	if previousHash.IsZero() {
		return block.Sideband.Balance, nil
	}
	previous, err := l.blockStore.Block(dbContext, previousHash)
	if err != nil {
		return uint256.Int{}, err
	}

	var amount uint256.Int
	if block.Sideband.Balance.Lt(&previous.Sideband.Balance) {
		amount.Sub(&previous.Sideband.Balance, &block.Sideband.Balance)
	} else {
		amount.Sub(&block.Sideband.Balance, &previous.Sideband.Balance)
	}
	return amount, nil
}
