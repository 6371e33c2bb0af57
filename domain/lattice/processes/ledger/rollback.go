package ledger

import (
	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/ruleerrors"
	"github.com/pkg/errors"
)

// rollbackState collects what a rollback removed
type rollbackState struct {
	rolledBack     []*externalapi.BlockWithSideband
	closedAccounts int64
}

func (l *ledger) Rollback(dbTx model.DBTransaction, blockHash externalapi.DomainHash) (
	[]*externalapi.BlockWithSideband, error) {

	target, err := l.blockStore.Block(dbTx, blockHash)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot roll back block %s", blockHash)
	}
	account := target.Sideband.Account

	state := &rollbackState{}
	for {
		exists, err := l.blockStore.HasBlock(dbTx, blockHash)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
		err = l.rollbackHead(dbTx, account, state)
		if err != nil {
			return nil, err
		}
	}

	rolledBackCount := int64(len(state.rolledBack))
	closedAccounts := state.closedAccounts
	dbTx.OnCommit(func() {
		l.cache.AddBlocks(-rolledBackCount)
		l.cache.AddAccounts(-closedAccounts)
	})
	log.Debugf("Rolled back %d blocks down to %s", rolledBackCount, blockHash)
	return state.rolledBack, nil
}

// rollbackHead reverses the head block of account. Receives of a reversed
// send are reversed first.
func (l *ledger) rollbackHead(dbTx model.DBTransaction, account externalapi.Account, state *rollbackState) error {
	info, err := l.accountStore.AccountInfo(dbTx, account)
	if err != nil {
		return err
	}
	headHash := info.Head
	head, err := l.blockStore.Block(dbTx, headHash)
	if err != nil {
		return err
	}

	confirmationHeight, err := l.confirmationHeightStore.ConfirmationHeight(dbTx, account)
	if err != nil {
		return err
	}
	if head.Sideband.Height <= confirmationHeight.Height {
		return errors.Wrapf(ruleerrors.ErrCemented, "block %s at height %d of %s is cemented",
			headHash, head.Sideband.Height, account)
	}

	previousHash := head.Block.Previous()
	var previous *externalapi.BlockWithSideband
	var previousBalance uint256.Int
	if !previousHash.IsZero() {
		previous, err = l.blockStore.Block(dbTx, previousHash)
		if err != nil {
			return err
		}
		previousBalance = previous.Sideband.Balance
	}

	if head.Sideband.Details.IsSend {
		err = l.rollbackSend(dbTx, head, headHash, state)
		if err != nil {
			return err
		}
	}
	if head.Sideband.Details.IsReceive {
		err = l.restorePending(dbTx, head, account, previousBalance)
		if err != nil {
			return err
		}
	}

	err = l.subtractWeight(dbTx, info.Representative, info.Balance)
	if err != nil {
		return err
	}
	err = l.blockStore.Delete(dbTx, headHash)
	if err != nil {
		return err
	}

	if previous == nil {
		err = l.accountStore.Delete(dbTx, account)
		if err != nil {
			return err
		}
		state.closedAccounts++
	} else {
		previousRepresentative, err := l.representativeAt(dbTx, previousHash)
		if err != nil {
			return err
		}
		err = l.addWeight(dbTx, previousRepresentative, previousBalance)
		if err != nil {
			return err
		}
		err = l.blockStore.SetSuccessor(dbTx, previousHash, externalapi.ZeroHash)
		if err != nil {
			return err
		}
		err = l.accountStore.Put(dbTx, account, &externalapi.AccountInfo{
			Head:           previousHash,
			Representative: previousRepresentative,
			OpenBlock:      info.OpenBlock,
			Balance:        previousBalance,
			Modified:       l.now(),
			BlockCount:     previous.Sideband.Height,
			Epoch:          previous.Sideband.Details.Epoch,
		})
		if err != nil {
			return err
		}
	}

	log.Tracef("Rolled back block %s at height %d of %s", headHash, head.Sideband.Height, account)
	state.rolledBack = append(state.rolledBack, head)
	return nil
}

// rollbackSend removes the pending entry created by send, reversing the
// destination chain until the entry is receivable again
func (l *ledger) rollbackSend(dbTx model.DBTransaction, send *externalapi.BlockWithSideband,
	sendHash externalapi.DomainHash, state *rollbackState) error {

	key := externalapi.PendingKey{Account: sendDestination(send.Block), Hash: sendHash}
	for {
		hasPending, err := l.pendingStore.HasPending(dbTx, key)
		if err != nil {
			return err
		}
		if hasPending {
			break
		}
		err = l.rollbackHead(dbTx, key.Account, state)
		if err != nil {
			return err
		}
	}
	return l.pendingStore.Delete(dbTx, key)
}

// restorePending recreates the pending entry a receive took
func (l *ledger) restorePending(dbTx model.DBTransaction, receive *externalapi.BlockWithSideband,
	account externalapi.Account, previousBalance uint256.Int) error {

	sourceHash := receiveSource(receive.Block)
	source, err := l.blockStore.Block(dbTx, sourceHash)
	if err != nil {
		return errors.Wrapf(err, "source %s of a ledger receive", sourceHash)
	}

	var amount uint256.Int
	amount.Sub(&receive.Sideband.Balance, &previousBalance)
	return l.pendingStore.Put(dbTx, externalapi.PendingKey{Account: account, Hash: sourceHash}, &externalapi.PendingInfo{
		Source: source.Sideband.Account,
		Amount: amount,
		Epoch:  receive.Sideband.SourceEpoch,
	})
}

// representativeAt returns the representative of an account as of the given
// block, walking back to the last block naming one
func (l *ledger) representativeAt(dbContext model.DBReader, blockHash externalapi.DomainHash) (externalapi.Account, error) {
	current := blockHash
	for {
		block, err := l.blockStore.Block(dbContext, current)
		if err != nil {
			return externalapi.Account{}, err
		}
		if representative, ok := externalapi.BlockRepresentative(block.Block); ok {
			return representative, nil
		}
		current = block.Block.Previous()
	}
}

func sendDestination(block externalapi.Block) externalapi.Account {
	switch b := block.(type) {
	case *externalapi.SendBlock:
		return b.Destination
	case *externalapi.StateBlock:
		return externalapi.AccountFromHash(b.Link)
	default:
		panic(errors.Errorf("%s block cannot send", block.Type()))
	}
}

func receiveSource(block externalapi.Block) externalapi.DomainHash {
	if source, ok := externalapi.BlockLegacySource(block); ok {
		return source
	}
	if b, ok := block.(*externalapi.StateBlock); ok {
		return b.Link
	}
	panic(errors.Errorf("%s block cannot receive", block.Type()))
}
