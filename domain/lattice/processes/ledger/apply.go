package ledger

import (
	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/pkg/errors"
)

func (l *ledger) apply(dbTx model.DBTransaction, m *mutation) error {
	sideband := &externalapi.Sideband{
		Account:     m.account,
		Height:      m.height(),
		Balance:     m.balance,
		Timestamp:   l.now(),
		Details:     m.details,
		SourceEpoch: m.sourceEpoch,
	}
	err := l.blockStore.Put(dbTx, m.blockHash, &externalapi.BlockWithSideband{Block: m.block, Sideband: sideband})
	if err != nil {
		return err
	}

	info := &externalapi.AccountInfo{
		Head:           m.blockHash,
		Representative: m.representative,
		OpenBlock:      m.blockHash,
		Balance:        m.balance,
		Modified:       sideband.Timestamp,
		BlockCount:     sideband.Height,
		Epoch:          m.details.Epoch,
	}
	if m.previous != nil {
		info.OpenBlock = m.previous.OpenBlock
		err = l.blockStore.SetSuccessor(dbTx, m.previous.Head, m.blockHash)
		if err != nil {
			return err
		}
		err = l.subtractWeight(dbTx, m.previous.Representative, m.previous.Balance)
		if err != nil {
			return err
		}
	}
	err = l.accountStore.Put(dbTx, m.account, info)
	if err != nil {
		return err
	}
	err = l.addWeight(dbTx, m.representative, m.balance)
	if err != nil {
		return err
	}

	if m.pendingToAdd != nil {
		err = l.pendingStore.Put(dbTx, m.pendingToAdd.Key, &m.pendingToAdd.Info)
		if err != nil {
			return err
		}
	}
	if m.pendingToRemove != nil {
		err = l.pendingStore.Delete(dbTx, *m.pendingToRemove)
		if err != nil {
			return err
		}
	}

	opened := m.previous == nil
	dbTx.OnCommit(func() {
		l.cache.AddBlocks(1)
		if opened {
			l.cache.AddAccounts(1)
		}
	})
	return nil
}

func (l *ledger) addWeight(dbTx model.DBWriter, representative externalapi.Account, amount uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	weight, err := l.representationStore.Weight(dbTx, representative)
	if err != nil {
		return err
	}
	if _, overflow := weight.AddOverflow(&weight, &amount); overflow {
		return errors.Errorf("weight of %s overflows", representative)
	}
	return l.representationStore.Put(dbTx, representative, weight)
}

func (l *ledger) subtractWeight(dbTx model.DBWriter, representative externalapi.Account, amount uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	weight, err := l.representationStore.Weight(dbTx, representative)
	if err != nil {
		return err
	}
	if weight.Lt(&amount) {
		return errors.Errorf("weight of %s is lower than %s", representative, amount.Dec())
	}
	weight.Sub(&weight, &amount)
	return l.representationStore.Put(dbTx, representative, weight)
}
