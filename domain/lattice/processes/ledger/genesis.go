package ledger

import (
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/hashing"
	"github.com/pkg/errors"
)

// InitializeGenesis inserts the genesis block into an empty ledger, cemented.
// It does nothing when the genesis block is already there.
func (l *ledger) InitializeGenesis(dbTx model.DBTransaction) error {
	genesisHash := l.params.GenesisHash
	exists, err := l.blockStore.HasBlock(dbTx, genesisHash)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	blockCount, err := l.blockStore.Count(dbTx)
	if err != nil {
		return err
	}
	if blockCount != 0 {
		return errors.Errorf("the ledger holds %d blocks but not the genesis block %s of %s",
			blockCount, genesisHash, l.params.Name)
	}

	genesisAccount := l.params.GenesisAccount
	now := l.now()
	sideband := &externalapi.Sideband{
		Account:   genesisAccount,
		Height:    1,
		Balance:   l.params.GenesisAmount,
		Timestamp: now,
		Details:   externalapi.BlockDetails{Epoch: externalapi.Epoch0},
	}
	err = l.blockStore.Put(dbTx, genesisHash, &externalapi.BlockWithSideband{
		Block:    l.params.GenesisBlock,
		Sideband: sideband,
	})
	if err != nil {
		return err
	}
	err = l.accountStore.Put(dbTx, genesisAccount, &externalapi.AccountInfo{
		Head:           genesisHash,
		Representative: l.params.GenesisBlock.Representative,
		OpenBlock:      genesisHash,
		Balance:        l.params.GenesisAmount,
		Modified:       now,
		BlockCount:     1,
		Epoch:          externalapi.Epoch0,
	})
	if err != nil {
		return err
	}
	err = l.addWeight(dbTx, l.params.GenesisBlock.Representative, l.params.GenesisAmount)
	if err != nil {
		return err
	}
	err = l.confirmationHeightStore.Put(dbTx, genesisAccount, externalapi.ConfirmationHeightInfo{
		Height:   1,
		Frontier: genesisHash,
	})
	if err != nil {
		return err
	}

	commitment, err := l.commitmentStore.Get(dbTx)
	if err != nil {
		return err
	}
	commitment.Add(hashing.CementedEntryBytes(genesisAccount, 1, genesisHash))
	err = l.commitmentStore.Put(dbTx, commitment)
	if err != nil {
		return err
	}

	dbTx.OnCommit(func() {
		l.cache.AddBlocks(1)
		l.cache.AddAccounts(1)
		l.cache.AddCemented(1)
	})
	log.Infof("Initialized the %s ledger with genesis block %s", l.params.Name, genesisHash)
	return nil
}
