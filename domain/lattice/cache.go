package lattice

import (
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/infrastructure/logger"
)

// loadLedgerCache counts the blocks, cemented blocks and accounts already in
// the database
func loadLedgerCache(dbManager model.DBManager, accountStore model.AccountStore,
	confirmationHeightStore model.ConfirmationHeightStore) (*model.LedgerCache, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "loadLedgerCache")
	defer onEnd()

	readTx, err := dbManager.BeginRead()
	if err != nil {
		return nil, err
	}
	defer readTx.Release()

	var blockCount, accountCount, cementedCount uint64
	err = accountStore.ForEach(readTx, func(_ externalapi.Account, info *externalapi.AccountInfo) error {
		accountCount++
		blockCount += info.BlockCount
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = confirmationHeightStore.ForEach(readTx, func(_ externalapi.Account, info externalapi.ConfirmationHeightInfo) error {
		cementedCount += info.Height
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("Loaded a ledger of %d blocks (%d cemented) in %d accounts", blockCount, cementedCount, accountCount)
	return model.NewLedgerCache(blockCount, cementedCount, accountCount), nil
}
