package confirmationheight

import (
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/hashing"
	"github.com/orvnet/orvd/infrastructure/logger"
	"github.com/pkg/errors"
)

// commit writes the confirmation heights and the commitment of plan in one
// transaction and notifies the handlers once it is committed. plan must be
// in cementing order.
func (chp *confirmationHeightProcessor) commit(plan []*plannedBlock) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "confirmationHeightProcessor.commit")
	defer onEnd()

	dbTx, err := chp.dbManager.BeginWrite(model.WriterConfirmationHeight)
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	commitment, err := chp.commitmentStore.Get(dbTx)
	if err != nil {
		return err
	}

	heights := make(map[externalapi.Account]externalapi.ConfirmationHeightInfo)
	var accounts []externalapi.Account
	for _, planned := range plan {
		exists, err := chp.ledger.BlockExists(dbTx, planned.hash)
		if err != nil {
			return err
		}
		if !exists {
			panic(errors.Errorf("block %s planned for cementing at height %d of %s is no longer in the ledger",
				planned.hash, planned.block.Sideband.Height, planned.block.Sideband.Account))
		}

		account := planned.block.Sideband.Account
		height := planned.block.Sideband.Height
		previous, ok := heights[account]
		if !ok {
			previous, err = chp.confirmationHeightStore.ConfirmationHeight(dbTx, account)
			if err != nil {
				return err
			}
			accounts = append(accounts, account)
		}
		if height != previous.Height+1 {
			panic(errors.Errorf("block %s planned for cementing at height %d of %s does not follow "+
				"the confirmation height %d", planned.hash, height, account, previous.Height))
		}
		heights[account] = externalapi.ConfirmationHeightInfo{Height: height, Frontier: planned.hash}
		commitment.Add(hashing.CementedEntryBytes(account, height, planned.hash))
	}

	for _, account := range accounts {
		err = chp.confirmationHeightStore.Put(dbTx, account, heights[account])
		if err != nil {
			return err
		}
	}
	err = chp.commitmentStore.Put(dbTx, commitment)
	if err != nil {
		return err
	}

	cementedCount := int64(len(plan))
	dbTx.OnCommit(func() {
		chp.ledger.Cache().AddCemented(cementedCount)
	})
	err = dbTx.Commit()
	if err != nil {
		return err
	}
	log.Debugf("Cemented %d blocks across %d accounts", len(plan), len(accounts))

	chp.notify(plan)
	return nil
}

func (chp *confirmationHeightProcessor) notify(plan []*plannedBlock) {
	chp.handlersMtx.RLock()
	defer chp.handlersMtx.RUnlock()
	for _, planned := range plan {
		log.Tracef("Cemented %s at height %d of %s", planned.hash, planned.block.Sideband.Height,
			planned.block.Sideband.Account)
		for _, handler := range chp.handlers {
			handler(planned.block, planned.hash)
		}
	}
}
