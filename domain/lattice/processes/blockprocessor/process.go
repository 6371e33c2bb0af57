package blockprocessor

import (
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/ruleerrors"
	"github.com/orvnet/orvd/domain/lattice/utils/hashing"
	"github.com/orvnet/orvd/domain/lattice/utils/work"
	"github.com/pkg/errors"
)

type processedBlock struct {
	item   *queuedBlock
	hash   externalapi.DomainHash
	result externalapi.ProcessResult
}

func (bp *blockProcessor) beginWrite() model.DBTransaction {
	dbTx, err := bp.dbManager.BeginWrite(model.WriterBlockProcessor)
	if err != nil {
		panic(errors.Wrap(err, "failed to begin a block processor transaction"))
	}
	return dbTx
}

func (bp *blockProcessor) rollbackUnlessClosed(dbTx model.DBTransaction) {
	err := dbTx.RollbackUnlessClosed()
	if err != nil {
		log.Errorf("Failed to roll back a block processor transaction: %s", err)
	}
}

// processBatch processes first and as many following blocks as fit in a
// batch, in one write transaction. The batch ends early when the
// confirmation height processor waits for the write queue.
func (bp *blockProcessor) processBatch(first *queuedBlock) {
	if first.forced {
		bp.processForced(first)
		return
	}

	dbTx := bp.beginWrite()
	defer bp.rollbackUnlessClosed(dbTx)

	processed := []*processedBlock{bp.processOne(dbTx, first)}
	for len(processed) < bp.batchSize {
		if bp.dbManager.IsWriterWaiting(model.WriterConfirmationHeight) {
			log.Tracef("Yielding the write queue to the confirmation height processor")
			break
		}
		next := bp.nextUnforced()
		if next == nil {
			break
		}
		processed = append(processed, bp.processOne(dbTx, next))
	}

	err := dbTx.Commit()
	if err != nil {
		panic(errors.Wrap(err, "failed to commit processed blocks"))
	}
	log.Debugf("Processed a batch of %d blocks", len(processed))

	bp.notify(nil, processed)
}

// processForced rolls back whatever occupies the root of a forced block and
// processes the block in a transaction of its own. No block can be queued
// for cementing between the rollback and the commit. When a block that
// would be rolled back is cemented, queued or being cemented, the rollback
// is discarded and the forced block is processed as is.
func (bp *blockProcessor) processForced(item *queuedBlock) {
	dbTx := bp.beginWrite()
	defer bp.rollbackUnlessClosed(dbTx)

	var rolledBack []*externalapi.BlockWithSideband
	var processed *processedBlock
	refused := false
	err := bp.guardRollback(func(isBeingCemented func(blockHash externalapi.DomainHash) bool) error {
		var err error
		rolledBack, err = bp.rollbackCompetitor(dbTx, item.block, isBeingCemented)
		if errors.Is(err, ruleerrors.ErrCemented) {
			log.Infof("Cannot force block %s: %s", hashing.BlockHash(item.block), err)
			refused = true
			rolledBack = nil
			return dbTx.Rollback()
		}
		if err != nil {
			return err
		}
		processed = bp.processOne(dbTx, item)
		return dbTx.Commit()
	})
	if err != nil {
		panic(errors.Wrap(err, "failed to force a block"))
	}

	if refused {
		dbTx = bp.beginWrite()
		defer bp.rollbackUnlessClosed(dbTx)
		processed = bp.processOne(dbTx, item)
		err = dbTx.Commit()
		if err != nil {
			panic(errors.Wrap(err, "failed to commit a forced block"))
		}
	}

	bp.notify(rolledBack, []*processedBlock{processed})
}

func (bp *blockProcessor) guardRollback(f func(isBeingCemented func(blockHash externalapi.DomainHash) bool) error) error {
	if bp.cementing == nil {
		return f(func(externalapi.DomainHash) bool { return false })
	}
	return bp.cementing.GuardRollback(f)
}

func (bp *blockProcessor) processOne(dbTx model.DBTransaction, item *queuedBlock) *processedBlock {
	block := item.block
	blockHash := hashing.BlockHash(block)

	if !work.IsValid(block, bp.params.MinimumWorkThreshold()) {
		log.Debugf("Block %s does not meet the minimum work threshold", blockHash)
		return &processedBlock{item: item, hash: blockHash, result: externalapi.ResultInsufficientWork}
	}

	err := bp.ledger.Process(dbTx, block)
	result, ok := ruleerrors.ResultFromError(err)
	if !ok {
		panic(errors.Wrapf(err, "unexpected error while processing block %s", blockHash))
	}

	switch {
	case result == externalapi.ResultProgress:
		log.Tracef("Block %s accepted", blockHash)
		err = bp.releaseDependents(dbTx, block, blockHash)
		if err != nil {
			panic(err)
		}
	case result.IsGap():
		dependency, ok := ruleerrors.MissingDependency(err)
		if !ok {
			log.Debugf("Block %s has an unresolvable gap: %s", blockHash, err)
			break
		}
		log.Tracef("Block %s waits for %s (%s)", blockHash, dependency, result)
		err = bp.uncheckedStore.Put(dbTx, dependency, block)
		if err != nil {
			panic(err)
		}
	default:
		log.Debugf("Block %s rejected: %s", blockHash, err)
	}

	return &processedBlock{item: item, hash: blockHash, result: result}
}

// releaseDependents moves the unchecked blocks waiting on the newly accepted
// block back to the front of the queue. A send also releases epoch opens
// waiting for something to receive.
func (bp *blockProcessor) releaseDependents(dbTx model.DBTransaction, block externalapi.Block,
	blockHash externalapi.DomainHash) error {

	dependencies := []externalapi.DomainHash{blockHash}
	if destination, ok := sendDestination(block); ok {
		dependencies = append(dependencies, destination.AsHash())
	}

	var released []externalapi.Block
	for _, dependency := range dependencies {
		dependents, err := bp.uncheckedStore.Dependents(dbTx, dependency)
		if err != nil {
			return err
		}
		for _, dependent := range dependents {
			err := bp.uncheckedStore.Delete(dbTx, dependency, hashing.BlockHash(dependent))
			if err != nil {
				return err
			}
		}
		released = append(released, dependents...)
	}
	if len(released) > 0 {
		log.Debugf("Block %s released %d unchecked blocks", blockHash, len(released))
		bp.requeueFront(released)
	}
	return nil
}

// rollbackCompetitor rolls back the ledger block occupying the root of block,
// if it is a different block. The rollback is refused with ErrCemented if it
// removes a block that isBeingCemented reports.
func (bp *blockProcessor) rollbackCompetitor(dbTx model.DBTransaction, block externalapi.Block,
	isBeingCemented func(blockHash externalapi.DomainHash) bool) ([]*externalapi.BlockWithSideband, error) {

	blockHash := hashing.BlockHash(block)
	exists, err := bp.ledger.BlockExists(dbTx, blockHash)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}
	competitor, found, err := bp.ledger.BlockAtRoot(dbTx, block.Root())
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	if isBeingCemented(competitor) {
		return nil, errors.Wrapf(ruleerrors.ErrCemented, "block %s is being cemented", competitor)
	}

	log.Infof("Rolling back %s to make room for %s", competitor, blockHash)
	rolledBack, err := bp.ledger.Rollback(dbTx, competitor)
	if err != nil {
		return nil, err
	}
	for _, removed := range rolledBack {
		removedHash := hashing.BlockHash(removed.Block)
		if isBeingCemented(removedHash) {
			return nil, errors.Wrapf(ruleerrors.ErrCemented, "rolled back block %s is being cemented", removedHash)
		}
	}
	return rolledBack, nil
}

// notify runs the handlers for a committed batch and wakes up waiting callers
func (bp *blockProcessor) notify(rolledBack []*externalapi.BlockWithSideband, processed []*processedBlock) {
	bp.handlersMtx.RLock()
	rolledBackHandlers := bp.rolledBackHandlers
	processedHandlers := bp.processedHandlers
	bp.handlersMtx.RUnlock()

	for _, block := range rolledBack {
		blockHash := hashing.BlockHash(block.Block)
		for _, handler := range rolledBackHandlers {
			handler(block.Block, blockHash)
		}
	}
	for _, block := range processed {
		for _, handler := range processedHandlers {
			handler(block.item.block, block.hash, block.result)
		}
		if block.item.resultChan != nil {
			block.item.resultChan <- processOutcome{result: block.result}
		}
	}
}

// sendDestination returns the destination of blocks that may be sends. For
// state blocks the link is only a destination if the block sends, but
// looking up a few extra unchecked keys is harmless.
func sendDestination(block externalapi.Block) (externalapi.Account, bool) {
	switch b := block.(type) {
	case *externalapi.SendBlock:
		return b.Destination, true
	case *externalapi.StateBlock:
		if b.Link.IsZero() {
			return externalapi.Account{}, false
		}
		return externalapi.AccountFromHash(b.Link), true
	default:
		return externalapi.Account{}, false
	}
}
