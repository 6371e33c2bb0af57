package confirmationheight

import (
	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/lrucache"
)

// boundedCementer writes its plan every batchSize blocks and only keeps
// LRU caches of the blocks and persisted heights it read, so its memory
// does not grow with the uncemented backlog
type boundedCementer struct {
	chp       *confirmationHeightProcessor
	batchSize int
}

func (bc *boundedCementer) Cement(blockHash externalapi.DomainHash) error {
	ledger := bc.chp.ledger
	dbManager := bc.chp.dbManager
	blocks := lrucache.New[externalapi.DomainHash, *externalapi.BlockWithSideband](bc.batchSize)
	persisted := lrucache.New[externalapi.Account, externalapi.ConfirmationHeightInfo](bc.batchSize)

	// planned holds the heights of the batch not written yet. They must
	// not be evicted before the batch is flushed.
	planned := make(map[externalapi.Account]externalapi.ConfirmationHeightInfo)
	var batch []*plannedBlock

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := bc.chp.commit(batch)
		if err != nil {
			return err
		}
		for account, info := range planned {
			persisted.Add(account, info)
		}
		planned = make(map[externalapi.Account]externalapi.ConfirmationHeightInfo)
		batch = nil
		return nil
	}

	w := &walker{
		block: func(blockHash externalapi.DomainHash) (*externalapi.BlockWithSideband, error) {
			if block, ok := blocks.Get(blockHash); ok {
				return block, nil
			}
			block, err := ledger.Block(dbManager, blockHash)
			if err != nil {
				return nil, err
			}
			blocks.Add(blockHash, block)
			return block, nil
		},
		isNotFound: database.IsNotFoundError,
		openBlock: func(account externalapi.Account) (externalapi.DomainHash, error) {
			info, err := ledger.AccountInfo(dbManager, account)
			if err != nil {
				return externalapi.DomainHash{}, err
			}
			return info.OpenBlock, nil
		},
		height: func(account externalapi.Account) (externalapi.ConfirmationHeightInfo, error) {
			if info, ok := planned[account]; ok {
				return info, nil
			}
			if info, ok := persisted.Get(account); ok {
				return info, nil
			}
			info, err := ledger.ConfirmationHeight(dbManager, account)
			if err != nil {
				return externalapi.ConfirmationHeightInfo{}, err
			}
			persisted.Add(account, info)
			return info, nil
		},
		cement: func(block *plannedBlock) error {
			batch = append(batch, block)
			planned[block.block.Sideband.Account] = externalapi.ConfirmationHeightInfo{
				Height:   block.block.Sideband.Height,
				Frontier: block.hash,
			}
			if len(batch) >= bc.batchSize {
				return flush()
			}
			return nil
		},
		aborting: bc.chp.isStopping,
	}
	err := w.walk(blockHash)
	if err != nil {
		return err
	}
	return flush()
}
