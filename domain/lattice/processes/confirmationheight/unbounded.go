package confirmationheight

import (
	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
)

// unboundedCementer plans a whole cementing against one snapshot, keeping
// every block and height it reads in memory, and writes it in a single
// transaction
type unboundedCementer struct {
	chp *confirmationHeightProcessor
}

func (uc *unboundedCementer) Cement(blockHash externalapi.DomainHash) error {
	readTx, err := uc.chp.dbManager.BeginRead()
	if err != nil {
		return err
	}
	defer readTx.Release()

	ledger := uc.chp.ledger
	blocks := make(map[externalapi.DomainHash]*externalapi.BlockWithSideband)
	heights := make(map[externalapi.Account]externalapi.ConfirmationHeightInfo)
	var plan []*plannedBlock

	w := &walker{
		block: func(blockHash externalapi.DomainHash) (*externalapi.BlockWithSideband, error) {
			if block, ok := blocks[blockHash]; ok {
				return block, nil
			}
			block, err := ledger.Block(readTx, blockHash)
			if err != nil {
				return nil, err
			}
			blocks[blockHash] = block
			return block, nil
		},
		isNotFound: database.IsNotFoundError,
		openBlock: func(account externalapi.Account) (externalapi.DomainHash, error) {
			info, err := ledger.AccountInfo(readTx, account)
			if err != nil {
				return externalapi.DomainHash{}, err
			}
			return info.OpenBlock, nil
		},
		height: func(account externalapi.Account) (externalapi.ConfirmationHeightInfo, error) {
			if info, ok := heights[account]; ok {
				return info, nil
			}
			info, err := ledger.ConfirmationHeight(readTx, account)
			if err != nil {
				return externalapi.ConfirmationHeightInfo{}, err
			}
			heights[account] = info
			return info, nil
		},
		cement: func(planned *plannedBlock) error {
			plan = append(plan, planned)
			heights[planned.block.Sideband.Account] = externalapi.ConfirmationHeightInfo{
				Height:   planned.block.Sideband.Height,
				Frontier: planned.hash,
			}
			return nil
		},
		aborting: uc.chp.isStopping,
	}
	err = w.walk(blockHash)
	if err != nil {
		return err
	}
	readTx.Release()

	if len(plan) == 0 {
		return nil
	}
	return uc.chp.commit(plan)
}
