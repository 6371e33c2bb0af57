package ledger

import (
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/latticeconfig"
)

// ledger implements model.Ledger
type ledger struct {
	params *latticeconfig.Params

	blockStore              model.BlockStore
	accountStore            model.AccountStore
	pendingStore            model.PendingStore
	representationStore     model.RepresentationStore
	confirmationHeightStore model.ConfirmationHeightStore
	commitmentStore         model.CommitmentStore

	cache *model.LedgerCache
	now   func() int64
}

// New instantiates a new Ledger
func New(
	params *latticeconfig.Params,
	blockStore model.BlockStore,
	accountStore model.AccountStore,
	pendingStore model.PendingStore,
	representationStore model.RepresentationStore,
	confirmationHeightStore model.ConfirmationHeightStore,
	commitmentStore model.CommitmentStore,
	cache *model.LedgerCache,
	now func() int64) model.Ledger {

	return &ledger{
		params:                  params,
		blockStore:              blockStore,
		accountStore:            accountStore,
		pendingStore:            pendingStore,
		representationStore:     representationStore,
		confirmationHeightStore: confirmationHeightStore,
		commitmentStore:         commitmentStore,
		cache:                   cache,
		now:                     now,
	}
}

func (l *ledger) Cache() *model.LedgerCache {
	return l.cache
}
