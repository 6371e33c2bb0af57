package confirmationheight

import (
	"sync"

	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/hashset"
	"github.com/orvnet/orvd/domain/latticeconfig"
	"github.com/pkg/errors"
)

// DefaultBatchSize is the number of blocks the bounded cementer writes per
// transaction
const DefaultBatchSize = 256

// confirmationHeightProcessor cements confirmed blocks from a single worker
type confirmationHeightProcessor struct {
	params                  *latticeconfig.Params
	dbManager               model.DBManager
	ledger                  model.Ledger
	confirmationHeightStore model.ConfirmationHeightStore
	commitmentStore         model.CommitmentStore
	mode                    model.ConfirmationHeightMode

	unbounded *unboundedCementer
	bounded   *boundedCementer

	mtx        sync.Mutex
	cond       *sync.Cond
	queue      []externalapi.DomainHash
	awaiting   hashset.HashSet
	processing *externalapi.DomainHash
	started    bool
	stopped    bool
	done       chan struct{}

	handlersMtx sync.RWMutex
	handlers    []model.BlockCementedHandler
}

// New instantiates a new ConfirmationHeightProcessor
func New(params *latticeconfig.Params,
	dbManager model.DBManager,
	ledger model.Ledger,
	confirmationHeightStore model.ConfirmationHeightStore,
	commitmentStore model.CommitmentStore,
	mode model.ConfirmationHeightMode,
	batchSize int) model.ConfirmationHeightProcessor {

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	chp := &confirmationHeightProcessor{
		params:                  params,
		dbManager:               dbManager,
		ledger:                  ledger,
		confirmationHeightStore: confirmationHeightStore,
		commitmentStore:         commitmentStore,
		mode:                    mode,
		awaiting:                hashset.New(),
		done:                    make(chan struct{}),
	}
	chp.cond = sync.NewCond(&chp.mtx)
	chp.unbounded = &unboundedCementer{chp: chp}
	chp.bounded = &boundedCementer{chp: chp, batchSize: batchSize}
	return chp
}

func (chp *confirmationHeightProcessor) Start() {
	chp.mtx.Lock()
	defer chp.mtx.Unlock()
	if chp.started || chp.stopped {
		return
	}
	chp.started = true
	spawn("confirmationHeightProcessor-run", chp.run)
}

// Stop abandons the queue. A batch being planned is discarded without being
// written.
func (chp *confirmationHeightProcessor) Stop() {
	chp.mtx.Lock()
	if chp.stopped {
		chp.mtx.Unlock()
		return
	}
	chp.stopped = true
	started := chp.started
	chp.queue = nil
	chp.awaiting = hashset.New()
	chp.cond.Broadcast()
	chp.mtx.Unlock()

	if started {
		<-chp.done
	}
}

func (chp *confirmationHeightProcessor) Add(blockHash externalapi.DomainHash) {
	chp.mtx.Lock()
	defer chp.mtx.Unlock()
	if chp.stopped {
		return
	}
	if chp.awaiting.Contains(blockHash) {
		return
	}
	chp.awaiting.Add(blockHash)
	chp.queue = append(chp.queue, blockHash)
	chp.cond.Broadcast()
}

func (chp *confirmationHeightProcessor) IsProcessing(blockHash externalapi.DomainHash) bool {
	chp.mtx.Lock()
	defer chp.mtx.Unlock()
	return chp.isProcessingNoLock(blockHash)
}

func (chp *confirmationHeightProcessor) isProcessingNoLock(blockHash externalapi.DomainHash) bool {
	if chp.awaiting.Contains(blockHash) {
		return true
	}
	return chp.processing != nil && *chp.processing == blockHash
}

func (chp *confirmationHeightProcessor) GuardRollback(
	f func(isBeingCemented func(blockHash externalapi.DomainHash) bool) error) error {

	chp.mtx.Lock()
	defer chp.mtx.Unlock()
	return f(chp.isProcessingNoLock)
}

func (chp *confirmationHeightProcessor) AwaitingProcessingSize() int {
	chp.mtx.Lock()
	defer chp.mtx.Unlock()
	return len(chp.queue)
}

func (chp *confirmationHeightProcessor) Flush() {
	chp.mtx.Lock()
	defer chp.mtx.Unlock()
	for !chp.stopped && (len(chp.queue) > 0 || chp.processing != nil) {
		chp.cond.Wait()
	}
}

func (chp *confirmationHeightProcessor) AddBlockCementedHandler(handler model.BlockCementedHandler) {
	chp.handlersMtx.Lock()
	defer chp.handlersMtx.Unlock()
	chp.handlers = append(chp.handlers, handler)
}

func (chp *confirmationHeightProcessor) isStopping() bool {
	chp.mtx.Lock()
	defer chp.mtx.Unlock()
	return chp.stopped
}

func (chp *confirmationHeightProcessor) run() {
	defer close(chp.done)
	for {
		chp.mtx.Lock()
		for !chp.stopped && len(chp.queue) == 0 {
			chp.cond.Wait()
		}
		if chp.stopped {
			chp.mtx.Unlock()
			return
		}
		blockHash := chp.queue[0]
		chp.queue = chp.queue[1:]
		chp.awaiting.Remove(blockHash)
		chp.processing = &blockHash
		chp.mtx.Unlock()

		chp.cement(blockHash)

		chp.mtx.Lock()
		chp.processing = nil
		chp.cond.Broadcast()
		chp.mtx.Unlock()
	}
}

func (chp *confirmationHeightProcessor) cement(blockHash externalapi.DomainHash) {
	cementer := chp.cementer()
	err := cementer.Cement(blockHash)
	switch {
	case err == nil:
	case errors.Is(err, errAborted):
		log.Debugf("Cementing of %s was abandoned", blockHash)
	case errors.Is(err, errTargetMissing):
		log.Warnf("Not cementing %s: %s", blockHash, err)
	default:
		log.Errorf("Failed to cement %s: %+v", blockHash, err)
	}
}

// cementer picks the algorithm for the next block. In automatic mode the
// unbounded cementer is used while the uncemented backlog is small.
func (chp *confirmationHeightProcessor) cementer() model.Cementer {
	switch chp.mode {
	case model.ConfirmationHeightModeUnbounded:
		return chp.unbounded
	case model.ConfirmationHeightModeBounded:
		return chp.bounded
	}
	if chp.ledger.Cache().UncementedCount() < chp.params.ConfirmationHeightUnboundedCutoff {
		return chp.unbounded
	}
	return chp.bounded
}
