package blockprocessor

import (
	"container/list"
	"sync"

	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/latticeconfig"
	"github.com/pkg/errors"
)

// DefaultBatchSize is the maximum number of blocks processed in a single
// write transaction
const DefaultBatchSize = 256

// ErrStopped is returned to callers waiting on a block the processor will
// no longer process
var ErrStopped = errors.New("block processor stopped")

type queuedBlock struct {
	block  externalapi.Block
	forced bool

	// resultChan is nil for blocks nobody waits on
	resultChan chan processOutcome
}

type processOutcome struct {
	result externalapi.ProcessResult
	err    error
}

// blockProcessor feeds blocks to the ledger from a single worker goroutine
type blockProcessor struct {
	params         *latticeconfig.Params
	dbManager      model.DBManager
	ledger         model.Ledger
	uncheckedStore model.UncheckedStore
	cementing      model.ConfirmationHeightProcessor
	batchSize      int

	mtx        sync.Mutex
	cond       *sync.Cond
	queue      *list.List
	processing bool
	started    bool
	stopped    bool
	done       chan struct{}

	handlersMtx        sync.RWMutex
	processedHandlers  []model.BlockProcessedHandler
	rolledBackHandlers []model.BlockRolledBackHandler
}

// New instantiates a new BlockProcessor
func New(params *latticeconfig.Params,
	dbManager model.DBManager,
	ledger model.Ledger,
	uncheckedStore model.UncheckedStore,
	cementing model.ConfirmationHeightProcessor,
	batchSize int) model.BlockProcessor {

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	bp := &blockProcessor{
		params:         params,
		dbManager:      dbManager,
		ledger:         ledger,
		uncheckedStore: uncheckedStore,
		cementing:      cementing,
		batchSize:      batchSize,
		queue:          list.New(),
		done:           make(chan struct{}),
	}
	bp.cond = sync.NewCond(&bp.mtx)
	return bp
}

func (bp *blockProcessor) Start() {
	bp.mtx.Lock()
	defer bp.mtx.Unlock()
	if bp.started {
		return
	}
	bp.started = true
	spawn("blockProcessor-run", bp.run)
}

func (bp *blockProcessor) Stop() {
	bp.mtx.Lock()
	if bp.stopped {
		bp.mtx.Unlock()
		return
	}
	bp.stopped = true
	started := bp.started
	abandoned := bp.queue
	bp.queue = list.New()
	bp.cond.Broadcast()
	bp.mtx.Unlock()

	for element := abandoned.Front(); element != nil; element = element.Next() {
		item := element.Value.(*queuedBlock)
		if item.resultChan != nil {
			item.resultChan <- processOutcome{err: ErrStopped}
		}
	}
	if started {
		<-bp.done
	}
}

func (bp *blockProcessor) Add(block externalapi.Block) {
	bp.enqueue(&queuedBlock{block: block})
}

func (bp *blockProcessor) Process(block externalapi.Block) (externalapi.ProcessResult, error) {
	return bp.enqueueAndWait(&queuedBlock{block: block})
}

func (bp *blockProcessor) Force(block externalapi.Block) (externalapi.ProcessResult, error) {
	return bp.enqueueAndWait(&queuedBlock{block: block, forced: true})
}

func (bp *blockProcessor) enqueueAndWait(item *queuedBlock) (externalapi.ProcessResult, error) {
	item.resultChan = make(chan processOutcome, 1)
	if !bp.enqueue(item) {
		return 0, ErrStopped
	}
	outcome := <-item.resultChan
	return outcome.result, outcome.err
}

func (bp *blockProcessor) enqueue(item *queuedBlock) bool {
	bp.mtx.Lock()
	defer bp.mtx.Unlock()
	if bp.stopped {
		return false
	}
	if item.forced {
		bp.queue.PushFront(item)
	} else {
		bp.queue.PushBack(item)
	}
	bp.cond.Broadcast()
	return true
}

// requeueFront puts blocks whose dependency was just satisfied at the front
// of the queue, keeping their order
func (bp *blockProcessor) requeueFront(blocks []externalapi.Block) {
	bp.mtx.Lock()
	defer bp.mtx.Unlock()
	if bp.stopped {
		return
	}
	for i := len(blocks) - 1; i >= 0; i-- {
		bp.queue.PushFront(&queuedBlock{block: blocks[i]})
	}
	bp.cond.Broadcast()
}

func (bp *blockProcessor) Flush() {
	bp.mtx.Lock()
	defer bp.mtx.Unlock()
	for !bp.stopped && (bp.queue.Len() > 0 || bp.processing) {
		bp.cond.Wait()
	}
}

func (bp *blockProcessor) QueueSize() int {
	bp.mtx.Lock()
	defer bp.mtx.Unlock()
	return bp.queue.Len()
}

func (bp *blockProcessor) AddBlockProcessedHandler(handler model.BlockProcessedHandler) {
	bp.handlersMtx.Lock()
	defer bp.handlersMtx.Unlock()
	bp.processedHandlers = append(bp.processedHandlers, handler)
}

func (bp *blockProcessor) AddBlockRolledBackHandler(handler model.BlockRolledBackHandler) {
	bp.handlersMtx.Lock()
	defer bp.handlersMtx.Unlock()
	bp.rolledBackHandlers = append(bp.rolledBackHandlers, handler)
}

func (bp *blockProcessor) run() {
	defer close(bp.done)
	for {
		first, ok := bp.next()
		if !ok {
			return
		}
		bp.processBatch(first)

		bp.mtx.Lock()
		bp.processing = false
		bp.cond.Broadcast()
		bp.mtx.Unlock()
	}
}

// next blocks until there is something to process. It returns false once
// the processor is stopped.
func (bp *blockProcessor) next() (*queuedBlock, bool) {
	bp.mtx.Lock()
	defer bp.mtx.Unlock()
	for !bp.stopped && bp.queue.Len() == 0 {
		bp.cond.Wait()
	}
	if bp.stopped {
		return nil, false
	}
	bp.processing = true
	return bp.queue.Remove(bp.queue.Front()).(*queuedBlock), true
}

// nextUnforced pops the next queued block unless it is forced. Forced blocks
// are processed in a transaction of their own.
func (bp *blockProcessor) nextUnforced() *queuedBlock {
	bp.mtx.Lock()
	defer bp.mtx.Unlock()
	front := bp.queue.Front()
	if bp.stopped || front == nil || front.Value.(*queuedBlock).forced {
		return nil
	}
	return bp.queue.Remove(front).(*queuedBlock)
}
