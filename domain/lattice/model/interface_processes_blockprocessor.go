package model

import "github.com/orvnet/orvd/domain/lattice/model/externalapi"

// BlockProcessedHandler is called after the transaction a block was
// processed in has been committed
type BlockProcessedHandler func(block externalapi.Block, blockHash externalapi.DomainHash, result externalapi.ProcessResult)

// BlockRolledBackHandler is called after a forced rollback has been committed
type BlockRolledBackHandler func(block externalapi.Block, blockHash externalapi.DomainHash)

// BlockProcessor is the single worker that feeds candidate blocks to the Ledger
type BlockProcessor interface {
	Start()
	Stop()

	// Add queues block for processing and returns immediately.
	Add(block externalapi.Block)

	// Process queues block and waits for its result.
	Process(block externalapi.Block) (externalapi.ProcessResult, error)

	// Force replaces whatever uncemented block occupies block's root with
	// block and waits for the result.
	Force(block externalapi.Block) (externalapi.ProcessResult, error)

	// Flush waits until the queue is drained.
	Flush()
	QueueSize() int

	AddBlockProcessedHandler(handler BlockProcessedHandler)
	AddBlockRolledBackHandler(handler BlockRolledBackHandler)
}
