package model

import "github.com/orvnet/orvd/domain/lattice/model/externalapi"

// ConfirmationHeightMode selects the cementing algorithm
type ConfirmationHeightMode uint8

// Confirmation height modes
const (
	ConfirmationHeightModeAutomatic ConfirmationHeightMode = iota
	ConfirmationHeightModeUnbounded
	ConfirmationHeightModeBounded
)

func (m ConfirmationHeightMode) String() string {
	switch m {
	case ConfirmationHeightModeAutomatic:
		return "automatic"
	case ConfirmationHeightModeUnbounded:
		return "unbounded"
	case ConfirmationHeightModeBounded:
		return "bounded"
	default:
		return "unknown"
	}
}

// BlockCementedHandler is called once for every newly cemented block, in
// cementing order, after the write that cemented it was committed
type BlockCementedHandler func(block *externalapi.BlockWithSideband, blockHash externalapi.DomainHash)

// ConfirmationHeightProcessor advances the persisted cementing boundary of
// confirmed blocks and everything they depend on
type ConfirmationHeightProcessor interface {
	Start()
	Stop()

	// Add queues a confirmed block for cementing.
	Add(blockHash externalapi.DomainHash)

	IsProcessing(blockHash externalapi.DomainHash) bool
	AwaitingProcessingSize() int

	// GuardRollback runs f while no block can be queued for or picked up by
	// cementing. isBeingCemented reports the blocks that are queued or being
	// cemented. Callers holding the write queue must acquire it before
	// calling GuardRollback.
	GuardRollback(f func(isBeingCemented func(blockHash externalapi.DomainHash) bool) error) error

	// Flush waits until every queued block has been cemented.
	Flush()

	AddBlockCementedHandler(handler BlockCementedHandler)
}

// Cementer is one cementing algorithm: it cements blockHash and all of its
// uncemented dependencies.
type Cementer interface {
	Cement(blockHash externalapi.DomainHash) error
}
