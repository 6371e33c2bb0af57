package externalapi

// Event is delivered to lattice subscribers. Its concrete type is one of
// *BlockProcessedEvent, *BlockRolledBackEvent, *ElectionConfirmedEvent and
// *BlockCementedEvent.
type Event interface {
	isEvent()
}

// BlockProcessedEvent is emitted for every block the block processor
// handled, whatever the result.
type BlockProcessedEvent struct {
	Block  Block
	Hash   DomainHash
	Result ProcessResult
}

// BlockRolledBackEvent is emitted for every block removed from the ledger.
type BlockRolledBackEvent struct {
	Block Block
	Hash  DomainHash
}

// ElectionConfirmedEvent is emitted once per election that reached quorum.
type ElectionConfirmedEvent struct {
	Winner Block
	Hash   DomainHash
	Tally  []TallyEntry
}

// BlockCementedEvent is emitted exactly once per block that became
// irreversible, ancestors first.
type BlockCementedEvent struct {
	Block   Block
	Hash    DomainHash
	Account Account
	Height  uint64
}

func (*BlockProcessedEvent) isEvent()    {}
func (*BlockRolledBackEvent) isEvent()   {}
func (*ElectionConfirmedEvent) isEvent() {}
func (*BlockCementedEvent) isEvent()     {}
