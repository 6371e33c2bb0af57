package externalapi

import (
	"github.com/holiman/uint256"
)

// Epoch is the ledger rules version an account or pending entry belongs to.
type Epoch uint8

// Epochs. The numeric values are part of the stored format.
const (
	Epoch0 Epoch = iota
	Epoch1
)

func (e Epoch) String() string {
	switch e {
	case Epoch0:
		return "epoch_0"
	case Epoch1:
		return "epoch_1"
	default:
		return "epoch_unknown"
	}
}

// BlockDetails classify what a block did to its account.
type BlockDetails struct {
	Epoch     Epoch
	IsSend    bool
	IsReceive bool
	IsEpoch   bool
}

// Sideband is the chain context the ledger stores next to every block.
type Sideband struct {
	Account   Account
	Height    uint64
	Balance   uint256.Int
	Timestamp int64
	// Successor is the next block of the account, ZeroHash for the head.
	Successor   DomainHash
	Details     BlockDetails
	SourceEpoch Epoch
}

// BlockWithSideband is a stored block.
type BlockWithSideband struct {
	Block    Block
	Sideband *Sideband
}
