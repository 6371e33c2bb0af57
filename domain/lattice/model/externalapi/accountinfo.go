package externalapi

import (
	"github.com/holiman/uint256"
)

// AccountInfo is the ledger head of an account.
type AccountInfo struct {
	Head           DomainHash
	Representative Account
	OpenBlock      DomainHash
	Balance        uint256.Int
	// Modified is the time of the last block, in milliseconds since the epoch.
	Modified   int64
	BlockCount uint64
	Epoch      Epoch
}

// Clone returns a copy of the account info.
func (info *AccountInfo) Clone() *AccountInfo {
	clone := *info
	return &clone
}

// PendingKey identifies a receivable entry: the destination account and the
// hash of the send that created it.
type PendingKey struct {
	Account Account
	Hash    DomainHash
}

// PendingInfo is a receivable entry.
type PendingInfo struct {
	Source Account
	Amount uint256.Int
	Epoch  Epoch
}

// ConfirmationHeightInfo is the cementing boundary of an account. Height is
// the number of irreversible blocks, Frontier the hash of the last of them.
type ConfirmationHeightInfo struct {
	Height   uint64
	Frontier DomainHash
}

// PendingEntry is a receivable entry together with its key
type PendingEntry struct {
	Key  PendingKey
	Info PendingInfo
}
