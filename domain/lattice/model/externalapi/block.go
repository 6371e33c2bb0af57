package externalapi

import (
	"fmt"

	"github.com/holiman/uint256"
)

// SignatureSize is the size of a serialized Schnorr signature.
const SignatureSize = 64

// Signature is a Schnorr signature over a block or vote hash.
type Signature [SignatureSize]byte

// BlockType is the kind of a block.
type BlockType uint8

// Block types. The numeric values are part of the stored format.
const (
	BlockTypeInvalid BlockType = iota
	BlockTypeSend
	BlockTypeReceive
	BlockTypeOpen
	BlockTypeChange
	BlockTypeState
)

var blockTypeStrings = map[BlockType]string{
	BlockTypeInvalid: "invalid",
	BlockTypeSend:    "send",
	BlockTypeReceive: "receive",
	BlockTypeOpen:    "open",
	BlockTypeChange:  "change",
	BlockTypeState:   "state",
}

func (bt BlockType) String() string {
	if s, ok := blockTypeStrings[bt]; ok {
		return s
	}
	return fmt.Sprintf("unknown block type %d", bt)
}

// Block is one of *SendBlock, *ReceiveBlock, *OpenBlock, *ChangeBlock and
// *StateBlock. Blocks are immutable once their hash has been computed and
// signed; the set of implementations is closed.
type Block interface {
	Type() BlockType

	// Previous returns the hash of the chain predecessor, or ZeroHash for
	// the first block of an account.
	Previous() DomainHash

	// Root returns the chain slot the block claims: Previous, or the
	// account itself for the first block of an account.
	Root() DomainHash

	BlockSignature() Signature
	BlockWork() uint64

	// Clone returns a deep copy of the block.
	Clone() Block

	isBlock()
}

// SendBlock moves funds out of an account. Balance is the balance left
// after the send.
type SendBlock struct {
	PreviousHash DomainHash
	Destination  Account
	Balance      uint256.Int
	Signature    Signature
	Work         uint64
}

// ReceiveBlock pockets the pending entry created by the send Source.
type ReceiveBlock struct {
	PreviousHash DomainHash
	Source       DomainHash
	Signature    Signature
	Work         uint64
}

// OpenBlock is the first legacy block of an account. It pockets Source and
// names the account's representative.
type OpenBlock struct {
	Source         DomainHash
	Representative Account
	Account        Account
	Signature      Signature
	Work           uint64
}

// ChangeBlock changes the representative of an account.
type ChangeBlock struct {
	PreviousHash   DomainHash
	Representative Account
	Signature      Signature
	Work           uint64
}

// StateBlock carries the complete account state after the block. Whether it
// sends, receives, changes the representative or upgrades the epoch is
// derived from the previous state and Link.
type StateBlock struct {
	Account        Account
	PreviousHash   DomainHash
	Representative Account
	Balance        uint256.Int
	Link           DomainHash
	Signature      Signature
	Work           uint64
}

// Type implements Block.
func (b *SendBlock) Type() BlockType { return BlockTypeSend }

// Previous implements Block.
func (b *SendBlock) Previous() DomainHash { return b.PreviousHash }

// Root implements Block.
func (b *SendBlock) Root() DomainHash { return b.PreviousHash }

// BlockSignature implements Block.
func (b *SendBlock) BlockSignature() Signature { return b.Signature }

// BlockWork implements Block.
func (b *SendBlock) BlockWork() uint64 { return b.Work }

// Clone implements Block.
func (b *SendBlock) Clone() Block {
	clone := *b
	return &clone
}

func (b *SendBlock) isBlock() {}

// Type implements Block.
func (b *ReceiveBlock) Type() BlockType { return BlockTypeReceive }

// Previous implements Block.
func (b *ReceiveBlock) Previous() DomainHash { return b.PreviousHash }

// Root implements Block.
func (b *ReceiveBlock) Root() DomainHash { return b.PreviousHash }

// BlockSignature implements Block.
func (b *ReceiveBlock) BlockSignature() Signature { return b.Signature }

// BlockWork implements Block.
func (b *ReceiveBlock) BlockWork() uint64 { return b.Work }

// Clone implements Block.
func (b *ReceiveBlock) Clone() Block {
	clone := *b
	return &clone
}

func (b *ReceiveBlock) isBlock() {}

// Type implements Block.
func (b *OpenBlock) Type() BlockType { return BlockTypeOpen }

// Previous implements Block.
func (b *OpenBlock) Previous() DomainHash { return ZeroHash }

// Root implements Block.
func (b *OpenBlock) Root() DomainHash { return b.Account.AsHash() }

// BlockSignature implements Block.
func (b *OpenBlock) BlockSignature() Signature { return b.Signature }

// BlockWork implements Block.
func (b *OpenBlock) BlockWork() uint64 { return b.Work }

// Clone implements Block.
func (b *OpenBlock) Clone() Block {
	clone := *b
	return &clone
}

func (b *OpenBlock) isBlock() {}

// Type implements Block.
func (b *ChangeBlock) Type() BlockType { return BlockTypeChange }

// Previous implements Block.
func (b *ChangeBlock) Previous() DomainHash { return b.PreviousHash }

// Root implements Block.
func (b *ChangeBlock) Root() DomainHash { return b.PreviousHash }

// BlockSignature implements Block.
func (b *ChangeBlock) BlockSignature() Signature { return b.Signature }

// BlockWork implements Block.
func (b *ChangeBlock) BlockWork() uint64 { return b.Work }

// Clone implements Block.
func (b *ChangeBlock) Clone() Block {
	clone := *b
	return &clone
}

func (b *ChangeBlock) isBlock() {}

// Type implements Block.
func (b *StateBlock) Type() BlockType { return BlockTypeState }

// Previous implements Block.
func (b *StateBlock) Previous() DomainHash { return b.PreviousHash }

// Root implements Block.
func (b *StateBlock) Root() DomainHash {
	if b.PreviousHash.IsZero() {
		return b.Account.AsHash()
	}
	return b.PreviousHash
}

// BlockSignature implements Block.
func (b *StateBlock) BlockSignature() Signature { return b.Signature }

// BlockWork implements Block.
func (b *StateBlock) BlockWork() uint64 { return b.Work }

// Clone implements Block.
func (b *StateBlock) Clone() Block {
	clone := *b
	return &clone
}

func (b *StateBlock) isBlock() {}

// BlockRepresentative returns the representative named by the block, if its
// type carries one.
func BlockRepresentative(block Block) (Account, bool) {
	switch b := block.(type) {
	case *OpenBlock:
		return b.Representative, true
	case *ChangeBlock:
		return b.Representative, true
	case *StateBlock:
		return b.Representative, true
	default:
		return Account{}, false
	}
}

// BlockAccount returns the account of the block, if its type carries one.
// Other blocks get their account from the chain they extend.
func BlockAccount(block Block) (Account, bool) {
	switch b := block.(type) {
	case *OpenBlock:
		return b.Account, true
	case *StateBlock:
		return b.Account, true
	default:
		return Account{}, false
	}
}

// BlockBalance returns the balance after the block, if its type carries one.
func BlockBalance(block Block) (uint256.Int, bool) {
	switch b := block.(type) {
	case *SendBlock:
		return b.Balance, true
	case *StateBlock:
		return b.Balance, true
	default:
		return uint256.Int{}, false
	}
}

// BlockLegacySource returns the source send of receive and open blocks.
// State blocks keep their source in Link, which only the ledger can
// interpret.
func BlockLegacySource(block Block) (DomainHash, bool) {
	switch b := block.(type) {
	case *ReceiveBlock:
		return b.Source, true
	case *OpenBlock:
		return b.Source, true
	default:
		return DomainHash{}, false
	}
}
