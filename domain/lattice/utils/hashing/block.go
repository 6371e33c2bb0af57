package hashing

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/pkg/errors"
)

// blockPreamble separates the hashes of different block types, whose field
// layouts could otherwise collide.
func blockPreamble(blockType externalapi.BlockType) [32]byte {
	var preamble [32]byte
	preamble[31] = byte(blockType)
	return preamble
}

// BlockHash returns the hash of the block. Signature and work are not
// covered by the hash.
func BlockHash(block externalapi.Block) externalapi.DomainHash {
	writer := NewHashWriter()
	preamble := blockPreamble(block.Type())
	writer.InfallibleWrite(preamble[:])
	switch b := block.(type) {
	case *externalapi.SendBlock:
		writeHash(writer, b.PreviousHash)
		writeAccount(writer, b.Destination)
		writeAmount(writer, &b.Balance)
	case *externalapi.ReceiveBlock:
		writeHash(writer, b.PreviousHash)
		writeHash(writer, b.Source)
	case *externalapi.OpenBlock:
		writeHash(writer, b.Source)
		writeAccount(writer, b.Representative)
		writeAccount(writer, b.Account)
	case *externalapi.ChangeBlock:
		writeHash(writer, b.PreviousHash)
		writeAccount(writer, b.Representative)
	case *externalapi.StateBlock:
		writeAccount(writer, b.Account)
		writeHash(writer, b.PreviousHash)
		writeAccount(writer, b.Representative)
		writeAmount(writer, &b.Balance)
		writeHash(writer, b.Link)
	default:
		panic(errors.Errorf("unknown block type %T", block))
	}
	return writer.Finalize()
}

// VoteHash returns the hash a representative signs when voting for hashes
// with the given sequence.
func VoteHash(sequence uint64, hashes []externalapi.DomainHash) externalapi.DomainHash {
	writer := NewHashWriter()
	writer.InfallibleWrite([]byte("vote "))
	for _, hash := range hashes {
		writeHash(writer, hash)
	}
	var sequenceBytes [8]byte
	binary.LittleEndian.PutUint64(sequenceBytes[:], sequence)
	writer.InfallibleWrite(sequenceBytes[:])
	return writer.Finalize()
}

// CementedEntryBytes serializes a cemented block for the cemented-set
// commitment.
func CementedEntryBytes(account externalapi.Account, height uint64, hash externalapi.DomainHash) []byte {
	entry := make([]byte, 0, externalapi.AccountSize+8+externalapi.DomainHashSize)
	entry = append(entry, account.ByteSlice()...)
	entry = binary.BigEndian.AppendUint64(entry, height)
	entry = append(entry, hash.ByteSlice()...)
	return entry
}

func writeHash(writer HashWriter, hash externalapi.DomainHash) {
	hashArray := hash.ByteArray()
	writer.InfallibleWrite(hashArray[:])
}

func writeAccount(writer HashWriter, account externalapi.Account) {
	accountArray := account.ByteArray()
	writer.InfallibleWrite(accountArray[:])
}

func writeAmount(writer HashWriter, amount *uint256.Int) {
	amountBytes := amount.Bytes32()
	writer.InfallibleWrite(amountBytes[:])
}
