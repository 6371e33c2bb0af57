// Package work computes and solves the proof of work attached to blocks.
//
// The work value of a nonce is the 64 bit blake2b digest of the nonce
// followed by the block root, read little endian. A nonce is valid when its
// value is at least the required threshold.
package work

import (
	"encoding/binary"
	"math"
	"math/rand"

	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// Value returns the work value of nonce for root.
func Value(root externalapi.DomainHash, nonce uint64) uint64 {
	hasher, err := blake2b.New(8, nil)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. blake2b accepts any size up to 64"))
	}
	var nonceBytes [8]byte
	binary.LittleEndian.PutUint64(nonceBytes[:], nonce)
	hasher.Write(nonceBytes[:])
	rootBytes := root.ByteArray()
	hasher.Write(rootBytes[:])
	return binary.LittleEndian.Uint64(hasher.Sum(nil))
}

// IsValid returns whether the work attached to block meets threshold.
func IsValid(block externalapi.Block, threshold uint64) bool {
	return Value(block.Root(), block.BlockWork()) >= threshold
}

// Solve returns a nonce whose value for root meets threshold, starting the
// search at a random nonce.
func Solve(root externalapi.DomainHash, threshold uint64, rd *rand.Rand) uint64 {
	start := rd.Uint64()
	for nonce := start; nonce < math.MaxUint64; nonce++ {
		if Value(root, nonce) >= threshold {
			return nonce
		}
	}
	for nonce := uint64(0); nonce < start; nonce++ {
		if Value(root, nonce) >= threshold {
			return nonce
		}
	}

	panic(errors.New("went over all the nonce space and couldn't find a single one that meets the threshold"))
}

// SolveBlock sets the work of block to a nonce meeting threshold.
func SolveBlock(block externalapi.Block, threshold uint64, rd *rand.Rand) {
	nonce := Solve(block.Root(), threshold, rd)
	switch b := block.(type) {
	case *externalapi.SendBlock:
		b.Work = nonce
	case *externalapi.ReceiveBlock:
		b.Work = nonce
	case *externalapi.OpenBlock:
		b.Work = nonce
	case *externalapi.ChangeBlock:
		b.Work = nonce
	case *externalapi.StateBlock:
		b.Work = nonce
	default:
		panic(errors.Errorf("unknown block type %T", block))
	}
}
