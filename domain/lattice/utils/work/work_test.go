package work

import (
	"math/rand"
	"testing"

	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
)

func TestSolveBlock(t *testing.T) {
	rd := rand.New(rand.NewSource(0))
	block := &externalapi.ChangeBlock{
		PreviousHash: externalapi.NewDomainHashFromByteArray(&[32]byte{4, 2}),
	}

	// About one nonce in 256 meets this threshold
	const threshold = 0xff00000000000000
	SolveBlock(block, threshold, rd)
	if !IsValid(block, threshold) {
		t.Fatalf("TestSolveBlock: solved work %d does not meet the threshold", block.Work)
	}
	if Value(block.Root(), block.Work) < threshold {
		t.Fatalf("TestSolveBlock: Value disagrees with IsValid")
	}

	// The work is bound to the root
	moved := &externalapi.ChangeBlock{
		PreviousHash: externalapi.NewDomainHashFromByteArray(&[32]byte{4, 3}),
		Work:         block.Work,
	}
	if Value(moved.Root(), moved.Work) == Value(block.Root(), block.Work) {
		t.Fatalf("TestSolveBlock: work value does not depend on the root")
	}
}
