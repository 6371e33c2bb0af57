package testutils

import (
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/hashing"
	"github.com/orvnet/orvd/domain/lattice/utils/signing"
	"github.com/orvnet/orvd/domain/lattice/utils/work"
	"github.com/orvnet/orvd/domain/latticeconfig"
)

// AccountChain builds signed, worked state blocks for one account. It
// tracks the head and balance the built blocks lead to, whether or not they
// were processed.
type AccountChain struct {
	KeyPair        *signing.KeyPair
	Params         *latticeconfig.Params
	Head           externalapi.DomainHash
	Balance        uint256.Int
	Representative externalapi.Account
	rd             *rand.Rand
}

// NewGenesisChain returns a chain positioned at the genesis block of params.
// params must carry the genesis private key.
func NewGenesisChain(t testing.TB, params *latticeconfig.Params) *AccountChain {
	keyPair, err := signing.KeyPairFromPrivateKey(params.GenesisPrivateKey)
	if err != nil {
		t.Fatalf("NewGenesisChain: %s", err)
	}
	return &AccountChain{
		KeyPair:        keyPair,
		Params:         params,
		Head:           params.GenesisHash,
		Balance:        params.GenesisAmount,
		Representative: params.GenesisBlock.Representative,
		rd:             rand.New(rand.NewSource(0)),
	}
}

// NewAccountChain returns a chain of a fresh, unopened account that
// represents itself
func NewAccountChain(t testing.TB, params *latticeconfig.Params) *AccountChain {
	keyPair, err := signing.GenerateKeyPair()
	if err != nil {
		t.Fatalf("NewAccountChain: %s", err)
	}
	return &AccountChain{
		KeyPair:        keyPair,
		Params:         params,
		Representative: keyPair.Account(),
		rd:             rand.New(rand.NewSource(int64(keyPair.Account().ByteArray()[0]))),
	}
}

// Account returns the account of the chain
func (c *AccountChain) Account() externalapi.Account {
	return c.KeyPair.Account()
}

// Clone returns an independent copy of the chain. Building on both copies
// produces forks.
func (c *AccountChain) Clone() *AccountChain {
	clone := *c
	clone.rd = rand.New(rand.NewSource(c.rd.Int63()))
	return &clone
}

// Send builds a state send of amount to destination
func (c *AccountChain) Send(t testing.TB, destination externalapi.Account, amount uint64) *externalapi.StateBlock {
	balance := c.Balance
	amountInt := uint256.NewInt(amount)
	if balance.Lt(amountInt) {
		t.Fatalf("Send: balance %s is lower than %d", balance.Dec(), amount)
	}
	balance.Sub(&balance, amountInt)
	return c.next(t, c.Representative, balance, destination.AsHash())
}

// Receive builds a state receive (or open) of the send sendHash carrying amount
func (c *AccountChain) Receive(t testing.TB, sendHash externalapi.DomainHash, amount uint64) *externalapi.StateBlock {
	balance := c.Balance
	balance.Add(&balance, uint256.NewInt(amount))
	return c.next(t, c.Representative, balance, sendHash)
}

// Change builds a state block delegating the account to representative
func (c *AccountChain) Change(t testing.TB, representative externalapi.Account) *externalapi.StateBlock {
	return c.next(t, representative, c.Balance, externalapi.ZeroHash)
}

func (c *AccountChain) next(t testing.TB, representative externalapi.Account, balance uint256.Int,
	link externalapi.DomainHash) *externalapi.StateBlock {

	block := &externalapi.StateBlock{
		Account:        c.Account(),
		PreviousHash:   c.Head,
		Representative: representative,
		Balance:        balance,
		Link:           link,
	}
	SignAndSolve(t, c.Params, c.KeyPair, block)

	c.Head = hashing.BlockHash(block)
	c.Balance = balance
	c.Representative = representative
	return block
}

// SignAndSolve signs block with keyPair and attaches work meeting every
// threshold of params
func SignAndSolve(t testing.TB, params *latticeconfig.Params, keyPair *signing.KeyPair, block externalapi.Block) {
	threshold := params.WorkThresholdEpoch0
	if params.WorkThresholdEpoch1Send > threshold {
		threshold = params.WorkThresholdEpoch1Send
	}
	if params.WorkThresholdEpoch1Receive > threshold {
		threshold = params.WorkThresholdEpoch1Receive
	}
	work.SolveBlock(block, threshold, rand.New(rand.NewSource(0)))

	err := keyPair.SignBlock(block)
	if err != nil {
		t.Fatalf("SignAndSolve: %s", err)
	}
}

// SimnetParams returns a modifiable copy of the simnet params
func SimnetParams() *latticeconfig.Params {
	return latticeconfig.SimnetParams.Clone()
}
