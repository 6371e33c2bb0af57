package latticeconfig

import (
	"time"

	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/pkg/errors"
)

const (
	defaultOnlineWeightQuorumPercent         = 67
	defaultOnlineWeightSamplePeriod          = 5 * time.Minute
	defaultOnlineWeightMaxSamples            = 4032
	defaultElectionAnnouncementInterval      = 500 * time.Millisecond
	defaultElectionAnnouncementThreshold     = 4
	defaultConfirmationHeightUnboundedCutoff = 16384
)

// Params defines a network by its ledger and voting parameters.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// GenesisAccount owns the whole supply in the genesis block.
	GenesisAccount externalapi.Account

	// GenesisAmount is the total supply.
	GenesisAmount uint256.Int

	// GenesisBlock is the open block of the genesis account. It is inserted
	// into an empty ledger without validation.
	GenesisBlock *externalapi.OpenBlock

	// GenesisHash is the hash of GenesisBlock.
	GenesisHash externalapi.DomainHash

	// GenesisPrivateKey is only known on the test networks.
	GenesisPrivateKey []byte

	// EpochLink is the link of state blocks upgrading an account to Epoch1.
	EpochLink externalapi.DomainHash

	// EpochSigner signs epoch upgrade blocks.
	EpochSigner externalapi.Account

	// WorkThresholdEpoch0 is the minimum work of legacy and epoch_0 blocks.
	WorkThresholdEpoch0 uint64

	// WorkThresholdEpoch1Send is the minimum work of epoch_1 sends, changes
	// and epoch blocks.
	WorkThresholdEpoch1Send uint64

	// WorkThresholdEpoch1Receive is the minimum work of epoch_1 receives and
	// opens.
	WorkThresholdEpoch1Receive uint64

	// OnlineWeightQuorumPercent is the share of the online weight an election
	// winner needs.
	OnlineWeightQuorumPercent uint64

	// OnlineWeightMinimum is the floor under the online weight used for the
	// quorum, so that a nearly empty network cannot be confirmed by one
	// actor.
	OnlineWeightMinimum uint256.Int

	// OnlineWeightSamplePeriod is both the interval between online weight
	// samples and how long a representative counts as online after its last
	// vote.
	OnlineWeightSamplePeriod time.Duration

	// OnlineWeightMaxSamples bounds the persisted online weight samples.
	OnlineWeightMaxSamples uint64

	// ElectionAnnouncementInterval is the period of the election
	// announcement loop.
	ElectionAnnouncementInterval time.Duration

	// ElectionAnnouncementThreshold is the number of announcements after
	// which an unconfirmed election requests votes from representatives.
	ElectionAnnouncementThreshold int

	// ConfirmationHeightUnboundedCutoff is the uncemented backlog under which
	// the automatic mode cements with the unbounded processor.
	ConfirmationHeightUnboundedCutoff uint64
}

// Epoch1Link is the epoch link of every network: "epoch v1 block" padded
// with zeros.
var Epoch1Link = func() externalapi.DomainHash {
	var link [externalapi.DomainHashSize]byte
	copy(link[:], "epoch v1 block")
	return externalapi.NewDomainHashFromByteArray(&link)
}()

// MaxAmount is the largest balance an account may hold.
var MaxAmount = func() uint256.Int {
	maxAmount := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	maxAmount.SubUint64(maxAmount, 1)
	return *maxAmount
}()

// WorkThreshold returns the minimum work of a block with the given details.
func (p *Params) WorkThreshold(details externalapi.BlockDetails) uint64 {
	if details.Epoch == externalapi.Epoch0 {
		return p.WorkThresholdEpoch0
	}
	if details.IsReceive {
		return p.WorkThresholdEpoch1Receive
	}
	return p.WorkThresholdEpoch1Send
}

// MinimumWorkThreshold returns the lowest threshold any block may pass. It is
// used to reject blocks before their details are known.
func (p *Params) MinimumWorkThreshold() uint64 {
	minimum := p.WorkThresholdEpoch0
	if p.WorkThresholdEpoch1Send < minimum {
		minimum = p.WorkThresholdEpoch1Send
	}
	if p.WorkThresholdEpoch1Receive < minimum {
		minimum = p.WorkThresholdEpoch1Receive
	}
	return minimum
}

// Validate checks the params for inconsistencies.
func (p *Params) Validate() error {
	if p.OnlineWeightQuorumPercent == 0 || p.OnlineWeightQuorumPercent > 100 {
		return errors.Errorf("online weight quorum percent must be in (0, 100], got %d",
			p.OnlineWeightQuorumPercent)
	}
	if p.OnlineWeightSamplePeriod <= 0 {
		return errors.New("online weight sample period must be positive")
	}
	if p.OnlineWeightMaxSamples == 0 {
		return errors.New("online weight max samples must be positive")
	}
	if p.ElectionAnnouncementInterval <= 0 {
		return errors.New("election announcement interval must be positive")
	}
	if p.GenesisBlock == nil || p.GenesisBlock.Account != p.GenesisAccount {
		return errors.New("genesis block does not belong to the genesis account")
	}
	if p.GenesisAmount.Gt(&MaxAmount) {
		return errors.Errorf("genesis amount %s exceeds the maximum amount", p.GenesisAmount.Dec())
	}
	return nil
}

// Clone returns a copy of the params that may be modified independently.
func (p *Params) Clone() *Params {
	clone := *p
	genesisBlock := *p.GenesisBlock
	clone.GenesisBlock = &genesisBlock
	if p.GenesisPrivateKey != nil {
		clone.GenesisPrivateKey = append([]byte(nil), p.GenesisPrivateKey...)
	}
	return &clone
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = newParams(paramsTemplate{
	name:                       "orv-mainnet",
	genesisAccount:             mainnetGenesisAccount,
	workThresholdEpoch0:        0xffffffc000000000,
	workThresholdEpoch1Send:    0xfffffff800000000,
	workThresholdEpoch1Receive: 0xfffffe0000000000,
	onlineWeightMinimum:        *uint256.MustFromDecimal("60000000000000000000000000000000000000"),
})

// TestnetParams defines the network parameters for the test network.
var TestnetParams = newParams(paramsTemplate{
	name:                       "orv-testnet",
	genesisAccount:             testnetGenesisAccount,
	workThresholdEpoch0:        0xfffff00000000000,
	workThresholdEpoch1Send:    0xfffff00000000000,
	workThresholdEpoch1Receive: 0xffffe00000000000,
	onlineWeightMinimum:        *uint256.MustFromDecimal("60000000000000000000000000000000000000"),
})

// DevnetParams defines the network parameters for the development network.
// Its genesis private key is public.
var DevnetParams = newParams(paramsTemplate{
	name:                       "orv-devnet",
	genesisPrivateKey:          devnetGenesisPrivateKey,
	workThresholdEpoch0:        0xff00000000000000,
	workThresholdEpoch1Send:    0xff00000000000000,
	workThresholdEpoch1Receive: 0xf000000000000000,
	onlineWeightMinimum:        *uint256.NewInt(0),
})

// SimnetParams defines the network parameters for the simulation test
// network, used by tests and private setups. Work is not required and its
// genesis private key is public.
var SimnetParams = newParams(paramsTemplate{
	name:                       "orv-simnet",
	genesisPrivateKey:          simnetGenesisPrivateKey,
	workThresholdEpoch0:        0,
	workThresholdEpoch1Send:    0,
	workThresholdEpoch1Receive: 0,
	onlineWeightMinimum:        *uint256.NewInt(0),
})
