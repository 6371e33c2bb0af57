package latticeconfig

import (
	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/hashing"
	"github.com/orvnet/orvd/domain/lattice/utils/signing"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// The mainnet and testnet genesis accounts are fixed. Their private keys are
// not part of the node.
var (
	mainnetGenesisAccount = mustAccountFromHex("e89208dd038fbb269987689621d52292ae9c35941a7484756ecced92a65093ba")
	testnetGenesisAccount = mustAccountFromHex("45c6a8a4d6e4f3a0c7d07c8a7d6b2d4b2f7a45a5e7d34b0d3f2e6a1c9b8e7f61")
)

// The devnet and simnet genesis keys are derived from fixed seeds so that
// anybody can spend from genesis on those networks.
var (
	devnetGenesisPrivateKey = derivePrivateKey("orvd devnet genesis")
	simnetGenesisPrivateKey = derivePrivateKey("orvd simnet genesis")
)

type paramsTemplate struct {
	name                       string
	genesisAccount             externalapi.Account
	genesisPrivateKey          []byte
	workThresholdEpoch0        uint64
	workThresholdEpoch1Send    uint64
	workThresholdEpoch1Receive uint64
	onlineWeightMinimum        uint256.Int
}

func newParams(template paramsTemplate) Params {
	genesisAccount := template.genesisAccount
	if template.genesisPrivateKey != nil {
		keyPair, err := signing.KeyPairFromPrivateKey(template.genesisPrivateKey)
		if err != nil {
			panic(errors.Wrapf(err, "invalid genesis private key for %s", template.name))
		}
		genesisAccount = keyPair.Account()
	}

	genesisBlock := &externalapi.OpenBlock{
		Source:         genesisAccount.AsHash(),
		Representative: genesisAccount,
		Account:        genesisAccount,
	}

	return Params{
		Name:                              template.name,
		GenesisAccount:                    genesisAccount,
		GenesisAmount:                     MaxAmount,
		GenesisBlock:                      genesisBlock,
		GenesisHash:                       hashing.BlockHash(genesisBlock),
		GenesisPrivateKey:                 template.genesisPrivateKey,
		EpochLink:                         Epoch1Link,
		EpochSigner:                       genesisAccount,
		WorkThresholdEpoch0:               template.workThresholdEpoch0,
		WorkThresholdEpoch1Send:           template.workThresholdEpoch1Send,
		WorkThresholdEpoch1Receive:        template.workThresholdEpoch1Receive,
		OnlineWeightQuorumPercent:         defaultOnlineWeightQuorumPercent,
		OnlineWeightMinimum:               template.onlineWeightMinimum,
		OnlineWeightSamplePeriod:          defaultOnlineWeightSamplePeriod,
		OnlineWeightMaxSamples:            defaultOnlineWeightMaxSamples,
		ElectionAnnouncementInterval:      defaultElectionAnnouncementInterval,
		ElectionAnnouncementThreshold:     defaultElectionAnnouncementThreshold,
		ConfirmationHeightUnboundedCutoff: defaultConfirmationHeightUnboundedCutoff,
	}
}

func mustAccountFromHex(accountHex string) externalapi.Account {
	hash, err := externalapi.NewDomainHashFromString(accountHex)
	if err != nil {
		panic(err)
	}
	return externalapi.AccountFromHash(hash)
}

func derivePrivateKey(seed string) []byte {
	privateKey := blake2b.Sum256([]byte(seed))
	return privateKey[:]
}
