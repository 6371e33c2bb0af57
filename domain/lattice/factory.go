package lattice

import (
	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/datastructures/accountstore"
	"github.com/orvnet/orvd/domain/lattice/datastructures/blockstore"
	"github.com/orvnet/orvd/domain/lattice/datastructures/commitmentstore"
	"github.com/orvnet/orvd/domain/lattice/datastructures/confirmationheightstore"
	"github.com/orvnet/orvd/domain/lattice/datastructures/onlineweightstore"
	"github.com/orvnet/orvd/domain/lattice/datastructures/pendingstore"
	"github.com/orvnet/orvd/domain/lattice/datastructures/representationstore"
	"github.com/orvnet/orvd/domain/lattice/datastructures/uncheckedstore"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/notifications"
	"github.com/orvnet/orvd/domain/lattice/processes/blockprocessor"
	"github.com/orvnet/orvd/domain/lattice/processes/confirmationheight"
	"github.com/orvnet/orvd/domain/lattice/processes/elections"
	"github.com/orvnet/orvd/domain/lattice/processes/ledger"
	"github.com/orvnet/orvd/domain/lattice/processes/onlineweight"
	"github.com/orvnet/orvd/domain/lattice/processes/votegenerator"
	"github.com/orvnet/orvd/domain/lattice/processes/voteprocessor"
	"github.com/orvnet/orvd/domain/lattice/utils/signing"
	"github.com/orvnet/orvd/domain/latticeconfig"
	"github.com/orvnet/orvd/util/mstime"
	"github.com/pkg/errors"
)

// Config is the configuration of a Lattice. Zero values select defaults.
type Config struct {
	Params                 *latticeconfig.Params
	ConfirmationHeightMode model.ConfirmationHeightMode

	// RepresentativeKey makes the node vote. Nil for a non-voting node.
	RepresentativeKey *signing.KeyPair

	VoteWorkers        int
	VoteQueueSize      int
	BlockBatchSize     int
	CementingBatchSize int
}

// Factory instantiates new Lattices
type Factory interface {
	NewLattice(config *Config, dbManager model.DBManager, network model.Network) (Lattice, error)
}

type factory struct{}

// NewFactory creates a new Lattice factory
func NewFactory() Factory {
	return &factory{}
}

// NewLattice instantiates a new Lattice over dbManager, inserting the
// genesis block into an empty database. network may be nil for a node
// that does not talk to peers.
func (f *factory) NewLattice(config *Config, dbManager model.DBManager, network model.Network) (Lattice, error) {
	params := config.Params
	if params == nil {
		return nil, errors.New("lattice config is missing params")
	}
	err := params.Validate()
	if err != nil {
		return nil, err
	}

	// Data Structures
	blockStore := blockstore.New()
	accountStore := accountstore.New()
	pendingStore := pendingstore.New()
	representationStore := representationstore.New()
	confirmationHeightStore := confirmationheightstore.New()
	commitmentStore := commitmentstore.New()
	uncheckedStore := uncheckedstore.New()
	onlineWeightStore := onlineweightstore.New()

	cache, err := loadLedgerCache(dbManager, accountStore, confirmationHeightStore)
	if err != nil {
		return nil, err
	}

	// Processes
	ledgerInstance := ledger.New(
		params,
		blockStore,
		accountStore,
		pendingStore,
		representationStore,
		confirmationHeightStore,
		commitmentStore,
		cache,
		mstime.UnixMilli)

	hasGenesis, err := ledgerInstance.BlockExists(dbManager, params.GenesisHash)
	if err != nil {
		return nil, err
	}
	if !hasGenesis {
		log.Infof("Initializing the ledger with genesis %s", params.GenesisHash)
		err = database.Update(dbManager, model.WriterGeneric, ledgerInstance.InitializeGenesis)
		if err != nil {
			return nil, err
		}
	}

	bus := notifications.NewBus()
	confirmationHeightProcessor := confirmationheight.New(
		params,
		dbManager,
		ledgerInstance,
		confirmationHeightStore,
		commitmentStore,
		config.ConfirmationHeightMode,
		config.CementingBatchSize)
	blockProcessor := blockprocessor.New(
		params,
		dbManager,
		ledgerInstance,
		uncheckedStore,
		confirmationHeightProcessor,
		config.BlockBatchSize)
	onlineWeightTracker, err := onlineweight.New(
		params,
		dbManager,
		ledgerInstance,
		onlineWeightStore,
		mstime.UnixMilli)
	if err != nil {
		return nil, err
	}

	var voteGenerator model.VoteGenerator
	if config.RepresentativeKey != nil {
		voteGenerator = votegenerator.New(config.RepresentativeKey)
		log.Infof("Voting as representative %s", voteGenerator.Representative())
	}
	electionsInstance := elections.New(
		params,
		dbManager,
		ledgerInstance,
		blockProcessor,
		confirmationHeightProcessor,
		onlineWeightTracker,
		voteGenerator,
		network,
		bus)
	voteProcessor := voteprocessor.New(
		electionsInstance,
		config.VoteWorkers,
		config.VoteQueueSize)

	l := &lattice{
		params:                      params,
		dbManager:                   dbManager,
		ledger:                      ledgerInstance,
		blockProcessor:              blockProcessor,
		confirmationHeightProcessor: confirmationHeightProcessor,
		elections:                   electionsInstance,
		voteProcessor:               voteProcessor,
		voteGenerator:               voteGenerator,
		onlineWeightTracker:         onlineWeightTracker,
		commitmentStore:             commitmentStore,
		uncheckedStore:              uncheckedStore,
		network:                     network,
		bus:                         bus,
	}

	blockProcessor.AddBlockProcessedHandler(l.onBlockProcessed)
	blockProcessor.AddBlockRolledBackHandler(func(block externalapi.Block, blockHash externalapi.DomainHash) {
		electionsInstance.BlockRolledBack(blockHash)
		bus.Publish(&externalapi.BlockRolledBackEvent{Block: block, Hash: blockHash})
	})
	confirmationHeightProcessor.AddBlockCementedHandler(l.onBlockCemented)

	return l, nil
}
