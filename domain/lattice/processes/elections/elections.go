package elections

import (
	"sync"

	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/hashing"
	"github.com/orvnet/orvd/domain/lattice/utils/lrucache"
	"github.com/orvnet/orvd/domain/latticeconfig"
)

const (
	// voteCacheSize is the number of unknown block hashes votes are kept for
	voteCacheSize = 4096

	// maxCachedVotesPerHash bounds the votes kept for a single unknown hash
	maxCachedVotesPerHash = 32
)

// elections implements model.Elections
type elections struct {
	params             *latticeconfig.Params
	dbManager          model.DBManager
	ledger             model.Ledger
	blockProcessor     model.BlockProcessor
	confirmationHeight model.ConfirmationHeightProcessor
	onlineWeight       model.OnlineWeightTracker
	voteGenerator      model.VoteGenerator
	network            model.Network
	publisher          model.EventPublisher

	mtx       sync.Mutex
	byRoot    map[externalapi.DomainHash]*election
	byHash    map[externalapi.DomainHash]*election
	voteCache *lrucache.LRUCache[externalapi.DomainHash, []*cachedVote]

	started bool
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// New instantiates new Elections. voteGenerator, network and publisher may
// be nil.
func New(params *latticeconfig.Params,
	dbManager model.DBManager,
	ledger model.Ledger,
	blockProcessor model.BlockProcessor,
	confirmationHeight model.ConfirmationHeightProcessor,
	onlineWeight model.OnlineWeightTracker,
	voteGenerator model.VoteGenerator,
	network model.Network,
	publisher model.EventPublisher) model.Elections {

	return &elections{
		params:             params,
		dbManager:          dbManager,
		ledger:             ledger,
		blockProcessor:     blockProcessor,
		confirmationHeight: confirmationHeight,
		onlineWeight:       onlineWeight,
		voteGenerator:      voteGenerator,
		network:            network,
		publisher:          publisher,
		byRoot:             make(map[externalapi.DomainHash]*election),
		byHash:             make(map[externalapi.DomainHash]*election),
		voteCache:          lrucache.New[externalapi.DomainHash, []*cachedVote](voteCacheSize),
		quit:               make(chan struct{}),
		done:               make(chan struct{}),
	}
}

func (els *elections) Start() {
	els.mtx.Lock()
	defer els.mtx.Unlock()
	if els.started {
		return
	}
	els.started = true
	spawn("elections-announce", els.announceLoop)
}

func (els *elections) Stop() {
	els.mtx.Lock()
	started := els.started
	els.mtx.Unlock()

	els.once.Do(func() {
		close(els.quit)
	})
	if started {
		<-els.done
	}

	els.mtx.Lock()
	defer els.mtx.Unlock()
	els.byRoot = make(map[externalapi.DomainHash]*election)
	els.byHash = make(map[externalapi.DomainHash]*election)
}

func (els *elections) Insert(block externalapi.Block) (bool, error) {
	blockHash := hashing.BlockHash(block)
	root := block.Root()
	delta := els.onlineWeight.Delta()

	els.mtx.Lock()
	e, exists := els.byRoot[root]
	if exists {
		els.addCandidate(e, block, blockHash)
		confirmations := els.replayCachedVotes(blockHash, delta)
		els.mtx.Unlock()
		els.dispatch(confirmations)
		return false, nil
	}

	e = newElection(root, block, blockHash)
	els.byRoot[root] = e
	els.byHash[blockHash] = e
	log.Debugf("Started an election for root %s with candidate %s", root, blockHash)
	confirmations := els.replayCachedVotes(blockHash, delta)
	selfVotes := els.pendingSelfVotes([]*election{e})
	els.mtx.Unlock()

	els.dispatch(confirmations)
	return true, els.castSelfVotes(selfVotes)
}

func (els *elections) Publish(block externalapi.Block) bool {
	blockHash := hashing.BlockHash(block)
	delta := els.onlineWeight.Delta()

	els.mtx.Lock()
	e, exists := els.byRoot[block.Root()]
	if !exists {
		els.mtx.Unlock()
		return false
	}
	els.addCandidate(e, block, blockHash)
	confirmations := els.replayCachedVotes(blockHash, delta)
	els.mtx.Unlock()

	els.dispatch(confirmations)
	return true
}

// addCandidate must be called with mtx held
func (els *elections) addCandidate(e *election, block externalapi.Block, blockHash externalapi.DomainHash) {
	if _, ok := e.candidates[blockHash]; ok {
		return
	}
	e.candidates[blockHash] = block
	els.byHash[blockHash] = e
	log.Debugf("Block %s joined the election for root %s (%d candidates)", blockHash, e.root, len(e.candidates))
}

func (els *elections) Active(root externalapi.DomainHash) bool {
	els.mtx.Lock()
	defer els.mtx.Unlock()
	_, ok := els.byRoot[root]
	return ok
}

func (els *elections) ActiveByHash(blockHash externalapi.DomainHash) bool {
	els.mtx.Lock()
	defer els.mtx.Unlock()
	_, ok := els.byHash[blockHash]
	return ok
}

func (els *elections) Status(root externalapi.DomainHash) (*externalapi.ElectionStatus, bool) {
	els.mtx.Lock()
	defer els.mtx.Unlock()
	e, ok := els.byRoot[root]
	if !ok {
		return nil, false
	}
	return e.status(), true
}

func (els *elections) List() []*externalapi.ElectionStatus {
	els.mtx.Lock()
	defer els.mtx.Unlock()
	statuses := make([]*externalapi.ElectionStatus, 0, len(els.byRoot))
	for _, e := range els.byRoot {
		statuses = append(statuses, e.status())
	}
	return statuses
}

func (els *elections) Size() int {
	els.mtx.Lock()
	defer els.mtx.Unlock()
	return len(els.byRoot)
}

// BlockRolledBack withdraws a block removed from the ledger from its
// election. The election is dropped once none of its remaining candidates
// is in the ledger.
func (els *elections) BlockRolledBack(blockHash externalapi.DomainHash) {
	els.mtx.Lock()
	e, ok := els.byHash[blockHash]
	if !ok {
		els.mtx.Unlock()
		return
	}
	delete(e.candidates, blockHash)
	delete(els.byHash, blockHash)
	remaining := make([]externalapi.DomainHash, 0, len(e.candidates))
	for hash := range e.candidates {
		remaining = append(remaining, hash)
	}
	els.mtx.Unlock()

	inLedger := false
	for _, hash := range remaining {
		exists, err := els.ledger.BlockExists(els.dbManager, hash)
		if err != nil {
			log.Errorf("Failed to look up candidate %s: %s", hash, err)
			inLedger = true
			break
		}
		if exists {
			inLedger = true
			break
		}
	}

	els.mtx.Lock()
	defer els.mtx.Unlock()
	if els.byRoot[e.root] != e {
		return
	}
	if !inLedger {
		els.remove(e)
		log.Debugf("Dropped the election for root %s, its last ledger candidate %s was rolled back", e.root, blockHash)
		return
	}
	if e.leader == blockHash {
		e.leader = e.bestCandidate()
		log.Debugf("Leader of root %s was rolled back, %s leads now", e.root, e.leader)
	}
}

// remove must be called with mtx held
func (els *elections) remove(e *election) {
	delete(els.byRoot, e.root)
	for hash := range e.candidates {
		delete(els.byHash, hash)
	}
}
