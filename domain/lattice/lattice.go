package lattice

import (
	"sync"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/notifications"
	"github.com/orvnet/orvd/domain/lattice/utils/hashing"
	"github.com/orvnet/orvd/domain/latticeconfig"
	"github.com/pkg/errors"
)

// Lattice maintains the ledger of a node and drives it to agreement with
// the network
type Lattice interface {
	Start()
	Stop()

	// ProcessBlock processes block and waits for the result.
	ProcessBlock(block externalapi.Block) (externalapi.ProcessResult, error)

	// AddBlock queues block for processing.
	AddBlock(block externalapi.Block)

	// Force makes block the ledger block at its root, rolling back any
	// uncemented competitor.
	Force(block externalapi.Block) (externalapi.ProcessResult, error)

	// ProcessConfirmed forces a block that is known to be confirmed and
	// queues it for cementing.
	ProcessConfirmed(block externalapi.Block) (externalapi.ProcessResult, error)

	ProcessVote(vote *externalapi.Vote, source externalapi.PeerID) externalapi.VoteCode
	AddVote(vote *externalapi.Vote, source externalapi.PeerID) bool

	// AnswerConfirmRequest returns this node's vote for the ledger block at
	// the root of block. It returns false when the node does not vote or
	// holds no block at that root.
	AnswerConfirmRequest(block externalapi.Block) (*externalapi.Vote, bool, error)

	// StartElection starts an election for a block already in the ledger.
	StartElection(blockHash externalapi.DomainHash) (bool, error)

	Block(blockHash externalapi.DomainHash) (*externalapi.BlockWithSideband, error)
	BlockExists(blockHash externalapi.DomainHash) (bool, error)
	AccountInfo(account externalapi.Account) (*externalapi.AccountInfo, error)
	Balance(account externalapi.Account) (uint256.Int, error)
	Weight(representative externalapi.Account) (uint256.Int, error)
	Pending(account externalapi.Account) ([]*externalapi.PendingEntry, error)
	ConfirmationHeight(account externalapi.Account) (externalapi.ConfirmationHeightInfo, error)
	IsCemented(blockHash externalapi.DomainHash) (bool, error)
	UncheckedCount() (uint64, error)

	// CementedCommitment returns a hash of the set of all cemented blocks.
	// Two nodes that cemented the same blocks return the same hash.
	CementedCommitment() (externalapi.DomainHash, error)

	LedgerCache() *model.LedgerCache
	ActiveElections() []*externalapi.ElectionStatus
	ElectionStatus(root externalapi.DomainHash) (*externalapi.ElectionStatus, bool)
	OnlineWeight() *externalapi.OnlineWeightInfo

	Subscribe(listener notifications.Listener) uuid.UUID
	Unsubscribe(id uuid.UUID) error

	// AddVoteProcessedHandler registers a handler called synchronously for
	// every vote. It must not block.
	AddVoteProcessedHandler(handler model.VoteProcessedHandler)

	// Flush waits until every queued block and vote has been processed and
	// every confirmed block cemented.
	Flush()
}

type lattice struct {
	params    *latticeconfig.Params
	dbManager model.DBManager

	ledger                      model.Ledger
	blockProcessor              model.BlockProcessor
	confirmationHeightProcessor model.ConfirmationHeightProcessor
	elections                   model.Elections
	voteProcessor               model.VoteProcessor
	voteGenerator               model.VoteGenerator
	onlineWeightTracker         model.OnlineWeightTracker

	commitmentStore model.CommitmentStore
	uncheckedStore  model.UncheckedStore

	network model.Network
	bus     *notifications.Bus

	lifecycleLock sync.Mutex
	started       bool
	stopped       bool
}

func (l *lattice) Start() {
	l.lifecycleLock.Lock()
	defer l.lifecycleLock.Unlock()
	if l.started || l.stopped {
		return
	}
	l.started = true

	l.blockProcessor.Start()
	l.confirmationHeightProcessor.Start()
	l.onlineWeightTracker.Start()
	l.voteProcessor.Start()
	l.elections.Start()
	log.Infof("Lattice started")
}

func (l *lattice) Stop() {
	l.lifecycleLock.Lock()
	defer l.lifecycleLock.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true

	l.elections.Stop()
	l.voteProcessor.Stop()
	l.blockProcessor.Stop()
	l.confirmationHeightProcessor.Stop()
	l.onlineWeightTracker.Stop()
	l.bus.Close()
	log.Infof("Lattice stopped")
}

func (l *lattice) ProcessBlock(block externalapi.Block) (externalapi.ProcessResult, error) {
	return l.blockProcessor.Process(block)
}

func (l *lattice) AddBlock(block externalapi.Block) {
	l.blockProcessor.Add(block)
}

func (l *lattice) Force(block externalapi.Block) (externalapi.ProcessResult, error) {
	return l.blockProcessor.Force(block)
}

func (l *lattice) ProcessConfirmed(block externalapi.Block) (externalapi.ProcessResult, error) {
	result, err := l.blockProcessor.Force(block)
	if err != nil {
		return result, err
	}
	if result != externalapi.ResultProgress && result != externalapi.ResultOld {
		return result, nil
	}
	l.confirmationHeightProcessor.Add(hashing.BlockHash(block))
	return result, nil
}

func (l *lattice) ProcessVote(vote *externalapi.Vote, source externalapi.PeerID) externalapi.VoteCode {
	return l.voteProcessor.Vote(vote, source)
}

func (l *lattice) AddVote(vote *externalapi.Vote, source externalapi.PeerID) bool {
	return l.voteProcessor.VoteAsync(vote, source)
}

func (l *lattice) AnswerConfirmRequest(block externalapi.Block) (*externalapi.Vote, bool, error) {
	if l.voteGenerator == nil {
		return nil, false, nil
	}
	ledgerBlock, found, err := l.ledger.BlockAtRoot(l.dbManager, block.Root())
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	vote, err := l.voteGenerator.Generate([]externalapi.DomainHash{ledgerBlock})
	if err != nil {
		return nil, false, err
	}
	return vote, true, nil
}

func (l *lattice) StartElection(blockHash externalapi.DomainHash) (bool, error) {
	block, err := l.ledger.Block(l.dbManager, blockHash)
	if err != nil {
		return false, err
	}
	cemented, err := l.ledger.IsCemented(l.dbManager, blockHash)
	if err != nil {
		return false, err
	}
	if cemented {
		return false, errors.Errorf("block %s is already cemented", blockHash)
	}
	return l.elections.Insert(block.Block)
}

func (l *lattice) Block(blockHash externalapi.DomainHash) (*externalapi.BlockWithSideband, error) {
	return l.ledger.Block(l.dbManager, blockHash)
}

func (l *lattice) BlockExists(blockHash externalapi.DomainHash) (bool, error) {
	return l.ledger.BlockExists(l.dbManager, blockHash)
}

func (l *lattice) AccountInfo(account externalapi.Account) (*externalapi.AccountInfo, error) {
	return l.ledger.AccountInfo(l.dbManager, account)
}

func (l *lattice) Balance(account externalapi.Account) (uint256.Int, error) {
	return l.ledger.Balance(l.dbManager, account)
}

func (l *lattice) Weight(representative externalapi.Account) (uint256.Int, error) {
	return l.ledger.Weight(l.dbManager, representative)
}

func (l *lattice) Pending(account externalapi.Account) ([]*externalapi.PendingEntry, error) {
	return l.ledger.Pending(l.dbManager, account)
}

func (l *lattice) ConfirmationHeight(account externalapi.Account) (externalapi.ConfirmationHeightInfo, error) {
	return l.ledger.ConfirmationHeight(l.dbManager, account)
}

func (l *lattice) IsCemented(blockHash externalapi.DomainHash) (bool, error) {
	return l.ledger.IsCemented(l.dbManager, blockHash)
}

func (l *lattice) UncheckedCount() (uint64, error) {
	return l.uncheckedStore.Count(l.dbManager)
}

func (l *lattice) CementedCommitment() (externalapi.DomainHash, error) {
	var commitment externalapi.DomainHash
	err := database.View(l.dbManager, func(dbContext model.DBReader) error {
		multiset, err := l.commitmentStore.Get(dbContext)
		if err != nil {
			return err
		}
		commitment = multiset.Hash()
		return nil
	})
	return commitment, err
}

func (l *lattice) LedgerCache() *model.LedgerCache {
	return l.ledger.Cache()
}

func (l *lattice) ActiveElections() []*externalapi.ElectionStatus {
	return l.elections.List()
}

func (l *lattice) ElectionStatus(root externalapi.DomainHash) (*externalapi.ElectionStatus, bool) {
	return l.elections.Status(root)
}

func (l *lattice) OnlineWeight() *externalapi.OnlineWeightInfo {
	return &externalapi.OnlineWeightInfo{
		Online:  l.onlineWeightTracker.Online(),
		Trended: l.onlineWeightTracker.Trended(),
		Delta:   l.onlineWeightTracker.Delta(),
	}
}

func (l *lattice) Subscribe(listener notifications.Listener) uuid.UUID {
	return l.bus.Subscribe(listener)
}

func (l *lattice) Unsubscribe(id uuid.UUID) error {
	return l.bus.Unsubscribe(id)
}

func (l *lattice) AddVoteProcessedHandler(handler model.VoteProcessedHandler) {
	l.voteProcessor.AddVoteProcessedHandler(handler)
}

func (l *lattice) Flush() {
	l.blockProcessor.Flush()
	l.voteProcessor.Flush()
	l.confirmationHeightProcessor.Flush()
	l.bus.Flush()
}

// onBlockProcessed runs on the block processor after every committed batch
func (l *lattice) onBlockProcessed(block externalapi.Block, blockHash externalapi.DomainHash,
	result externalapi.ProcessResult) {

	l.bus.Publish(&externalapi.BlockProcessedEvent{Block: block, Hash: blockHash, Result: result})

	switch result {
	case externalapi.ResultProgress:
		if l.network != nil {
			l.network.FloodBlock(block)
		}
		_, err := l.elections.Insert(block)
		if err != nil {
			log.Errorf("Failed to start an election for %s: %s", blockHash, err)
		}
	case externalapi.ResultFork:
		l.startForkElection(block, blockHash)
	}
}

// startForkElection makes block compete with the ledger block at its root
func (l *lattice) startForkElection(block externalapi.Block, blockHash externalapi.DomainHash) {
	if l.elections.Publish(block) {
		return
	}
	ledgerHash, found, err := l.ledger.BlockAtRoot(l.dbManager, block.Root())
	if err != nil {
		log.Errorf("Failed to look up the root of fork %s: %s", blockHash, err)
		return
	}
	if !found {
		return
	}
	cemented, err := l.ledger.IsCemented(l.dbManager, ledgerHash)
	if err != nil {
		log.Errorf("Failed to look up %s: %s", ledgerHash, err)
		return
	}
	if cemented {
		log.Debugf("Ignoring fork %s of cemented block %s", blockHash, ledgerHash)
		return
	}
	ledgerBlock, err := l.ledger.Block(l.dbManager, ledgerHash)
	if err != nil {
		log.Errorf("Failed to load %s: %s", ledgerHash, err)
		return
	}
	log.Infof("Fork %s competes with %s", blockHash, ledgerHash)
	_, err = l.elections.Insert(ledgerBlock.Block)
	if err != nil {
		log.Errorf("Failed to start an election for %s: %s", ledgerHash, err)
		return
	}
	l.elections.Publish(block)
}

func (l *lattice) onBlockCemented(block *externalapi.BlockWithSideband, blockHash externalapi.DomainHash) {
	l.elections.BlockCemented(blockHash)
	l.bus.Publish(&externalapi.BlockCementedEvent{
		Block:   block.Block,
		Hash:    blockHash,
		Account: block.Sideband.Account,
		Height:  block.Sideband.Height,
	})
}
