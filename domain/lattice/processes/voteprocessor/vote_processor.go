package voteprocessor

import (
	"fmt"
	"sync"

	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/signing"
)

const (
	// DefaultWorkers is the number of signature checking goroutines
	DefaultWorkers = 4

	// DefaultQueueSize bounds the votes waiting for a worker
	DefaultQueueSize = 65536
)

type queuedVote struct {
	vote   *externalapi.Vote
	source externalapi.PeerID
}

// voteProcessor verifies votes on a pool of workers and hands the valid ones
// to Elections
type voteProcessor struct {
	elections model.Elections
	workers   int
	queue     chan *queuedVote

	mtx      sync.Mutex
	cond     *sync.Cond
	inFlight int
	started  bool
	stopped  bool

	quit     chan struct{}
	workerWG sync.WaitGroup

	handlersMtx sync.RWMutex
	handlers    []model.VoteProcessedHandler
}

// New instantiates a new VoteProcessor. Non-positive workers or queueSize
// fall back to the defaults.
func New(elections model.Elections, workers int, queueSize int) model.VoteProcessor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	vp := &voteProcessor{
		elections: elections,
		workers:   workers,
		queue:     make(chan *queuedVote, queueSize),
		quit:      make(chan struct{}),
	}
	vp.cond = sync.NewCond(&vp.mtx)
	return vp
}

func (vp *voteProcessor) Start() {
	vp.mtx.Lock()
	defer vp.mtx.Unlock()
	if vp.started || vp.stopped {
		return
	}
	vp.started = true
	for i := 0; i < vp.workers; i++ {
		vp.workerWG.Add(1)
		spawn(fmt.Sprintf("voteProcessor-worker-%d", i), vp.worker)
	}
}

func (vp *voteProcessor) Stop() {
	vp.mtx.Lock()
	if vp.stopped {
		vp.mtx.Unlock()
		return
	}
	vp.stopped = true
	close(vp.quit)
	vp.mtx.Unlock()

	vp.workerWG.Wait()

	vp.mtx.Lock()
	defer vp.mtx.Unlock()
	dropped := 0
drain:
	for {
		select {
		case <-vp.queue:
			dropped++
		default:
			break drain
		}
	}
	if dropped > 0 {
		log.Debugf("Dropped %d queued votes on shutdown", dropped)
	}
	vp.inFlight = 0
	vp.cond.Broadcast()
}

func (vp *voteProcessor) AddVoteProcessedHandler(handler model.VoteProcessedHandler) {
	vp.handlersMtx.Lock()
	defer vp.handlersMtx.Unlock()
	vp.handlers = append(vp.handlers, handler)
}

func (vp *voteProcessor) Vote(vote *externalapi.Vote, source externalapi.PeerID) externalapi.VoteCode {
	code := vp.vote(vote, source)

	vp.handlersMtx.RLock()
	defer vp.handlersMtx.RUnlock()
	for _, handler := range vp.handlers {
		handler(vote, code)
	}
	return code
}

func (vp *voteProcessor) vote(vote *externalapi.Vote, source externalapi.PeerID) externalapi.VoteCode {
	if len(vote.Hashes) == 0 || len(vote.Hashes) > externalapi.MaxVoteHashes {
		log.Debugf("Vote %d from %s by peer %s covers %d hashes", vote.Sequence, vote.Account, source, len(vote.Hashes))
		return externalapi.VoteCodeInvalid
	}
	if !signing.VerifyVote(vote) {
		log.Debugf("Vote %d from %s by peer %s has an invalid signature", vote.Sequence, vote.Account, source)
		return externalapi.VoteCodeInvalid
	}
	code := vp.elections.Vote(vote)
	log.Tracef("Vote %d from %s for %d blocks: %s", vote.Sequence, vote.Account, len(vote.Hashes), code)
	return code
}

func (vp *voteProcessor) VoteAsync(vote *externalapi.Vote, source externalapi.PeerID) bool {
	vp.mtx.Lock()
	defer vp.mtx.Unlock()
	if vp.stopped {
		return false
	}
	select {
	case vp.queue <- &queuedVote{vote: vote, source: source}:
		vp.inFlight++
		return true
	default:
		log.Debugf("Vote queue is full, dropping vote %d from %s", vote.Sequence, vote.Account)
		return false
	}
}

// Flush waits until every vote queued so far has been processed
func (vp *voteProcessor) Flush() {
	vp.mtx.Lock()
	defer vp.mtx.Unlock()
	for vp.inFlight > 0 && !vp.stopped {
		vp.cond.Wait()
	}
}

func (vp *voteProcessor) worker() {
	defer vp.workerWG.Done()
	for {
		select {
		case <-vp.quit:
			return
		case item := <-vp.queue:
			vp.Vote(item.vote, item.source)

			vp.mtx.Lock()
			if vp.inFlight > 0 {
				vp.inFlight--
			}
			if vp.inFlight == 0 {
				vp.cond.Broadcast()
			}
			vp.mtx.Unlock()
		}
	}
}
