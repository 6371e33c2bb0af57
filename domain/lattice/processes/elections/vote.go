package elections

import (
	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/util/mstime"
)

// cachedVote is a vote for a block no election holds yet
type cachedVote struct {
	vote   *externalapi.Vote
	weight uint256.Int
}

// confirmation is an election that just reached quorum
type confirmation struct {
	winner     externalapi.Block
	winnerHash externalapi.DomainHash
	tally      []externalapi.TallyEntry
}

func (els *elections) Vote(vote *externalapi.Vote) externalapi.VoteCode {
	weight, err := els.ledger.Weight(els.dbManager, vote.Account)
	if err != nil {
		log.Errorf("Failed to read the weight of %s: %s", vote.Account, err)
		return externalapi.VoteCodeIndeterminate
	}
	if !weight.IsZero() {
		els.onlineWeight.Observe(vote.Account)
	}

	delta := els.onlineWeight.Delta()
	els.mtx.Lock()
	code, confirmations := els.applyVote(vote, weight, delta)
	els.mtx.Unlock()

	els.dispatch(confirmations)
	return code
}

// applyVote must be called with mtx held. delta is the quorum delta read
// before taking it.
func (els *elections) applyVote(vote *externalapi.Vote, weight uint256.Int, delta uint256.Int) (
	externalapi.VoteCode, []*confirmation) {

	code := externalapi.VoteCodeIndeterminate
	replay := false
	now := mstime.UnixMilli()

	var touched []*election
	for _, hash := range vote.Hashes {
		e, ok := els.byHash[hash]
		if !ok {
			if !weight.IsZero() {
				els.cacheVote(hash, vote, weight)
			}
			continue
		}
		last, voted := e.lastVotes[vote.Account]
		if voted && last.sequence >= vote.Sequence {
			replay = true
			continue
		}
		if weight.IsZero() {
			continue
		}
		e.lastVotes[vote.Account] = voteInfo{hash: hash, timestamp: now, sequence: vote.Sequence, weight: weight}
		code = externalapi.VoteCodeVote
		touched = append(touched, e)
	}
	if code != externalapi.VoteCodeVote && replay {
		code = externalapi.VoteCodeReplay
	}

	var confirmations []*confirmation
	for _, e := range touched {
		if c := els.checkQuorum(e, delta); c != nil {
			confirmations = append(confirmations, c)
		}
	}
	return code, confirmations
}

// cacheVote must be called with mtx held
func (els *elections) cacheVote(hash externalapi.DomainHash, vote *externalapi.Vote, weight uint256.Int) {
	cached, _ := els.voteCache.Get(hash)
	for i, existing := range cached {
		if existing.vote.Account == vote.Account {
			if existing.vote.Sequence < vote.Sequence {
				cached[i] = &cachedVote{vote: vote, weight: weight}
			}
			return
		}
	}
	if len(cached) >= maxCachedVotesPerHash {
		cached = cached[1:]
	}
	els.voteCache.Add(hash, append(cached, &cachedVote{vote: vote, weight: weight}))
}

// replayCachedVotes applies the votes cached for a block that just became a
// candidate. It must be called with mtx held.
func (els *elections) replayCachedVotes(blockHash externalapi.DomainHash, delta uint256.Int) []*confirmation {
	cached, ok := els.voteCache.Get(blockHash)
	if !ok {
		return nil
	}
	els.voteCache.Remove(blockHash)

	var confirmations []*confirmation
	for _, entry := range cached {
		_, entryConfirmations := els.applyVote(entry.vote, entry.weight, delta)
		confirmations = append(confirmations, entryConfirmations...)
	}
	if len(cached) > 0 {
		log.Debugf("Replayed %d cached votes for %s", len(cached), blockHash)
	}
	return confirmations
}

// checkQuorum updates the leader of e and confirms it if its weight reached
// delta. It must be called with mtx held.
func (els *elections) checkQuorum(e *election, delta uint256.Int) *confirmation {
	if e.confirmed {
		return nil
	}
	tally := e.tally()
	if len(tally) == 0 {
		return nil
	}
	top := tally[0]
	if top.Hash != e.leader {
		log.Debugf("Leader of root %s changed from %s to %s", e.root, e.leader, top.Hash)
		e.leader = top.Hash
	}

	if top.Weight.IsZero() || top.Weight.Lt(&delta) {
		return nil
	}
	e.confirmed = true
	log.Infof("Election for root %s confirmed %s with weight %s", e.root, top.Hash, top.Weight.Dec())
	return &confirmation{winner: e.candidates[top.Hash], winnerHash: top.Hash, tally: tally}
}
