package elections

import (
	"sort"

	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
)

type voteInfo struct {
	hash      externalapi.DomainHash
	timestamp int64
	sequence  uint64
	weight    uint256.Int
}

// election resolves a single root. It is only accessed under the elections
// mutex.
type election struct {
	root       externalapi.DomainHash
	candidates map[externalapi.DomainHash]externalapi.Block
	lastVotes  map[externalapi.Account]voteInfo

	leader        externalapi.DomainHash
	confirmed     bool
	announcements int

	// selfVoted is the candidate the local representative last voted for
	selfVoted externalapi.DomainHash
}

func newElection(root externalapi.DomainHash, block externalapi.Block, blockHash externalapi.DomainHash) *election {
	return &election{
		root:       root,
		candidates: map[externalapi.DomainHash]externalapi.Block{blockHash: block},
		lastVotes:  make(map[externalapi.Account]voteInfo),
		leader:     blockHash,
	}
}

// tally sums the weight voting for each candidate, heaviest first. Equal
// weights are ordered by hash so that the leader never oscillates between
// them.
func (e *election) tally() []externalapi.TallyEntry {
	weights := make(map[externalapi.DomainHash]*uint256.Int)
	for _, info := range e.lastVotes {
		if _, ok := e.candidates[info.hash]; !ok {
			continue
		}
		weight, ok := weights[info.hash]
		if !ok {
			weight = new(uint256.Int)
			weights[info.hash] = weight
		}
		weight.Add(weight, &info.weight)
	}

	tally := make([]externalapi.TallyEntry, 0, len(weights))
	for hash, weight := range weights {
		tally = append(tally, externalapi.TallyEntry{Hash: hash, Block: e.candidates[hash], Weight: *weight})
	}
	sort.Slice(tally, func(i, j int) bool {
		if tally[i].Weight != tally[j].Weight {
			return tally[i].Weight.Gt(&tally[j].Weight)
		}
		return tally[i].Hash.Less(tally[j].Hash)
	})
	return tally
}

// bestCandidate returns the heaviest candidate, or the lowest candidate hash
// when no candidate has votes
func (e *election) bestCandidate() externalapi.DomainHash {
	tally := e.tally()
	if len(tally) > 0 {
		return tally[0].Hash
	}
	var best externalapi.DomainHash
	first := true
	for hash := range e.candidates {
		if first || hash.Less(best) {
			best = hash
			first = false
		}
	}
	return best
}

func (e *election) status() *externalapi.ElectionStatus {
	return &externalapi.ElectionStatus{
		Root:          e.root,
		Leader:        e.leader,
		Tally:         e.tally(),
		Confirmed:     e.confirmed,
		Announcements: e.announcements,
		VoterCount:    len(e.lastVotes),
	}
}
