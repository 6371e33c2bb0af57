package votegenerator

import (
	"sync/atomic"

	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/signing"
	"github.com/orvnet/orvd/util/mstime"
	"github.com/pkg/errors"
)

type voteGenerator struct {
	keyPair  *signing.KeyPair
	sequence atomic.Uint64
}

// New instantiates a VoteGenerator signing with keyPair. Sequences start at
// the current time in milliseconds so that a restarted node never reuses a
// sequence it already broadcast.
func New(keyPair *signing.KeyPair) model.VoteGenerator {
	vg := &voteGenerator{keyPair: keyPair}
	vg.sequence.Store(uint64(mstime.UnixMilli()))
	return vg
}

func (vg *voteGenerator) Representative() externalapi.Account {
	return vg.keyPair.Account()
}

// Generate returns a signed vote for hashes carrying the next sequence
func (vg *voteGenerator) Generate(hashes []externalapi.DomainHash) (*externalapi.Vote, error) {
	if len(hashes) == 0 || len(hashes) > externalapi.MaxVoteHashes {
		return nil, errors.Errorf("a vote must cover between 1 and %d hashes, got %d",
			externalapi.MaxVoteHashes, len(hashes))
	}
	vote := &externalapi.Vote{
		Account:  vg.keyPair.Account(),
		Sequence: vg.sequence.Add(1),
		Hashes:   append([]externalapi.DomainHash(nil), hashes...),
	}
	err := vg.keyPair.SignVote(vote)
	if err != nil {
		return nil, err
	}
	return vote, nil
}
