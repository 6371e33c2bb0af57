package externalapi

// MaxVoteHashes is the maximum number of block hashes a single vote may
// cover.
const MaxVoteHashes = 12

// Vote is a representative's signed assertion about one or more blocks.
// Sequence is strictly increasing per representative.
type Vote struct {
	Account   Account
	Signature Signature
	Sequence  uint64
	Hashes    []DomainHash
}

// Clone returns a deep copy of the vote.
func (v *Vote) Clone() *Vote {
	clone := *v
	clone.Hashes = append([]DomainHash(nil), v.Hashes...)
	return &clone
}

// VoteCode is the outcome of processing a vote.
type VoteCode uint8

// Vote codes.
const (
	// VoteCodeVote means the vote was applied to at least one election
	VoteCodeVote VoteCode = iota
	// VoteCodeReplay means the vote was not newer than what we hold
	VoteCodeReplay
	// VoteCodeInvalid means the vote's signature does not verify
	VoteCodeInvalid
	// VoteCodeIndeterminate means no election is running for the voted
	// blocks yet
	VoteCodeIndeterminate
)

func (c VoteCode) String() string {
	switch c {
	case VoteCodeVote:
		return "vote"
	case VoteCodeReplay:
		return "replay"
	case VoteCodeInvalid:
		return "invalid"
	case VoteCodeIndeterminate:
		return "indeterminate"
	default:
		return "unknown"
	}
}
