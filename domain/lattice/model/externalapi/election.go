package externalapi

import (
	"github.com/holiman/uint256"
)

// TallyEntry is the total weight voting for one candidate of an election.
type TallyEntry struct {
	Hash   DomainHash
	Block  Block
	Weight uint256.Int
}

// ElectionStatus is a snapshot of an election.
type ElectionStatus struct {
	Root          DomainHash
	Leader        DomainHash
	Tally         []TallyEntry
	Confirmed     bool
	Announcements int
	VoterCount    int
}
