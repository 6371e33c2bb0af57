package hashset

import (
	"strings"

	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
)

// HashSet is an unordered set of hashes.
type HashSet map[externalapi.DomainHash]struct{}

// New returns an empty HashSet.
func New() HashSet {
	return HashSet{}
}

// NewFromSlice returns a HashSet holding the given hashes.
func NewFromSlice(hashes ...externalapi.DomainHash) HashSet {
	set := New()
	for _, hash := range hashes {
		set.Add(hash)
	}
	return set
}

func (hs HashSet) String() string {
	hashStrings := make([]string, 0, len(hs))
	for hash := range hs {
		hashStrings = append(hashStrings, hash.String())
	}
	return strings.Join(hashStrings, ", ")
}

// Add adds hash to the set.
func (hs HashSet) Add(hash externalapi.DomainHash) {
	hs[hash] = struct{}{}
}

// Remove removes hash from the set.
func (hs HashSet) Remove(hash externalapi.DomainHash) {
	delete(hs, hash)
}

// Contains returns whether hash is in the set.
func (hs HashSet) Contains(hash externalapi.DomainHash) bool {
	_, ok := hs[hash]
	return ok
}

// ToSlice returns the hashes of the set in no particular order.
func (hs HashSet) ToSlice() []externalapi.DomainHash {
	slice := make([]externalapi.DomainHash, 0, len(hs))
	for hash := range hs {
		slice = append(slice, hash)
	}
	return slice
}
