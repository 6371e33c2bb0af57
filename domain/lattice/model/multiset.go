package model

import "github.com/orvnet/orvd/domain/lattice/model/externalapi"

// Multiset is a set that can be hashed incrementally. Adding and removing
// elements is order independent.
type Multiset interface {
	Add(data []byte)
	Remove(data []byte)
	Hash() externalapi.DomainHash
	Serialize() []byte
	Clone() Multiset
}
