package model

import "github.com/orvnet/orvd/domain/lattice/model/externalapi"

// VoteGenerator signs votes on behalf of the local representative
type VoteGenerator interface {
	Representative() externalapi.Account
	Generate(hashes []externalapi.DomainHash) (*externalapi.Vote, error)
}
