package commitmentstore

import (
	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/utils/multiset"
)

const bucketName = "commitment"

var cementedKey = database.MakeBucket([]byte(bucketName)).Key([]byte("cemented"))

// commitmentStore holds the multiset of every cemented (account, height,
// hash) triple
type commitmentStore struct{}

// New instantiates a new CommitmentStore
func New() model.CommitmentStore {
	return &commitmentStore{}
}

func (cs *commitmentStore) Name() string {
	return bucketName
}

func (cs *commitmentStore) Put(dbTx model.DBWriter, ms model.Multiset) error {
	return dbTx.Put(cementedKey, ms.Serialize())
}

// Get returns the stored commitment, or an empty multiset if nothing was
// cemented yet
func (cs *commitmentStore) Get(dbContext model.DBReader) (model.Multiset, error) {
	multisetBytes, err := dbContext.Get(cementedKey)
	if database.IsNotFoundError(err) {
		return multiset.New(), nil
	}
	if err != nil {
		return nil, err
	}
	return multiset.FromBytes(multisetBytes)
}
