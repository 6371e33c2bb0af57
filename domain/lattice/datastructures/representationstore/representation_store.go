package representationstore

import (
	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/database/serialization"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
)

const bucketName = "representation"

var bucket = database.MakeBucket([]byte(bucketName))

type representationStore struct{}

// New instantiates a new RepresentationStore
func New() model.RepresentationStore {
	return &representationStore{}
}

func (rs *representationStore) Name() string {
	return bucketName
}

// Weight returns the voting weight delegated to representative. A
// representative nobody delegates to has zero weight.
func (rs *representationStore) Weight(dbContext model.DBReader, representative externalapi.Account) (uint256.Int, error) {
	weightBytes, err := dbContext.Get(rs.representativeAsKey(representative))
	if database.IsNotFoundError(err) {
		return uint256.Int{}, nil
	}
	if err != nil {
		return uint256.Int{}, err
	}
	return serialization.DeserializeAmount(weightBytes)
}

// Put sets the weight of representative. Zero weights are not stored.
func (rs *representationStore) Put(dbTx model.DBWriter, representative externalapi.Account, weight uint256.Int) error {
	if weight.IsZero() {
		return dbTx.Delete(rs.representativeAsKey(representative))
	}
	return dbTx.Put(rs.representativeAsKey(representative), serialization.SerializeAmount(weight))
}

func (rs *representationStore) ForEach(dbContext model.DBReader,
	f func(representative externalapi.Account, weight uint256.Int) error) error {

	cursor, err := dbContext.Cursor(bucket)
	if err != nil {
		return err
	}
	defer cursor.Close()

	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return err
		}
		representative, err := externalapi.NewAccountFromByteSlice(key.Suffix())
		if err != nil {
			return err
		}
		weightBytes, err := cursor.Value()
		if err != nil {
			return err
		}
		weight, err := serialization.DeserializeAmount(weightBytes)
		if err != nil {
			return err
		}
		err = f(representative, weight)
		if err != nil {
			return err
		}
	}
	return nil
}

func (rs *representationStore) representativeAsKey(representative externalapi.Account) model.DBKey {
	return bucket.Key(representative.ByteSlice())
}
