package uncheckedstore

import (
	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/database/serialization"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/hashing"
)

const bucketName = "unchecked"

var bucket = database.MakeBucket([]byte(bucketName))

// uncheckedStore keeps blocks that are missing a dependency under
// unchecked/<dependency hash>/<block hash>
type uncheckedStore struct{}

// New instantiates a new UncheckedStore
func New() model.UncheckedStore {
	return &uncheckedStore{}
}

func (us *uncheckedStore) Name() string {
	return bucketName
}

func (us *uncheckedStore) Put(dbTx model.DBWriter, dependency externalapi.DomainHash, block externalapi.Block) error {
	blockBytes, err := serialization.SerializeBlock(block)
	if err != nil {
		return err
	}
	return dbTx.Put(us.dependencyBucket(dependency).Key(hashing.BlockHash(block).ByteSlice()), blockBytes)
}

// Dependents returns the blocks waiting for dependency, ordered by block hash
func (us *uncheckedStore) Dependents(dbContext model.DBReader, dependency externalapi.DomainHash) ([]externalapi.Block, error) {
	cursor, err := dbContext.Cursor(us.dependencyBucket(dependency))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var blocks []externalapi.Block
	for ok := cursor.First(); ok; ok = cursor.Next() {
		blockBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		block, err := serialization.DeserializeBlock(blockBytes)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func (us *uncheckedStore) Delete(dbTx model.DBWriter, dependency externalapi.DomainHash, blockHash externalapi.DomainHash) error {
	return dbTx.Delete(us.dependencyBucket(dependency).Key(blockHash.ByteSlice()))
}

func (us *uncheckedStore) Count(dbContext model.DBReader) (uint64, error) {
	cursor, err := dbContext.Cursor(bucket)
	if err != nil {
		return 0, err
	}
	defer cursor.Close()

	count := uint64(0)
	for ok := cursor.First(); ok; ok = cursor.Next() {
		count++
	}
	return count, nil
}

func (us *uncheckedStore) dependencyBucket(dependency externalapi.DomainHash) model.DBBucket {
	return bucket.Bucket(dependency.ByteSlice())
}
