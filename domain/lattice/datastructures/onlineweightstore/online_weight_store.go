package onlineweightstore

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/database/serialization"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/pkg/errors"
)

const bucketName = "online-weight"

var bucket = database.MakeBucket([]byte(bucketName))

// onlineWeightStore keys samples by their big-endian timestamp so that
// cursor order is time order
type onlineWeightStore struct{}

// New instantiates a new OnlineWeightStore
func New() model.OnlineWeightStore {
	return &onlineWeightStore{}
}

func (ows *onlineWeightStore) Name() string {
	return bucketName
}

func (ows *onlineWeightStore) Put(dbTx model.DBWriter, timestamp int64, weight uint256.Int) error {
	return dbTx.Put(ows.timestampAsKey(timestamp), serialization.SerializeAmount(weight))
}

func (ows *onlineWeightStore) Delete(dbTx model.DBWriter, timestamp int64) error {
	return dbTx.Delete(ows.timestampAsKey(timestamp))
}

// Samples returns every stored sample, oldest first
func (ows *onlineWeightStore) Samples(dbContext model.DBReader) ([]*externalapi.OnlineWeightSample, error) {
	cursor, err := dbContext.Cursor(bucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var samples []*externalapi.OnlineWeightSample
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		if len(key.Suffix()) != 8 {
			return nil, errors.Wrapf(serialization.ErrMalformedEntry, "online weight key of %d bytes", len(key.Suffix()))
		}
		weightBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		weight, err := serialization.DeserializeAmount(weightBytes)
		if err != nil {
			return nil, err
		}
		samples = append(samples, &externalapi.OnlineWeightSample{
			Timestamp: int64(binary.BigEndian.Uint64(key.Suffix())),
			Weight:    weight,
		})
	}
	return samples, nil
}

func (ows *onlineWeightStore) timestampAsKey(timestamp int64) model.DBKey {
	var keyBytes [8]byte
	binary.BigEndian.PutUint64(keyBytes[:], uint64(timestamp))
	return bucket.Key(keyBytes[:])
}
