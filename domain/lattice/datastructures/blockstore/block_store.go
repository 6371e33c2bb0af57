package blockstore

import (
	"encoding/binary"

	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/database/serialization"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/pkg/errors"
)

const bucketName = "blocks"

var bucket = database.MakeBucket([]byte(bucketName))
var countKey = database.MakeBucket([]byte("counts")).Key([]byte(bucketName))

// blockStore represents a store of blocks
type blockStore struct{}

// New instantiates a new BlockStore
func New() model.BlockStore {
	return &blockStore{}
}

func (bs *blockStore) Name() string {
	return bucketName
}

// Put writes the given block under blockHash, replacing any previous entry
func (bs *blockStore) Put(dbTx model.DBWriter, blockHash externalapi.DomainHash, block *externalapi.BlockWithSideband) error {
	exists, err := bs.HasBlock(dbTx, blockHash)
	if err != nil {
		return err
	}

	blockBytes, err := serialization.SerializeBlockWithSideband(block)
	if err != nil {
		return err
	}
	err = dbTx.Put(bs.hashAsKey(blockHash), blockBytes)
	if err != nil {
		return err
	}

	if !exists {
		return bs.addToCount(dbTx, 1)
	}
	return nil
}

// Block gets the block associated with the given blockHash
func (bs *blockStore) Block(dbContext model.DBReader, blockHash externalapi.DomainHash) (*externalapi.BlockWithSideband, error) {
	blockBytes, err := dbContext.Get(bs.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}

	return serialization.DeserializeBlockWithSideband(blockBytes)
}

// HasBlock returns whether a block with a given hash exists in the store.
func (bs *blockStore) HasBlock(dbContext model.DBReader, blockHash externalapi.DomainHash) (bool, error) {
	return dbContext.Has(bs.hashAsKey(blockHash))
}

// Delete deletes the block associated with the given blockHash
func (bs *blockStore) Delete(dbTx model.DBWriter, blockHash externalapi.DomainHash) error {
	exists, err := bs.HasBlock(dbTx, blockHash)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	err = dbTx.Delete(bs.hashAsKey(blockHash))
	if err != nil {
		return err
	}
	return bs.addToCount(dbTx, -1)
}

// SetSuccessor rewrites the successor link in the sideband of blockHash
func (bs *blockStore) SetSuccessor(dbTx model.DBWriter, blockHash externalapi.DomainHash, successor externalapi.DomainHash) error {
	block, err := bs.Block(dbTx, blockHash)
	if err != nil {
		return errors.Wrapf(err, "cannot set successor of block %s", blockHash)
	}
	block.Sideband.Successor = successor

	blockBytes, err := serialization.SerializeBlockWithSideband(block)
	if err != nil {
		return err
	}
	return dbTx.Put(bs.hashAsKey(blockHash), blockBytes)
}

// Count returns the number of blocks in the store
func (bs *blockStore) Count(dbContext model.DBReader) (uint64, error) {
	countBytes, err := dbContext.Get(countKey)
	if database.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(countBytes) != 8 {
		return 0, errors.Wrapf(serialization.ErrMalformedEntry, "block count of %d bytes", len(countBytes))
	}
	return binary.LittleEndian.Uint64(countBytes), nil
}

func (bs *blockStore) addToCount(dbTx model.DBWriter, delta int64) error {
	count, err := bs.Count(dbTx)
	if err != nil {
		return err
	}
	count = uint64(int64(count) + delta)

	var countBytes [8]byte
	binary.LittleEndian.PutUint64(countBytes[:], count)
	return dbTx.Put(countKey, countBytes[:])
}

func (bs *blockStore) hashAsKey(hash externalapi.DomainHash) model.DBKey {
	return bucket.Key(hash.ByteSlice())
}
