package pendingstore

import (
	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/database/serialization"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
)

const bucketName = "pending"

var bucket = database.MakeBucket([]byte(bucketName))

// pendingStore keeps receivable entries under pending/<account>/<send hash>
// so that the entries of one account can be iterated with a single cursor
type pendingStore struct{}

// New instantiates a new PendingStore
func New() model.PendingStore {
	return &pendingStore{}
}

func (ps *pendingStore) Name() string {
	return bucketName
}

func (ps *pendingStore) Put(dbTx model.DBWriter, key externalapi.PendingKey, info *externalapi.PendingInfo) error {
	infoBytes, err := serialization.SerializePendingInfo(info)
	if err != nil {
		return err
	}
	return dbTx.Put(ps.pendingKeyAsKey(key), infoBytes)
}

func (ps *pendingStore) PendingInfo(dbContext model.DBReader, key externalapi.PendingKey) (*externalapi.PendingInfo, error) {
	infoBytes, err := dbContext.Get(ps.pendingKeyAsKey(key))
	if err != nil {
		return nil, err
	}
	return serialization.DeserializePendingInfo(infoBytes)
}

func (ps *pendingStore) HasPending(dbContext model.DBReader, key externalapi.PendingKey) (bool, error) {
	return dbContext.Has(ps.pendingKeyAsKey(key))
}

func (ps *pendingStore) Delete(dbTx model.DBWriter, key externalapi.PendingKey) error {
	return dbTx.Delete(ps.pendingKeyAsKey(key))
}

// Pending returns every receivable entry of account, ordered by send hash
func (ps *pendingStore) Pending(dbContext model.DBReader, account externalapi.Account) ([]*externalapi.PendingEntry, error) {
	cursor, err := dbContext.Cursor(ps.accountBucket(account))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var entries []*externalapi.PendingEntry
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		hash, err := externalapi.NewDomainHashFromByteSlice(key.Suffix())
		if err != nil {
			return nil, err
		}
		infoBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		info, err := serialization.DeserializePendingInfo(infoBytes)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &externalapi.PendingEntry{
			Key:  externalapi.PendingKey{Account: account, Hash: hash},
			Info: *info,
		})
	}
	return entries, nil
}

func (ps *pendingStore) HasAnyPending(dbContext model.DBReader, account externalapi.Account) (bool, error) {
	cursor, err := dbContext.Cursor(ps.accountBucket(account))
	if err != nil {
		return false, err
	}
	defer cursor.Close()

	return cursor.First(), nil
}

func (ps *pendingStore) accountBucket(account externalapi.Account) model.DBBucket {
	return bucket.Bucket(account.ByteSlice())
}

func (ps *pendingStore) pendingKeyAsKey(key externalapi.PendingKey) model.DBKey {
	return ps.accountBucket(key.Account).Key(key.Hash.ByteSlice())
}
