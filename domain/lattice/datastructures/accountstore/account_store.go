package accountstore

import (
	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/database/serialization"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
)

const bucketName = "accounts"

var bucket = database.MakeBucket([]byte(bucketName))

type accountStore struct{}

// New instantiates a new AccountStore
func New() model.AccountStore {
	return &accountStore{}
}

func (as *accountStore) Name() string {
	return bucketName
}

func (as *accountStore) Put(dbTx model.DBWriter, account externalapi.Account, info *externalapi.AccountInfo) error {
	infoBytes, err := serialization.SerializeAccountInfo(info)
	if err != nil {
		return err
	}
	return dbTx.Put(as.accountAsKey(account), infoBytes)
}

// AccountInfo returns the head of account, or database.ErrNotFound if the
// account was never opened
func (as *accountStore) AccountInfo(dbContext model.DBReader, account externalapi.Account) (*externalapi.AccountInfo, error) {
	infoBytes, err := dbContext.Get(as.accountAsKey(account))
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeAccountInfo(infoBytes)
}

func (as *accountStore) HasAccount(dbContext model.DBReader, account externalapi.Account) (bool, error) {
	return dbContext.Has(as.accountAsKey(account))
}

func (as *accountStore) Delete(dbTx model.DBWriter, account externalapi.Account) error {
	return dbTx.Delete(as.accountAsKey(account))
}

// ForEach calls f for every opened account, in account order
func (as *accountStore) ForEach(dbContext model.DBReader,
	f func(account externalapi.Account, info *externalapi.AccountInfo) error) error {

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
		account, err := externalapi.NewAccountFromByteSlice(key.Suffix())
		if err != nil {
			return err
		}
		infoBytes, err := cursor.Value()
		if err != nil {
			return err
		}
		info, err := serialization.DeserializeAccountInfo(infoBytes)
		if err != nil {
			return err
		}
		err = f(account, info)
		if err != nil {
			return err
		}
	}
	return nil
}

func (as *accountStore) accountAsKey(account externalapi.Account) model.DBKey {
	return bucket.Key(account.ByteSlice())
}
