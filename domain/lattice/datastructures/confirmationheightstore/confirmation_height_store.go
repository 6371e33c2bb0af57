package confirmationheightstore

import (
	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/database/serialization"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
)

const bucketName = "confirmation-height"

var bucket = database.MakeBucket([]byte(bucketName))

type confirmationHeightStore struct{}

// New instantiates a new ConfirmationHeightStore
func New() model.ConfirmationHeightStore {
	return &confirmationHeightStore{}
}

func (chs *confirmationHeightStore) Name() string {
	return bucketName
}

func (chs *confirmationHeightStore) Put(dbTx model.DBWriter, account externalapi.Account,
	info externalapi.ConfirmationHeightInfo) error {

	infoBytes, err := serialization.SerializeConfirmationHeightInfo(info)
	if err != nil {
		return err
	}
	return dbTx.Put(chs.accountAsKey(account), infoBytes)
}

// ConfirmationHeight returns the cementing boundary of account. Accounts
// with nothing cemented have height 0 and a zero frontier.
func (chs *confirmationHeightStore) ConfirmationHeight(dbContext model.DBReader,
	account externalapi.Account) (externalapi.ConfirmationHeightInfo, error) {

	infoBytes, err := dbContext.Get(chs.accountAsKey(account))
	if database.IsNotFoundError(err) {
		return externalapi.ConfirmationHeightInfo{}, nil
	}
	if err != nil {
		return externalapi.ConfirmationHeightInfo{}, err
	}
	return serialization.DeserializeConfirmationHeightInfo(infoBytes)
}

func (chs *confirmationHeightStore) Delete(dbTx model.DBWriter, account externalapi.Account) error {
	return dbTx.Delete(chs.accountAsKey(account))
}

func (chs *confirmationHeightStore) ForEach(dbContext model.DBReader,
	f func(account externalapi.Account, info externalapi.ConfirmationHeightInfo) error) error {

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
		info, err := serialization.DeserializeConfirmationHeightInfo(infoBytes)
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

func (chs *confirmationHeightStore) accountAsKey(account externalapi.Account) model.DBKey {
	return bucket.Key(account.ByteSlice())
}
