package ldb

import (
	"github.com/orvnet/orvd/infrastructure/db/database"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBTransaction is a thin wrapper around native leveldb
// transactions. leveldb allows a single open transaction at a time and
// blocks every other write until it is committed or discarded.
type LevelDBTransaction struct {
	db       *LevelDB
	ldbTx    *leveldb.Transaction
	isClosed bool
}

// Begin begins a new transaction.
func (db *LevelDB) Begin() (database.Transaction, error) {
	ldbTx, err := db.ldb.OpenTransaction()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	transaction := &LevelDBTransaction{
		db:       db,
		ldbTx:    ldbTx,
		isClosed: false,
	}
	return transaction, nil
}

// Commit commits whatever changes were made to the database
// within this transaction.
func (tx *LevelDBTransaction) Commit() error {
	if tx.isClosed {
		return errors.Wrap(database.ErrClosedTransaction, "cannot commit a closed transaction")
	}

	tx.isClosed = true
	return errors.WithStack(tx.ldbTx.Commit())
}

// Rollback rolls back whatever changes were made to the
// database within this transaction.
func (tx *LevelDBTransaction) Rollback() error {
	if tx.isClosed {
		return errors.Wrap(database.ErrClosedTransaction, "cannot rollback a closed transaction")
	}

	tx.isClosed = true
	tx.ldbTx.Discard()
	return nil
}

// RollbackUnlessClosed rolls back changes that were made to
// the database within the transaction, unless the transaction
// had already been closed using either Rollback or Commit.
func (tx *LevelDBTransaction) RollbackUnlessClosed() error {
	if tx.isClosed {
		return nil
	}
	return tx.Rollback()
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
func (tx *LevelDBTransaction) Put(key *database.Key, value []byte) error {
	if tx.isClosed {
		return errors.Wrap(database.ErrClosedTransaction, "cannot put into a closed transaction")
	}
	return errors.WithStack(tx.ldbTx.Put(key.Bytes(), value, nil))
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
func (tx *LevelDBTransaction) Get(key *database.Key) ([]byte, error) {
	if tx.isClosed {
		return nil, errors.Wrap(database.ErrClosedTransaction, "cannot get from a closed transaction")
	}
	data, err := tx.ldbTx.Get(key.Bytes(), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.Wrapf(database.ErrNotFound,
				"key %s not found", key)
		}
		return nil, errors.WithStack(err)
	}
	return data, nil
}

// Has returns true if the database does contains the
// given key.
func (tx *LevelDBTransaction) Has(key *database.Key) (bool, error) {
	if tx.isClosed {
		return false, errors.Wrap(database.ErrClosedTransaction, "cannot has from a closed transaction")
	}
	exists, err := tx.ldbTx.Has(key.Bytes(), nil)
	return exists, errors.WithStack(err)
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
func (tx *LevelDBTransaction) Delete(key *database.Key) error {
	if tx.isClosed {
		return errors.Wrap(database.ErrClosedTransaction, "cannot delete from a closed transaction")
	}
	return errors.WithStack(tx.ldbTx.Delete(key.Bytes(), nil))
}

// Cursor begins a new cursor over the given bucket.
func (tx *LevelDBTransaction) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	if tx.isClosed {
		return nil, errors.Wrap(database.ErrClosedTransaction, "cannot open a cursor from a closed transaction")
	}
	ldbIterator := tx.ldbTx.NewIterator(util.BytesPrefix(bucket.Path()), nil)
	return newLevelDBCursor(ldbIterator, bucket), nil
}

type snapshotTransaction struct {
	snapshot   *leveldb.Snapshot
	isReleased bool
}

func (s *snapshotTransaction) Get(key *database.Key) ([]byte, error) {
	if s.isReleased {
		return nil, errors.Wrap(database.ErrClosedTransaction, "cannot get from a released snapshot")
	}
	data, err := s.snapshot.Get(key.Bytes(), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.Wrapf(database.ErrNotFound,
				"key %s not found", key)
		}
		return nil, errors.WithStack(err)
	}
	return data, nil
}

func (s *snapshotTransaction) Has(key *database.Key) (bool, error) {
	if s.isReleased {
		return false, errors.Wrap(database.ErrClosedTransaction, "cannot has from a released snapshot")
	}
	exists, err := s.snapshot.Has(key.Bytes(), nil)
	return exists, errors.WithStack(err)
}

func (s *snapshotTransaction) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	if s.isReleased {
		return nil, errors.Wrap(database.ErrClosedTransaction, "cannot open a cursor from a released snapshot")
	}
	ldbIterator := s.snapshot.NewIterator(util.BytesPrefix(bucket.Path()), nil)
	return newLevelDBCursor(ldbIterator, bucket), nil
}

func (s *snapshotTransaction) Release() {
	if s.isReleased {
		return
	}
	s.isReleased = true
	s.snapshot.Release()
}
