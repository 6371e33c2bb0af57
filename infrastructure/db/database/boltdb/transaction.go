package boltdb

import (
	"github.com/orvnet/orvd/infrastructure/db/database"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

// BoltTransaction wraps a bbolt transaction. bbolt allows a single
// writable transaction at a time, so Begin blocks while another one is
// open.
type BoltTransaction struct {
	tx       *bbolt.Tx
	writable bool
	isClosed bool
}

// Begin begins a new write transaction.
func (db *BoltDB) Begin() (database.Transaction, error) {
	tx, err := db.db.Begin(true)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &BoltTransaction{tx: tx, writable: true}, nil
}

// BeginRead begins a new read-only transaction.
func (db *BoltDB) BeginRead() (database.ReadTransaction, error) {
	tx, err := db.db.Begin(false)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &BoltTransaction{tx: tx, writable: false}, nil
}

// Commit commits whatever changes were made to the database
// within this transaction.
func (tx *BoltTransaction) Commit() error {
	if tx.isClosed {
		return errors.Wrap(database.ErrClosedTransaction, "cannot commit a closed transaction")
	}
	tx.isClosed = true
	return errors.WithStack(tx.tx.Commit())
}

// Rollback rolls back whatever changes were made to the
// database within this transaction.
func (tx *BoltTransaction) Rollback() error {
	if tx.isClosed {
		return errors.Wrap(database.ErrClosedTransaction, "cannot rollback a closed transaction")
	}
	tx.isClosed = true
	return errors.WithStack(tx.tx.Rollback())
}

// RollbackUnlessClosed rolls back changes that were made to
// the database within the transaction, unless the transaction
// had already been closed using either Rollback or Commit.
func (tx *BoltTransaction) RollbackUnlessClosed() error {
	if tx.isClosed {
		return nil
	}
	return tx.Rollback()
}

// Release ends a read-only transaction.
func (tx *BoltTransaction) Release() {
	_ = tx.RollbackUnlessClosed()
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
func (tx *BoltTransaction) Put(key *database.Key, value []byte) error {
	if tx.isClosed {
		return errors.Wrap(database.ErrClosedTransaction, "cannot put into a closed transaction")
	}
	return errors.WithStack(tx.tx.Bucket(rootBucket).Put(key.Bytes(), value))
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
func (tx *BoltTransaction) Get(key *database.Key) ([]byte, error) {
	if tx.isClosed {
		return nil, errors.Wrap(database.ErrClosedTransaction, "cannot get from a closed transaction")
	}
	return get(tx.tx, key)
}

// Has returns true if the database does contains the
// given key.
func (tx *BoltTransaction) Has(key *database.Key) (bool, error) {
	if tx.isClosed {
		return false, errors.Wrap(database.ErrClosedTransaction, "cannot has from a closed transaction")
	}
	return tx.tx.Bucket(rootBucket).Get(key.Bytes()) != nil, nil
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
func (tx *BoltTransaction) Delete(key *database.Key) error {
	if tx.isClosed {
		return errors.Wrap(database.ErrClosedTransaction, "cannot delete from a closed transaction")
	}
	return errors.WithStack(tx.tx.Bucket(rootBucket).Delete(key.Bytes()))
}

// Cursor begins a new cursor over the given bucket.
func (tx *BoltTransaction) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	if tx.isClosed {
		return nil, errors.Wrap(database.ErrClosedTransaction, "cannot open a cursor from a closed transaction")
	}
	cursor := newBoltCursor(bucket, tx.view, cursorPageSize)
	if cursor.err != nil {
		return nil, cursor.err
	}
	return cursor, nil
}

// view runs f on the underlying bbolt transaction
func (tx *BoltTransaction) view(f func(tx *bbolt.Tx) error) error {
	if tx.isClosed {
		return errors.Wrap(database.ErrClosedTransaction, "cannot read a page from a closed transaction")
	}
	return f(tx.tx)
}
