package database

import (
	"sync"

	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/infrastructure/db/database"
	"github.com/orvnet/orvd/infrastructure/db/writequeue"
)

// dbTransaction owns both the database write transaction and the write
// queue guard. The guard is released exactly once, when the transaction
// is closed.
type dbTransaction struct {
	transaction database.Transaction
	guard       *writequeue.Guard
	writer      model.Writer
	releaseOnce sync.Once
	onCommit    []func()
}

func (d *dbTransaction) Get(key model.DBKey) ([]byte, error) {
	return d.transaction.Get(dbKeyToDatabaseKey(key))
}

func (d *dbTransaction) Has(key model.DBKey) (bool, error) {
	return d.transaction.Has(dbKeyToDatabaseKey(key))
}

func (d *dbTransaction) Cursor(bucket model.DBBucket) (model.DBCursor, error) {
	cursor, err := d.transaction.Cursor(dbBucketToDatabaseBucket(bucket))
	if err != nil {
		return nil, err
	}
	return newDBCursor(cursor), nil
}

func (d *dbTransaction) Put(key model.DBKey, value []byte) error {
	return d.transaction.Put(dbKeyToDatabaseKey(key), value)
}

func (d *dbTransaction) Delete(key model.DBKey) error {
	return d.transaction.Delete(dbKeyToDatabaseKey(key))
}

func (d *dbTransaction) Writer() model.Writer {
	return d.writer
}

func (d *dbTransaction) Rollback() error {
	defer d.release()
	d.onCommit = nil
	return d.transaction.Rollback()
}

func (d *dbTransaction) OnCommit(callback func()) {
	d.onCommit = append(d.onCommit, callback)
}

func (d *dbTransaction) Commit() error {
	err := d.transaction.Commit()
	d.release()
	if err != nil {
		return err
	}

	callbacks := d.onCommit
	d.onCommit = nil
	for _, callback := range callbacks {
		callback()
	}
	return nil
}

func (d *dbTransaction) RollbackUnlessClosed() error {
	defer d.release()
	d.onCommit = nil
	return d.transaction.RollbackUnlessClosed()
}

func (d *dbTransaction) release() {
	d.releaseOnce.Do(d.guard.Release)
}

func newDBTransaction(transaction database.Transaction, guard *writequeue.Guard, writer model.Writer) model.DBTransaction {
	return &dbTransaction{transaction: transaction, guard: guard, writer: writer}
}

type dbReadTransaction struct {
	transaction database.ReadTransaction
}

func (d dbReadTransaction) Get(key model.DBKey) ([]byte, error) {
	return d.transaction.Get(dbKeyToDatabaseKey(key))
}

func (d dbReadTransaction) Has(key model.DBKey) (bool, error) {
	return d.transaction.Has(dbKeyToDatabaseKey(key))
}

func (d dbReadTransaction) Cursor(bucket model.DBBucket) (model.DBCursor, error) {
	cursor, err := d.transaction.Cursor(dbBucketToDatabaseBucket(bucket))
	if err != nil {
		return nil, err
	}
	return newDBCursor(cursor), nil
}

func (d dbReadTransaction) Release() {
	d.transaction.Release()
}
