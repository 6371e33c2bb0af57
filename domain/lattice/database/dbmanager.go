package database

import (
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/infrastructure/db/database"
	"github.com/orvnet/orvd/infrastructure/db/writequeue"
)

type dbManager struct {
	db         database.Database
	writeQueue *writequeue.Queue
}

var writerClasses = map[model.Writer]writequeue.Writer{
	model.WriterGeneric:            writequeue.Generic,
	model.WriterBlockProcessor:     writequeue.BlockProcessor,
	model.WriterConfirmationHeight: writequeue.ConfirmationHeight,
	model.WriterTesting:            writequeue.Testing,
}

func (dbw *dbManager) Get(key model.DBKey) ([]byte, error) {
	return dbw.db.Get(dbKeyToDatabaseKey(key))
}

func (dbw *dbManager) Has(key model.DBKey) (bool, error) {
	return dbw.db.Has(dbKeyToDatabaseKey(key))
}

func (dbw *dbManager) Cursor(bucket model.DBBucket) (model.DBCursor, error) {
	cursor, err := dbw.db.Cursor(dbBucketToDatabaseBucket(bucket))
	if err != nil {
		return nil, err
	}

	return newDBCursor(cursor), nil
}

func (dbw *dbManager) BeginWrite(writer model.Writer) (model.DBTransaction, error) {
	guard := dbw.writeQueue.Wait(writerClasses[writer])
	transaction, err := dbw.db.Begin()
	if err != nil {
		guard.Release()
		return nil, err
	}

	return newDBTransaction(transaction, guard, writer), nil
}

func (dbw *dbManager) BeginRead() (model.DBReadTransaction, error) {
	transaction, err := dbw.db.BeginRead()
	if err != nil {
		return nil, err
	}

	return dbReadTransaction{transaction: transaction}, nil
}

func (dbw *dbManager) IsWriterWaiting(writer model.Writer) bool {
	return dbw.writeQueue.Contains(writerClasses[writer])
}

func (dbw *dbManager) Close() error {
	return dbw.db.Close()
}

// New wraps the given database as a DBManager
func New(db database.Database) model.DBManager {
	return &dbManager{db: db, writeQueue: writequeue.New()}
}

// Update runs f inside a write transaction of the given writer class. The
// transaction is committed when f returns nil and rolled back otherwise.
func Update(dbManager model.DBManager, writer model.Writer, f func(dbTx model.DBTransaction) error) error {
	dbTx, err := dbManager.BeginWrite(writer)
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	err = f(dbTx)
	if err != nil {
		return err
	}
	return dbTx.Commit()
}

// View runs f against a snapshot read transaction.
func View(dbManager model.DBManager, f func(dbContext model.DBReader) error) error {
	readTx, err := dbManager.BeginRead()
	if err != nil {
		return err
	}
	defer readTx.Release()

	return f(readTx)
}
