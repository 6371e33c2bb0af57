package boltdb

import (
	"os"
	"path/filepath"
	"time"

	"github.com/orvnet/orvd/infrastructure/db/database"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

const (
	databaseFileName = "orvd.bolt"
	openTimeout      = 5 * time.Second

	// bbolt cannot grow its memory map while a read transaction is open,
	// so reserve enough up front for writers not to wait on readers.
	initialMmapSize = 1 << 30
)

// rootBucket holds every key. Bucket paths are encoded in the keys
// themselves, exactly like the leveldb driver does, so that both drivers
// order and prefix-scan keys identically.
var rootBucket = []byte("orvd")

// BoltDB defines a thin wrapper around bbolt.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens the bbolt file inside the given directory, creating both
// if they don't exist.
func NewBoltDB(path string) (*BoltDB, error) {
	err := os.MkdirAll(path, 0700)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	filePath := filepath.Join(path, databaseFileName)
	db, err := bbolt.Open(filePath, 0600, &bbolt.Options{
		Timeout:         openTimeout,
		InitialMmapSize: initialMmapSize,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bolt database at %s", filePath)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.WithStack(err)
	}
	log.Debugf("Opened bolt database at %s", filePath)
	return &BoltDB{db: db}, nil
}

// Close closes the bbolt instance.
func (db *BoltDB) Close() error {
	return errors.WithStack(db.db.Close())
}

// Put sets the value for the given key in its own write transaction.
func (db *BoltDB) Put(key *database.Key, value []byte) error {
	err := db.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(rootBucket).Put(key.Bytes(), value)
	})
	return errors.WithStack(err)
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
func (db *BoltDB) Get(key *database.Key) ([]byte, error) {
	var data []byte
	err := db.db.View(func(tx *bbolt.Tx) error {
		var err error
		data, err = get(tx, key)
		return err
	})
	return data, err
}

// Has returns true if the database does contains the
// given key.
func (db *BoltDB) Has(key *database.Key) (bool, error) {
	var exists bool
	err := db.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket(rootBucket).Get(key.Bytes()) != nil
		return nil
	})
	return exists, errors.WithStack(err)
}

// Delete deletes the value for the given key in its own write
// transaction.
func (db *BoltDB) Delete(key *database.Key) error {
	err := db.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(rootBucket).Delete(key.Bytes())
	})
	return errors.WithStack(err)
}

// Cursor begins a new cursor over the given bucket. Every page of entries is
// read in its own short-lived read transaction.
func (db *BoltDB) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	cursor := newBoltCursor(bucket, db.db.View, cursorPageSize)
	if cursor.err != nil {
		return nil, cursor.err
	}
	return cursor, nil
}

func get(tx *bbolt.Tx, key *database.Key) ([]byte, error) {
	value := tx.Bucket(rootBucket).Get(key.Bytes())
	if value == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	}
	// bbolt values are only valid for the life of the transaction
	data := make([]byte, len(value))
	copy(data, value)
	return data, nil
}
