package boltdb

import (
	"bytes"

	"github.com/orvnet/orvd/infrastructure/db/database"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

// cursorPageSize is the number of entries a cursor holds in memory at once
const cursorPageSize = 1024

type entry struct {
	key   []byte
	value []byte
}

// BoltCursor iterates over a bucket one page of copied entries at a time.
// bbolt cursors are invalidated by writes to the same transaction, which the
// ledger performs while iterating, so every page is read by a fresh bbolt
// cursor that seeks past the last key of the previous page. Pages after the
// first reflect writes made meanwhile.
type BoltCursor struct {
	bucket   *database.Bucket
	view     func(func(tx *bbolt.Tx) error) error
	pageSize int

	page     []entry
	lastPage bool
	index    int
	err      error
	isClosed bool
}

// newBoltCursor opens a cursor reading its pages through view
func newBoltCursor(bucket *database.Bucket, view func(func(tx *bbolt.Tx) error) error, pageSize int) *BoltCursor {
	c := &BoltCursor{bucket: bucket, view: view, pageSize: pageSize, index: -1}
	c.load(bucket.Path(), false)
	return c
}

// load replaces the page with the entries of the bucket starting at from
func (c *BoltCursor) load(from []byte, skipFrom bool) {
	prefix := c.bucket.Path()
	var page []entry
	err := c.view(func(tx *bbolt.Tx) error {
		boltCursor := tx.Bucket(rootBucket).Cursor()
		key, value := boltCursor.Seek(from)
		if skipFrom && key != nil && bytes.Equal(key, from) {
			key, value = boltCursor.Next()
		}
		for ; key != nil && bytes.HasPrefix(key, prefix) && len(page) < c.pageSize; key, value = boltCursor.Next() {
			page = append(page, entry{
				key:   append([]byte(nil), key...),
				value: append([]byte(nil), value...),
			})
		}
		return nil
	})
	c.page = page
	c.lastPage = len(page) < c.pageSize
	c.err = errors.WithStack(err)
}

// Next moves the iterator to the next key/value pair. It returns whether the
// iterator is exhausted. Panics if the cursor is closed.
func (c *BoltCursor) Next() bool {
	if c.isClosed {
		panic("cannot call next on a closed cursor")
	}
	if c.index+1 < len(c.page) {
		c.index++
		return true
	}
	if c.index >= len(c.page) || c.lastPage {
		c.index = len(c.page)
		return false
	}
	c.load(c.page[len(c.page)-1].key, true)
	c.index = 0
	return len(c.page) > 0
}

// First moves the iterator to the first key/value pair. It returns false if
// such a pair does not exist. Panics if the cursor is closed.
func (c *BoltCursor) First() bool {
	if c.isClosed {
		panic("cannot call first on a closed cursor")
	}
	c.load(c.bucket.Path(), false)
	c.index = 0
	return len(c.page) > 0
}

// Seek moves the iterator to the first key/value pair whose key is greater
// than or equal to the given key. It returns ErrNotFound if such pair does not
// exist.
func (c *BoltCursor) Seek(key *database.Key) error {
	if c.isClosed {
		return errors.New("cannot seek a closed cursor")
	}
	keyBytes := key.Bytes()
	if !bytes.HasPrefix(keyBytes, c.bucket.Path()) {
		return errors.Wrapf(database.ErrNotFound, "key %s is outside of the cursor's bucket", key)
	}
	c.load(keyBytes, false)
	c.index = 0
	if c.err != nil {
		return c.err
	}
	if len(c.page) == 0 {
		return errors.Wrapf(database.ErrNotFound, "no key at or after %s", key)
	}
	return nil
}

// Key returns the key of the current key/value pair, or ErrNotFound if done.
func (c *BoltCursor) Key() (*database.Key, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the key of a closed cursor")
	}
	if c.err != nil {
		return nil, c.err
	}
	if c.index < 0 || c.index >= len(c.page) {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"key of an exhausted cursor")
	}
	return c.bucket.KeyFromBytes(c.page[c.index].key), nil
}

// Value returns the value of the current key/value pair, or ErrNotFound if done.
func (c *BoltCursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the value of a closed cursor")
	}
	if c.err != nil {
		return nil, c.err
	}
	if c.index < 0 || c.index >= len(c.page) {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"value of an exhausted cursor")
	}
	return c.page[c.index].value, nil
}

// Close releases associated resources.
func (c *BoltCursor) Close() error {
	if c.isClosed {
		return errors.New("cannot close an already closed cursor")
	}
	c.isClosed = true
	c.page = nil
	return nil
}
