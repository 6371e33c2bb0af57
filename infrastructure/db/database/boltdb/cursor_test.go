package boltdb

import (
	"bytes"
	"testing"

	"github.com/orvnet/orvd/infrastructure/db/database"
)

func prepareBoltForCursorTest(t *testing.T, testName string, bucket *database.Bucket, count int) *BoltDB {
	db, err := NewBoltDB(t.TempDir())
	if err != nil {
		t.Fatalf("%s: NewBoltDB unexpectedly failed: %s", testName, err)
	}
	t.Cleanup(func() {
		err := db.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
		}
	})

	for i := 0; i < count; i++ {
		err := db.Put(bucket.Key([]byte{byte(i)}), []byte{byte(i), byte(i)})
		if err != nil {
			t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
		}
	}
	err = db.Put(database.MakeBucket([]byte("other")).Key([]byte{0}), []byte("outside"))
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}
	return db
}

func collectCursor(t *testing.T, testName string, cursor *BoltCursor, visit func(key *database.Key)) [][]byte {
	var suffixes [][]byte
	for cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			t.Fatalf("%s: Key unexpectedly failed: %s", testName, err)
		}
		value, err := cursor.Value()
		if err != nil {
			t.Fatalf("%s: Value unexpectedly failed: %s", testName, err)
		}
		suffix := key.Suffix()
		if !bytes.Equal(value, []byte{suffix[0], suffix[0]}) {
			t.Fatalf("%s: wrong value %x for key %s", testName, value, key)
		}
		suffixes = append(suffixes, suffix)
		if visit != nil {
			visit(key)
		}
	}
	return suffixes
}

func expectSuffixes(t *testing.T, testName string, suffixes [][]byte, from int, to int) {
	if len(suffixes) != to-from {
		t.Fatalf("%s: expected %d entries but got %d", testName, to-from, len(suffixes))
	}
	for i, suffix := range suffixes {
		if !bytes.Equal(suffix, []byte{byte(from + i)}) {
			t.Fatalf("%s: entry %d has suffix %x, expected %x", testName, i, suffix, from+i)
		}
	}
}

func TestCursorPages(t *testing.T) {
	bucket := database.MakeBucket([]byte("paged"))
	db := prepareBoltForCursorTest(t, "TestCursorPages", bucket, 10)

	for _, pageSize := range []int{1, 3, 5, 10, 64} {
		cursor := newBoltCursor(bucket, db.db.View, pageSize)
		suffixes := collectCursor(t, "TestCursorPages", cursor, nil)
		expectSuffixes(t, "TestCursorPages", suffixes, 0, 10)
		if cursor.Next() {
			t.Fatalf("TestCursorPages: page size %d: Next returned true after the cursor was exhausted", pageSize)
		}

		err := cursor.Seek(bucket.Key([]byte{4}))
		if err != nil {
			t.Fatalf("TestCursorPages: page size %d: Seek unexpectedly failed: %s", pageSize, err)
		}
		key, err := cursor.Key()
		if err != nil || !bytes.Equal(key.Suffix(), []byte{4}) {
			t.Fatalf("TestCursorPages: page size %d: expected to land on 04 but got %v, %v", pageSize, key, err)
		}
		suffixes = collectCursor(t, "TestCursorPages", cursor, nil)
		expectSuffixes(t, "TestCursorPages", suffixes, 5, 10)

		err = cursor.Seek(bucket.Key([]byte{10}))
		if !database.IsNotFoundError(err) {
			t.Fatalf("TestCursorPages: page size %d: expected ErrNotFound but got %v", pageSize, err)
		}

		if !cursor.First() {
			t.Fatalf("TestCursorPages: page size %d: First found nothing", pageSize)
		}
		err = cursor.Close()
		if err != nil {
			t.Fatalf("TestCursorPages: page size %d: Close unexpectedly failed: %s", pageSize, err)
		}
	}
}

func TestCursorPagesSurviveWrites(t *testing.T) {
	bucket := database.MakeBucket([]byte("paged"))
	db := prepareBoltForCursorTest(t, "TestCursorPagesSurviveWrites", bucket, 10)

	dbTx, err := db.Begin()
	if err != nil {
		t.Fatalf("TestCursorPagesSurviveWrites: Begin unexpectedly failed: %s", err)
	}
	boltTx := dbTx.(*BoltTransaction)
	cursor := newBoltCursor(bucket, boltTx.view, 3)
	suffixes := collectCursor(t, "TestCursorPagesSurviveWrites", cursor, func(key *database.Key) {
		err := boltTx.Delete(key)
		if err != nil {
			t.Fatalf("TestCursorPagesSurviveWrites: Delete unexpectedly failed: %s", err)
		}
	})
	expectSuffixes(t, "TestCursorPagesSurviveWrites", suffixes, 0, 10)
	err = dbTx.Commit()
	if err != nil {
		t.Fatalf("TestCursorPagesSurviveWrites: Commit unexpectedly failed: %s", err)
	}

	cursor = newBoltCursor(bucket, db.db.View, 3)
	if cursor.Next() {
		t.Fatalf("TestCursorPagesSurviveWrites: the bucket still has entries after deleting all of them")
	}
	if cursor.First() {
		t.Fatalf("TestCursorPagesSurviveWrites: First found an entry in an empty bucket")
	}
}
