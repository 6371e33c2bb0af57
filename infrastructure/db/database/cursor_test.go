package database_test

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/orvnet/orvd/infrastructure/db/database"
)

func validateCurrentCursorKeyAndValue(t *testing.T, testName string, cursor database.Cursor,
	expectedKey *database.Key, expectedValue []byte) {

	cursorKey, err := cursor.Key()
	if err != nil {
		t.Fatalf("%s: Key "+
			"unexpectedly failed: %s", testName, err)
	}
	if !reflect.DeepEqual(cursorKey.Bytes(), expectedKey.Bytes()) {
		t.Fatalf("%s: Key "+
			"returned wrong key. Want: %s, got: %s",
			testName, expectedKey, cursorKey)
	}
	cursorValue, err := cursor.Value()
	if err != nil {
		t.Fatalf("%s: Value "+
			"unexpectedly failed for key %s: %s",
			testName, cursorKey, err)
	}
	if !bytes.Equal(cursorValue, expectedValue) {
		t.Fatalf("%s: Value "+
			"returned wrong value for key %s. Want: %s, got: %s",
			testName, cursorKey, string(expectedValue), string(cursorValue))
	}
}

func recoverFromClosedCursorPanic(t *testing.T, testName string) {
	panicErr := recover()
	if panicErr == nil {
		t.Fatalf("%s: cursor unexpectedly "+
			"didn't panic after being closed", testName)
	}
	expectedPanicErr := "closed cursor"
	if !strings.Contains(fmt.Sprintf("%v", panicErr), expectedPanicErr) {
		t.Fatalf("%s: cursor panicked "+
			"with wrong message. Want: %v, got: %s",
			testName, expectedPanicErr, panicErr)
	}
}

// TestCursorSanity validates typical cursor usage, including
// opening a cursor over some existing data, seeking back
// and forth over that data, and getting some keys/values out
// of the cursor.
func TestCursorSanity(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorSanity", testCursorSanity)
}

func testCursorSanity(t *testing.T, db database.Database, testName string) {
	// Write some data to the database, plus a neighbouring bucket the
	// cursor must not see
	bucket := database.MakeBucket([]byte("bucket"))
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("key%d", i)
		value := fmt.Sprintf("value%d", i)
		err := db.Put(bucket.Key([]byte(key)), []byte(value))
		if err != nil {
			t.Fatalf("%s: Put "+
				"unexpectedly failed: %s", testName, err)
		}
	}
	err := db.Put(database.MakeBucket([]byte("bucket2")).Key([]byte("key0")), []byte("other"))
	if err != nil {
		t.Fatalf("%s: Put "+
			"unexpectedly failed: %s", testName, err)
	}

	// Open a new cursor
	cursor, err := db.Cursor(bucket)
	if err != nil {
		t.Fatalf("%s: Cursor "+
			"unexpectedly failed: %s", testName, err)
	}
	defer func() {
		err := cursor.Close()
		if err != nil {
			t.Fatalf("%s: Close "+
				"unexpectedly failed: %s", testName, err)
		}
	}()

	// Seek to first key and make sure its key and value are correct
	hasNext := cursor.First()
	if !hasNext {
		t.Fatalf("%s: First "+
			"unexpectedly returned non-existence", testName)
	}
	validateCurrentCursorKeyAndValue(t, testName, cursor, bucket.Key([]byte("key0")), []byte("value0"))

	// Seek between keys lands on the next one
	err = cursor.Seek(bucket.Key([]byte("key45")))
	if err != nil {
		t.Fatalf("%s: Seek "+
			"unexpectedly failed: %s", testName, err)
	}
	validateCurrentCursorKeyAndValue(t, testName, cursor, bucket.Key([]byte("key5")), []byte("value5"))

	// Seek past the end of the bucket
	err = cursor.Seek(bucket.Key([]byte("key99")))
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Seek "+
			"returned wrong error: %v", testName, err)
	}

	// Seek to the last key
	err = cursor.Seek(bucket.Key([]byte("key9")))
	if err != nil {
		t.Fatalf("%s: Seek "+
			"unexpectedly failed: %s", testName, err)
	}
	validateCurrentCursorKeyAndValue(t, testName, cursor, bucket.Key([]byte("key9")), []byte("value9"))

	// Call Next to get to the end of the cursor. This should
	// return false to signify that there are no items after that.
	// Key and Value calls should return ErrNotFound.
	hasNext = cursor.Next()
	if hasNext {
		t.Fatalf("%s: Next "+
			"after last value is unexpectedly not done", testName)
	}
	_, err = cursor.Key()
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Key "+
			"returned wrong error: %v", testName, err)
	}
	_, err = cursor.Value()
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Value "+
			"returned wrong error: %v", testName, err)
	}
}

func TestCursorIteratesInKeyOrder(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorIteratesInKeyOrder", testCursorIteratesInKeyOrder)
}

func testCursorIteratesInKeyOrder(t *testing.T, db database.Database, testName string) {
	entries := populateDatabaseForTest(t, db, testName)

	cursor, err := db.Cursor(database.MakeBucket(nil))
	if err != nil {
		t.Fatalf("%s: Cursor unexpectedly failed: %s", testName, err)
	}
	defer cursor.Close()

	count := 0
	for ok := cursor.First(); ok; ok = cursor.Next() {
		validateCurrentCursorKeyAndValue(t, testName, cursor, entries[count].key, entries[count].value)
		count++
	}
	if count != len(entries) {
		t.Fatalf("%s: expected %d entries but iterated %d", testName, len(entries), count)
	}
}

func TestCursorInsideTransaction(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorInsideTransaction", testCursorInsideTransaction)
}

func testCursorInsideTransaction(t *testing.T, db database.Database, testName string) {
	bucket := database.MakeBucket([]byte("pending"))
	dbTx, err := db.Begin()
	if err != nil {
		t.Fatalf("%s: Begin unexpectedly failed: %s", testName, err)
	}
	defer dbTx.RollbackUnlessClosed()

	for i := 0; i < 3; i++ {
		err := dbTx.Put(bucket.Key([]byte{byte(i)}), []byte{byte(i)})
		if err != nil {
			t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
		}
	}

	// Uncommitted writes are visible to cursors of the same transaction,
	// and deleting while iterating is allowed
	cursor, err := dbTx.Cursor(bucket)
	if err != nil {
		t.Fatalf("%s: Cursor unexpectedly failed: %s", testName, err)
	}
	count := 0
	for cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			t.Fatalf("%s: Key unexpectedly failed: %s", testName, err)
		}
		if !bytes.Equal(key.Suffix(), []byte{byte(count)}) {
			t.Fatalf("%s: unexpected suffix %x at position %d", testName, key.Suffix(), count)
		}
		err = dbTx.Delete(key)
		if err != nil {
			t.Fatalf("%s: Delete unexpectedly failed: %s", testName, err)
		}
		count++
	}
	err = cursor.Close()
	if err != nil {
		t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
	}
	if count != 3 {
		t.Fatalf("%s: expected 3 entries but iterated %d", testName, count)
	}
	err = dbTx.Commit()
	if err != nil {
		t.Fatalf("%s: Commit unexpectedly failed: %s", testName, err)
	}
}

func TestCursorCloseErrors(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorCloseErrors", testCursorCloseErrors)
}

func testCursorCloseErrors(t *testing.T, db database.Database, testName string) {
	tests := []struct {
		name string

		// function is the Cursor function that we're
		// verifying returns an error after the cursor had
		// been closed.
		function func(cursor database.Cursor) error
	}{
		{
			name: "Seek",
			function: func(cursor database.Cursor) error {
				return cursor.Seek(database.MakeBucket().Key([]byte{}))
			},
		},
		{
			name: "Key",
			function: func(cursor database.Cursor) error {
				_, err := cursor.Key()
				return err
			},
		},
		{
			name: "Value",
			function: func(cursor database.Cursor) error {
				_, err := cursor.Value()
				return err
			},
		},
		{
			name: "Close",
			function: func(cursor database.Cursor) error {
				return cursor.Close()
			},
		},
	}

	for _, test := range tests {
		cursor, err := db.Cursor(database.MakeBucket())
		if err != nil {
			t.Fatalf("%s: Cursor "+
				"unexpectedly failed: %s", testName, err)
		}
		err = cursor.Close()
		if err != nil {
			t.Fatalf("%s: Close "+
				"unexpectedly failed: %s", testName, err)
		}

		err = test.function(cursor)
		if err == nil {
			t.Fatalf("%s: %s "+
				"unexpectedly succeeded", testName, test.name)
		}
		if !strings.Contains(err.Error(), "closed cursor") {
			t.Fatalf("%s: %s "+
				"returned wrong error. Want: closed cursor, got: %s",
				testName, test.name, err)
		}
	}

	cursor, err := db.Cursor(database.MakeBucket())
	if err != nil {
		t.Fatalf("%s: Cursor "+
			"unexpectedly failed: %s", testName, err)
	}
	_ = cursor.Close()
	func() {
		defer recoverFromClosedCursorPanic(t, testName)
		cursor.First()
	}()
	func() {
		defer recoverFromClosedCursorPanic(t, testName)
		cursor.Next()
	}()
}
