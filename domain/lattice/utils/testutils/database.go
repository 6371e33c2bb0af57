package testutils

import (
	"fmt"
	"os"
	"testing"

	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/model"
	infrastructuredatabase "github.com/orvnet/orvd/infrastructure/db/database"
	"github.com/orvnet/orvd/infrastructure/db/database/boltdb"
	"github.com/orvnet/orvd/infrastructure/db/database/ldb"
)

// DatabaseType names a database driver
type DatabaseType string

// Supported database drivers
const (
	DatabaseTypeLevelDB DatabaseType = "ldb"
	DatabaseTypeBolt    DatabaseType = "bolt"
)

// AllDatabaseTypes lists every driver tests should be run against
var AllDatabaseTypes = []DatabaseType{DatabaseTypeLevelDB, DatabaseTypeBolt}

// NewTestDatabase opens a database of the given type in a fresh temporary
// directory. The returned teardown function closes and removes it.
func NewTestDatabase(t testing.TB, testName string, databaseType DatabaseType) (model.DBManager, func()) {
	path, err := os.MkdirTemp("", testName)
	if err != nil {
		t.Fatalf("%s: MkdirTemp unexpectedly failed: %s", testName, err)
	}

	var db infrastructuredatabase.Database
	switch databaseType {
	case DatabaseTypeLevelDB:
		db, err = ldb.NewLevelDB(path)
	case DatabaseTypeBolt:
		db, err = boltdb.NewBoltDB(path)
	default:
		t.Fatalf("%s: unknown database type %s", testName, databaseType)
	}
	if err != nil {
		t.Fatalf("%s: opening %s unexpectedly failed: %s", testName, databaseType, err)
	}

	dbManager := database.New(db)
	teardown := func() {
		err := dbManager.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
		}
		os.RemoveAll(path)
	}
	return dbManager, teardown
}

// ForAllDatabaseTypes runs testFunc once against every supported driver
func ForAllDatabaseTypes(t *testing.T, testName string,
	testFunc func(t *testing.T, dbManager model.DBManager, testName string)) {

	for _, databaseType := range AllDatabaseTypes {
		func() {
			dbManager, teardown := NewTestDatabase(t, testName, databaseType)
			defer teardown()

			testFunc(t, dbManager, fmt.Sprintf("%s: %s", databaseType, testName))
		}()
	}
}
