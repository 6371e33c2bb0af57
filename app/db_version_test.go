package app

import (
	"os"
	"testing"
)

func TestDatabaseVersion(t *testing.T) {
	dbPath := t.TempDir()

	exists, err := checkDatabaseVersion(dbPath, "orv-simnet")
	if err != nil {
		t.Fatalf("TestDatabaseVersion: checkDatabaseVersion: %+v", err)
	}
	if exists {
		t.Fatalf("TestDatabaseVersion: expected no version file in a new directory")
	}

	err = createDatabaseVersionFile(dbPath, "orv-simnet")
	if err != nil {
		t.Fatalf("TestDatabaseVersion: createDatabaseVersionFile: %+v", err)
	}
	exists, err = checkDatabaseVersion(dbPath, "orv-simnet")
	if err != nil {
		t.Fatalf("TestDatabaseVersion: checkDatabaseVersion: %+v", err)
	}
	if !exists {
		t.Fatalf("TestDatabaseVersion: expected the version file to exist")
	}

	_, err = checkDatabaseVersion(dbPath, "orv-testnet")
	if err == nil {
		t.Fatalf("TestDatabaseVersion: expected a database of another network to be rejected")
	}

	tests := []struct {
		name    string
		content string
	}{
		{name: "future version", content: "version: 2\nnetwork: orv-simnet\n"},
		{name: "unknown field", content: "version: 1\nnetwork: orv-simnet\ndbtype: leveldb\n"},
		{name: "not yaml", content: "version: [1\n"},
	}
	for _, test := range tests {
		err = os.WriteFile(versionFilePath(dbPath), []byte(test.content), 0600)
		if err != nil {
			t.Fatalf("TestDatabaseVersion: %v", err)
		}
		_, err = checkDatabaseVersion(dbPath, "orv-simnet")
		if err == nil {
			t.Fatalf("TestDatabaseVersion: %s: expected the version file to be rejected", test.name)
		}
	}
}
