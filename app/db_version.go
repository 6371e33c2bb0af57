package app

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const currentDatabaseVersion = 1

// databaseInfo is stored next to the ledger database and identifies its
// format and the network it belongs to
type databaseInfo struct {
	Version int    `yaml:"version"`
	Network string `yaml:"network"`
}

// checkDatabaseVersion verifies that the database at dbPath, if any, was
// created for network with the current format.
func checkDatabaseVersion(dbPath string, network string) (doesVersionFileExist bool, err error) {
	dbVersionFileName := versionFilePath(dbPath)
	content, err := os.ReadFile(dbVersionFileName)
	if err != nil {
		if os.IsNotExist(err) { // If version file doesn't exist, we assume that the database is new
			return false, nil
		}
		return false, errors.WithStack(err)
	}

	info := databaseInfo{}
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	err = decoder.Decode(&info)
	if err != nil {
		return true, errors.Wrapf(err, "malformed database version file %s", dbVersionFileName)
	}

	if info.Version != currentDatabaseVersion {
		return true, errors.Errorf("Invalid database version %d. Expected version: %d", info.Version, currentDatabaseVersion)
	}
	if info.Network != network {
		return true, errors.Errorf("the database in %s belongs to network %s, not %s", dbPath, info.Network, network)
	}

	return true, nil
}

func createDatabaseVersionFile(dbPath string, network string) error {
	content, err := yaml.Marshal(&databaseInfo{
		Version: currentDatabaseVersion,
		Network: network,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	err = os.WriteFile(versionFilePath(dbPath), content, 0600)
	return errors.WithStack(err)
}

func versionFilePath(dbPath string) string {
	return filepath.Join(dbPath, "version")
}
