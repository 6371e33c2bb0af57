package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/utils/signing"
	"github.com/orvnet/orvd/domain/latticeconfig"
)

func testArgs(t *testing.T, extra ...string) []string {
	tmpDir := t.TempDir()
	args := []string{
		"--configfile=" + filepath.Join(tmpDir, "orvd.conf"),
		"--datadir=" + filepath.Join(tmpDir, "data"),
		"--logdir=" + filepath.Join(tmpDir, "logs"),
	}
	return append(args, extra...)
}

func TestCreateDefaultConfigFile(t *testing.T) {
	testPath := filepath.Join(t.TempDir(), "nested", "orvd.conf")

	err := createDefaultConfigFile(testPath)
	if err != nil {
		t.Fatalf("TestCreateDefaultConfigFile: Failed to create a default config file: %v", err)
	}

	cfgFlags := defaultFlags()
	parser := newConfigParser(cfgFlags, flags.None)
	err = flags.NewIniParser(parser).ParseFile(testPath)
	if err != nil {
		t.Fatalf("TestCreateDefaultConfigFile: the default config file does not parse: %v", err)
	}
	if cfgFlags.DbType != defaultDbType || cfgFlags.ConfHeightMode != defaultConfHeightMode {
		t.Fatalf("TestCreateDefaultConfigFile: the default config file changed the defaults")
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(testArgs(t, "--simnet", "--confheightmode=bounded", "--votegenesis",
		"--dbtype=bbolt", "--electionannounceinterval=50ms"))
	if err != nil {
		t.Fatalf("TestLoadConfig: loadConfig: %+v", err)
	}

	if cfg.NetParams().Name != latticeconfig.SimnetParams.Name {
		t.Fatalf("TestLoadConfig: expected network %s but got %s",
			latticeconfig.SimnetParams.Name, cfg.NetParams().Name)
	}
	if filepath.Base(cfg.DataDir) != latticeconfig.SimnetParams.Name {
		t.Fatalf("TestLoadConfig: data directory %s is not namespaced by network", cfg.DataDir)
	}
	if _, err := os.Stat(cfg.DataDir); err != nil {
		t.Fatalf("TestLoadConfig: data directory was not created: %v", err)
	}
	if cfg.ConfirmationHeightMode != model.ConfirmationHeightModeBounded {
		t.Fatalf("TestLoadConfig: expected bounded mode but got %s", cfg.ConfirmationHeightMode)
	}
	if cfg.DbType != DatabaseTypeBolt {
		t.Fatalf("TestLoadConfig: expected dbtype %s but got %s", DatabaseTypeBolt, cfg.DbType)
	}
	if cfg.RepresentativeKey == nil || cfg.RepresentativeKey.Account() != latticeconfig.SimnetParams.GenesisAccount {
		t.Fatalf("TestLoadConfig: expected the node to vote with the genesis key")
	}
	if cfg.NetParams().ElectionAnnouncementInterval != 50*time.Millisecond {
		t.Fatalf("TestLoadConfig: expected announcement interval 50ms but got %s",
			cfg.NetParams().ElectionAnnouncementInterval)
	}
	if latticeconfig.SimnetParams.ElectionAnnouncementInterval == 50*time.Millisecond {
		t.Fatalf("TestLoadConfig: overriding the announcement interval changed the global params")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(testArgs(t, "--testnet"))
	if err != nil {
		t.Fatalf("TestLoadConfigDefaults: loadConfig: %+v", err)
	}
	if cfg.ConfirmationHeightMode != model.ConfirmationHeightModeAutomatic {
		t.Fatalf("TestLoadConfigDefaults: expected automatic mode but got %s", cfg.ConfirmationHeightMode)
	}
	if cfg.RepresentativeKey != nil {
		t.Fatalf("TestLoadConfigDefaults: expected a node that does not vote")
	}
	if cfg.VoteWorkers != defaultVoteWorkers || cfg.DbType != defaultDbType {
		t.Fatalf("TestLoadConfigDefaults: unexpected defaults: %d workers, dbtype %s", cfg.VoteWorkers, cfg.DbType)
	}
	if !strings.HasSuffix(cfg.LogFile(), filepath.Join(latticeconfig.TestnetParams.Name, defaultLogFilename)) {
		t.Fatalf("TestLoadConfigDefaults: unexpected log file %s", cfg.LogFile())
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "multiple networks", args: []string{"--testnet", "--simnet"}},
		{name: "unknown database type", args: []string{"--simnet", "--dbtype=ffldb"}},
		{name: "unknown cementing mode", args: []string{"--simnet", "--confheightmode=fast"}},
		{name: "no vote workers", args: []string{"--simnet", "--votesworkers=0"}},
		{name: "genesis key on testnet", args: []string{"--testnet", "--votegenesis"}},
		{name: "override params on testnet", args: []string{"--testnet", "--override-params-file=params.yaml"}},
		{name: "missing representative key", args: []string{"--simnet", "--representativekey=/nonexistent/key"}},
		{name: "invalid metrics address", args: []string{"--simnet", "--metricslisten=9090"}},
		{name: "invalid profile port", args: []string{"--simnet", "--profile=80"}},
	}

	for _, test := range tests {
		_, err := loadConfig(testArgs(t, test.args...))
		if err == nil {
			t.Fatalf("TestLoadConfigErrors: %s: expected an error", test.name)
		}
	}
}

func TestOverrideParams(t *testing.T) {
	tmpDir := t.TempDir()
	paramsFile := filepath.Join(tmpDir, "params.yaml")
	content := "onlineWeightQuorumPercent: 51\n" +
		"onlineWeightMinimum: \"1000\"\n" +
		"electionAnnouncementInterval: 20ms\n" +
		"electionAnnouncementThreshold: 2\n" +
		"workThresholdEpoch1Receive: 12345\n"
	err := os.WriteFile(paramsFile, []byte(content), 0600)
	if err != nil {
		t.Fatalf("TestOverrideParams: %v", err)
	}

	cfg, err := loadConfig(testArgs(t, "--devnet", "--override-params-file="+paramsFile))
	if err != nil {
		t.Fatalf("TestOverrideParams: loadConfig: %+v", err)
	}
	params := cfg.NetParams()
	if params.OnlineWeightQuorumPercent != 51 {
		t.Fatalf("TestOverrideParams: expected quorum percent 51 but got %d", params.OnlineWeightQuorumPercent)
	}
	if params.OnlineWeightMinimum.Uint64() != 1000 {
		t.Fatalf("TestOverrideParams: expected online weight minimum 1000 but got %s", params.OnlineWeightMinimum.Dec())
	}
	if params.ElectionAnnouncementInterval != 20*time.Millisecond || params.ElectionAnnouncementThreshold != 2 {
		t.Fatalf("TestOverrideParams: announcement schedule was not overridden")
	}
	if params.WorkThresholdEpoch1Receive != 12345 {
		t.Fatalf("TestOverrideParams: expected receive threshold 12345 but got %d", params.WorkThresholdEpoch1Receive)
	}
	if latticeconfig.DevnetParams.OnlineWeightQuorumPercent == 51 {
		t.Fatalf("TestOverrideParams: overriding changed the global params")
	}

	err = os.WriteFile(paramsFile, []byte("k: 18\n"), 0600)
	if err != nil {
		t.Fatalf("TestOverrideParams: %v", err)
	}
	_, err = loadConfig(testArgs(t, "--devnet", "--override-params-file="+paramsFile))
	if err == nil {
		t.Fatalf("TestOverrideParams: expected an unknown param to be rejected")
	}
}

func TestReadRepresentativeKey(t *testing.T) {
	keyPair, err := signing.GenerateKeyPair()
	if err != nil {
		t.Fatalf("TestReadRepresentativeKey: %+v", err)
	}
	keyFile := filepath.Join(t.TempDir(), "representative.key")
	err = os.WriteFile(keyFile, []byte(hex.EncodeToString(keyPair.PrivateKey())+"\n"), 0600)
	if err != nil {
		t.Fatalf("TestReadRepresentativeKey: %v", err)
	}

	cfg, err := loadConfig(testArgs(t, "--simnet", "--representativekey="+keyFile))
	if err != nil {
		t.Fatalf("TestReadRepresentativeKey: loadConfig: %+v", err)
	}
	if cfg.RepresentativeKey == nil || cfg.RepresentativeKey.Account() != keyPair.Account() {
		t.Fatalf("TestReadRepresentativeKey: the representative key was not loaded")
	}

	err = os.WriteFile(keyFile, []byte("not hex"), 0600)
	if err != nil {
		t.Fatalf("TestReadRepresentativeKey: %v", err)
	}
	_, err = ReadRepresentativeKey(keyFile)
	if err == nil {
		t.Fatalf("TestReadRepresentativeKey: expected a malformed key to be rejected")
	}
}
