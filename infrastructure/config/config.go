package config

import (
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/utils/signing"
	"github.com/orvnet/orvd/util"
	"github.com/orvnet/orvd/version"
	"github.com/pkg/errors"
)

const (
	defaultConfigFilename     = "orvd.conf"
	defaultDataDirname        = "data"
	defaultLogLevel           = "info"
	defaultLogDirname         = "logs"
	defaultLogFilename        = "orvd.log"
	defaultErrLogFilename     = "orvd_err.log"
	defaultDbType             = DatabaseTypeLevelDB
	defaultConfHeightMode     = "automatic"
	defaultVoteWorkers        = 4
	defaultVoteQueueSize      = 65536
	defaultBlockBatchSize     = 256
	defaultCementingBatchSize = 4096
)

// Supported database types
const (
	DatabaseTypeLevelDB = "leveldb"
	DatabaseTypeBolt    = "bbolt"
)

var (
	// DefaultHomeDir is the default home directory for orvd.
	DefaultHomeDir = util.AppDataDir("orvd", false)

	defaultConfigFile = filepath.Join(DefaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(DefaultHomeDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(DefaultHomeDir, defaultLogDirname)

	knownDbTypes = []string{DatabaseTypeLevelDB, DatabaseTypeBolt}

	confHeightModes = map[string]model.ConfirmationHeightMode{
		"automatic": model.ConfirmationHeightModeAutomatic,
		"bounded":   model.ConfirmationHeightModeBounded,
		"unbounded": model.ConfirmationHeightModeUnbounded,
	}
)

// Flags defines the configuration options for orvd.
//
// See loadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion              bool          `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile               string        `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir                  string        `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir                   string        `long:"logdir" description:"Directory to log output."`
	DebugLevel               string        `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	DbType                   string        `long:"dbtype" description:"Database backend {leveldb, bbolt}"`
	RepresentativeKeyFile    string        `long:"representativekey" description:"File holding the hex encoded private key this node votes with"`
	VoteWithGenesisKey       bool          `long:"votegenesis" description:"Vote with the genesis key of the network (allowed only on devnet and simnet)"`
	ConfHeightMode           string        `long:"confheightmode" description:"Cementing algorithm {automatic, bounded, unbounded}"`
	VoteWorkers              int           `long:"votesworkers" description:"Number of goroutines verifying vote signatures"`
	VoteQueueSize            int           `long:"votequeuesize" description:"Maximum number of votes waiting for verification"`
	BlockBatchSize           int           `long:"blockbatchsize" description:"Maximum number of blocks committed in one write transaction"`
	CementingBatchSize       int           `long:"cementingbatchsize" description:"Maximum number of blocks cemented in one write transaction"`
	ElectionAnnounceInterval time.Duration `long:"electionannounceinterval" description:"Overrides the period of the election announcement loop. Valid time units are {ms, s, m}"`
	MetricsListen            string        `long:"metricslisten" description:"Serve prometheus metrics on the given interface/port (eg. 127.0.0.1:9090)"`
	Profile                  string        `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`
	NetworkFlags
	ServiceOptions *ServiceOptions
}

// Config defines the configuration options for orvd.
//
// See loadConfig for details on the configuration load process.
type Config struct {
	*Flags

	// ConfirmationHeightMode is the parsed value of --confheightmode
	ConfirmationHeightMode model.ConfirmationHeightMode

	// RepresentativeKey is nil for a node that does not vote
	RepresentativeKey *signing.KeyPair
}

// ServiceOptions defines the configuration options for the daemon as a service on
// Windows.
type ServiceOptions struct {
	ServiceCommand string `short:"s" long:"service" description:"Service command {install, remove, start, stop}"`
}

// LogFile returns the path of the main log file
func (cfg *Config) LogFile() string {
	return filepath.Join(cfg.LogDir, defaultLogFilename)
}

// ErrLogFile returns the path of the error log file
func (cfg *Config) ErrLogFile() string {
	return filepath.Join(cfg.LogDir, defaultErrLogFilename)
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// validDbType returns whether or not dbType is a supported database type.
func validDbType(dbType string) bool {
	for _, knownType := range knownDbTypes {
		if dbType == knownType {
			return true
		}
	}

	return false
}

// newConfigParser returns a new command line flags parser.
func newConfigParser(cfgFlags *Flags, options flags.Options) *flags.Parser {
	parser := flags.NewParser(cfgFlags, options)
	if runtime.GOOS == "windows" {
		parser.AddGroup("Service Options", "Service Options", cfgFlags.ServiceOptions)
	}
	return parser
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:         defaultConfigFile,
		DebugLevel:         defaultLogLevel,
		DataDir:            defaultDataDir,
		LogDir:             defaultLogDir,
		DbType:             defaultDbType,
		ConfHeightMode:     defaultConfHeightMode,
		VoteWorkers:        defaultVoteWorkers,
		VoteQueueSize:      defaultVoteQueueSize,
		BlockBatchSize:     defaultBlockBatchSize,
		CementingBatchSize: defaultCementingBatchSize,
		ServiceOptions:     &ServiceOptions{},
	}
}

// DefaultConfig returns the default orvd configuration
func DefaultConfig() *Config {
	return &Config{Flags: defaultFlags()}
}

// LoadConfig initializes and parses the config using a config file and command
// line options.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

// loadConfig initializes and parses the config using a config file and the
// given command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in orvd functioning properly without any config settings
// while still allowing the user to override settings with config files and
// command line options. Command line options always take precedence.
func loadConfig(args []string) (*Config, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := *cfgFlags
	preCfg.ServiceOptions = &ServiceOptions{}
	preParser := newConfigParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			return nil, err
		}
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	// Load additional config from file.
	var configFileError error
	parser := newConfigParser(cfgFlags, flags.Default)
	cfg := &Config{
		Flags: cfgFlags,
	}
	if !preCfg.Simnet || preCfg.ConfigFile != defaultConfigFile {
		if _, err := os.Stat(preCfg.ConfigFile); os.IsNotExist(err) {
			err := createDefaultConfigFile(preCfg.ConfigFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating a default config file: %s\n", err)
			}
		}

		err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
		if err != nil {
			var pathErr *os.PathError
			if !errors.As(err, &pathErr) {
				fmt.Fprintf(os.Stderr, "Error parsing config file: %s\n", err)
				fmt.Fprintln(os.Stderr, usageMessage)
				return nil, err
			}
			configFileError = err
		}
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); !ok || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, err
	}

	funcName := "loadConfig"

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}

	// Append the network name to the data and log directories so they are
	// "namespaced" per network.
	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.DataDir = filepath.Join(cfg.DataDir, cfg.NetParams().Name)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.NetParams().Name)

	err = os.MkdirAll(cfg.DataDir, 0700)
	if err != nil {
		// Show a nicer error message if it's because a symlink is
		// linked to a directory that does not exist (probably because
		// it's not mounted).
		var pathErr *os.PathError
		if errors.As(err, &pathErr) && os.IsExist(err) {
			if link, lerr := os.Readlink(pathErr.Path); lerr == nil {
				str := "is symlink %s -> %s mounted?"
				err = errors.Errorf(str, pathErr.Path, link)
			}
		}

		str := "%s: Failed to create data directory: %s"
		err := errors.Errorf(str, funcName, err)
		fmt.Fprintln(os.Stderr, err)
		return nil, err
	}

	// Validate database type.
	if !validDbType(cfg.DbType) {
		str := "%s: The specified database type [%s] is invalid -- " +
			"supported types %s"
		err := errors.Errorf(str, funcName, cfg.DbType, knownDbTypes)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}

	mode, ok := confHeightModes[cfg.ConfHeightMode]
	if !ok {
		str := "%s: The specified confirmation height mode [%s] is invalid -- " +
			"supported modes are automatic, bounded and unbounded"
		err := errors.Errorf(str, funcName, cfg.ConfHeightMode)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}
	cfg.ConfirmationHeightMode = mode

	if cfg.VoteWorkers < 1 {
		str := "%s: The votesworkers option must be at least 1 -- parsed [%d]"
		err := errors.Errorf(str, funcName, cfg.VoteWorkers)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}

	if cfg.VoteQueueSize < 1 || cfg.BlockBatchSize < 1 || cfg.CementingBatchSize < 1 {
		str := "%s: The votequeuesize, blockbatchsize and cementingbatchsize options must be positive"
		err := errors.Errorf(str, funcName)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}

	if cfg.ElectionAnnounceInterval < 0 {
		str := "%s: The electionannounceinterval option may not be negative -- parsed [%s]"
		err := errors.Errorf(str, funcName, cfg.ElectionAnnounceInterval)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}
	if cfg.ElectionAnnounceInterval > 0 {
		cfg.NetParams().ElectionAnnouncementInterval = cfg.ElectionAnnounceInterval
	}

	err = cfg.resolveRepresentativeKey()
	if err != nil {
		err := errors.Errorf("%s: %s", funcName, err)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}

	if cfg.MetricsListen != "" {
		_, _, err := net.SplitHostPort(cfg.MetricsListen)
		if err != nil {
			str := "%s: The metricslisten address [%s] is invalid: %s"
			err := errors.Errorf(str, funcName, cfg.MetricsListen, err)
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, err
		}
	}

	// Validate profile port number
	if cfg.Profile != "" {
		profilePort, err := strconv.Atoi(cfg.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			str := "%s: The profile port must be between 1024 and 65535"
			err := errors.Errorf(str, funcName)
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, err
		}
	}

	// Warn about missing config file only after all other configuration is
	// done. This prevents the warning on help messages and invalid
	// options. Note this should go directly before the return.
	if configFileError != nil {
		log.Warnf("%s", configFileError)
	}

	return cfg, nil
}

func (cfg *Config) resolveRepresentativeKey() error {
	if cfg.VoteWithGenesisKey && cfg.RepresentativeKeyFile != "" {
		return errors.New("the --votegenesis and --representativekey options can not be mixed")
	}

	if cfg.VoteWithGenesisKey {
		if !cfg.Devnet && !cfg.Simnet {
			return errors.New("--votegenesis is allowed only when using devnet or simnet")
		}
		keyPair, err := signing.KeyPairFromPrivateKey(cfg.NetParams().GenesisPrivateKey)
		if err != nil {
			return err
		}
		cfg.RepresentativeKey = keyPair
		return nil
	}

	if cfg.RepresentativeKeyFile == "" {
		return nil
	}
	keyPair, err := ReadRepresentativeKey(cleanAndExpandPath(cfg.RepresentativeKeyFile))
	if err != nil {
		return err
	}
	cfg.RepresentativeKey = keyPair
	return nil
}

// ReadRepresentativeKey reads a hex encoded private key from path
func ReadRepresentativeKey(path string) (*signing.KeyPair, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't read the representative key file")
	}
	privateKey, err := hex.DecodeString(strings.TrimSpace(string(content)))
	if err != nil {
		return nil, errors.Wrapf(err, "the representative key file %s is not hex encoded", path)
	}
	keyPair, err := signing.KeyPairFromPrivateKey(privateKey)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid representative key in %s", path)
	}
	return keyPair, nil
}

// createDefaultConfigFile writes the sample configuration to the given
// destination path.
func createDefaultConfigFile(destinationPath string) error {
	// Create the destination directory if it does not exists
	err := os.MkdirAll(filepath.Dir(destinationPath), 0700)
	if err != nil {
		return err
	}

	return os.WriteFile(destinationPath, []byte(sampleConfig), 0600)
}
