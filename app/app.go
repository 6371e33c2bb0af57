package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/orvnet/orvd/infrastructure/config"
	"github.com/orvnet/orvd/infrastructure/db/database"
	"github.com/orvnet/orvd/infrastructure/db/database/boltdb"
	"github.com/orvnet/orvd/infrastructure/db/database/ldb"
	"github.com/orvnet/orvd/infrastructure/logger"
	"github.com/orvnet/orvd/infrastructure/os/execenv"
	"github.com/orvnet/orvd/infrastructure/os/signal"
	"github.com/orvnet/orvd/infrastructure/os/winservice"
	"github.com/orvnet/orvd/util/panics"
	"github.com/orvnet/orvd/util/profiling"
	"github.com/orvnet/orvd/version"
)

const shutdownTimeout = 2 * time.Minute

type orvdApp struct {
	cfg *config.Config
}

// StartApp starts the orvd app, and blocks until it finishes running
func StartApp() error {
	execenv.Initialize()

	// Load configuration and parse command line.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprint(os.Stderr, err)
		return err
	}
	err = initLog(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer logger.BackendLog.Close()
	defer panics.HandlePanic(log, "MAIN", nil)

	app := &orvdApp{cfg: cfg}

	// Call serviceMain on Windows to handle running as a service. When
	// the return isService flag is true, exit now since we ran as a
	// service. Otherwise, just fall through to normal operation.
	if runtime.GOOS == "windows" {
		isService, err := winservice.WinServiceMain(app.main, winservice.NodeService, cfg)
		if err != nil {
			return err
		}
		if isService {
			return nil
		}
	}

	return app.main(nil)
}

func initLog(cfg *config.Config) error {
	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	logger.InitLog(cfg.LogFile(), cfg.ErrLogFile())
	return logger.ParseAndSetLogLevels(cfg.DebugLevel)
}

func (app *orvdApp) main(startedChan chan<- struct{}) error {
	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// another subsystem such as the windows service.
	interrupt := signal.InterruptListener()
	defer log.Info("Shutdown complete")

	// Show version at startup.
	log.Infof("Version %s", version.Version())
	log.Infof("Network %s", app.cfg.NetParams().Name)

	// Enable http profiling server if requested.
	if app.cfg.Profile != "" {
		profiling.Start(app.cfg.Profile, log)
	}

	// Return now if an interrupt signal was triggered.
	if signal.InterruptRequested(interrupt) {
		return nil
	}

	db, err := openDB(app.cfg)
	if err != nil {
		log.Errorf("Loading database failed: %+v", err)
		return err
	}
	defer func() {
		log.Infof("Gracefully shutting down the database...")
		err := db.Close()
		if err != nil {
			log.Errorf("Failed to close the database: %s", err)
		}
	}()

	// Return now if an interrupt signal was triggered.
	if signal.InterruptRequested(interrupt) {
		return nil
	}

	componentManager, err := NewComponentManager(app.cfg, db)
	if err != nil {
		log.Errorf("Unable to start orvd: %+v", err)
		return err
	}
	defer func() {
		log.Infof("Gracefully shutting down orvd...")

		shutdownDone := make(chan struct{})
		spawn("app.main-componentManager.Stop", func() {
			componentManager.Stop()
			shutdownDone <- struct{}{}
		})

		select {
		case <-shutdownDone:
		case <-time.After(shutdownTimeout):
			log.Criticalf("Graceful shutdown timed out %s.", shutdownTimeout)
		}
		log.Infof("Orvd shutdown complete")
	}()

	componentManager.Start()

	if startedChan != nil {
		startedChan <- struct{}{}
	}

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through one of the subsystems such as the
	// windows service.
	<-interrupt
	return nil
}

// databasePath returns the path to the ledger database. Every database type
// gets its own directory.
func databasePath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "ledger-"+cfg.DbType)
}

func openDB(cfg *config.Config) (database.Database, error) {
	dbPath := databasePath(cfg)

	network := cfg.NetParams().Name
	doesVersionFileExist, err := checkDatabaseVersion(dbPath, network)
	if err != nil {
		return nil, err
	}

	log.Infof("Loading %s database from '%s'", cfg.DbType, dbPath)
	var db database.Database
	switch cfg.DbType {
	case config.DatabaseTypeBolt:
		db, err = boltdb.NewBoltDB(dbPath)
	default:
		db, err = ldb.NewLevelDB(dbPath)
	}
	if err != nil {
		return nil, err
	}

	if !doesVersionFileExist {
		err := createDatabaseVersionFile(dbPath, network)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return db, nil
}
