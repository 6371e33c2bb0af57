package app

import (
	"sync/atomic"

	"github.com/orvnet/orvd/app/protocol"
	"github.com/orvnet/orvd/domain/lattice"
	latticedatabase "github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/infrastructure/config"
	infrastructuredatabase "github.com/orvnet/orvd/infrastructure/db/database"
	"github.com/orvnet/orvd/infrastructure/metrics"
	"github.com/orvnet/orvd/infrastructure/network/netadapter"
)

// localNodeID identifies this node on its net adapter hub
const localNodeID externalapi.PeerID = "local"

// ComponentManager is a wrapper for all the orvd services
type ComponentManager struct {
	cfg             *config.Config
	lattice         lattice.Lattice
	hub             *netadapter.Hub
	netAdapter      *netadapter.NetAdapter
	protocolManager *protocol.Manager
	metrics         *metrics.Metrics
	metricsServer   *metrics.Server

	started, shutdown int32
}

// Start launches all the orvd services.
func (a *ComponentManager) Start() {
	// Already started?
	if atomic.AddInt32(&a.started, 1) != 1 {
		return
	}

	log.Trace("Starting orvd")

	a.lattice.Start()
	if a.metricsServer != nil {
		a.metricsServer.Start()
	}
}

// Stop gracefully shuts down all the orvd services.
func (a *ComponentManager) Stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&a.shutdown, 1) != 1 {
		log.Infof("Orvd is already in the process of shutting down")
		return
	}

	log.Warnf("Orvd shutting down")

	if a.metricsServer != nil {
		err := a.metricsServer.Stop()
		if err != nil {
			log.Errorf("Error stopping the metrics server: %+v", err)
		}
	}

	a.protocolManager.Close()
	a.netAdapter.Close()
	a.lattice.Stop()

	if a.metrics != nil {
		err := a.metrics.Close()
		if err != nil {
			log.Errorf("Error closing the metrics: %+v", err)
		}
	}
}

// NewComponentManager returns a new ComponentManager instance.
// Use Start() to begin all services within this ComponentManager
func NewComponentManager(cfg *config.Config, db infrastructuredatabase.Database) (*ComponentManager, error) {
	hub := netadapter.NewHub()
	netAdapter, err := hub.NewNetAdapter(localNodeID)
	if err != nil {
		return nil, err
	}

	latticeConfig := &lattice.Config{
		Params:                 cfg.NetParams(),
		ConfirmationHeightMode: cfg.ConfirmationHeightMode,
		RepresentativeKey:      cfg.RepresentativeKey,
		VoteWorkers:            cfg.VoteWorkers,
		VoteQueueSize:          cfg.VoteQueueSize,
		BlockBatchSize:         cfg.BlockBatchSize,
		CementingBatchSize:     cfg.CementingBatchSize,
	}
	l, err := lattice.NewFactory().NewLattice(latticeConfig, latticedatabase.New(db), netAdapter)
	if err != nil {
		return nil, err
	}
	if cfg.RepresentativeKey != nil {
		log.Infof("Voting as representative %s", cfg.RepresentativeKey.Account())
	}

	protocolManager := protocol.NewManager(l, netAdapter)

	componentManager := &ComponentManager{
		cfg:             cfg,
		lattice:         l,
		hub:             hub,
		netAdapter:      netAdapter,
		protocolManager: protocolManager,
	}

	if cfg.MetricsListen != "" {
		componentManager.metrics = metrics.New(l)
		componentManager.metricsServer, err = metrics.NewServer(cfg.MetricsListen, componentManager.metrics)
		if err != nil {
			return nil, err
		}
	}

	return componentManager, nil
}

// Lattice returns the Lattice run by this ComponentManager
func (a *ComponentManager) Lattice() lattice.Lattice {
	return a.lattice
}
