package metrics

import (
	"math/big"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "orvd"

// Metrics exposes the state of a Lattice as prometheus metrics. Counters are
// fed by lattice events and vote results, gauges are read from the lattice
// on every scrape.
type Metrics struct {
	registry *prometheus.Registry
	lattice  lattice.Lattice

	processedBlocks    *prometheus.CounterVec
	rolledBackBlocks   prometheus.Counter
	confirmedElections prometheus.Counter
	cementedBlocks     prometheus.Counter
	votes              *prometheus.CounterVec

	subscription uuid.UUID
}

// New registers the lattice metrics on a new registry and starts feeding
// them.
func New(l lattice.Lattice) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,
		lattice:  l,
		processedBlocks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "processed_blocks_total",
				Help:      "The total number of blocks processed, by result",
			},
			[]string{"result"},
		),
		rolledBackBlocks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rolled_back_blocks_total",
				Help:      "The total number of blocks removed from the ledger by fork resolution",
			},
		),
		confirmedElections: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "confirmed_elections_total",
				Help:      "The total number of elections that reached quorum",
			},
		),
		cementedBlocks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cemented_blocks_total",
				Help:      "The total number of blocks cemented since start",
			},
		),
		votes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_total",
				Help:      "The total number of votes processed, by code",
			},
			[]string{"code"},
		),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_elections",
		Help:      "The number of active elections",
	}, func() float64 {
		return float64(len(l.ActiveElections()))
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ledger_blocks",
		Help:      "The number of blocks in the ledger",
	}, func() float64 {
		return float64(l.LedgerCache().BlockCount())
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ledger_cemented_blocks",
		Help:      "The number of cemented blocks in the ledger",
	}, func() float64 {
		return float64(l.LedgerCache().CementedCount())
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ledger_accounts",
		Help:      "The number of opened accounts",
	}, func() float64 {
		return float64(l.LedgerCache().AccountCount())
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "unchecked_blocks",
		Help:      "The number of blocks waiting for a missing dependency",
	}, func() float64 {
		count, err := l.UncheckedCount()
		if err != nil {
			log.Errorf("Failed to count unchecked blocks: %s", err)
			return 0
		}
		return float64(count)
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "online_weight",
		Help:      "The weight of the representatives that voted recently",
	}, func() float64 {
		return toFloat(l.OnlineWeight().Online)
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "trended_weight",
		Help:      "The median of the persisted online weight samples",
	}, func() float64 {
		return toFloat(l.OnlineWeight().Trended)
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "quorum_delta",
		Help:      "The tally an election winner needs to be confirmed",
	}, func() float64 {
		return toFloat(l.OnlineWeight().Delta)
	})

	m.subscription = l.Subscribe(m.handleEvent)
	l.AddVoteProcessedHandler(m.handleVote)
	return m
}

// Registry returns the registry holding the lattice metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Close stops feeding the event counters
func (m *Metrics) Close() error {
	return m.lattice.Unsubscribe(m.subscription)
}

func (m *Metrics) handleEvent(event externalapi.Event) {
	switch event := event.(type) {
	case *externalapi.BlockProcessedEvent:
		m.processedBlocks.WithLabelValues(event.Result.String()).Inc()
	case *externalapi.BlockRolledBackEvent:
		m.rolledBackBlocks.Inc()
	case *externalapi.ElectionConfirmedEvent:
		m.confirmedElections.Inc()
	case *externalapi.BlockCementedEvent:
		m.cementedBlocks.Inc()
	}
}

func (m *Metrics) handleVote(_ *externalapi.Vote, code externalapi.VoteCode) {
	m.votes.WithLabelValues(code.String()).Inc()
}

func toFloat(amount uint256.Int) float64 {
	value, _ := new(big.Float).SetInt(amount.ToBig()).Float64()
	return value
}
