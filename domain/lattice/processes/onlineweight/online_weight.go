package onlineweight

import (
	"sort"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/latticeconfig"
)

// onlineWeightTracker sums the weight of representatives that voted within
// the last sample period and keeps a persisted trend of those sums
type onlineWeightTracker struct {
	params    *latticeconfig.Params
	dbManager model.DBManager
	ledger    model.Ledger
	store     model.OnlineWeightStore
	now       func() int64

	mtx      sync.Mutex
	lastSeen map[externalapi.Account]int64
	online   uint256.Int
	dirty    bool
	trended  uint256.Int

	started bool
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// New instantiates a new OnlineWeightTracker and loads the trend from the
// persisted samples. now returns the current time in unix milliseconds.
func New(params *latticeconfig.Params,
	dbManager model.DBManager,
	ledger model.Ledger,
	store model.OnlineWeightStore,
	now func() int64) (model.OnlineWeightTracker, error) {

	owt := &onlineWeightTracker{
		params:    params,
		dbManager: dbManager,
		ledger:    ledger,
		store:     store,
		now:       now,
		lastSeen:  make(map[externalapi.Account]int64),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	samples, err := store.Samples(dbManager)
	if err != nil {
		return nil, err
	}
	owt.trended = median(samples)
	log.Debugf("Loaded %d online weight samples, trended weight is %s", len(samples), owt.trended.Dec())
	return owt, nil
}

func (owt *onlineWeightTracker) Start() {
	owt.mtx.Lock()
	defer owt.mtx.Unlock()
	if owt.started {
		return
	}
	owt.started = true
	spawn("onlineWeight-sampleLoop", owt.sampleLoop)
}

func (owt *onlineWeightTracker) Stop() {
	owt.mtx.Lock()
	started := owt.started
	owt.mtx.Unlock()

	owt.once.Do(func() {
		close(owt.quit)
	})
	if started {
		<-owt.done
	}
}

func (owt *onlineWeightTracker) sampleLoop() {
	defer close(owt.done)

	ticker := time.NewTicker(owt.params.OnlineWeightSamplePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-owt.quit:
			return
		case <-ticker.C:
			err := owt.Sample()
			if err != nil {
				log.Errorf("Failed to sample the online weight: %s", err)
			}
		}
	}
}

func (owt *onlineWeightTracker) Observe(representative externalapi.Account) {
	now := owt.now()

	owt.mtx.Lock()
	defer owt.mtx.Unlock()
	lastSeen, seen := owt.lastSeen[representative]
	if !seen || owt.isStale(lastSeen, now) {
		owt.dirty = true
	}
	owt.lastSeen[representative] = now
}

// Sample forgets representatives that have not voted within the sample
// period, persists the resulting online weight and recomputes the trend
func (owt *onlineWeightTracker) Sample() error {
	now := owt.now()

	owt.mtx.Lock()
	for representative, lastSeen := range owt.lastSeen {
		if owt.isStale(lastSeen, now) {
			delete(owt.lastSeen, representative)
		}
	}
	owt.dirty = true
	owt.mtx.Unlock()

	online, err := owt.refreshOnline()
	if err != nil {
		return err
	}

	dbTx, err := owt.dbManager.BeginWrite(model.WriterGeneric)
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	err = owt.store.Put(dbTx, now, online)
	if err != nil {
		return err
	}
	samples, err := owt.store.Samples(dbTx)
	if err != nil {
		return err
	}
	for uint64(len(samples)) > owt.params.OnlineWeightMaxSamples {
		err = owt.store.Delete(dbTx, samples[0].Timestamp)
		if err != nil {
			return err
		}
		samples = samples[1:]
	}
	trended := median(samples)
	err = dbTx.Commit()
	if err != nil {
		return err
	}

	owt.mtx.Lock()
	owt.trended = trended
	owt.mtx.Unlock()
	log.Debugf("Online weight sample: online %s, trended %s over %d samples",
		online.Dec(), trended.Dec(), len(samples))
	return nil
}

func (owt *onlineWeightTracker) isStale(lastSeen int64, now int64) bool {
	return now-lastSeen > owt.params.OnlineWeightSamplePeriod.Milliseconds()
}

// refreshOnline recomputes the online weight if a representative came
// online or went offline since it was last computed
func (owt *onlineWeightTracker) refreshOnline() (uint256.Int, error) {
	owt.mtx.Lock()
	if !owt.dirty {
		online := owt.online
		owt.mtx.Unlock()
		return online, nil
	}
	representatives := make([]externalapi.Account, 0, len(owt.lastSeen))
	for representative := range owt.lastSeen {
		representatives = append(representatives, representative)
	}
	owt.dirty = false
	owt.mtx.Unlock()

	dbTx, err := owt.dbManager.BeginRead()
	if err != nil {
		return uint256.Int{}, err
	}
	defer dbTx.Release()

	var online uint256.Int
	for _, representative := range representatives {
		weight, err := owt.ledger.Weight(dbTx, representative)
		if err != nil {
			owt.mtx.Lock()
			owt.dirty = true
			owt.mtx.Unlock()
			return uint256.Int{}, err
		}
		online.Add(&online, &weight)
	}

	owt.mtx.Lock()
	owt.online = online
	owt.mtx.Unlock()
	return online, nil
}

func (owt *onlineWeightTracker) Online() uint256.Int {
	online, err := owt.refreshOnline()
	if err != nil {
		log.Errorf("Failed to compute the online weight: %s", err)
		owt.mtx.Lock()
		defer owt.mtx.Unlock()
		return owt.online
	}
	return online
}

func (owt *onlineWeightTracker) Trended() uint256.Int {
	owt.mtx.Lock()
	defer owt.mtx.Unlock()
	return owt.trended
}

// Delta is the quorum share of the largest of the trended weight, the
// current online weight and the configured minimum
func (owt *onlineWeightTracker) Delta() uint256.Int {
	weight := owt.Online()
	trended := owt.Trended()
	if trended.Gt(&weight) {
		weight = trended
	}
	if owt.params.OnlineWeightMinimum.Gt(&weight) {
		weight = owt.params.OnlineWeightMinimum
	}

	var delta uint256.Int
	delta.Div(&weight, uint256.NewInt(100))
	delta.Mul(&delta, uint256.NewInt(owt.params.OnlineWeightQuorumPercent))
	return delta
}

// median returns the middle weight of samples, the upper one for an even
// count, or zero when there are none
func median(samples []*externalapi.OnlineWeightSample) uint256.Int {
	if len(samples) == 0 {
		return uint256.Int{}
	}
	weights := make([]uint256.Int, len(samples))
	for i, sample := range samples {
		weights[i] = sample.Weight
	}
	sort.Slice(weights, func(i, j int) bool {
		return weights[i].Lt(&weights[j])
	})
	return weights[len(weights)/2]
}
