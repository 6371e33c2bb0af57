package blockprocessor

import (
	"sync"
	"testing"

	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/processes/confirmationheight"
	"github.com/orvnet/orvd/domain/lattice/utils/hashing"
	"github.com/orvnet/orvd/domain/lattice/utils/testutils"
	"github.com/orvnet/orvd/domain/lattice/utils/testutils/testledger"
	"github.com/orvnet/orvd/domain/lattice/utils/work"
	"github.com/orvnet/orvd/domain/latticeconfig"
	"github.com/pkg/errors"
)

type resultRecorder struct {
	sync.Mutex
	results    map[externalapi.DomainHash][]externalapi.ProcessResult
	rolledBack []externalapi.DomainHash
}

func newResultRecorder(bp model.BlockProcessor) *resultRecorder {
	recorder := &resultRecorder{results: make(map[externalapi.DomainHash][]externalapi.ProcessResult)}
	bp.AddBlockProcessedHandler(func(_ externalapi.Block, blockHash externalapi.DomainHash, result externalapi.ProcessResult) {
		recorder.Lock()
		defer recorder.Unlock()
		recorder.results[blockHash] = append(recorder.results[blockHash], result)
	})
	bp.AddBlockRolledBackHandler(func(_ externalapi.Block, blockHash externalapi.DomainHash) {
		recorder.Lock()
		defer recorder.Unlock()
		recorder.rolledBack = append(recorder.rolledBack, blockHash)
	})
	return recorder
}

func (r *resultRecorder) resultsOf(blockHash externalapi.DomainHash) []externalapi.ProcessResult {
	r.Lock()
	defer r.Unlock()
	return append([]externalapi.ProcessResult(nil), r.results[blockHash]...)
}

type testSetup struct {
	dbManager model.DBManager
	ledger    model.Ledger
	stores    *testledger.Stores
	processor model.BlockProcessor
	cementing model.ConfirmationHeightProcessor
	recorder  *resultRecorder
	genesis   *testutils.AccountChain
}

func setup(t *testing.T, testName string) (*testSetup, func()) {
	return setupWithParams(t, testName, testutils.SimnetParams())
}

func setupWithParams(t *testing.T, testName string, params *latticeconfig.Params) (*testSetup, func()) {
	dbManager, teardownDB := testutils.NewTestDatabase(t, testName, testutils.DatabaseTypeLevelDB)
	l, stores := testledger.New(t, dbManager, params)
	// The cementing worker is never started, so queued blocks stay queued
	cementing := confirmationheight.New(params, dbManager, l, stores.ConfirmationHeight, stores.Commitment,
		model.ConfirmationHeightModeAutomatic, 0)
	processor := New(params, dbManager, l, stores.Unchecked, cementing, 4)
	recorder := newResultRecorder(processor)
	processor.Start()

	ts := &testSetup{
		dbManager: dbManager,
		ledger:    l,
		stores:    stores,
		processor: processor,
		cementing: cementing,
		recorder:  recorder,
		genesis:   testutils.NewGenesisChain(t, params),
	}
	return ts, func() {
		processor.Stop()
		cementing.Stop()
		teardownDB()
	}
}

func (ts *testSetup) exists(t *testing.T, block externalapi.Block) bool {
	exists, err := ts.ledger.BlockExists(ts.dbManager, hashing.BlockHash(block))
	if err != nil {
		t.Fatalf("BlockExists: %s", err)
	}
	return exists
}

func TestOutOfOrderBlocksConverge(t *testing.T) {
	ts, teardown := setup(t, "TestOutOfOrderBlocksConverge")
	defer teardown()

	receiver := testutils.NewAccountChain(t, ts.genesis.Params)
	first := ts.genesis.Send(t, receiver.Account(), 10)
	second := ts.genesis.Send(t, receiver.Account(), 20)
	open := receiver.Receive(t, hashing.BlockHash(first), 10)
	receive := receiver.Receive(t, hashing.BlockHash(second), 20)

	for _, block := range []externalapi.Block{receive, open, second, first} {
		ts.processor.Add(block)
	}
	ts.processor.Flush()

	for _, block := range []externalapi.Block{first, second, open, receive} {
		if !ts.exists(t, block) {
			t.Fatalf("TestOutOfOrderBlocksConverge: block %s was not added", hashing.BlockHash(block))
		}
	}
	uncheckedCount, err := ts.stores.Unchecked.Count(ts.dbManager)
	if err != nil {
		t.Fatalf("TestOutOfOrderBlocksConverge: Count: %s", err)
	}
	if uncheckedCount != 0 {
		t.Fatalf("TestOutOfOrderBlocksConverge: %d blocks left unchecked", uncheckedCount)
	}

	openResults := ts.recorder.resultsOf(hashing.BlockHash(open))
	if len(openResults) != 2 || openResults[0] != externalapi.ResultGapSource ||
		openResults[1] != externalapi.ResultProgress {
		t.Fatalf("TestOutOfOrderBlocksConverge: unexpected results for the open: %v", openResults)
	}
	secondResults := ts.recorder.resultsOf(hashing.BlockHash(second))
	if len(secondResults) != 2 || secondResults[0] != externalapi.ResultGapPrevious {
		t.Fatalf("TestOutOfOrderBlocksConverge: unexpected results for the second send: %v", secondResults)
	}
	balance, err := ts.ledger.Balance(ts.dbManager, receiver.Account())
	if err != nil {
		t.Fatalf("TestOutOfOrderBlocksConverge: Balance: %s", err)
	}
	if balance.Uint64() != 30 {
		t.Fatalf("TestOutOfOrderBlocksConverge: expected a balance of 30 but got %s", balance.Dec())
	}
}

func TestProcessReturnsResult(t *testing.T) {
	ts, teardown := setup(t, "TestProcessReturnsResult")
	defer teardown()

	fork := ts.genesis.Clone()
	send := ts.genesis.Send(t, testutils.AccountFromByte(1), 10)
	competitor := fork.Send(t, testutils.AccountFromByte(2), 10)

	tests := []struct {
		block    externalapi.Block
		expected externalapi.ProcessResult
	}{
		{block: send, expected: externalapi.ResultProgress},
		{block: send, expected: externalapi.ResultOld},
		{block: competitor, expected: externalapi.ResultFork},
	}
	for i, test := range tests {
		result, err := ts.processor.Process(test.block)
		if err != nil {
			t.Fatalf("TestProcessReturnsResult: test %d: Process: %s", i, err)
		}
		if result != test.expected {
			t.Fatalf("TestProcessReturnsResult: test %d: expected %s but got %s", i, test.expected, result)
		}
	}
}

func TestInsufficientWork(t *testing.T) {
	params := testutils.SimnetParams()
	params.WorkThresholdEpoch0 = 1 << 63
	params.WorkThresholdEpoch1Send = 3 << 62
	params.WorkThresholdEpoch1Receive = 1 << 60
	ts, teardown := setupWithParams(t, "TestInsufficientWork", params)
	defer teardown()

	withWork := func(block *externalapi.StateBlock, low uint64, high uint64) *externalapi.StateBlock {
		for nonce := uint64(0); nonce < 1<<20; nonce++ {
			value := work.Value(block.Root(), nonce)
			if value >= low && value < high {
				block.Work = nonce
				return block
			}
		}
		t.Fatalf("TestInsufficientWork: found no nonce in [%d, %d)", low, high)
		return nil
	}

	tests := []struct {
		name  string
		block externalapi.Block
	}{
		{
			name:  "under every threshold",
			block: withWork(ts.genesis.Clone().Send(t, testutils.AccountFromByte(1), 10), 0, params.MinimumWorkThreshold()),
		},
		{
			name: "under the epoch_0 threshold",
			block: withWork(ts.genesis.Clone().Send(t, testutils.AccountFromByte(1), 10),
				params.MinimumWorkThreshold(), params.WorkThresholdEpoch0),
		},
	}
	for _, test := range tests {
		result, err := ts.processor.Process(test.block)
		if err != nil {
			t.Fatalf("TestInsufficientWork: %s: Process: %s", test.name, err)
		}
		if result != externalapi.ResultInsufficientWork {
			t.Fatalf("TestInsufficientWork: %s: expected %s but got %s", test.name,
				externalapi.ResultInsufficientWork, result)
		}
		if ts.exists(t, test.block) {
			t.Fatalf("TestInsufficientWork: %s: the block was added to the ledger", test.name)
		}
	}

	result, err := ts.processor.Process(ts.genesis.Send(t, testutils.AccountFromByte(1), 10))
	if err != nil || result != externalapi.ResultProgress {
		t.Fatalf("TestInsufficientWork: Process: %s, %v", result, err)
	}
}

func TestForceReplacesFork(t *testing.T) {
	ts, teardown := setup(t, "TestForceReplacesFork")
	defer teardown()

	fork := ts.genesis.Clone()
	receiver := testutils.NewAccountChain(t, ts.genesis.Params)
	send := ts.genesis.Send(t, receiver.Account(), 10)
	open := receiver.Receive(t, hashing.BlockHash(send), 10)
	competitor := fork.Send(t, testutils.AccountFromByte(2), 10)

	for _, block := range []externalapi.Block{send, open} {
		result, err := ts.processor.Process(block)
		if err != nil || result != externalapi.ResultProgress {
			t.Fatalf("TestForceReplacesFork: Process: %s, %s", result, err)
		}
	}

	result, err := ts.processor.Force(competitor)
	if err != nil {
		t.Fatalf("TestForceReplacesFork: Force: %s", err)
	}
	if result != externalapi.ResultProgress {
		t.Fatalf("TestForceReplacesFork: expected the forced block to be accepted but got %s", result)
	}
	if ts.exists(t, send) || ts.exists(t, open) {
		t.Fatalf("TestForceReplacesFork: the replaced blocks are still in the ledger")
	}
	if !ts.exists(t, competitor) {
		t.Fatalf("TestForceReplacesFork: the forced block is not in the ledger")
	}

	ts.recorder.Lock()
	rolledBack := append([]externalapi.DomainHash(nil), ts.recorder.rolledBack...)
	ts.recorder.Unlock()
	if len(rolledBack) != 2 || rolledBack[0] != hashing.BlockHash(open) || rolledBack[1] != hashing.BlockHash(send) {
		t.Fatalf("TestForceReplacesFork: unexpected rolled back blocks %v", rolledBack)
	}
}

func TestForceRefusesCemented(t *testing.T) {
	ts, teardown := setup(t, "TestForceRefusesCemented")
	defer teardown()

	fork := ts.genesis.Clone()
	send := ts.genesis.Send(t, testutils.AccountFromByte(1), 10)
	competitor := fork.Send(t, testutils.AccountFromByte(2), 10)

	result, err := ts.processor.Process(send)
	if err != nil || result != externalapi.ResultProgress {
		t.Fatalf("TestForceRefusesCemented: Process: %s, %s", result, err)
	}
	err = database.Update(ts.dbManager, model.WriterTesting, func(dbTx model.DBTransaction) error {
		return ts.stores.ConfirmationHeight.Put(dbTx, ts.genesis.Account(), externalapi.ConfirmationHeightInfo{
			Height:   2,
			Frontier: hashing.BlockHash(send),
		})
	})
	if err != nil {
		t.Fatalf("TestForceRefusesCemented: Put: %s", err)
	}

	result, err = ts.processor.Force(competitor)
	if err != nil {
		t.Fatalf("TestForceRefusesCemented: Force: %s", err)
	}
	if result != externalapi.ResultFork {
		t.Fatalf("TestForceRefusesCemented: expected fork but got %s", result)
	}
	if !ts.exists(t, send) {
		t.Fatalf("TestForceRefusesCemented: the cemented block was rolled back")
	}
}

func TestForceRefusesBlocksBeingCemented(t *testing.T) {
	tests := []struct {
		name   string
		queued func(send, open externalapi.Block) externalapi.DomainHash
	}{
		{
			name:   "replaced block queued",
			queued: func(send, _ externalapi.Block) externalapi.DomainHash { return hashing.BlockHash(send) },
		},
		{
			name:   "dependent receive queued",
			queued: func(_, open externalapi.Block) externalapi.DomainHash { return hashing.BlockHash(open) },
		},
	}

	for _, test := range tests {
		func() {
			ts, teardown := setup(t, "TestForceRefusesBlocksBeingCemented")
			defer teardown()

			fork := ts.genesis.Clone()
			receiver := testutils.NewAccountChain(t, ts.genesis.Params)
			send := ts.genesis.Send(t, receiver.Account(), 10)
			open := receiver.Receive(t, hashing.BlockHash(send), 10)
			competitor := fork.Send(t, testutils.AccountFromByte(2), 10)

			for _, block := range []externalapi.Block{send, open} {
				result, err := ts.processor.Process(block)
				if err != nil || result != externalapi.ResultProgress {
					t.Fatalf("TestForceRefusesBlocksBeingCemented: %s: Process: %s, %s", test.name, result, err)
				}
			}
			ts.cementing.Add(test.queued(send, open))

			result, err := ts.processor.Force(competitor)
			if err != nil {
				t.Fatalf("TestForceRefusesBlocksBeingCemented: %s: Force: %s", test.name, err)
			}
			if result != externalapi.ResultFork {
				t.Fatalf("TestForceRefusesBlocksBeingCemented: %s: expected fork but got %s", test.name, result)
			}
			if !ts.exists(t, send) || !ts.exists(t, open) {
				t.Fatalf("TestForceRefusesBlocksBeingCemented: %s: a block queued for cementing was rolled back",
					test.name)
			}
			if ts.exists(t, competitor) {
				t.Fatalf("TestForceRefusesBlocksBeingCemented: %s: the forced block was inserted", test.name)
			}

			ts.recorder.Lock()
			rolledBack := len(ts.recorder.rolledBack)
			ts.recorder.Unlock()
			if rolledBack != 0 {
				t.Fatalf("TestForceRefusesBlocksBeingCemented: %s: %d blocks were reported rolled back",
					test.name, rolledBack)
			}
		}()
	}
}

func TestStoppedProcessor(t *testing.T) {
	ts, teardown := setup(t, "TestStoppedProcessor")
	defer teardown()

	ts.processor.Stop()
	_, err := ts.processor.Process(ts.genesis.Send(t, testutils.AccountFromByte(1), 1))
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("TestStoppedProcessor: expected ErrStopped but got %v", err)
	}
	ts.processor.Flush()
}
