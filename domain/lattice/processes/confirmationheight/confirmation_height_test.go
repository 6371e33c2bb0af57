package confirmationheight

import (
	"strings"
	"sync"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/hashing"
	"github.com/orvnet/orvd/domain/lattice/utils/testutils"
	"github.com/orvnet/orvd/domain/lattice/utils/testutils/testledger"
	"github.com/orvnet/orvd/domain/latticeconfig"
)

// cascade is a three account lattice whose last block depends on every
// other block
type cascade struct {
	blocks   []externalapi.Block
	target   externalapi.DomainHash
	expected []externalapi.DomainHash
	accounts []externalapi.Account
}

func newCascade(t *testing.T, params *latticeconfig.Params) *cascade {
	genesis := testutils.NewGenesisChain(t, params)
	first := testutils.NewAccountChain(t, params)
	second := testutils.NewAccountChain(t, params)

	send1 := genesis.Send(t, first.Account(), 100)
	send2 := genesis.Send(t, first.Account(), 50)
	send3 := genesis.Send(t, second.Account(), 10)
	openSecond := second.Receive(t, hashing.BlockHash(send3), 10)
	openFirst := first.Receive(t, hashing.BlockHash(send1), 100)
	receiveFirst := first.Receive(t, hashing.BlockHash(send2), 50)
	sendFirst := first.Send(t, second.Account(), 30)
	receiveSecond := second.Receive(t, hashing.BlockHash(sendFirst), 30)

	blocks := []externalapi.Block{send1, send2, send3, openSecond, openFirst, receiveFirst, sendFirst, receiveSecond}
	expected := make([]externalapi.DomainHash, len(blocks))
	for i, block := range blocks {
		expected[i] = hashing.BlockHash(block)
	}
	return &cascade{
		blocks:   blocks,
		target:   hashing.BlockHash(receiveSecond),
		expected: expected,
		accounts: []externalapi.Account{genesis.Account(), first.Account(), second.Account()},
	}
}

type cementRecorder struct {
	sync.Mutex
	cemented []externalapi.DomainHash
}

func (r *cementRecorder) handler(_ *externalapi.BlockWithSideband, blockHash externalapi.DomainHash) {
	r.Lock()
	defer r.Unlock()
	r.cemented = append(r.cemented, blockHash)
}

func (r *cementRecorder) hashes() []externalapi.DomainHash {
	r.Lock()
	defer r.Unlock()
	return append([]externalapi.DomainHash(nil), r.cemented...)
}

type testSetup struct {
	params    *latticeconfig.Params
	dbManager model.DBManager
	ledger    model.Ledger
	stores    *testledger.Stores
	processor *confirmationHeightProcessor
	recorder  *cementRecorder
}

func setup(t *testing.T, testName string, mode model.ConfirmationHeightMode, batchSize int,
	blocks []externalapi.Block) (*testSetup, func()) {

	dbManager, teardownDB := testutils.NewTestDatabase(t, strings.ReplaceAll(testName, " ", "_"),
		testutils.DatabaseTypeLevelDB)
	params := testutils.SimnetParams()
	l, stores := testledger.New(t, dbManager, params)
	for _, block := range blocks {
		err := database.Update(dbManager, model.WriterTesting, func(dbTx model.DBTransaction) error {
			return l.Process(dbTx, block)
		})
		if err != nil {
			t.Fatalf("%s: Process: %+v\n%s", testName, err, spew.Sdump(block))
		}
	}

	recorder := &cementRecorder{}
	processor := New(params, dbManager, l, stores.ConfirmationHeight, stores.Commitment, mode, batchSize).(*confirmationHeightProcessor)
	processor.AddBlockCementedHandler(recorder.handler)
	ts := &testSetup{
		params:    params,
		dbManager: dbManager,
		ledger:    l,
		stores:    stores,
		processor: processor,
		recorder:  recorder,
	}
	return ts, func() {
		processor.Stop()
		teardownDB()
	}
}

func (ts *testSetup) commitment(t *testing.T) externalapi.DomainHash {
	commitment, err := ts.stores.Commitment.Get(ts.dbManager)
	if err != nil {
		t.Fatalf("Commitment: %s", err)
	}
	return commitment.Hash()
}

func TestCementingOrderIsIdenticalInEveryMode(t *testing.T) {
	c := newCascade(t, testutils.SimnetParams())

	tests := []struct {
		name      string
		mode      model.ConfirmationHeightMode
		batchSize int
	}{
		{name: "unbounded", mode: model.ConfirmationHeightModeUnbounded},
		{name: "bounded", mode: model.ConfirmationHeightModeBounded},
		{name: "bounded batch of 1", mode: model.ConfirmationHeightModeBounded, batchSize: 1},
		{name: "bounded batch of 3", mode: model.ConfirmationHeightModeBounded, batchSize: 3},
		{name: "automatic", mode: model.ConfirmationHeightModeAutomatic},
	}

	var expectedCommitment externalapi.DomainHash
	for i, test := range tests {
		func() {
			testName := "TestCementingOrderIsIdenticalInEveryMode: " + test.name
			ts, teardown := setup(t, testName, test.mode, test.batchSize, c.blocks)
			defer teardown()

			ts.processor.Start()
			ts.processor.Add(c.target)
			ts.processor.Flush()

			cemented := ts.recorder.hashes()
			if len(cemented) != len(c.expected) {
				t.Fatalf("%s: expected %d cemented blocks but got %d", testName, len(c.expected), len(cemented))
			}
			for j := range cemented {
				if cemented[j] != c.expected[j] {
					t.Fatalf("%s: cemented block %d is %s, expected %s", testName, j, cemented[j], c.expected[j])
				}
			}

			for _, account := range c.accounts {
				info, err := ts.ledger.AccountInfo(ts.dbManager, account)
				if err != nil {
					t.Fatalf("%s: AccountInfo: %s", testName, err)
				}
				confirmationHeight, err := ts.ledger.ConfirmationHeight(ts.dbManager, account)
				if err != nil {
					t.Fatalf("%s: ConfirmationHeight: %s", testName, err)
				}
				if confirmationHeight.Height != info.BlockCount || confirmationHeight.Frontier != info.Head {
					t.Fatalf("%s: account %s is cemented up to %+v but its head is %s at %d",
						testName, account, confirmationHeight, info.Head, info.BlockCount)
				}
			}
			if ts.ledger.Cache().CementedCount() != uint64(1+len(c.expected)) {
				t.Fatalf("%s: expected %d cemented blocks in the cache but got %d",
					testName, 1+len(c.expected), ts.ledger.Cache().CementedCount())
			}

			commitment := ts.commitment(t)
			if i == 0 {
				expectedCommitment = commitment
			} else if commitment != expectedCommitment {
				t.Fatalf("%s: commitment %s differs from %s", testName, commitment, expectedCommitment)
			}
		}()
	}
}

func TestCementingIsIdempotent(t *testing.T) {
	c := newCascade(t, testutils.SimnetParams())
	ts, teardown := setup(t, "TestCementingIsIdempotent", model.ConfirmationHeightModeUnbounded, 0, c.blocks)
	defer teardown()

	// An ancestor first, then the target, then both again
	ts.processor.Add(c.expected[1])
	if !ts.processor.IsProcessing(c.expected[1]) || ts.processor.AwaitingProcessingSize() != 1 {
		t.Fatalf("TestCementingIsIdempotent: the queued block is not awaiting processing")
	}
	ts.processor.Add(c.expected[1])
	if ts.processor.AwaitingProcessingSize() != 1 {
		t.Fatalf("TestCementingIsIdempotent: a block was queued twice")
	}
	ts.processor.Start()
	ts.processor.Flush()
	if len(ts.recorder.hashes()) != 2 {
		t.Fatalf("TestCementingIsIdempotent: expected 2 cemented blocks but got %d", len(ts.recorder.hashes()))
	}
	commitment := ts.commitment(t)

	ts.processor.Add(c.target)
	ts.processor.Flush()
	ts.processor.Add(c.target)
	ts.processor.Add(c.expected[0])
	ts.processor.Flush()

	cemented := ts.recorder.hashes()
	if len(cemented) != len(c.expected) {
		t.Fatalf("TestCementingIsIdempotent: expected %d cemented blocks but got %d:\n%s",
			len(c.expected), len(cemented), spew.Sdump(cemented))
	}
	for i := range cemented {
		if cemented[i] != c.expected[i] {
			t.Fatalf("TestCementingIsIdempotent: cemented block %d is %s, expected %s", i, cemented[i], c.expected[i])
		}
	}
	if ts.commitment(t) == commitment {
		t.Fatalf("TestCementingIsIdempotent: the commitment did not change")
	}
}

func TestCementingMissingBlock(t *testing.T) {
	ts, teardown := setup(t, "TestCementingMissingBlock", model.ConfirmationHeightModeBounded, 0, nil)
	defer teardown()

	ts.processor.Start()
	ts.processor.Add(testutils.HashFromByte(1))
	ts.processor.Flush()
	if len(ts.recorder.hashes()) != 0 {
		t.Fatalf("TestCementingMissingBlock: a missing block produced cementing events")
	}
}

func TestVanishedPlannedBlockPanics(t *testing.T) {
	ts, teardown := setup(t, "TestVanishedPlannedBlockPanics", model.ConfirmationHeightModeUnbounded, 0, nil)
	defer teardown()

	defer func() {
		if recover() == nil {
			t.Fatalf("TestVanishedPlannedBlockPanics: committing a vanished block did not panic")
		}
	}()
	_ = ts.processor.commit([]*plannedBlock{{
		hash: testutils.HashFromByte(1),
		block: &externalapi.BlockWithSideband{
			Block:    &externalapi.SendBlock{},
			Sideband: &externalapi.Sideband{Account: ts.params.GenesisAccount, Height: 2},
		},
	}})
}

func TestAutomaticModeSelection(t *testing.T) {
	c := newCascade(t, testutils.SimnetParams())
	ts, teardown := setup(t, "TestAutomaticModeSelection", model.ConfirmationHeightModeAutomatic, 0, c.blocks)
	defer teardown()

	ts.params.ConfirmationHeightUnboundedCutoff = uint64(len(c.blocks))
	if ts.processor.cementer() != model.Cementer(ts.processor.bounded) {
		t.Fatalf("TestAutomaticModeSelection: expected the bounded cementer for a backlog of %d",
			ts.ledger.Cache().UncementedCount())
	}
	ts.params.ConfirmationHeightUnboundedCutoff = uint64(len(c.blocks)) + 1
	if ts.processor.cementer() != model.Cementer(ts.processor.unbounded) {
		t.Fatalf("TestAutomaticModeSelection: expected the unbounded cementer for a backlog of %d",
			ts.ledger.Cache().UncementedCount())
	}
}
