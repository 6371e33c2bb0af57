package elections

import (
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/processes/blockprocessor"
	"github.com/orvnet/orvd/domain/lattice/utils/hashing"
	"github.com/orvnet/orvd/domain/lattice/utils/testutils"
	"github.com/orvnet/orvd/domain/lattice/utils/testutils/testledger"
)

type fakeOnlineWeight struct {
	delta uint256.Int

	// elections, when set, is checked to be unlocked whenever the delta is read
	elections       *elections
	deltaReads      int
	deltaReadLocked int
}

func (f *fakeOnlineWeight) Start()                        {}
func (f *fakeOnlineWeight) Stop()                         {}
func (f *fakeOnlineWeight) Observe(_ externalapi.Account) {}
func (f *fakeOnlineWeight) Sample() error                 { return nil }
func (f *fakeOnlineWeight) Online() uint256.Int           { return f.delta }
func (f *fakeOnlineWeight) Trended() uint256.Int          { return f.delta }

func (f *fakeOnlineWeight) Delta() uint256.Int {
	if f.elections != nil {
		f.deltaReads++
		if f.elections.mtx.TryLock() {
			f.elections.mtx.Unlock()
		} else {
			f.deltaReadLocked++
		}
	}
	return f.delta
}

type fakeConfirmationHeight struct {
	added chan externalapi.DomainHash
}

func (f *fakeConfirmationHeight) Start()                                   {}
func (f *fakeConfirmationHeight) Stop()                                    {}
func (f *fakeConfirmationHeight) Add(blockHash externalapi.DomainHash)     { f.added <- blockHash }
func (f *fakeConfirmationHeight) IsProcessing(externalapi.DomainHash) bool { return false }
func (f *fakeConfirmationHeight) AwaitingProcessingSize() int              { return 0 }
func (f *fakeConfirmationHeight) Flush()                                   {}

func (f *fakeConfirmationHeight) AddBlockCementedHandler(model.BlockCementedHandler) {}

func (f *fakeConfirmationHeight) GuardRollback(
	fn func(isBeingCemented func(blockHash externalapi.DomainHash) bool) error) error {

	return fn(f.IsProcessing)
}

type eventRecorder struct {
	sync.Mutex
	events []externalapi.Event
}

func (r *eventRecorder) Publish(event externalapi.Event) {
	r.Lock()
	defer r.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) confirmed() []*externalapi.ElectionConfirmedEvent {
	r.Lock()
	defer r.Unlock()
	var confirmed []*externalapi.ElectionConfirmedEvent
	for _, event := range r.events {
		if e, ok := event.(*externalapi.ElectionConfirmedEvent); ok {
			confirmed = append(confirmed, e)
		}
	}
	return confirmed
}

func (r *eventRecorder) waitForConfirmations(t *testing.T, count int) []*externalapi.ElectionConfirmedEvent {
	deadline := time.Now().Add(10 * time.Second)
	for {
		confirmed := r.confirmed()
		if len(confirmed) >= count {
			return confirmed
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d confirmation events, got %d", count, len(confirmed))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

type testSetup struct {
	dbManager          model.DBManager
	ledger             model.Ledger
	processor          model.BlockProcessor
	elections          model.Elections
	onlineWeight       *fakeOnlineWeight
	confirmationHeight *fakeConfirmationHeight
	events             *eventRecorder
	genesis            *testutils.AccountChain
}

func setup(t *testing.T, testName string) (*testSetup, func()) {
	dbManager, teardownDB := testutils.NewTestDatabase(t, testName, testutils.DatabaseTypeLevelDB)
	params := testutils.SimnetParams()
	l, stores := testledger.New(t, dbManager, params)
	confirmationHeight := &fakeConfirmationHeight{added: make(chan externalapi.DomainHash, 16)}
	processor := blockprocessor.New(params, dbManager, l, stores.Unchecked, confirmationHeight, 0)
	processor.Start()

	var delta uint256.Int
	delta.Div(&params.GenesisAmount, uint256.NewInt(2))
	ts := &testSetup{
		dbManager:          dbManager,
		ledger:             l,
		processor:          processor,
		onlineWeight:       &fakeOnlineWeight{delta: delta},
		confirmationHeight: confirmationHeight,
		events:             &eventRecorder{},
		genesis:            testutils.NewGenesisChain(t, params),
	}
	ts.elections = New(params, dbManager, l, processor, ts.confirmationHeight, ts.onlineWeight, nil, nil, ts.events)
	processor.AddBlockRolledBackHandler(func(_ externalapi.Block, blockHash externalapi.DomainHash) {
		ts.elections.BlockRolledBack(blockHash)
	})
	return ts, func() {
		ts.elections.Stop()
		processor.Stop()
		teardownDB()
	}
}

func (ts *testSetup) mustProcess(t *testing.T, block externalapi.Block) {
	result, err := ts.processor.Process(block)
	if err != nil || result != externalapi.ResultProgress {
		t.Fatalf("Process of %s: %s, %v", hashing.BlockHash(block), result, err)
	}
}

func (ts *testSetup) expectCementRequest(t *testing.T, expected externalapi.DomainHash) {
	select {
	case added := <-ts.confirmationHeight.added:
		if added != expected {
			t.Fatalf("expected %s to be sent for cementing but got %s", expected, added)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("timed out waiting for %s to be sent for cementing", expected)
	}
}

func vote(account externalapi.Account, sequence uint64, hashes ...externalapi.DomainHash) *externalapi.Vote {
	return &externalapi.Vote{Account: account, Sequence: sequence, Hashes: hashes}
}

func TestQuorumConfirmsElection(t *testing.T) {
	ts, teardown := setup(t, "TestQuorumConfirmsElection")
	defer teardown()

	send := ts.genesis.Send(t, testutils.AccountFromByte(1), 10)
	sendHash := hashing.BlockHash(send)
	ts.mustProcess(t, send)

	inserted, err := ts.elections.Insert(send)
	if err != nil || !inserted {
		t.Fatalf("TestQuorumConfirmsElection: Insert: %t, %v", inserted, err)
	}
	if !ts.elections.Active(send.Root()) || !ts.elections.ActiveByHash(sendHash) || ts.elections.Size() != 1 {
		t.Fatalf("TestQuorumConfirmsElection: the election is not active")
	}

	code := ts.elections.Vote(vote(ts.genesis.Account(), 1, sendHash))
	if code != externalapi.VoteCodeVote {
		t.Fatalf("TestQuorumConfirmsElection: expected vote but got %s", code)
	}
	ts.expectCementRequest(t, sendHash)

	status, ok := ts.elections.Status(send.Root())
	if !ok || !status.Confirmed || status.Leader != sendHash || status.VoterCount != 1 {
		t.Fatalf("TestQuorumConfirmsElection: unexpected status %+v", status)
	}
	confirmed := ts.events.waitForConfirmations(t, 1)
	if len(confirmed) != 1 || confirmed[0].Hash != sendHash || len(confirmed[0].Tally) != 1 {
		t.Fatalf("TestQuorumConfirmsElection: unexpected confirmation events %+v", confirmed)
	}

	ts.elections.BlockCemented(sendHash)
	if ts.elections.Active(send.Root()) {
		t.Fatalf("TestQuorumConfirmsElection: the election outlived the cementing of its winner")
	}
	if len(ts.events.confirmed()) != 1 {
		t.Fatalf("TestQuorumConfirmsElection: a confirmed election was confirmed again")
	}
}

func TestVoteReplay(t *testing.T) {
	ts, teardown := setup(t, "TestVoteReplay")
	defer teardown()

	receiver := testutils.NewAccountChain(t, ts.genesis.Params)
	send := ts.genesis.Send(t, receiver.Account(), 100)
	ts.mustProcess(t, send)
	open := receiver.Receive(t, hashing.BlockHash(send), 100)
	ts.mustProcess(t, open)

	next := ts.genesis.Send(t, testutils.AccountFromByte(1), 10)
	nextHash := hashing.BlockHash(next)
	ts.mustProcess(t, next)
	_, err := ts.elections.Insert(next)
	if err != nil {
		t.Fatalf("TestVoteReplay: Insert: %s", err)
	}

	tests := []struct {
		sequence uint64
		expected externalapi.VoteCode
	}{
		{sequence: 5, expected: externalapi.VoteCodeVote},
		{sequence: 5, expected: externalapi.VoteCodeReplay},
		{sequence: 4, expected: externalapi.VoteCodeReplay},
		{sequence: 6, expected: externalapi.VoteCodeVote},
	}
	for i, test := range tests {
		code := ts.elections.Vote(vote(receiver.Account(), test.sequence, nextHash))
		if code != test.expected {
			t.Fatalf("TestVoteReplay: test %d: expected %s but got %s", i, test.expected, code)
		}
	}

	status, _ := ts.elections.Status(next.Root())
	if status.Confirmed {
		t.Fatalf("TestVoteReplay: 100 raw confirmed the election")
	}
	if len(status.Tally) != 1 || status.Tally[0].Weight.Uint64() != 100 {
		t.Fatalf("TestVoteReplay: unexpected tally %+v", status.Tally)
	}

	unknown := ts.elections.Vote(vote(receiver.Account(), 7, testutils.HashFromByte(9)))
	if unknown != externalapi.VoteCodeIndeterminate {
		t.Fatalf("TestVoteReplay: expected indeterminate but got %s", unknown)
	}
}

func TestForkWinnerReplacesLedgerBlock(t *testing.T) {
	ts, teardown := setup(t, "TestForkWinnerReplacesLedgerBlock")
	defer teardown()

	fork := ts.genesis.Clone()
	local := ts.genesis.Send(t, testutils.AccountFromByte(1), 10)
	remote := fork.Send(t, testutils.AccountFromByte(2), 20)
	remoteHash := hashing.BlockHash(remote)
	ts.mustProcess(t, local)

	_, err := ts.elections.Insert(local)
	if err != nil {
		t.Fatalf("TestForkWinnerReplacesLedgerBlock: Insert: %s", err)
	}
	if !ts.elections.Publish(remote) {
		t.Fatalf("TestForkWinnerReplacesLedgerBlock: Publish found no election")
	}
	status, _ := ts.elections.Status(local.Root())
	if status.Leader != hashing.BlockHash(local) {
		t.Fatalf("TestForkWinnerReplacesLedgerBlock: the first candidate should lead before any vote")
	}

	ts.elections.Vote(vote(ts.genesis.Account(), 1, remoteHash))
	ts.expectCementRequest(t, remoteHash)

	exists, err := ts.ledger.BlockExists(ts.dbManager, remoteHash)
	if err != nil || !exists {
		t.Fatalf("TestForkWinnerReplacesLedgerBlock: the winner is not in the ledger: %t, %v", exists, err)
	}
	exists, err = ts.ledger.BlockExists(ts.dbManager, hashing.BlockHash(local))
	if err != nil || exists {
		t.Fatalf("TestForkWinnerReplacesLedgerBlock: the loser is still in the ledger: %t, %v", exists, err)
	}
}

func TestRolledBackBlocksLeaveElections(t *testing.T) {
	ts, teardown := setup(t, "TestRolledBackBlocksLeaveElections")
	defer teardown()

	fork := ts.genesis.Clone()
	receiver := testutils.NewAccountChain(t, ts.genesis.Params)
	send := ts.genesis.Send(t, receiver.Account(), 10)
	sendHash := hashing.BlockHash(send)
	open := receiver.Receive(t, sendHash, 10)
	competitor := fork.Send(t, testutils.AccountFromByte(2), 10)
	competitorHash := hashing.BlockHash(competitor)

	for _, block := range []externalapi.Block{send, open} {
		ts.mustProcess(t, block)
		_, err := ts.elections.Insert(block)
		if err != nil {
			t.Fatalf("TestRolledBackBlocksLeaveElections: Insert: %s", err)
		}
	}
	if !ts.elections.Publish(competitor) {
		t.Fatalf("TestRolledBackBlocksLeaveElections: Publish found no election")
	}
	if ts.elections.Size() != 2 {
		t.Fatalf("TestRolledBackBlocksLeaveElections: expected 2 elections but got %d", ts.elections.Size())
	}

	result, err := ts.processor.Force(competitor)
	if err != nil || result != externalapi.ResultProgress {
		t.Fatalf("TestRolledBackBlocksLeaveElections: Force: %s, %v", result, err)
	}

	if ts.elections.Active(open.Root()) || ts.elections.ActiveByHash(hashing.BlockHash(open)) {
		t.Fatalf("TestRolledBackBlocksLeaveElections: the election of the rolled back open is still active")
	}
	if ts.elections.ActiveByHash(sendHash) {
		t.Fatalf("TestRolledBackBlocksLeaveElections: the rolled back send is still a candidate")
	}
	if ts.elections.Size() != 1 {
		t.Fatalf("TestRolledBackBlocksLeaveElections: expected 1 election but got %d", ts.elections.Size())
	}
	status, ok := ts.elections.Status(send.Root())
	if !ok || status.Leader != competitorHash {
		t.Fatalf("TestRolledBackBlocksLeaveElections: expected %s to lead but got %+v", competitorHash, status)
	}

	// A vote for the withdrawn candidate is no longer counted
	ts.elections.Vote(vote(ts.genesis.Account(), 1, sendHash))
	status, _ = ts.elections.Status(send.Root())
	if status.Confirmed || len(status.Tally) != 0 {
		t.Fatalf("TestRolledBackBlocksLeaveElections: a vote for a rolled back block counted: %+v", status)
	}
}

func TestQuorumDeltaReadOutsideLock(t *testing.T) {
	ts, teardown := setup(t, "TestQuorumDeltaReadOutsideLock")
	defer teardown()
	ts.onlineWeight.elections = ts.elections.(*elections)

	send := ts.genesis.Send(t, testutils.AccountFromByte(1), 10)
	sendHash := hashing.BlockHash(send)
	ts.mustProcess(t, send)

	ts.elections.Vote(vote(ts.genesis.Account(), 1, sendHash))
	_, err := ts.elections.Insert(send)
	if err != nil {
		t.Fatalf("TestQuorumDeltaReadOutsideLock: Insert: %s", err)
	}
	ts.expectCementRequest(t, sendHash)

	if ts.onlineWeight.deltaReads == 0 {
		t.Fatalf("TestQuorumDeltaReadOutsideLock: the quorum delta was never read")
	}
	if ts.onlineWeight.deltaReadLocked != 0 {
		t.Fatalf("TestQuorumDeltaReadOutsideLock: the quorum delta was read %d times under the elections lock",
			ts.onlineWeight.deltaReadLocked)
	}
}

func TestCachedVotesApplyToNewElections(t *testing.T) {
	ts, teardown := setup(t, "TestCachedVotesApplyToNewElections")
	defer teardown()

	send := ts.genesis.Send(t, testutils.AccountFromByte(1), 10)
	sendHash := hashing.BlockHash(send)
	ts.mustProcess(t, send)

	code := ts.elections.Vote(vote(ts.genesis.Account(), 1, sendHash))
	if code != externalapi.VoteCodeIndeterminate {
		t.Fatalf("TestCachedVotesApplyToNewElections: expected indeterminate but got %s", code)
	}
	_, err := ts.elections.Insert(send)
	if err != nil {
		t.Fatalf("TestCachedVotesApplyToNewElections: Insert: %s", err)
	}
	ts.expectCementRequest(t, sendHash)
}

func TestTallyOrder(t *testing.T) {
	first := testutils.HashFromByte(1)
	second := testutils.HashFromByte(2)
	third := testutils.HashFromByte(3)
	e := newElection(testutils.HashFromByte(0), nil, first)
	e.candidates[second] = nil
	e.candidates[third] = nil
	e.lastVotes[testutils.AccountFromByte(1)] = voteInfo{hash: second, weight: *uint256.NewInt(50)}
	e.lastVotes[testutils.AccountFromByte(2)] = voteInfo{hash: first, weight: *uint256.NewInt(30)}
	e.lastVotes[testutils.AccountFromByte(3)] = voteInfo{hash: first, weight: *uint256.NewInt(20)}
	e.lastVotes[testutils.AccountFromByte(4)] = voteInfo{hash: third, weight: *uint256.NewInt(10)}

	tally := e.tally()
	expected := []externalapi.DomainHash{first, second, third}
	if len(tally) != len(expected) {
		t.Fatalf("TestTallyOrder: expected %d entries but got %d", len(expected), len(tally))
	}
	for i, entry := range tally {
		if entry.Hash != expected[i] {
			t.Fatalf("TestTallyOrder: entry %d is %s, expected %s", i, entry.Hash, expected[i])
		}
	}
	if tally[0].Weight.Uint64() != 50 || tally[1].Weight.Uint64() != 50 {
		t.Fatalf("TestTallyOrder: unexpected weights %+v", tally)
	}
}

type recordingNetwork struct {
	sync.Mutex
	floods      []externalapi.DomainHash
	confirmReqs map[externalapi.PeerID][]externalapi.DomainHash
}

func (n *recordingNetwork) FloodBlock(block externalapi.Block) {
	n.Lock()
	defer n.Unlock()
	n.floods = append(n.floods, hashing.BlockHash(block))
}

func (n *recordingNetwork) SendConfirmReq(block externalapi.Block, peer externalapi.PeerID) {
	n.Lock()
	defer n.Unlock()
	n.confirmReqs[peer] = append(n.confirmReqs[peer], hashing.BlockHash(block))
}

func (n *recordingNetwork) SendBlock(externalapi.Block, externalapi.PeerID) {}
func (n *recordingNetwork) SendVote(*externalapi.Vote, externalapi.PeerID)  {}
func (n *recordingNetwork) Peers() []externalapi.PeerID {
	return []externalapi.PeerID{"a", "b"}
}

func TestAnnouncements(t *testing.T) {
	ts, teardown := setup(t, "TestAnnouncements")
	defer teardown()

	params := testutils.SimnetParams()
	network := &recordingNetwork{confirmReqs: make(map[externalapi.PeerID][]externalapi.DomainHash)}
	els := New(params, ts.dbManager, ts.ledger, ts.processor, ts.confirmationHeight, ts.onlineWeight,
		nil, network, ts.events).(*elections)

	send := ts.genesis.Send(t, testutils.AccountFromByte(1), 10)
	sendHash := hashing.BlockHash(send)
	ts.mustProcess(t, send)
	inserted, err := els.Insert(send)
	if err != nil || !inserted {
		t.Fatalf("TestAnnouncements: Insert: %t, %v", inserted, err)
	}

	for round := 1; round <= params.ElectionAnnouncementThreshold; round++ {
		err := els.announce()
		if err != nil {
			t.Fatalf("TestAnnouncements: announce: %+v", err)
		}
	}
	if len(network.floods) != 1 || network.floods[0] != sendHash {
		t.Fatalf("TestAnnouncements: expected the leader to be flooded once but got %v", network.floods)
	}
	if len(network.confirmReqs) != 0 {
		t.Fatalf("TestAnnouncements: confirm requests were sent before the threshold was exceeded")
	}

	err = els.announce()
	if err != nil {
		t.Fatalf("TestAnnouncements: announce: %+v", err)
	}
	for _, peer := range network.Peers() {
		requests := network.confirmReqs[peer]
		if len(requests) != 1 || requests[0] != sendHash {
			t.Fatalf("TestAnnouncements: expected one confirm request to %s but got %v", peer, requests)
		}
	}
	status, ok := els.Status(send.Root())
	if !ok || status.Announcements != params.ElectionAnnouncementThreshold+1 {
		t.Fatalf("TestAnnouncements: unexpected election status %+v", status)
	}
}
