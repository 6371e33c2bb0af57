package voteprocessor

import (
	"sync"
	"testing"

	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/signing"
	"github.com/orvnet/orvd/domain/lattice/utils/testutils"
)

// fakeElections records every vote handed to it
type fakeElections struct {
	model.Elections

	sync.Mutex
	votes []*externalapi.Vote
}

func (f *fakeElections) Vote(vote *externalapi.Vote) externalapi.VoteCode {
	f.Lock()
	defer f.Unlock()
	f.votes = append(f.votes, vote)
	return externalapi.VoteCodeVote
}

func (f *fakeElections) count() int {
	f.Lock()
	defer f.Unlock()
	return len(f.votes)
}

func signedVote(t *testing.T, keyPair *signing.KeyPair, sequence uint64, hashes ...externalapi.DomainHash) *externalapi.Vote {
	vote := &externalapi.Vote{Account: keyPair.Account(), Sequence: sequence, Hashes: hashes}
	err := keyPair.SignVote(vote)
	if err != nil {
		t.Fatalf("SignVote: %s", err)
	}
	return vote
}

func TestVoteVerification(t *testing.T) {
	keyPair, err := signing.GenerateKeyPair()
	if err != nil {
		t.Fatalf("TestVoteVerification: GenerateKeyPair: %s", err)
	}
	other, err := signing.GenerateKeyPair()
	if err != nil {
		t.Fatalf("TestVoteVerification: GenerateKeyPair: %s", err)
	}

	tampered := signedVote(t, keyPair, 1, testutils.HashFromByte(1))
	tampered.Sequence = 2
	wrongAccount := signedVote(t, keyPair, 1, testutils.HashFromByte(1))
	wrongAccount.Account = other.Account()
	tooManyHashes := make([]externalapi.DomainHash, externalapi.MaxVoteHashes+1)
	for i := range tooManyHashes {
		tooManyHashes[i] = testutils.HashFromByte(byte(i))
	}

	tests := []struct {
		name     string
		vote     *externalapi.Vote
		expected externalapi.VoteCode
	}{
		{name: "valid", vote: signedVote(t, keyPair, 1, testutils.HashFromByte(1)), expected: externalapi.VoteCodeVote},
		{name: "max hashes", vote: signedVote(t, keyPair, 2, tooManyHashes[:externalapi.MaxVoteHashes]...),
			expected: externalapi.VoteCodeVote},
		{name: "tampered sequence", vote: tampered, expected: externalapi.VoteCodeInvalid},
		{name: "wrong account", vote: wrongAccount, expected: externalapi.VoteCodeInvalid},
		{name: "no hashes", vote: signedVote(t, keyPair, 3), expected: externalapi.VoteCodeInvalid},
		{name: "too many hashes", vote: signedVote(t, keyPair, 4, tooManyHashes...), expected: externalapi.VoteCodeInvalid},
	}

	elections := &fakeElections{}
	vp := New(elections, 1, 1)
	var handled []externalapi.VoteCode
	vp.AddVoteProcessedHandler(func(_ *externalapi.Vote, code externalapi.VoteCode) {
		handled = append(handled, code)
	})
	for _, test := range tests {
		code := vp.Vote(test.vote, "peer")
		if code != test.expected {
			t.Fatalf("TestVoteVerification: %s: expected %s but got %s", test.name, test.expected, code)
		}
	}
	if elections.count() != 2 {
		t.Fatalf("TestVoteVerification: expected 2 votes to reach elections but got %d", elections.count())
	}
	if len(handled) != len(tests) {
		t.Fatalf("TestVoteVerification: expected %d handled votes but got %d", len(tests), len(handled))
	}
	for i, test := range tests {
		if handled[i] != test.expected {
			t.Fatalf("TestVoteVerification: handler got %s for %s", handled[i], test.name)
		}
	}
}

func TestVoteAsync(t *testing.T) {
	keyPair, err := signing.GenerateKeyPair()
	if err != nil {
		t.Fatalf("TestVoteAsync: GenerateKeyPair: %s", err)
	}

	const voteCount = 50
	elections := &fakeElections{}
	vp := New(elections, 4, voteCount)
	for i := 0; i < voteCount; i++ {
		if !vp.VoteAsync(signedVote(t, keyPair, uint64(i+1), testutils.HashFromByte(byte(i))), "peer") {
			t.Fatalf("TestVoteAsync: vote %d was dropped", i)
		}
	}
	if vp.VoteAsync(signedVote(t, keyPair, voteCount+1, testutils.HashFromByte(0)), "peer") {
		t.Fatalf("TestVoteAsync: a vote was queued beyond the queue size")
	}

	vp.Start()
	vp.Flush()
	if elections.count() != voteCount {
		t.Fatalf("TestVoteAsync: expected %d processed votes but got %d", voteCount, elections.count())
	}

	vp.Stop()
	if vp.VoteAsync(signedVote(t, keyPair, voteCount+2, testutils.HashFromByte(0)), "peer") {
		t.Fatalf("TestVoteAsync: a vote was queued after Stop")
	}
	vp.Flush()
}
