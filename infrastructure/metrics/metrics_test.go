package metrics

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/orvnet/orvd/domain/lattice"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/hashing"
	"github.com/orvnet/orvd/domain/lattice/utils/signing"
	"github.com/orvnet/orvd/domain/lattice/utils/testutils"
	dto "github.com/prometheus/client_model/go"
)

func newTestLattice(t *testing.T, testName string) (lattice.Lattice, func()) {
	dbManager, teardown := testutils.NewTestDatabase(t, testName, testutils.DatabaseTypeLevelDB)
	params := testutils.SimnetParams()
	keyPair, err := signing.KeyPairFromPrivateKey(params.GenesisPrivateKey)
	if err != nil {
		t.Fatalf("%s: KeyPairFromPrivateKey: %s", testName, err)
	}
	l, err := lattice.NewFactory().NewLattice(&lattice.Config{
		Params:                 params,
		ConfirmationHeightMode: model.ConfirmationHeightModeUnbounded,
		RepresentativeKey:      keyPair,
	}, dbManager, nil)
	if err != nil {
		t.Fatalf("%s: NewLattice: %s", testName, err)
	}
	l.Start()
	return l, func() {
		l.Stop()
		teardown()
	}
}

func metricValue(t *testing.T, m *Metrics, name string, label string) float64 {
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %s", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if label != "" && !hasLabelValue(metric, label) {
				continue
			}
			switch {
			case metric.GetCounter() != nil:
				return metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				return metric.GetGauge().GetValue()
			}
		}
	}
	return 0
}

func hasLabelValue(metric *dto.Metric, value string) bool {
	for _, label := range metric.GetLabel() {
		if label.GetValue() == value {
			return true
		}
	}
	return false
}

func TestMetrics(t *testing.T) {
	l, teardown := newTestLattice(t, "TestMetrics")
	defer teardown()

	m := New(l)
	defer m.Close()

	if metricValue(t, m, "orvd_ledger_blocks", "") != 1 {
		t.Fatalf("TestMetrics: expected the genesis block to be counted")
	}

	params := testutils.SimnetParams()
	genesis := testutils.NewGenesisChain(t, params)
	send := genesis.Send(t, testutils.AccountFromByte(3), 10)
	result, err := l.ProcessBlock(send)
	if err != nil {
		t.Fatalf("TestMetrics: ProcessBlock: %s", err)
	}
	if result != externalapi.ResultProgress {
		t.Fatalf("TestMetrics: expected progress but got %s", result)
	}
	result, err = l.ProcessBlock(send)
	if err != nil {
		t.Fatalf("TestMetrics: ProcessBlock: %s", err)
	}
	if result != externalapi.ResultOld {
		t.Fatalf("TestMetrics: expected old but got %s", result)
	}

	sendHash := hashing.BlockHash(send)
	deadline := time.Now().Add(10 * time.Second)
	for {
		cemented, err := l.IsCemented(sendHash)
		if err != nil {
			t.Fatalf("TestMetrics: IsCemented: %s", err)
		}
		if cemented {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("TestMetrics: timed out waiting for the send to be cemented")
		}
		time.Sleep(10 * time.Millisecond)
	}
	l.Flush()

	invalidVote := &externalapi.Vote{
		Account:  testutils.AccountFromByte(4),
		Sequence: 1,
		Hashes:   []externalapi.DomainHash{sendHash},
	}
	code := l.ProcessVote(invalidVote, "peer")
	if code != externalapi.VoteCodeInvalid {
		t.Fatalf("TestMetrics: expected an unsigned vote to be invalid but got %s", code)
	}

	tests := []struct {
		name     string
		label    string
		expected float64
	}{
		{name: "orvd_processed_blocks_total", label: externalapi.ResultProgress.String(), expected: 1},
		{name: "orvd_processed_blocks_total", label: externalapi.ResultOld.String(), expected: 1},
		{name: "orvd_confirmed_elections_total", expected: 1},
		{name: "orvd_cemented_blocks_total", expected: 1},
		{name: "orvd_votes_total", label: externalapi.VoteCodeInvalid.String(), expected: 1},
		{name: "orvd_ledger_blocks", expected: 2},
		{name: "orvd_ledger_cemented_blocks", expected: 2},
		{name: "orvd_unchecked_blocks", expected: 0},
	}
	for _, test := range tests {
		value := metricValue(t, m, test.name, test.label)
		if value != test.expected {
			t.Fatalf("TestMetrics: expected %s{%s} to be %f but got %f", test.name, test.label, test.expected, value)
		}
	}
}

func TestServer(t *testing.T) {
	l, teardown := newTestLattice(t, "TestServer")
	defer teardown()

	m := New(l)
	defer m.Close()

	server, err := NewServer("127.0.0.1:0", m)
	if err != nil {
		t.Fatalf("TestServer: NewServer: %s", err)
	}
	server.Start()
	defer server.Stop()

	response, err := http.Get("http://" + server.Address() + "/metrics")
	if err != nil {
		t.Fatalf("TestServer: Get: %s", err)
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("TestServer: ReadAll: %s", err)
	}
	if !strings.Contains(string(body), "orvd_ledger_accounts 1") {
		t.Fatalf("TestServer: expected the account gauge in the response, got:\n%s", body)
	}
}
