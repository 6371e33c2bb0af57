// Package testledger builds ledgers on top of test databases for the tests
// of the processes that drive a ledger.
package testledger

import (
	"testing"

	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/datastructures/accountstore"
	"github.com/orvnet/orvd/domain/lattice/datastructures/blockstore"
	"github.com/orvnet/orvd/domain/lattice/datastructures/commitmentstore"
	"github.com/orvnet/orvd/domain/lattice/datastructures/confirmationheightstore"
	"github.com/orvnet/orvd/domain/lattice/datastructures/pendingstore"
	"github.com/orvnet/orvd/domain/lattice/datastructures/representationstore"
	"github.com/orvnet/orvd/domain/lattice/datastructures/uncheckedstore"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/processes/ledger"
	"github.com/orvnet/orvd/domain/latticeconfig"
	"github.com/orvnet/orvd/util/mstime"
)

// Stores are the stores a test ledger is built on
type Stores struct {
	Blocks             model.BlockStore
	Accounts           model.AccountStore
	Pending            model.PendingStore
	Representation     model.RepresentationStore
	ConfirmationHeight model.ConfirmationHeightStore
	Commitment         model.CommitmentStore
	Unchecked          model.UncheckedStore
}

// New returns a ledger over dbManager with the genesis block of params
// already inserted
func New(t testing.TB, dbManager model.DBManager, params *latticeconfig.Params) (model.Ledger, *Stores) {
	stores := &Stores{
		Blocks:             blockstore.New(),
		Accounts:           accountstore.New(),
		Pending:            pendingstore.New(),
		Representation:     representationstore.New(),
		ConfirmationHeight: confirmationheightstore.New(),
		Commitment:         commitmentstore.New(),
		Unchecked:          uncheckedstore.New(),
	}
	l := ledger.New(params, stores.Blocks, stores.Accounts, stores.Pending, stores.Representation,
		stores.ConfirmationHeight, stores.Commitment, model.NewLedgerCache(0, 0, 0),
		mstime.UnixMilli)

	err := database.Update(dbManager, model.WriterTesting, l.InitializeGenesis)
	if err != nil {
		t.Fatalf("testledger.New: InitializeGenesis: %s", err)
	}
	return l, stores
}
