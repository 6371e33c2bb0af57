package blockstore

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/testutils"
)

func TestBlockStore(t *testing.T) {
	testutils.ForAllDatabaseTypes(t, "TestBlockStore", testBlockStore)
}

func testBlockStore(t *testing.T, dbManager model.DBManager, testName string) {
	store := New()
	block := &externalapi.SendBlock{
		PreviousHash: testutils.HashFromByte(1),
		Destination:  testutils.AccountFromByte(2),
		Balance:      *uint256.NewInt(10),
	}
	blockHash := testutils.HashFromByte(3)
	stored := &externalapi.BlockWithSideband{
		Block:    block,
		Sideband: &externalapi.Sideband{Account: testutils.AccountFromByte(4), Height: 2},
	}

	err := database.Update(dbManager, model.WriterTesting, func(dbTx model.DBTransaction) error {
		err := store.Put(dbTx, blockHash, stored)
		if err != nil {
			return err
		}
		// Writing the same block again must not count it twice
		err = store.Put(dbTx, blockHash, stored)
		if err != nil {
			return err
		}
		return store.SetSuccessor(dbTx, blockHash, testutils.HashFromByte(5))
	})
	if err != nil {
		t.Fatalf("%s: Update: %s", testName, err)
	}

	count, err := store.Count(dbManager)
	if err != nil {
		t.Fatalf("%s: Count: %s", testName, err)
	}
	if count != 1 {
		t.Fatalf("%s: expected 1 block but got %d", testName, count)
	}

	fetched, err := store.Block(dbManager, blockHash)
	if err != nil {
		t.Fatalf("%s: Block: %s", testName, err)
	}
	if fetched.Sideband.Successor != testutils.HashFromByte(5) {
		t.Fatalf("%s: successor was not updated", testName)
	}
	if fetched.Block.(*externalapi.SendBlock).Destination != block.Destination {
		t.Fatalf("%s: unexpected block %v", testName, fetched.Block)
	}

	err = database.Update(dbManager, model.WriterTesting, func(dbTx model.DBTransaction) error {
		return store.Delete(dbTx, blockHash)
	})
	if err != nil {
		t.Fatalf("%s: Delete: %s", testName, err)
	}
	_, err = store.Block(dbManager, blockHash)
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: expected ErrNotFound after delete but got %v", testName, err)
	}
	count, err = store.Count(dbManager)
	if err != nil {
		t.Fatalf("%s: Count: %s", testName, err)
	}
	if count != 0 {
		t.Fatalf("%s: expected 0 blocks but got %d", testName, count)
	}
}
