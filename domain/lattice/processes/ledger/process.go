package ledger

import (
	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/database"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/ruleerrors"
	"github.com/orvnet/orvd/domain/lattice/utils/hashing"
	"github.com/orvnet/orvd/domain/lattice/utils/signing"
	"github.com/orvnet/orvd/domain/lattice/utils/work"
	"github.com/orvnet/orvd/domain/latticeconfig"
	"github.com/pkg/errors"
)

// mutation is the ledger effect of a validated block
type mutation struct {
	block     externalapi.Block
	blockHash externalapi.DomainHash
	account   externalapi.Account

	// previous is the account head before the block, nil when the block
	// opens the account.
	previous *externalapi.AccountInfo

	representative externalapi.Account
	balance        uint256.Int
	details        externalapi.BlockDetails
	sourceEpoch    externalapi.Epoch

	pendingToAdd    *externalapi.PendingEntry
	pendingToRemove *externalapi.PendingKey
}

func (l *ledger) Process(dbTx model.DBTransaction, block externalapi.Block) error {
	blockHash := hashing.BlockHash(block)

	exists, err := l.blockStore.HasBlock(dbTx, blockHash)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(ruleerrors.ErrOld, "block %s already exists", blockHash)
	}

	var m *mutation
	switch b := block.(type) {
	case *externalapi.StateBlock:
		var isEpoch bool
		isEpoch, err = l.isEpochBlock(dbTx, b)
		if err != nil {
			return err
		}
		if isEpoch {
			m, err = l.validateEpochBlock(dbTx, b, blockHash)
		} else {
			m, err = l.validateStateBlock(dbTx, b, blockHash)
		}
	case *externalapi.SendBlock:
		m, err = l.validateSendBlock(dbTx, b, blockHash)
	case *externalapi.ReceiveBlock:
		m, err = l.validateReceiveBlock(dbTx, b, blockHash)
	case *externalapi.OpenBlock:
		m, err = l.validateOpenBlock(dbTx, b, blockHash)
	case *externalapi.ChangeBlock:
		m, err = l.validateChangeBlock(dbTx, b, blockHash)
	default:
		return errors.Errorf("unknown block type %T", block)
	}
	if err != nil {
		return err
	}

	if !work.IsValid(block, l.params.WorkThreshold(m.details)) {
		return errors.Wrapf(ruleerrors.ErrInsufficientWork, "block %s work %d is under the %s threshold",
			blockHash, block.BlockWork(), m.details.Epoch)
	}

	err = l.apply(dbTx, m)
	if err != nil {
		return err
	}
	log.Tracef("Block %s (%s) added to account %s at height %d", blockHash, block.Type(), m.account,
		m.height())
	return nil
}

// isEpochBlock returns whether block is an epoch block: a state block
// linking to the epoch link that keeps the balance of its previous block.
// An unknown previous block counts as a zero balance.
func (l *ledger) isEpochBlock(dbContext model.DBReader, block *externalapi.StateBlock) (bool, error) {
	if block.Link != l.params.EpochLink {
		return false, nil
	}
	var previousBalance uint256.Int
	if !block.PreviousHash.IsZero() {
		previous, err := l.blockStore.Block(dbContext, block.PreviousHash)
		if err != nil && !database.IsNotFoundError(err) {
			return false, err
		}
		if err == nil {
			previousBalance = previous.Sideband.Balance
		}
	}
	return block.Balance == previousBalance, nil
}

func (m *mutation) height() uint64 {
	if m.previous == nil {
		return 1
	}
	return m.previous.BlockCount + 1
}

func (l *ledger) accountInfoOrNil(dbContext model.DBReader, account externalapi.Account) (*externalapi.AccountInfo, error) {
	info, err := l.accountStore.AccountInfo(dbContext, account)
	if database.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}

// previousBlock fetches the previous block or returns a gap error waiting
// for it
func (l *ledger) previousBlock(dbContext model.DBReader, previous externalapi.DomainHash) (*externalapi.BlockWithSideband, error) {
	block, err := l.blockStore.Block(dbContext, previous)
	if database.IsNotFoundError(err) {
		return nil, ruleerrors.NewErrMissingDependency(ruleerrors.ErrGapPrevious, previous)
	}
	if err != nil {
		return nil, err
	}
	return block, nil
}

func (l *ledger) requireSource(dbContext model.DBReader, source externalapi.DomainHash) error {
	exists, err := l.blockStore.HasBlock(dbContext, source)
	if err != nil {
		return err
	}
	if !exists {
		return ruleerrors.NewErrMissingDependency(ruleerrors.ErrGapSource, source)
	}
	return nil
}

func (l *ledger) receivable(dbContext model.DBReader, key externalapi.PendingKey) (*externalapi.PendingInfo, error) {
	info, err := l.pendingStore.PendingInfo(dbContext, key)
	if database.IsNotFoundError(err) {
		return nil, errors.Wrapf(ruleerrors.ErrUnreceivable, "%s has nothing receivable from %s", key.Account, key.Hash)
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (l *ledger) validateStateBlock(dbContext model.DBReader, block *externalapi.StateBlock,
	blockHash externalapi.DomainHash) (*mutation, error) {

	if !signing.Verify(block.Account, blockHash, block.Signature) {
		return nil, errors.Wrapf(ruleerrors.ErrBadSignature, "block %s is not signed by %s", blockHash, block.Account)
	}
	if block.Account == externalapi.BurnAccount {
		return nil, errors.WithStack(ruleerrors.ErrOpenedBurnAccount)
	}
	if block.Balance.Gt(&latticeconfig.MaxAmount) {
		return nil, errors.Wrapf(ruleerrors.ErrOverreceive, "balance %s exceeds the maximum amount", block.Balance.Dec())
	}

	info, err := l.accountInfoOrNil(dbContext, block.Account)
	if err != nil {
		return nil, err
	}

	m := &mutation{
		block:          block,
		blockHash:      blockHash,
		account:        block.Account,
		previous:       info,
		representative: block.Representative,
		balance:        block.Balance,
	}

	var previousBalance uint256.Int
	if info != nil {
		if block.PreviousHash.IsZero() {
			return nil, errors.Wrapf(ruleerrors.ErrFork, "account %s is already open", block.Account)
		}
		previous, err := l.previousBlock(dbContext, block.PreviousHash)
		if err != nil {
			return nil, err
		}
		if previous.Sideband.Account != block.Account {
			return nil, errors.Wrapf(ruleerrors.ErrAccountMismatch, "previous %s belongs to %s",
				block.PreviousHash, previous.Sideband.Account)
		}
		if block.PreviousHash != info.Head {
			return nil, errors.Wrapf(ruleerrors.ErrFork, "previous %s is not the head %s of %s",
				block.PreviousHash, info.Head, block.Account)
		}
		previousBalance = info.Balance
		m.details.Epoch = info.Epoch
		m.details.IsSend = block.Balance.Lt(&info.Balance)
		m.details.IsReceive = !m.details.IsSend && !block.Link.IsZero()
		if !m.details.IsSend && !m.details.IsReceive && block.Balance != info.Balance {
			return nil, errors.Wrapf(ruleerrors.ErrOverspend, "balance of %s raised without a source", block.Account)
		}
	} else {
		if !block.PreviousHash.IsZero() {
			return nil, ruleerrors.NewErrMissingDependency(ruleerrors.ErrGapPrevious, block.PreviousHash)
		}
		if block.Link.IsZero() {
			return nil, errors.Wrapf(ruleerrors.ErrGapSource, "first block of %s receives nothing", block.Account)
		}
		m.details.IsReceive = true
	}

	if m.details.IsReceive {
		err := l.requireSource(dbContext, block.Link)
		if err != nil {
			return nil, err
		}
		key := externalapi.PendingKey{Account: block.Account, Hash: block.Link}
		pending, err := l.receivable(dbContext, key)
		if err != nil {
			return nil, err
		}

		var amount uint256.Int
		amount.Sub(&block.Balance, &previousBalance)
		if amount.Gt(&pending.Amount) {
			return nil, errors.Wrapf(ruleerrors.ErrOverreceive, "receiving %s of a pending %s",
				amount.Dec(), pending.Amount.Dec())
		}
		if amount.Lt(&pending.Amount) {
			return nil, errors.Wrapf(ruleerrors.ErrBalanceMismatch, "receiving %s of a pending %s",
				amount.Dec(), pending.Amount.Dec())
		}
		if pending.Epoch > m.details.Epoch {
			m.details.Epoch = pending.Epoch
		}
		m.sourceEpoch = pending.Epoch
		m.pendingToRemove = &key
	}

	if m.details.IsSend {
		var amount uint256.Int
		amount.Sub(&previousBalance, &block.Balance)
		m.pendingToAdd = &externalapi.PendingEntry{
			Key:  externalapi.PendingKey{Account: externalapi.AccountFromHash(block.Link), Hash: blockHash},
			Info: externalapi.PendingInfo{Source: block.Account, Amount: amount, Epoch: m.details.Epoch},
		}
	}
	return m, nil
}

func (l *ledger) validateEpochBlock(dbContext model.DBReader, block *externalapi.StateBlock,
	blockHash externalapi.DomainHash) (*mutation, error) {

	if !signing.Verify(l.params.EpochSigner, blockHash, block.Signature) {
		return nil, errors.Wrapf(ruleerrors.ErrBadSignature, "epoch block %s is not signed by the epoch signer", blockHash)
	}
	if block.Account == externalapi.BurnAccount {
		return nil, errors.WithStack(ruleerrors.ErrOpenedBurnAccount)
	}

	info, err := l.accountInfoOrNil(dbContext, block.Account)
	if err != nil {
		return nil, err
	}

	if info != nil {
		if block.PreviousHash.IsZero() {
			return nil, errors.Wrapf(ruleerrors.ErrFork, "account %s is already open", block.Account)
		}
		previous, err := l.previousBlock(dbContext, block.PreviousHash)
		if err != nil {
			return nil, err
		}
		if previous.Sideband.Account != block.Account {
			return nil, errors.Wrapf(ruleerrors.ErrAccountMismatch, "previous %s belongs to %s",
				block.PreviousHash, previous.Sideband.Account)
		}
		if block.PreviousHash != info.Head {
			return nil, errors.Wrapf(ruleerrors.ErrFork, "previous %s is not the head %s of %s",
				block.PreviousHash, info.Head, block.Account)
		}
		if block.Representative != info.Representative {
			return nil, errors.WithStack(ruleerrors.ErrRepresentativeMismatch)
		}
		if block.Balance != info.Balance {
			return nil, errors.Wrapf(ruleerrors.ErrBalanceMismatch, "epoch block changes the balance of %s", block.Account)
		}
		if info.Epoch >= externalapi.Epoch1 {
			return nil, errors.Wrapf(ruleerrors.ErrBlockPosition, "account %s is already at %s", block.Account, info.Epoch)
		}
	} else {
		if !block.PreviousHash.IsZero() {
			return nil, ruleerrors.NewErrMissingDependency(ruleerrors.ErrGapPrevious, block.PreviousHash)
		}
		if !block.Representative.IsZero() {
			return nil, errors.WithStack(ruleerrors.ErrRepresentativeMismatch)
		}
		if !block.Balance.IsZero() {
			return nil, errors.Wrapf(ruleerrors.ErrBalanceMismatch, "epoch open of %s has a balance", block.Account)
		}
		hasPending, err := l.pendingStore.HasAnyPending(dbContext, block.Account)
		if err != nil {
			return nil, err
		}
		if !hasPending {
			return nil, ruleerrors.NewErrMissingDependency(ruleerrors.ErrGapEpochOpenPending, block.Account.AsHash())
		}
	}

	return &mutation{
		block:          block,
		blockHash:      blockHash,
		account:        block.Account,
		previous:       info,
		representative: block.Representative,
		balance:        block.Balance,
		details:        externalapi.BlockDetails{Epoch: externalapi.Epoch1, IsEpoch: true},
	}, nil
}

// legacyContext resolves the account a legacy block extends and checks the
// rules every legacy successor block shares
func (l *ledger) legacyContext(dbContext model.DBReader, block externalapi.Block,
	blockHash externalapi.DomainHash) (*externalapi.AccountInfo, externalapi.Account, error) {

	previous, err := l.previousBlock(dbContext, block.Previous())
	if err != nil {
		return nil, externalapi.Account{}, err
	}
	account := previous.Sideband.Account
	info, err := l.accountStore.AccountInfo(dbContext, account)
	if err != nil {
		return nil, externalapi.Account{}, errors.Wrapf(err, "account %s of existing block %s", account, block.Previous())
	}

	if !signing.Verify(account, blockHash, block.BlockSignature()) {
		return nil, externalapi.Account{}, errors.Wrapf(ruleerrors.ErrBadSignature,
			"block %s is not signed by %s", blockHash, account)
	}
	if previous.Block.Type() == externalapi.BlockTypeState || info.Epoch != externalapi.Epoch0 {
		return nil, externalapi.Account{}, errors.Wrapf(ruleerrors.ErrBlockPosition,
			"%s block cannot follow %s", block.Type(), block.Previous())
	}
	if block.Previous() != info.Head {
		return nil, externalapi.Account{}, errors.Wrapf(ruleerrors.ErrFork,
			"previous %s is not the head %s of %s", block.Previous(), info.Head, account)
	}
	return info, account, nil
}

func (l *ledger) validateSendBlock(dbContext model.DBReader, block *externalapi.SendBlock,
	blockHash externalapi.DomainHash) (*mutation, error) {

	info, account, err := l.legacyContext(dbContext, block, blockHash)
	if err != nil {
		return nil, err
	}
	if block.Balance.Gt(&info.Balance) {
		return nil, errors.Wrapf(ruleerrors.ErrNegativeSpend, "send balance %s is over the balance %s",
			block.Balance.Dec(), info.Balance.Dec())
	}

	var amount uint256.Int
	amount.Sub(&info.Balance, &block.Balance)
	return &mutation{
		block:          block,
		blockHash:      blockHash,
		account:        account,
		previous:       info,
		representative: info.Representative,
		balance:        block.Balance,
		details:        externalapi.BlockDetails{Epoch: externalapi.Epoch0, IsSend: true},
		pendingToAdd: &externalapi.PendingEntry{
			Key:  externalapi.PendingKey{Account: block.Destination, Hash: blockHash},
			Info: externalapi.PendingInfo{Source: account, Amount: amount, Epoch: externalapi.Epoch0},
		},
	}, nil
}

// legacyReceivable returns the pending entry a legacy receive or open takes
func (l *ledger) legacyReceivable(dbContext model.DBReader, account externalapi.Account,
	source externalapi.DomainHash) (*externalapi.PendingKey, *externalapi.PendingInfo, error) {

	err := l.requireSource(dbContext, source)
	if err != nil {
		return nil, nil, err
	}
	key := externalapi.PendingKey{Account: account, Hash: source}
	pending, err := l.receivable(dbContext, key)
	if err != nil {
		return nil, nil, err
	}
	if pending.Epoch != externalapi.Epoch0 {
		return nil, nil, errors.Wrapf(ruleerrors.ErrUnreceivable, "legacy blocks cannot receive %s", pending.Epoch)
	}
	return &key, pending, nil
}

func (l *ledger) validateReceiveBlock(dbContext model.DBReader, block *externalapi.ReceiveBlock,
	blockHash externalapi.DomainHash) (*mutation, error) {

	info, account, err := l.legacyContext(dbContext, block, blockHash)
	if err != nil {
		return nil, err
	}
	key, pending, err := l.legacyReceivable(dbContext, account, block.Source)
	if err != nil {
		return nil, err
	}

	var balance uint256.Int
	_, overflow := balance.AddOverflow(&info.Balance, &pending.Amount)
	if overflow || balance.Gt(&latticeconfig.MaxAmount) {
		return nil, errors.Wrapf(ruleerrors.ErrOverreceive, "receiving %s overflows the balance of %s",
			pending.Amount.Dec(), account)
	}

	return &mutation{
		block:           block,
		blockHash:       blockHash,
		account:         account,
		previous:        info,
		representative:  info.Representative,
		balance:         balance,
		details:         externalapi.BlockDetails{Epoch: externalapi.Epoch0, IsReceive: true},
		sourceEpoch:     externalapi.Epoch0,
		pendingToRemove: key,
	}, nil
}

func (l *ledger) validateOpenBlock(dbContext model.DBReader, block *externalapi.OpenBlock,
	blockHash externalapi.DomainHash) (*mutation, error) {

	if !signing.Verify(block.Account, blockHash, block.Signature) {
		return nil, errors.Wrapf(ruleerrors.ErrBadSignature, "block %s is not signed by %s", blockHash, block.Account)
	}
	if block.Account == externalapi.BurnAccount {
		return nil, errors.WithStack(ruleerrors.ErrOpenedBurnAccount)
	}
	err := l.requireSource(dbContext, block.Source)
	if err != nil {
		return nil, err
	}
	opened, err := l.accountStore.HasAccount(dbContext, block.Account)
	if err != nil {
		return nil, err
	}
	if opened {
		return nil, errors.Wrapf(ruleerrors.ErrFork, "account %s is already open", block.Account)
	}
	key, pending, err := l.legacyReceivable(dbContext, block.Account, block.Source)
	if err != nil {
		return nil, err
	}

	return &mutation{
		block:           block,
		blockHash:       blockHash,
		account:         block.Account,
		representative:  block.Representative,
		balance:         pending.Amount,
		details:         externalapi.BlockDetails{Epoch: externalapi.Epoch0, IsReceive: true},
		sourceEpoch:     externalapi.Epoch0,
		pendingToRemove: key,
	}, nil
}

func (l *ledger) validateChangeBlock(dbContext model.DBReader, block *externalapi.ChangeBlock,
	blockHash externalapi.DomainHash) (*mutation, error) {

	info, account, err := l.legacyContext(dbContext, block, blockHash)
	if err != nil {
		return nil, err
	}
	return &mutation{
		block:          block,
		blockHash:      blockHash,
		account:        account,
		previous:       info,
		representative: block.Representative,
		balance:        info.Balance,
		details:        externalapi.BlockDetails{Epoch: externalapi.Epoch0},
	}, nil
}
