package confirmationheight

import (
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/pkg/errors"
)

var (
	// errAborted is returned by a walk interrupted by shutdown
	errAborted = errors.New("cementing aborted")

	// errTargetMissing is returned when the block to cement is not in the
	// ledger, which happens when it was rolled back after being queued
	errTargetMissing = errors.New("block to cement is not in the ledger")
)

// plannedBlock is one block of a cementing plan
type plannedBlock struct {
	hash  externalapi.DomainHash
	block *externalapi.BlockWithSideband
}

// frame is an account whose chain has to be cemented up to height
type frame struct {
	account externalapi.Account
	height  uint64

	// next is the lowest uncemented block of account, kept while the
	// dependencies of its source are being cemented
	next *plannedBlock
}

// walker computes the cementing order shared by every cementer. It keeps an
// explicit stack of accounts instead of recursing into the sources of
// receives.
type walker struct {
	block      func(blockHash externalapi.DomainHash) (*externalapi.BlockWithSideband, error)
	isNotFound func(err error) bool
	openBlock  func(account externalapi.Account) (externalapi.DomainHash, error)

	// height returns the cementing boundary of account including the
	// blocks planned so far
	height func(account externalapi.Account) (externalapi.ConfirmationHeightInfo, error)

	// cement appends a block to the plan
	cement   func(block *plannedBlock) error
	aborting func() bool
}

// walk plans the cementing of targetHash and every uncemented block it
// depends on, sources before the receives that consume them
func (w *walker) walk(targetHash externalapi.DomainHash) error {
	target, err := w.block(targetHash)
	if err != nil {
		if w.isNotFound(err) {
			return errors.Wrapf(errTargetMissing, "block %s", targetHash)
		}
		return err
	}

	stack := []*frame{{account: target.Sideband.Account, height: target.Sideband.Height}}
	for len(stack) > 0 {
		if w.aborting() {
			return errAborted
		}

		top := stack[len(stack)-1]
		info, err := w.height(top.account)
		if err != nil {
			return err
		}
		if info.Height >= top.height {
			stack = stack[:len(stack)-1]
			continue
		}

		if top.next == nil {
			top.next, err = w.successor(top.account, info)
			if err != nil {
				return err
			}
		}

		sourceFrame, err := w.uncementedSource(top.next)
		if err != nil {
			return err
		}
		if sourceFrame != nil {
			stack = append(stack, sourceFrame)
			continue
		}

		next := top.next
		top.next = nil
		err = w.cement(next)
		if err != nil {
			return err
		}
	}
	return nil
}

// successor returns the block following the cementing boundary info of
// account
func (w *walker) successor(account externalapi.Account, info externalapi.ConfirmationHeightInfo) (*plannedBlock, error) {
	var nextHash externalapi.DomainHash
	if info.Height == 0 {
		openBlock, err := w.openBlock(account)
		if err != nil {
			return nil, err
		}
		nextHash = openBlock
	} else {
		frontier, err := w.block(info.Frontier)
		if err != nil {
			return nil, err
		}
		nextHash = frontier.Sideband.Successor
		if nextHash.IsZero() {
			return nil, errors.Errorf("the chain of %s ends at its confirmation height %d", account, info.Height)
		}
	}

	next, err := w.block(nextHash)
	if err != nil {
		return nil, err
	}
	if next.Sideband.Height != info.Height+1 {
		return nil, errors.Errorf("block %s of %s is at height %d, expected %d",
			nextHash, account, next.Sideband.Height, info.Height+1)
	}
	return &plannedBlock{hash: nextHash, block: next}, nil
}

// uncementedSource returns a frame for the account of the send planned
// consumes if that send is not cemented yet, and nil otherwise
func (w *walker) uncementedSource(planned *plannedBlock) (*frame, error) {
	sourceHash, ok := receiveSource(planned.block)
	if !ok {
		return nil, nil
	}
	source, err := w.block(sourceHash)
	if err != nil {
		return nil, errors.Wrapf(err, "source %s of %s", sourceHash, planned.hash)
	}
	info, err := w.height(source.Sideband.Account)
	if err != nil {
		return nil, err
	}
	if info.Height >= source.Sideband.Height {
		return nil, nil
	}
	return &frame{account: source.Sideband.Account, height: source.Sideband.Height}, nil
}

// receiveSource returns the send consumed by block, if it is a receive
func receiveSource(block *externalapi.BlockWithSideband) (externalapi.DomainHash, bool) {
	if source, ok := externalapi.BlockLegacySource(block.Block); ok {
		return source, true
	}
	if stateBlock, ok := block.Block.(*externalapi.StateBlock); ok && block.Sideband.Details.IsReceive {
		return stateBlock.Link, true
	}
	return externalapi.DomainHash{}, false
}
