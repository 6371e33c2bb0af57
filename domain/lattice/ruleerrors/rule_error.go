package ruleerrors

import (
	"fmt"

	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrBadSignature indicates the block signature does not verify
	// against the account that should have signed it.
	ErrBadSignature = newRuleError("ErrBadSignature")

	// ErrOld indicates a block with the same hash already exists.
	ErrOld = newRuleError("ErrOld")

	// ErrNegativeSpend indicates a legacy send whose balance exceeds the
	// previous balance.
	ErrNegativeSpend = newRuleError("ErrNegativeSpend")

	// ErrFork indicates another block already occupies the block's root.
	ErrFork = newRuleError("ErrFork")

	// ErrGapPrevious indicates the previous block is unknown.
	ErrGapPrevious = newRuleError("ErrGapPrevious")

	// ErrGapSource indicates the source block is unknown.
	ErrGapSource = newRuleError("ErrGapSource")

	// ErrGapEpochOpenPending indicates an epoch block opening an account
	// that has nothing to receive yet.
	ErrGapEpochOpenPending = newRuleError("ErrGapEpochOpenPending")

	// ErrUnreceivable indicates the referenced pending entry does not exist,
	// was already received, or cannot be received by this kind of block.
	ErrUnreceivable = newRuleError("ErrUnreceivable")

	// ErrOverreceive indicates a receive crediting more than the pending
	// amount, or pushing the balance past the maximum amount.
	ErrOverreceive = newRuleError("ErrOverreceive")

	// ErrOverspend indicates a state block increasing the balance without
	// referencing anything receivable.
	ErrOverspend = newRuleError("ErrOverspend")

	// ErrOpenedBurnAccount indicates an attempt to open the burn account.
	ErrOpenedBurnAccount = newRuleError("ErrOpenedBurnAccount")

	// ErrAccountMismatch indicates a block whose declared account does not
	// own its previous block.
	ErrAccountMismatch = newRuleError("ErrAccountMismatch")

	// ErrBlockPosition indicates a legacy block following a state block or
	// extending an upgraded account.
	ErrBlockPosition = newRuleError("ErrBlockPosition")

	// ErrBalanceMismatch indicates a state block whose balance is
	// inconsistent with what it does.
	ErrBalanceMismatch = newRuleError("ErrBalanceMismatch")

	// ErrRepresentativeMismatch indicates an epoch block changing the
	// representative.
	ErrRepresentativeMismatch = newRuleError("ErrRepresentativeMismatch")

	// ErrInsufficientWork indicates the attached work does not meet the
	// block's threshold.
	ErrInsufficientWork = newRuleError("ErrInsufficientWork")

	// ErrCemented indicates an attempt to roll back an irreversible block.
	ErrCemented = newRuleError("ErrCemented")
)

var ruleErrorResults = map[RuleError]externalapi.ProcessResult{
	ErrBadSignature:           externalapi.ResultBadSignature,
	ErrOld:                    externalapi.ResultOld,
	ErrNegativeSpend:          externalapi.ResultNegativeSpend,
	ErrFork:                   externalapi.ResultFork,
	ErrGapPrevious:            externalapi.ResultGapPrevious,
	ErrGapSource:              externalapi.ResultGapSource,
	ErrGapEpochOpenPending:    externalapi.ResultGapEpochOpenPending,
	ErrUnreceivable:           externalapi.ResultUnreceivable,
	ErrOverreceive:            externalapi.ResultOverreceive,
	ErrOverspend:              externalapi.ResultOverspend,
	ErrOpenedBurnAccount:      externalapi.ResultOpenedBurnAccount,
	ErrAccountMismatch:        externalapi.ResultAccountMismatch,
	ErrBlockPosition:          externalapi.ResultBlockPosition,
	ErrBalanceMismatch:        externalapi.ResultBalanceMismatch,
	ErrRepresentativeMismatch: externalapi.ResultRepresentativeMismatch,
	ErrInsufficientWork:       externalapi.ResultInsufficientWork,
}

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block failed due to one of the many validation
// rules. The caller can use type assertions to determine if a failure was
// specifically due to a rule violation.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// ErrMissingDependency wraps one of the gap rule errors together with the
// hash the block waits for.
type ErrMissingDependency struct {
	Rule       RuleError
	Dependency externalapi.DomainHash
}

func (e ErrMissingDependency) Error() string {
	return fmt.Sprintf("%s: missing %s", e.Rule, e.Dependency)
}

// Unwrap returns the gap rule error.
func (e ErrMissingDependency) Unwrap() error {
	return e.Rule
}

// NewErrMissingDependency creates a gap error waiting for dependency.
func NewErrMissingDependency(rule RuleError, dependency externalapi.DomainHash) error {
	return errors.WithStack(ErrMissingDependency{Rule: rule, Dependency: dependency})
}

// ResultFromError maps an error returned from block processing to its
// ProcessResult. ok is false for errors that are not rule errors, which
// are infrastructure failures.
func ResultFromError(err error) (result externalapi.ProcessResult, ok bool) {
	if err == nil {
		return externalapi.ResultProgress, true
	}
	var ruleError RuleError
	if !errors.As(err, &ruleError) {
		return 0, false
	}
	result, ok = ruleErrorResults[newRuleError(ruleError.message)]
	return result, ok
}

// MissingDependency returns the hash a gap error waits for.
func MissingDependency(err error) (externalapi.DomainHash, bool) {
	var missingDependency ErrMissingDependency
	if !errors.As(err, &missingDependency) {
		return externalapi.DomainHash{}, false
	}
	return missingDependency.Dependency, true
}
