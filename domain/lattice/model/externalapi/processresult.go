package externalapi

import "fmt"

// ProcessResult is the outcome of submitting a block to the ledger.
type ProcessResult uint8

// Process results. Everything but ResultProgress and ResultOld leaves the
// ledger untouched.
const (
	ResultProgress ProcessResult = iota
	ResultBadSignature
	ResultOld
	ResultNegativeSpend
	ResultFork
	ResultGapPrevious
	ResultGapSource
	ResultGapEpochOpenPending
	ResultUnreceivable
	ResultOverreceive
	ResultOverspend
	ResultOpenedBurnAccount
	ResultAccountMismatch
	ResultBlockPosition
	ResultBalanceMismatch
	ResultRepresentativeMismatch
	ResultInsufficientWork
)

var processResultStrings = map[ProcessResult]string{
	ResultProgress:               "progress",
	ResultBadSignature:           "bad_signature",
	ResultOld:                    "old",
	ResultNegativeSpend:          "negative_spend",
	ResultFork:                   "fork",
	ResultGapPrevious:            "gap_previous",
	ResultGapSource:              "gap_source",
	ResultGapEpochOpenPending:    "gap_epoch_open_pending",
	ResultUnreceivable:           "unreceivable",
	ResultOverreceive:            "overreceive",
	ResultOverspend:              "overspend",
	ResultOpenedBurnAccount:      "opened_burn_account",
	ResultAccountMismatch:        "account_mismatch",
	ResultBlockPosition:          "block_position",
	ResultBalanceMismatch:        "balance_mismatch",
	ResultRepresentativeMismatch: "representative_mismatch",
	ResultInsufficientWork:       "insufficient_work",
}

func (r ProcessResult) String() string {
	if s, ok := processResultStrings[r]; ok {
		return s
	}
	return fmt.Sprintf("unknown process result %d", r)
}

// IsGap returns whether the block waits for a missing dependency.
func (r ProcessResult) IsGap() bool {
	return r == ResultGapPrevious || r == ResultGapSource || r == ResultGapEpochOpenPending
}
