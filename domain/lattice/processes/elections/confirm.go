package elections

import (
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
)

// dispatch commits and cements confirmed winners outside of the mutex
func (els *elections) dispatch(confirmations []*confirmation) {
	for _, c := range confirmations {
		c := c
		spawn("elections-confirm", func() {
			els.commitWinner(c)
		})
	}
}

// commitWinner makes sure the winner is the ledger block of its root, rolling
// back a competitor if needed, and hands it to the confirmation height
// processor
func (els *elections) commitWinner(c *confirmation) {
	exists, err := els.ledger.BlockExists(els.dbManager, c.winnerHash)
	if err != nil {
		log.Errorf("Failed to look up the winner %s: %s", c.winnerHash, err)
		return
	}
	if !exists {
		result, err := els.blockProcessor.Force(c.winner)
		if err != nil {
			log.Warnf("Failed to force the winner %s: %s", c.winnerHash, err)
			return
		}
		if result != externalapi.ResultProgress && result != externalapi.ResultOld {
			log.Warnf("The winner %s could not be committed: %s", c.winnerHash, result)
			return
		}
	}

	els.confirmationHeight.Add(c.winnerHash)
	if els.publisher != nil {
		els.publisher.Publish(&externalapi.ElectionConfirmedEvent{
			Winner: c.winner,
			Hash:   c.winnerHash,
			Tally:  c.tally,
		})
	}
}

// BlockCemented retires the election of a cemented block's root, confirming
// it first if it had not reached quorum by itself
func (els *elections) BlockCemented(blockHash externalapi.DomainHash) {
	els.mtx.Lock()
	e, ok := els.byHash[blockHash]
	if !ok {
		els.mtx.Unlock()
		return
	}
	wasConfirmed := e.confirmed
	e.confirmed = true
	e.leader = blockHash
	winner := e.candidates[blockHash]
	tally := e.tally()
	els.remove(e)
	els.mtx.Unlock()

	log.Debugf("Retired the election for root %s, %s was cemented", e.root, blockHash)
	if !wasConfirmed && els.publisher != nil {
		els.publisher.Publish(&externalapi.ElectionConfirmedEvent{Winner: winner, Hash: blockHash, Tally: tally})
	}
}
