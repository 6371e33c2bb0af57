package elections

import (
	"time"

	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
)

// confirmedRetentionAnnouncements is how many announcement rounds a
// confirmed election whose winner never got cemented is kept around
const confirmedRetentionAnnouncements = 8

type announcement struct {
	block       externalapi.Block
	flood       bool
	confirmReqs bool
}

func (els *elections) announceLoop() {
	defer close(els.done)

	ticker := time.NewTicker(els.params.ElectionAnnouncementInterval)
	defer ticker.Stop()
	for {
		select {
		case <-els.quit:
			return
		case <-ticker.C:
			err := els.announce()
			if err != nil {
				log.Errorf("Election announcement failed: %s", err)
			}
		}
	}
}

// announce runs one announcement round: floods new leaders, requests votes
// for elections that are taking long and renews the local representative's
// votes
func (els *elections) announce() error {
	els.mtx.Lock()
	var announcements []*announcement
	var voting []*election
	for _, e := range els.byRoot {
		e.announcements++
		if e.confirmed {
			if e.announcements > confirmedRetentionAnnouncements {
				log.Debugf("Dropping the confirmed election for root %s", e.root)
				els.remove(e)
			}
			continue
		}
		voting = append(voting, e)
		announcements = append(announcements, &announcement{
			block:       e.candidates[e.leader],
			flood:       e.announcements == 1,
			confirmReqs: e.announcements > els.params.ElectionAnnouncementThreshold,
		})
	}
	selfVotes := els.pendingSelfVotes(voting)
	els.mtx.Unlock()

	if els.network != nil {
		var peers []externalapi.PeerID
		for _, a := range announcements {
			if a.flood {
				els.network.FloodBlock(a.block)
			}
			if a.confirmReqs {
				if peers == nil {
					peers = els.network.Peers()
				}
				for _, peer := range peers {
					els.network.SendConfirmReq(a.block, peer)
				}
			}
		}
	}
	return els.castSelfVotes(selfVotes)
}

// pendingSelfVotes returns the leaders the local representative has not
// voted for yet and marks them voted. It must be called with mtx held.
func (els *elections) pendingSelfVotes(candidates []*election) []externalapi.DomainHash {
	if els.voteGenerator == nil {
		return nil
	}
	var hashes []externalapi.DomainHash
	for _, e := range candidates {
		if e.confirmed || e.selfVoted == e.leader {
			continue
		}
		e.selfVoted = e.leader
		hashes = append(hashes, e.leader)
	}
	return hashes
}

// castSelfVotes signs votes for hashes, applies them locally and sends them
// to every peer
func (els *elections) castSelfVotes(hashes []externalapi.DomainHash) error {
	for start := 0; start < len(hashes); start += externalapi.MaxVoteHashes {
		end := start + externalapi.MaxVoteHashes
		if end > len(hashes) {
			end = len(hashes)
		}
		vote, err := els.voteGenerator.Generate(hashes[start:end])
		if err != nil {
			return err
		}
		code := els.Vote(vote)
		log.Tracef("Local vote %d for %d blocks: %s", vote.Sequence, len(vote.Hashes), code)

		if els.network != nil {
			for _, peer := range els.network.Peers() {
				els.network.SendVote(vote, peer)
			}
		}
	}
	return nil
}
