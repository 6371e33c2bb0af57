package voterelay

import (
	"github.com/orvnet/orvd/app/appmessage"
	"github.com/orvnet/orvd/domain/lattice"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/infrastructure/network/netadapter/router"
)

// HandleVotesContext is the interface for the context needed for the HandleVotes flow.
type HandleVotesContext interface {
	Lattice() lattice.Lattice
}

// HandleVotes listens to appmessage.MsgVote messages and queues their votes
// for verification
func HandleVotes(context HandleVotesContext, incomingRoute *router.Route, peer externalapi.PeerID) error {
	for {
		message, err := incomingRoute.Dequeue()
		if err != nil {
			return err
		}
		vote := message.(*appmessage.MsgVote).Vote
		if !context.Lattice().AddVote(vote, peer) {
			log.Debugf("Dropped vote %d by %s from %s", vote.Sequence, vote.Account, peer)
		}
	}
}
