package voterelay

import (
	"github.com/orvnet/orvd/app/appmessage"
	"github.com/orvnet/orvd/domain/lattice"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/hashing"
	"github.com/orvnet/orvd/infrastructure/network/netadapter/router"
	"github.com/pkg/errors"
)

// HandleConfirmRequestsContext is the interface for the context needed for
// the HandleConfirmRequests flow.
type HandleConfirmRequestsContext interface {
	Lattice() lattice.Lattice
	Network() model.Network
}

// HandleConfirmRequests listens to appmessage.MsgConfirmRequest messages.
// The requested block is queued for processing if it is unknown, and a
// voting node answers with its vote for the block it holds at that root,
// preceded by that block when it is not the requested one.
func HandleConfirmRequests(context HandleConfirmRequestsContext, incomingRoute *router.Route,
	peer externalapi.PeerID) error {

	for {
		message, err := incomingRoute.Dequeue()
		if err != nil {
			return err
		}
		block := message.(*appmessage.MsgConfirmRequest).Block
		blockHash := hashing.BlockHash(block)
		log.Tracef("Got a confirm request for %s from %s", blockHash, peer)

		exists, err := context.Lattice().BlockExists(blockHash)
		if err != nil {
			return errors.Wrapf(err, "failed to look up requested block %s", blockHash)
		}
		if !exists {
			context.Lattice().AddBlock(block)
		}

		vote, ok, err := context.Lattice().AnswerConfirmRequest(block)
		if err != nil {
			return errors.Wrapf(err, "failed to answer the confirm request for %s", blockHash)
		}
		if !ok {
			continue
		}
		if vote.Hashes[0] != blockHash {
			ledgerBlock, err := context.Lattice().Block(vote.Hashes[0])
			if err != nil {
				return errors.Wrapf(err, "failed to load block %s", vote.Hashes[0])
			}
			context.Network().SendBlock(ledgerBlock.Block, peer)
		}
		context.Network().SendVote(vote, peer)
	}
}
