package blockrelay

import (
	"github.com/orvnet/orvd/app/appmessage"
	"github.com/orvnet/orvd/domain/lattice"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/hashing"
	"github.com/orvnet/orvd/infrastructure/network/netadapter/router"
)

// HandleBlocksContext is the interface for the context needed for the HandleBlocks flow.
type HandleBlocksContext interface {
	Lattice() lattice.Lattice
}

// HandleBlocks listens to appmessage.MsgBlock messages and queues their
// blocks for processing
func HandleBlocks(context HandleBlocksContext, incomingRoute *router.Route, peer externalapi.PeerID) error {
	for {
		message, err := incomingRoute.Dequeue()
		if err != nil {
			return err
		}
		block := message.(*appmessage.MsgBlock).Block
		log.Tracef("Got block %s from %s", hashing.BlockHash(block), peer)
		context.Lattice().AddBlock(block)
	}
}
