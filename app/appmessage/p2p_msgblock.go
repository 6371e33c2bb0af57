package appmessage

import "github.com/orvnet/orvd/domain/lattice/model/externalapi"

// MsgBlock implements the Message interface and carries a block being
// flooded to the network.
type MsgBlock struct {
	baseMessage
	Block externalapi.Block
}

// Command returns the protocol command string for the message.
func (msg *MsgBlock) Command() MessageCommand {
	return CmdBlock
}

// NewMsgBlock returns a new block message. The block is cloned so that the
// receiver never aliases the sender's copy.
func NewMsgBlock(block externalapi.Block) *MsgBlock {
	return &MsgBlock{Block: block.Clone()}
}
