package appmessage

import "github.com/orvnet/orvd/domain/lattice/model/externalapi"

// MsgConfirmRequest implements the Message interface and asks the receiving
// representative to vote on the block.
type MsgConfirmRequest struct {
	baseMessage
	Block externalapi.Block
}

// Command returns the protocol command string for the message.
func (msg *MsgConfirmRequest) Command() MessageCommand {
	return CmdConfirmRequest
}

// NewMsgConfirmRequest returns a new confirm request message
func NewMsgConfirmRequest(block externalapi.Block) *MsgConfirmRequest {
	return &MsgConfirmRequest{Block: block.Clone()}
}
