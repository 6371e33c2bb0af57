package appmessage

import "github.com/orvnet/orvd/domain/lattice/model/externalapi"

// MsgVote implements the Message interface and carries a representative's
// signed vote.
type MsgVote struct {
	baseMessage
	Vote *externalapi.Vote
}

// Command returns the protocol command string for the message.
func (msg *MsgVote) Command() MessageCommand {
	return CmdVote
}

// NewMsgVote returns a new vote message
func NewMsgVote(vote *externalapi.Vote) *MsgVote {
	return &MsgVote{Vote: vote.Clone()}
}
