package appmessage

import (
	"fmt"
	"time"

	"github.com/orvnet/orvd/util/mstime"
)

// MessageCommand represents the type of a message.
type MessageCommand uint32

func (cmd MessageCommand) String() string {
	cmdString, ok := ProtocolMessageCommandToString[cmd]
	if !ok {
		cmdString = "unknown command"
	}
	return fmt.Sprintf("%s [code %d]", cmdString, uint8(cmd))
}

// Commands used to route messages between nodes
const (
	CmdBlock MessageCommand = iota
	CmdVote
	CmdConfirmRequest
)

// ProtocolMessageCommandToString maps all protocol message commands to their string representation
var ProtocolMessageCommandToString = map[MessageCommand]string{
	CmdBlock:          "Block",
	CmdVote:           "Vote",
	CmdConfirmRequest: "ConfirmRequest",
}

// Message is an interface that describes a message exchanged between nodes.
type Message interface {
	Command() MessageCommand
	MessageNumber() uint64
	SetMessageNumber(index uint64)
	ReceivedAt() time.Time
	SetReceivedAt(receivedAt time.Time)
}

type baseMessage struct {
	messageNumber uint64
	receivedAt    time.Time
}

func (b *baseMessage) MessageNumber() uint64 {
	return b.messageNumber
}

func (b *baseMessage) SetMessageNumber(messageNumber uint64) {
	b.messageNumber = messageNumber
}

func (b *baseMessage) ReceivedAt() time.Time {
	return b.receivedAt
}

func (b *baseMessage) SetReceivedAt(receivedAt time.Time) {
	b.receivedAt = mstime.UnixMilliToTime(mstime.TimeToUnixMilli(receivedAt))
}
