package netadapter

import (
	"sync"
	"testing"
	"time"

	"github.com/orvnet/orvd/app/appmessage"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/testutils"
	"github.com/orvnet/orvd/infrastructure/network/netadapter/router"
)

type receivedMessage struct {
	from    externalapi.PeerID
	message appmessage.Message
}

// recordingNode registers one route for all commands and collects what it receives
func recordingNode(t *testing.T, hub *Hub, id externalapi.PeerID) (*NetAdapter, chan receivedMessage) {
	na, err := hub.NewNetAdapter(id)
	if err != nil {
		t.Fatalf("NewNetAdapter: %s", err)
	}
	received := make(chan receivedMessage, 100)
	var wg sync.WaitGroup
	na.SetRouterInitializer(func(peerRouter *router.Router, peer externalapi.PeerID) {
		route, err := peerRouter.AddIncomingRoute("all", []appmessage.MessageCommand{
			appmessage.CmdBlock, appmessage.CmdVote, appmessage.CmdConfirmRequest})
		if err != nil {
			t.Errorf("AddIncomingRoute: %s", err)
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				message, err := route.Dequeue()
				if err != nil {
					return
				}
				received <- receivedMessage{from: peer, message: message}
			}
		}()
	})
	return na, received
}

func expectMessage(t *testing.T, received chan receivedMessage, from externalapi.PeerID,
	command appmessage.MessageCommand) appmessage.Message {

	select {
	case r := <-received:
		if r.from != from || r.message.Command() != command {
			t.Fatalf("expected %s from %s but got %s from %s", command, from, r.message.Command(), r.from)
		}
		return r.message
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s from %s", command, from)
	}
	return nil
}

func TestNetAdapter(t *testing.T) {
	hub := NewHub()
	a, receivedA := recordingNode(t, hub, "a")
	b, receivedB := recordingNode(t, hub, "b")
	c, receivedC := recordingNode(t, hub, "c")

	if _, err := hub.NewNetAdapter("a"); err == nil {
		t.Fatalf("TestNetAdapter: registering a duplicate id did not fail")
	}
	for _, pair := range [][2]externalapi.PeerID{{"a", "b"}, {"a", "c"}} {
		err := hub.Connect(pair[0], pair[1])
		if err != nil {
			t.Fatalf("TestNetAdapter: Connect: %s", err)
		}
	}
	if err := hub.Connect("a", "b"); err == nil {
		t.Fatalf("TestNetAdapter: connecting twice did not fail")
	}
	peers := a.Peers()
	if len(peers) != 2 || peers[0] != "b" || peers[1] != "c" {
		t.Fatalf("TestNetAdapter: unexpected peers %v", peers)
	}

	block := &externalapi.StateBlock{Account: testutils.AccountFromByte(1)}
	a.FloodBlock(block)
	expectMessage(t, receivedB, "a", appmessage.CmdBlock)
	expectMessage(t, receivedC, "a", appmessage.CmdBlock)

	b.SendVote(&externalapi.Vote{Sequence: 7}, "a")
	message := expectMessage(t, receivedA, "b", appmessage.CmdVote)
	if message.(*appmessage.MsgVote).Vote.Sequence != 7 {
		t.Fatalf("TestNetAdapter: unexpected vote %+v", message.(*appmessage.MsgVote).Vote)
	}

	c.SendBlock(block, "a")
	expectMessage(t, receivedA, "c", appmessage.CmdBlock)

	// b and c are not connected
	b.SendConfirmReq(block, "c")
	c.SendConfirmReq(block, "a")
	expectMessage(t, receivedA, "c", appmessage.CmdConfirmRequest)
	select {
	case r := <-receivedC:
		t.Fatalf("TestNetAdapter: c received %s from an unconnected node", r.message.Command())
	default:
	}

	c.Close()
	if peers := a.Peers(); len(peers) != 1 || peers[0] != "b" {
		t.Fatalf("TestNetAdapter: unexpected peers after close %v", peers)
	}
	a.FloodBlock(block)
	expectMessage(t, receivedB, "a", appmessage.CmdBlock)
}
