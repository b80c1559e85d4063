package session

import (
	"fmt"
	"time"

	"github.com/rewindnet/rewind/src/frame"
	"github.com/rewindnet/rewind/src/input"
	"github.com/rewindnet/rewind/src/net"
	"github.com/rewindnet/rewind/src/peers"
	"github.com/sirupsen/logrus"
)

func (n *Node) sendInput(peer *peers.Player, current frame.Frame, packet input.Packet) error {
	args := net.InputRequest{
		FromID:  n.validator.ID(),
		Frame:   current,
		Payload: packet.Marshal(),
	}

	var out net.InputResponse

	start := time.Now()
	err := n.trans.SendInput(peer.NetAddr, &args, &out)
	elapsed := time.Since(start)

	if err != nil {
		// Input delivery is best effort: the reconcile semantics absorb
		// losses, duplicates and reordering.
		n.logger.WithError(err).WithField("target", peer.NetAddr).Debug("SendInput()")
		return err
	}

	n.logger.WithFields(logrus.Fields{
		"from_id":  out.FromID,
		"ack":      out.Ack,
		"duration": elapsed.Nanoseconds(),
	}).Debug("InputResponse")

	return nil
}

func (n *Node) requestHello(target string) (net.HelloResponse, error) {
	args := net.HelloRequest{
		FromID:    n.validator.ID(),
		PubKeyHex: n.validator.PublicKeyHex(),
		Moniker:   n.validator.Moniker,
	}

	var out net.HelloResponse

	err := n.trans.Hello(target, &args, &out)

	return out, err
}

// Hello introduces this node to every other player and verifies that they
// accept us. It is called once before the frame loop starts.
func (n *Node) Hello() error {
	for _, p := range n.players.Others(n.validator.ID()) {
		resp, err := n.requestHello(p.NetAddr)
		if err != nil {
			return fmt.Errorf("hello %s: %v", p.Moniker, err)
		}
		if !resp.Accepted {
			return fmt.Errorf("hello %s: refused: %s", p.Moniker, resp.Reason)
		}
		n.logger.WithFields(logrus.Fields{
			"from_id": resp.FromID,
			"peer":    p.Moniker,
		}).Debug("HelloResponse")
	}
	return nil
}

func (n *Node) processRPC(rpc net.RPC) {
	switch cmd := rpc.Command.(type) {
	case *net.HelloRequest:
		n.processHelloRequest(rpc, cmd)
	case *net.InputRequest:
		n.processInputRequest(rpc, cmd)
	default:
		n.logger.WithField("cmd", rpc.Command).Error("Unexpected RPC command")
		rpc.Respond(nil, fmt.Errorf("unexpected command"))
	}
}

func (n *Node) processHelloRequest(rpc net.RPC, cmd *net.HelloRequest) {
	n.logger.WithFields(logrus.Fields{
		"from_id": cmd.FromID,
		"moniker": cmd.Moniker,
	}).Debug("process HelloRequest")

	resp := &net.HelloResponse{
		FromID: n.validator.ID(),
	}

	if _, ok := n.players.ByPubKey[cmd.PubKeyHex]; ok {
		resp.Accepted = true
	} else {
		resp.Reason = "not a member of the player set"
	}

	rpc.Respond(resp, nil)
}

func (n *Node) processInputRequest(rpc net.RPC, cmd *net.InputRequest) {
	n.logger.WithFields(logrus.Fields{
		"from_id": cmd.FromID,
		"frame":   cmd.Frame,
	}).Debug("process InputRequest")

	resp := &net.InputResponse{
		FromID: n.validator.ID(),
		Ack:    cmd.Frame,
	}

	var respErr error

	player, ok := n.players.ByID[cmd.FromID]
	if !ok {
		respErr = fmt.Errorf("unknown player %d", cmd.FromID)
		rpc.Respond(resp, respErr)
		return
	}

	var packet input.Packet
	if err := packet.Unmarshal(cmd.Payload); err != nil {
		rpc.Respond(resp, err)
		return
	}

	handle, _ := n.players.Handle(player.ID())

	n.coreLock.Lock()

	if err := n.core.ApplyRemote(handle, packet); err != nil {
		respErr = err
	} else {
		if ack := n.acks[player.ID()]; cmd.Frame > ack {
			n.acks[player.ID()] = cmd.Frame
		}

		// Input for an already-simulated frame changes history: schedule a
		// rollback to the earliest such frame.
		if cmd.Frame < n.core.Cursor().Current {
			if !n.rollback.InProgress || cmd.Frame < n.rollback.Target {
				n.rollback = frame.RollbackStatus{InProgress: true, Target: cmd.Frame}
			}
		}
	}

	n.coreLock.Unlock()

	rpc.Respond(resp, respErr)
}
