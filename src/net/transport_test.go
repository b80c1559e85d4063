package net

import (
	"reflect"
	"testing"
	"time"

	"github.com/rewindnet/rewind/src/common"
	"github.com/rewindnet/rewind/src/frame"
	"github.com/rewindnet/rewind/src/input"
)

const (
	INMEM = iota
	TCP
	numTestTransports // NOTE: must be last
)

func NewTestTransport(ttype int, addr string, t *testing.T) Transport {
	switch ttype {
	case INMEM:
		_, it := NewInmemTransport(addr)
		return it
	case TCP:
		tt, err := NewTCPTransport(addr, "", 2, time.Second, 2*time.Second, common.NewTestEntry(t, common.TestLogLevel))
		if err != nil {
			t.Fatal(err)
		}
		go tt.Listen()
		return tt
	default:
		panic("Unknown transport type")
	}
}

func connectInmem(t1, t2 Transport, addr1, addr2 string) {
	it1 := t1.(*InmemTransport)
	it2 := t2.(*InmemTransport)
	it1.Connect(addr2, t2)
	it2.Connect(addr1, t1)
}

func TestTransport_StartStop(t *testing.T) {
	for ttype := 0; ttype < numTestTransports; ttype++ {
		trans := NewTestTransport(ttype, "127.0.0.1:0", t)
		if err := trans.Close(); err != nil {
			t.Fatalf("err: %v", err)
		}
	}
}

func TestTransport_Hello(t *testing.T) {
	addr1 := "127.0.0.1:1234"
	addr2 := "127.0.0.1:1235"
	for ttype := 0; ttype < numTestTransports; ttype++ {
		trans1 := NewTestTransport(ttype, addr1, t)
		defer trans1.Close()
		rpcCh := trans1.Consumer()

		args := HelloRequest{
			FromID:    7,
			PubKeyHex: "0XABCDEF",
			Moniker:   "player-two",
		}
		resp := HelloResponse{
			FromID:   1,
			Accepted: true,
		}

		// Listen for a request
		go func() {
			select {
			case rpc := <-rpcCh:
				req := rpc.Command.(*HelloRequest)
				if !reflect.DeepEqual(req, &args) {
					t.Errorf("command mismatch: %#v %#v", *req, args)
				}
				rpc.Respond(&resp, nil)

			case <-time.After(200 * time.Millisecond):
				t.Errorf("timeout")
			}
		}()

		// Transport 2 makes outbound request
		trans2 := NewTestTransport(ttype, addr2, t)
		defer trans2.Close()

		if ttype == INMEM {
			connectInmem(trans1, trans2, addr1, addr2)
		}

		var out HelloResponse
		target := trans1.AdvertiseAddr()
		if ttype == INMEM {
			target = addr1
		}
		if err := trans2.Hello(target, &args, &out); err != nil {
			t.Fatalf("err: %v", err)
		}

		// Verify the response
		if !reflect.DeepEqual(resp, out) {
			t.Fatalf("command mismatch: %#v %#v", resp, out)
		}
	}
}

func TestTransport_SendInput(t *testing.T) {
	addr1 := "127.0.0.1:1236"
	addr2 := "127.0.0.1:1237"
	for ttype := 0; ttype < numTestTransports; ttype++ {
		trans1 := NewTestTransport(ttype, addr1, t)
		defer trans1.Close()
		rpcCh := trans1.Consumer()

		packet := input.NewPacket()
		packet.Buttons = input.ButtonUp | input.ButtonLeft
		packet.MouseX = 120
		packet.MouseY = -45
		packet.ConfirmedFrame = 41
		packet.ConfirmedChecksum = 0xBEEF

		args := InputRequest{
			FromID:  7,
			Frame:   42,
			Payload: packet.Marshal(),
		}
		resp := InputResponse{
			FromID: 1,
			Ack:    42,
		}

		// Listen for a request
		go func() {
			select {
			case rpc := <-rpcCh:
				req := rpc.Command.(*InputRequest)
				if !reflect.DeepEqual(req, &args) {
					t.Errorf("command mismatch: %#v %#v", *req, args)
				}

				var p input.Packet
				if err := p.Unmarshal(req.Payload); err != nil {
					t.Errorf("err: %v", err)
				}
				if p.ConfirmedFrame != frame.Frame(41) {
					t.Errorf("confirmed frame should be 41, not %d", p.ConfirmedFrame)
				}

				rpc.Respond(&resp, nil)

			case <-time.After(200 * time.Millisecond):
				t.Errorf("timeout")
			}
		}()

		// Transport 2 makes outbound request
		trans2 := NewTestTransport(ttype, addr2, t)
		defer trans2.Close()

		if ttype == INMEM {
			connectInmem(trans1, trans2, addr1, addr2)
		}

		var out InputResponse
		target := trans1.AdvertiseAddr()
		if ttype == INMEM {
			target = addr1
		}
		if err := trans2.SendInput(target, &args, &out); err != nil {
			t.Fatalf("err: %v", err)
		}

		// Verify the response
		if !reflect.DeepEqual(resp, out) {
			t.Fatalf("command mismatch: %#v %#v", resp, out)
		}
	}
}
