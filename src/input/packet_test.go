package input

import (
	"bytes"
	"testing"

	"github.com/rewindnet/rewind/src/frame"
)

func TestPacketWireLayout(t *testing.T) {
	p := Packet{
		Buttons:           ButtonUp | ButtonRight,
		MouseVisible:      1,
		MouseClicked:      1,
		MouseX:            -3,
		MouseY:            260,
		ConfirmedChecksum: 0x1234,
		ConfirmedFrame:    7,
	}

	expected := []byte{
		0x09, 0x00, // buttons
		0x00, 0x00, // padding
		0x01, 0x01, // mouse visible, mouse clicked
		0x00, 0x00, // padding
		0xFD, 0xFF, 0xFF, 0xFF, // mouse x = -3
		0x04, 0x01, 0x00, 0x00, // mouse y = 260
		0x34, 0x12, // confirmed checksum
		0x00, 0x00, // padding
		0x07, 0x00, 0x00, 0x00, // confirmed frame
	}

	got := p.Marshal()
	if !bytes.Equal(got, expected) {
		t.Fatalf("wire layout mismatch:\nexpected %x\ngot      %x", expected, got)
	}
}

func TestPacketRoundTrip(t *testing.T) {
	p := Packet{
		Buttons:           ButtonDown | ButtonLeft,
		MouseVisible:      1,
		MouseX:            640,
		MouseY:            -480,
		ConfirmedChecksum: 0xBEEF,
		ConfirmedFrame:    1000,
	}

	var q Packet
	if err := q.Unmarshal(p.Marshal()); err != nil {
		t.Fatal(err)
	}
	if q != p {
		t.Fatalf("round trip mismatch: %+v != %+v", q, p)
	}
}

func TestPacketNullFrame(t *testing.T) {
	p := NewPacket()

	if p.HasReport() {
		t.Fatal("empty packet should carry no report")
	}

	var q Packet
	if err := q.Unmarshal(p.Marshal()); err != nil {
		t.Fatal(err)
	}
	if q.ConfirmedFrame != frame.Null {
		t.Fatalf("sentinel should survive the wire, got %d", q.ConfirmedFrame)
	}
	if q.HasReport() {
		t.Fatal("sentinel packet should carry no report")
	}
}

func TestPacketFrameZeroIsNotAReport(t *testing.T) {
	p := Packet{ConfirmedFrame: 0, ConfirmedChecksum: 0x1}
	if p.HasReport() {
		t.Fatal("frame 0 is never a report")
	}
}

func TestPacketSizeGuard(t *testing.T) {
	var p Packet
	if err := p.Unmarshal(make([]byte, PacketSize-1)); err == nil {
		t.Fatal("short buffer should be rejected")
	}
	if err := p.Unmarshal(make([]byte, PacketSize+1)); err == nil {
		t.Fatal("long buffer should be rejected")
	}
}
