// Package input defines the packed per-frame input record exchanged between
// peers, including the piggy-backed fingerprint report.
//
// Rather than opening a second channel for desync detection, each input
// packet reserves room for one (frame, fingerprint) pair. The pair rides
// along with the input bits and costs nothing extra in connection setup.
package input

import (
	"encoding/binary"
	"fmt"

	"github.com/rewindnet/rewind/src/frame"
)

// Button bits. 16 bits are reserved for buttons to keep the record 32-bit
// aligned.
const (
	ButtonUp    uint16 = 0b00001
	ButtonDown  uint16 = 0b00010
	ButtonLeft  uint16 = 0b00100
	ButtonRight uint16 = 0b01000
)

// PacketSize is the exact wire size of a marshalled Packet.
const PacketSize = 24

// Packet is one player's input for one frame, plus an optional fingerprint
// report. The wire layout is a fixed-size little-endian record with explicit
// padding to preserve 32-bit alignment, so it marshals to identical bytes on
// every platform:
//
//	offset  0: uint16 buttons
//	offset  2: uint16 padding
//	offset  4: uint8  mouse visible
//	offset  5: uint8  mouse clicked
//	offset  6: uint16 padding
//	offset  8: int32  mouse x
//	offset 12: int32  mouse y
//	offset 16: uint16 confirmed checksum
//	offset 18: uint16 padding
//	offset 20: int32  confirmed frame (frame.Null when no report)
type Packet struct {
	Buttons           uint16
	MouseVisible      uint8
	MouseClicked      uint8
	MouseX            int32
	MouseY            int32
	ConfirmedChecksum uint16
	ConfirmedFrame    frame.Frame
}

// NewPacket returns an empty Packet carrying the null-frame sentinel.
func NewPacket() Packet {
	return Packet{
		ConfirmedFrame: frame.Null,
	}
}

// HasReport returns true if the packet carries a fingerprint report. Frame 0
// is never reportable, so any frame > 0 is a genuine report.
func (p Packet) HasReport() bool {
	return p.ConfirmedFrame > 0
}

// Marshal encodes the packet into its fixed wire layout.
func (p Packet) Marshal() []byte {
	buf := make([]byte, PacketSize)

	binary.LittleEndian.PutUint16(buf[0:2], p.Buttons)
	// buf[2:4] padding
	buf[4] = p.MouseVisible
	buf[5] = p.MouseClicked
	// buf[6:8] padding
	binary.LittleEndian.PutUint32(buf[8:12], uint32(p.MouseX))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(p.MouseY))
	binary.LittleEndian.PutUint16(buf[16:18], p.ConfirmedChecksum)
	// buf[18:20] padding
	binary.LittleEndian.PutUint32(buf[20:24], uint32(p.ConfirmedFrame))

	return buf
}

// Unmarshal decodes a packet from its fixed wire layout.
func (p *Packet) Unmarshal(data []byte) error {
	if len(data) != PacketSize {
		return fmt.Errorf("input packet must be %d bytes, got %d", PacketSize, len(data))
	}

	p.Buttons = binary.LittleEndian.Uint16(data[0:2])
	p.MouseVisible = data[4]
	p.MouseClicked = data[5]
	p.MouseX = int32(binary.LittleEndian.Uint32(data[8:12]))
	p.MouseY = int32(binary.LittleEndian.Uint32(data[12:16]))
	p.ConfirmedChecksum = binary.LittleEndian.Uint16(data[16:18])
	p.ConfirmedFrame = frame.Frame(binary.LittleEndian.Uint32(data[20:24]))

	return nil
}
