package peers

import (
	"encoding/hex"

	"github.com/rewindnet/rewind/src/common"
)

// Player is a participant in a rollback session. Players are identified by
// their public key; the moniker is a non-unique friendly name. NetAddr is
// only required for TCP transports; with WebRTC the public key is enough to
// reach a player through the signaling server.
type Player struct {
	NetAddr   string
	PubKeyHex string
	Moniker   string

	id uint32
}

// NewPlayer returns a Player identified by the given hex public key.
func NewPlayer(pubKeyHex, netAddr, moniker string) *Player {
	player := &Player{
		NetAddr:   netAddr,
		PubKeyHex: pubKeyHex,
		Moniker:   moniker,
	}

	player.computeID()

	return player
}

// ID returns the 32-bit identifier derived from the player's public key.
func (p *Player) ID() uint32 {
	if p.id == 0 {
		p.computeID()
	}
	return p.id
}

// PubKeyBytes returns the raw public key bytes.
func (p *Player) PubKeyBytes() ([]byte, error) {
	return hex.DecodeString(p.PubKeyHex[2:])
}

func (p *Player) computeID() error {
	pubKey, err := p.PubKeyBytes()
	if err != nil {
		return err
	}

	p.id = common.Hash32(pubKey)

	return nil
}
