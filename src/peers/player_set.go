package peers

import (
	"sort"
)

// PlayerSet is the roster of a rollback session. Handles are assigned by
// sorting players on their public keys, so every peer derives the identical
// handle-to-player mapping without negotiation; the simulation relies on
// handle N always meaning the same player everywhere.
type PlayerSet struct {
	Players  []*Player          `json:"players"`
	ByID     map[uint32]*Player `json:"-"`
	ByPubKey map[string]*Player `json:"-"`

	handles map[uint32]int
}

// NewPlayerSet creates a PlayerSet from a list of players. The input order is
// irrelevant; handles follow public-key order.
func NewPlayerSet(players []*Player) *PlayerSet {
	sorted := make([]*Player, len(players))
	copy(sorted, players)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PubKeyHex < sorted[j].PubKeyHex
	})

	ps := &PlayerSet{
		Players:  sorted,
		ByID:     make(map[uint32]*Player),
		ByPubKey: make(map[string]*Player),
		handles:  make(map[uint32]int),
	}

	for handle, player := range sorted {
		ps.ByID[player.ID()] = player
		ps.ByPubKey[player.PubKeyHex] = player
		ps.handles[player.ID()] = handle
	}

	return ps
}

// Handle returns the deterministic handle of the player with the given ID.
func (ps *PlayerSet) Handle(id uint32) (int, bool) {
	h, ok := ps.handles[id]
	return h, ok
}

// ByHandle returns the player owning the given handle.
func (ps *PlayerSet) ByHandle(handle int) (*Player, bool) {
	if handle < 0 || handle >= len(ps.Players) {
		return nil, false
	}
	return ps.Players[handle], true
}

// Len returns the number of players.
func (ps *PlayerSet) Len() int {
	return len(ps.Players)
}

// IDs returns the players' IDs in handle order.
func (ps *PlayerSet) IDs() []uint32 {
	res := []uint32{}
	for _, p := range ps.Players {
		res = append(res, p.ID())
	}
	return res
}

// Others returns all players except the one with the given ID, in handle
// order.
func (ps *PlayerSet) Others(id uint32) []*Player {
	res := []*Player{}
	for _, p := range ps.Players {
		if p.ID() != id {
			res = append(res, p)
		}
	}
	return res
}
