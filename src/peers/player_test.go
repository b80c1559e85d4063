package peers

import (
	"io/ioutil"
	"os"
	"reflect"
	"testing"
)

func newTestPlayers() []*Player {
	return []*Player{
		NewPlayer("0XCC", "127.0.0.1:3002", "carol"),
		NewPlayer("0XAA", "127.0.0.1:3000", "alice"),
		NewPlayer("0XBB", "127.0.0.1:3001", "bob"),
	}
}

func TestHandleOrder(t *testing.T) {
	ps := NewPlayerSet(newTestPlayers())

	// Handles follow public-key order regardless of input order.
	expected := []string{"alice", "bob", "carol"}
	for h, moniker := range expected {
		p, ok := ps.ByHandle(h)
		if !ok {
			t.Fatalf("handle %d should exist", h)
		}
		if p.Moniker != moniker {
			t.Fatalf("handle %d should be %s, not %s", h, moniker, p.Moniker)
		}
		if got, _ := ps.Handle(p.ID()); got != h {
			t.Fatalf("Handle(%s) should be %d, not %d", moniker, h, got)
		}
	}

	if _, ok := ps.ByHandle(3); ok {
		t.Fatal("handle 3 should not exist")
	}
}

func TestHandleOrderIsStable(t *testing.T) {
	a := NewPlayerSet(newTestPlayers())

	shuffled := newTestPlayers()
	shuffled[0], shuffled[2] = shuffled[2], shuffled[0]
	b := NewPlayerSet(shuffled)

	if !reflect.DeepEqual(a.IDs(), b.IDs()) {
		t.Fatal("handle assignment should not depend on roster order")
	}
}

func TestOthers(t *testing.T) {
	ps := NewPlayerSet(newTestPlayers())
	alice := ps.Players[0]

	others := ps.Others(alice.ID())
	if len(others) != 2 {
		t.Fatalf("expected 2 others, got %d", len(others))
	}
	for _, p := range others {
		if p.ID() == alice.ID() {
			t.Fatal("Others should exclude the given player")
		}
	}
}

func TestJSONPlayerSet(t *testing.T) {
	dir, err := ioutil.TempDir("", "players")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	store := NewJSONPlayerSet(dir)

	if err := store.Write(newTestPlayers()); err != nil {
		t.Fatal(err)
	}

	ps, err := store.PlayerSet()
	if err != nil {
		t.Fatal(err)
	}
	if ps.Len() != 3 {
		t.Fatalf("expected 3 players, got %d", ps.Len())
	}
	if _, ok := ps.ByPubKey["0XAA"]; !ok {
		t.Fatal("player 0XAA should be present")
	}
}

func TestJSONPlayerSetCleansesKeys(t *testing.T) {
	dir, err := ioutil.TempDir("", "players")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	store := NewJSONPlayerSet(dir)

	if err := store.Write([]*Player{NewPlayer("0xaa", "", "alice")}); err != nil {
		t.Fatal(err)
	}

	ps, err := store.PlayerSet()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ps.ByPubKey["0XAA"]; !ok {
		t.Fatal("public keys should be standardised to uppercase 0X form")
	}
}
