package peers

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"strings"
	"sync"
)

const jsonPlayerSetPath = "players.json"

// JSONPlayerSet provides roster persistence on disk in the form of a JSON
// file.
type JSONPlayerSet struct {
	l    sync.Mutex
	path string
}

// NewJSONPlayerSet creates a JSONPlayerSet reading from players.json in the
// given base directory.
func NewJSONPlayerSet(base string) *JSONPlayerSet {
	return &JSONPlayerSet{
		path: filepath.Join(base, jsonPlayerSetPath),
	}
}

// PlayerSet parses the underlying JSON file and returns the corresponding
// PlayerSet.
func (j *JSONPlayerSet) PlayerSet() (*PlayerSet, error) {
	j.l.Lock()
	defer j.l.Unlock()

	buf, err := ioutil.ReadFile(j.path)
	if err != nil {
		return nil, err
	}

	if len(buf) == 0 {
		return nil, nil
	}

	var players []*Player
	dec := json.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(&players); err != nil {
		return nil, err
	}

	cleansePlayers(players)

	return NewPlayerSet(players), nil
}

// cleansePlayers standardises public key strings to the format derived from a
// private key.
func cleansePlayers(players []*Player) {
	for _, player := range players {
		player.PubKeyHex = "0X" + strings.TrimPrefix(strings.ToUpper(player.PubKeyHex), "0X")
	}
}

// Write persists a roster to the JSON file.
func (j *JSONPlayerSet) Write(players []*Player) error {
	j.l.Lock()
	defer j.l.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(players); err != nil {
		return err
	}

	return ioutil.WriteFile(j.path, buf.Bytes(), 0755)
}
