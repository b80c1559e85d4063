package recorder

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/rewindnet/rewind/src/frame"
)

const (
	framePrefix  = "frame"
	desyncPrefix = "desync"
)

// BadgerRecorder persists fingerprints and desync reports in a badger
// database, one key per frame.
type BadgerRecorder struct {
	db   *badger.DB
	path string
}

// NewBadgerRecorder opens (or creates) a badger database at path.
func NewBadgerRecorder(path string) (*BadgerRecorder, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = false
	opts.Logger = nil

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BadgerRecorder{
		db:   handle,
		path: path,
	}, nil
}

// Path returns the database directory.
func (r *BadgerRecorder) Path() string {
	return r.path
}

func frameKey(f frame.Frame) []byte {
	return []byte(fmt.Sprintf("%s_%010d", framePrefix, f))
}

func desyncKey(t time.Time) []byte {
	return []byte(fmt.Sprintf("%s_%d", desyncPrefix, t.UnixNano()))
}

// RecordFrame implements the Recorder interface. Re-recording the same frame
// overwrites the previous value, mirroring the ring-buffer semantics of the
// in-memory ledger.
func (r *BadgerRecorder) RecordFrame(f frame.Frame, checksum uint16) error {
	tx := r.db.NewTransaction(true)
	defer tx.Discard()

	val := make([]byte, 2)
	binary.LittleEndian.PutUint16(val, checksum)

	if err := tx.Set(frameKey(f), val); err != nil {
		return err
	}

	return tx.Commit()
}

// RecordDesync implements the Recorder interface.
func (r *BadgerRecorder) RecordDesync(d Desync) error {
	tx := r.db.NewTransaction(true)
	defer tx.Discard()

	val, err := json.Marshal(d)
	if err != nil {
		return err
	}

	if err := tx.Set(desyncKey(d.OccurredAt), val); err != nil {
		return err
	}

	return tx.Commit()
}

// Frame returns the stored fingerprint for a frame.
func (r *BadgerRecorder) Frame(f frame.Frame) (uint16, bool) {
	var sum uint16
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(frameKey(f))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		sum = binary.LittleEndian.Uint16(val)
		return nil
	})
	if err != nil {
		return 0, false
	}
	return sum, true
}

// Desyncs returns all stored desync reports in key order.
func (r *BadgerRecorder) Desyncs() ([]Desync, error) {
	out := []Desync{}
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(desyncPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var d Desync
			if err := json.Unmarshal(val, &d); err != nil {
				return err
			}
			out = append(out, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close implements the Recorder interface.
func (r *BadgerRecorder) Close() error {
	return r.db.Close()
}
