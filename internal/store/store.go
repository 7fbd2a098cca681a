package store

import "errors"

// ErrNoSnapshot is returned by Load when the slot has never been written.
var ErrNoSnapshot = errors.New("no snapshot")

// SnapshotStore is the durable slot the persistence bridge writes each
// committed queue snapshot into. One logical value; Save overwrites.
type SnapshotStore interface {
	Save(data []byte) error
	Load() ([]byte, error)
	Close() error
}
