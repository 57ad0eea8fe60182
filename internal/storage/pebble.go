package storage

import (
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"
)

// Pebble implements Storage using PebbleDB. Writes are synced: the store
// serves a single user, so durability wins over throughput.
type Pebble struct {
	db *pebble.DB
}

func OpenPebble(dir string) (*Pebble, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &Pebble{db: db}, nil
}

func (p *Pebble) Get(key string) ([]byte, error) {
	v, closer, err := p.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), v...)
	if err := closer.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pebble) Set(key string, value []byte) error {
	return p.db.Set([]byte(key), value, pebble.Sync)
}

func (p *Pebble) Delete(key string) error {
	return p.db.Delete([]byte(key), pebble.Sync)
}

func (p *Pebble) Close() error { return p.db.Close() }
