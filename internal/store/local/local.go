// Package local is the on-disk fallback backend. Every entity collection is a
// JSON array stored under one fixed badger key and is rewritten as a whole on
// each write.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const (
	keyBoxes       = "depo:boxes"
	keyPallets     = "depo:pallets"
	keyShipments   = "depo:shipments"
	keyLoginLogs   = "depo:login_logs"
	keySessions    = "depo:active_sessions"
	keyUsers       = "depo:users"
	keyDepartments = "depo:departments"

	keyAnnouncement = "depo:settings:announcement"
	keyPopup        = "depo:settings:popup"
	keyBan          = "depo:settings:ban"
	keyLockdown     = "depo:settings:lockdown"

	keySequenceFmt = "depo:seq:%s"
)

type Options struct {
	Path     string
	InMemory bool
}

type Backend struct {
	db *badger.DB
	// mu serialises read-modify-write cycles; badger transactions alone would
	// surface them as conflicts instead of queueing them.
	mu sync.Mutex
}

func Open(opts Options) (*Backend, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts = bopts.WithLogger(nil)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) Name() string {
	return "local"
}

func (b *Backend) Ping(ctx context.Context) error {
	if b.db.IsClosed() {
		return errors.New("local store closed")
	}
	return nil
}

func getJSON(b *Backend, key string, dst any) (bool, error) {
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dst)
		})
	})
	return found, err
}

func putJSON(b *Backend, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func load[T any](b *Backend, key string) ([]T, error) {
	var items []T
	if _, err := getJSON(b, key, &items); err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return items, nil
}

// mutate loads the collection under key, applies fn and writes the result back.
// Nothing is written when fn fails.
func mutate[T any](b *Backend, key string, fn func([]T) ([]T, error)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	items, err := load[T](b, key)
	if err != nil {
		return err
	}
	items, err = fn(items)
	if err != nil {
		return err
	}
	if err := putJSON(b, key, items); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// codedKeys maps sequence kinds to the collection holding their codes.
var codedKeys = map[string]string{
	"box":      keyBoxes,
	"pallet":   keyPallets,
	"shipment": keyShipments,
}

type codedItem struct {
	Code string `json:"code"`
}

// highestSuffix returns the largest number found after the dash in the codes
// stored under key. Locally marked codes (BOX-L000007) count too.
func highestSuffix(b *Backend, key string) (int64, error) {
	items, err := load[codedItem](b, key)
	if err != nil {
		return 0, err
	}
	var highest int64
	for _, it := range items {
		_, num, ok := strings.Cut(it.Code, "-")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimPrefix(num, "L"), 10, 64)
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest, nil
}

// NextSequence bumps the persisted per-kind counter. The counter never falls
// behind the highest suffix already stored, so a lost or reset counter key
// cannot reissue a code.
func (b *Backend) NextSequence(ctx context.Context, kind string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := fmt.Sprintf(keySequenceFmt, kind)
	var n int64
	if _, err := getJSON(b, key, &n); err != nil {
		return 0, err
	}
	n++
	if coll, ok := codedKeys[kind]; ok {
		highest, err := highestSuffix(b, coll)
		if err != nil {
			return 0, err
		}
		if n <= highest {
			n = highest + 1
		}
	}
	if err := putJSON(b, key, n); err != nil {
		return 0, err
	}
	return n, nil
}
