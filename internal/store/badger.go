package store

import (
	"bytes"
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

const keySeparator = "\x00"

// BadgerStore keeps items in an embedded badger database under keys of the
// form `collection\x00partition\x00sort`.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens the database in dir, an empty dir keeps everything in
// memory.
func OpenBadger(dir string) (BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.WARNING)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return BadgerStore{}, err
	}
	return BadgerStore{db: db}, nil
}

func badgerKey(collection Collection, key Key) []byte {
	return []byte(string(collection) + keySeparator + key.Partition + keySeparator + key.Sort)
}

func splitBadgerKey(raw []byte) Key {
	parts := bytes.SplitN(raw, []byte(keySeparator), 3)
	if len(parts) < 3 {
		return Key{}
	}
	return Key{Partition: string(parts[1]), Sort: string(parts[2])}
}

func (s BadgerStore) Put(ctx context.Context, collection Collection, key Key, value []byte) error {
	return s.db.Update(func(tx *badger.Txn) error {
		return tx.Set(badgerKey(collection, key), value)
	})
}

func (s BadgerStore) Get(ctx context.Context, collection Collection, key Key) ([]byte, error) {
	tx := s.db.NewTransaction(false)
	defer tx.Discard()

	item, err := tx.Get(badgerKey(collection, key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (s BadgerStore) scanPrefix(prefix []byte) ([]Item, error) {
	var out []Item
	err := s.db.View(func(tx *badger.Txn) error {
		it := tx.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			PrefetchSize:   100,
			Prefix:         prefix,
		})
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, Item{
				Key:   splitBadgerKey(item.KeyCopy(nil)),
				Value: value,
			})
		}
		return nil
	})
	return out, err
}

func (s BadgerStore) Query(ctx context.Context, collection Collection, partition string) ([]Item, error) {
	return s.scanPrefix([]byte(string(collection) + keySeparator + partition + keySeparator))
}

func (s BadgerStore) Scan(ctx context.Context, collection Collection) ([]Item, error) {
	return s.scanPrefix([]byte(string(collection) + keySeparator))
}

func (s BadgerStore) Close() error {
	return s.db.Close()
}
