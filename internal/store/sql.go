package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// SQLStore keeps every collection in a single sqlite compatible table.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database, creating the schema if needed.
func NewSQLStore(ctx context.Context, db *sql.DB) (SQLStore, error) {
	_, err := db.ExecContext(ctx, Schema)
	if err != nil {
		return SQLStore{}, fmt.Errorf("create schema: %w", err)
	}
	return SQLStore{db: db}, nil
}

// OpenSQLite opens a local sqlite file, `:memory:` gives a private in
// memory database.
func OpenSQLite(ctx context.Context, path string) (SQLStore, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return SQLStore{}, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return SQLStore{}, err
	}
	// sqlite only supports a single writer, a single connection also keeps
	// an in memory database alive for the lifetime of the store
	db.SetMaxOpenConns(1)
	_, err = db.ExecContext(ctx, "PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return SQLStore{}, err
	}
	store, err := NewSQLStore(ctx, db)
	if err != nil {
		db.Close()
		return SQLStore{}, err
	}
	return store, nil
}

// OpenLibSQL connects to a remote libsql server.
func OpenLibSQL(ctx context.Context, dbUrl, authToken string) (SQLStore, error) {
	dsn, err := url.Parse(dbUrl)
	if err != nil {
		return SQLStore{}, fmt.Errorf("parse libsql url: %w", err)
	}
	if authToken != "" {
		query := dsn.Query()
		query.Set("authToken", authToken)
		dsn.RawQuery = query.Encode()
	}

	db, err := sql.Open("libsql", dsn.String())
	if err != nil {
		return SQLStore{}, err
	}
	store, err := NewSQLStore(ctx, db)
	if err != nil {
		db.Close()
		return SQLStore{}, err
	}
	return store, nil
}

func (s SQLStore) Put(ctx context.Context, collection Collection, key Key, value []byte) error {
	_, err := s.db.ExecContext(
		ctx,
		`insert into items(collection, pk, sk, item) values (?, ?, ?, ?)
		on conflict (collection, pk, sk) do update set item = excluded.item`,
		string(collection), key.Partition, key.Sort, string(value),
	)
	return err
}

func (s SQLStore) Get(ctx context.Context, collection Collection, key Key) ([]byte, error) {
	var item string
	err := s.db.QueryRowContext(
		ctx,
		"select item from items where collection = ? and pk = ? and sk = ?",
		string(collection), key.Partition, key.Sort,
	).Scan(&item)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(item), nil
}

func (s SQLStore) Query(ctx context.Context, collection Collection, partition string) ([]Item, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"select pk, sk, item from items where collection = ? and pk = ? order by sk",
		string(collection), partition,
	)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func (s SQLStore) Scan(ctx context.Context, collection Collection) ([]Item, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"select pk, sk, item from items where collection = ? order by pk, sk",
		string(collection),
	)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var item Item
		var value string
		err := rows.Scan(&item.Key.Partition, &item.Key.Sort, &value)
		if err != nil {
			return nil, err
		}
		item.Value = []byte(value)
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s SQLStore) Close() error {
	return s.db.Close()
}
