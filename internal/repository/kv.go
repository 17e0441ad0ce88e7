package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/booknotes/internal/common"
)

// KVStore is the key-value persistence surface behind the record store.
type KVStore interface {
	// Get returns the blob stored under key; ok is false when the key was never written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// PutAll writes every entry in a single transaction.
	PutAll(ctx context.Context, entries map[string][]byte) error
	Close() error
}

const kvTable = "kv_entries"

// SQLStore persists blobs in a single table through the Ent SQL builder.
type SQLStore struct {
	drv     *entsql.Driver
	dialect string
	table   string
	logger  *slog.Logger
}

// NewSQLStore returns a KVStore over an Ent SQL driver. EnsureSchema must run before use.
func NewSQLStore(db *DB, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLStore{drv: db.Driver, dialect: db.Dialect, table: kvTable, logger: logger}
}

// EnsureSchema creates the key-value table when missing.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	ddl := createTableDDL(s.dialect, s.table)
	if err := s.drv.Exec(ctx, ddl, []any{}, nil); err != nil {
		s.logger.Error("failed to create kv table", "table", s.table, "error", err)
		return fmt.Errorf("%w: create %s: %v", common.ErrDatabase, s.table, err)
	}
	return nil
}

// createTableDDL renders the kv table definition; only the blob type differs per dialect.
func createTableDDL(dialectName, table string) string {
	blobType := "BLOB"
	if dialectName == dialect.Postgres {
		blobType = "BYTEA"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ("+
		"entry_key VARCHAR(255) NOT NULL PRIMARY KEY, "+
		"entry_value %s NOT NULL, "+
		"updated_at BIGINT NOT NULL)", table, blobType)
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	d := entsql.Dialect(s.dialect)
	query, args := d.Select("entry_value").
		From(d.Table(s.table)).
		Where(entsql.EQ("entry_key", key)).
		Query()

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		s.logger.Error("kv get failed", "key", key, "error", err)
		return nil, false, fmt.Errorf("%w: get %s: %v", common.ErrDatabase, key, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, false, rows.Err()
	}
	var value []byte
	if err := rows.Scan(&value); err != nil {
		return nil, false, fmt.Errorf("%w: scan %s: %v", common.ErrDatabase, key, err)
	}
	return value, true, rows.Err()
}

func (s *SQLStore) PutAll(ctx context.Context, entries map[string][]byte) (err error) {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				s.logger.Warn("kv rollback failed", "error", rerr)
			}
		}
	}()

	now := time.Now().UnixNano()
	for _, key := range sortedKeys(entries) {
		query, args := entsql.Dialect(s.dialect).
			Insert(s.table).
			Columns("entry_key", "entry_value", "updated_at").
			Values(key, entries[key], now).
			OnConflict(
				entsql.ConflictColumns("entry_key"),
				entsql.ResolveWithNewValues(),
			).
			Query()
		if err = tx.Exec(ctx, query, args, nil); err != nil {
			s.logger.Error("kv put failed", "key", key, "error", err)
			return fmt.Errorf("%w: put %s: %v", common.ErrDatabase, key, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	s.logger.Debug("kv entries written", "keys", len(entries))
	return nil
}

// Close is a no-op; the DB passed to NewSQLStore owns the connections.
func (s *SQLStore) Close() error { return nil }

// MemoryStore keeps blobs in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStore) PutAll(_ context.Context, entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.data[k] = append([]byte(nil), v...)
	}
	return nil
}

// Set seeds a raw blob, bypassing any codec.
func (m *MemoryStore) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
}

func (m *MemoryStore) Close() error { return nil }

func sortedKeys(entries map[string][]byte) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
