package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/rushteam/riskit/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER
);
CREATE TABLE IF NOT EXISTS zset (
	key    TEXT NOT NULL,
	member TEXT NOT NULL,
	score  REAL NOT NULL,
	PRIMARY KEY (key, member)
);
CREATE TABLE IF NOT EXISTS hash (
	key   TEXT NOT NULL,
	field TEXT NOT NULL,
	value BLOB NOT NULL,
	PRIMARY KEY (key, field)
);
`

// SQLiteStore 是基于 SQLite 文件的 KeyValueStore（纯 Go 驱动，无需 CGO）。
// 用于单机训练产物的持久化：编码器产物、IV 排行、在线特征快照。
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ core.KeyValueStore = (*SQLiteStore)(nil)

// NewSQLiteStore 打开（或创建）SQLite 数据库并初始化表结构
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, core.InvalidInput(core.ModuleStore, "sqlite: empty path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite 单写者
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

// Path 返回数据库文件路径
func (s *SQLiteStore) Path() string { return s.path }

func expiresAt(ttl []int) sql.NullInt64 {
	if len(ttl) > 0 && ttl[0] > 0 {
		return sql.NullInt64{Int64: time.Now().Add(time.Duration(ttl[0]) * time.Second).Unix(), Valid: true}
	}
	return sql.NullInt64{}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`,
		key, time.Now().Unix()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrStoreNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt(ttl))
	if err != nil {
		return fmt.Errorf("sqlite set %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite delete %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		args = append(args, k)
	}
	args = append(args, time.Now().Unix())

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM kv WHERE key IN (`+placeholders+`) AND (expires_at IS NULL OR expires_at > ?)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite batch get: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("sqlite batch get: %w", err)
		}
		result[key] = value
	}
	return result, rows.Err()
}

func (s *SQLiteStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite batch set: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`)
	if err != nil {
		return fmt.Errorf("sqlite batch set: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	exp := expiresAt(ttl)
	for k, v := range kvs {
		if _, err := stmt.ExecContext(ctx, k, v, exp); err != nil {
			return fmt.Errorf("sqlite batch set %q: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO zset (key, member, score) VALUES (?, ?, ?)
		 ON CONFLICT(key, member) DO UPDATE SET score = excluded.score`,
		key, member, score)
	if err != nil {
		return fmt.Errorf("sqlite zadd %q: %w", key, err)
	}
	return nil
}

// ZRange 按分数降序返回 [start, stop] 区间的成员，stop < 0 表示到末尾
func (s *SQLiteStore) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	if start < 0 {
		start = 0
	}
	limit := int64(-1)
	if stop >= 0 {
		if stop < start {
			return nil, nil
		}
		limit = stop - start + 1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT member FROM zset WHERE key = ? ORDER BY score DESC, member ASC LIMIT ? OFFSET ?`,
		key, limit, start)
	if err != nil {
		return nil, fmt.Errorf("sqlite zrange %q: %w", key, err)
	}
	defer func() { _ = rows.Close() }()

	var members []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("sqlite zrange %q: %w", key, err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *SQLiteStore) ZScore(ctx context.Context, key string, member string) (float64, error) {
	var score float64
	err := s.db.QueryRowContext(ctx,
		`SELECT score FROM zset WHERE key = ? AND member = ?`, key, member).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.ErrStoreNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("sqlite zscore %q: %w", key, err)
	}
	return score, nil
}

func (s *SQLiteStore) HGet(ctx context.Context, key, field string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM hash WHERE key = ? AND field = ?`, key, field).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite hget %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) HSet(ctx context.Context, key, field string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO hash (key, field, value) VALUES (?, ?, ?)
		 ON CONFLICT(key, field) DO UPDATE SET value = excluded.value`,
		key, field, value)
	if err != nil {
		return fmt.Errorf("sqlite hset %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT field, value FROM hash WHERE key = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("sqlite hgetall %q: %w", key, err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string][]byte)
	for rows.Next() {
		var (
			field string
			value []byte
		)
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("sqlite hgetall %q: %w", key, err)
		}
		result[field] = value
	}
	return result, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
