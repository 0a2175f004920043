// Package store 包含 core.Store / core.KeyValueStore 的实现，接口定义在 core 包。
//
// 示例：
//
//	var s core.Store = store.NewMemoryStore()
//	var kv core.KeyValueStore, _ = store.NewSQLiteStore(ctx, "riskit.db")
package store

import (
	"context"
	"fmt"

	"github.com/rushteam/riskit/core"
)

// 存储类型
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
	TypeSQLite = "sqlite"
)

// Config 存储配置
type Config struct {
	Type   string      `koanf:"type" validate:"required,oneof=memory redis sqlite"`
	Redis  RedisConfig `koanf:"redis"`
	SQLite struct {
		Path string `koanf:"path"`
	} `koanf:"sqlite"`
}

// NewStore 根据配置创建存储
func NewStore(ctx context.Context, cfg Config) (core.Store, error) {
	switch cfg.Type {
	case TypeMemory, "":
		return NewMemoryStore(), nil
	case TypeRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case TypeSQLite:
		return NewSQLiteStore(ctx, cfg.SQLite.Path)
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported,
			fmt.Sprintf("store: unsupported type %q", cfg.Type))
	}
}
