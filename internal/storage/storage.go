// Package storage 会话存储：按标签页隔离的键值存储，语义与浏览器 sessionStorage 相同。
package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded 写入超过配额
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrUnavailable 后端不可用
	ErrUnavailable = errors.New("storage unavailable")
)

// Store 会话存储接口
type Store interface {
	// Get 读取 key，不存在时 ok 为 false
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Options 选择并配置后端。配额按标签页计算，见 Namespace
type Options struct {
	Backend    string // memory, sqlite, redis
	SQLitePath string
	Redis      RedisOptions
}

// Open 按配置创建存储后端，返回的 close 函数释放底层连接
func Open(opts Options) (Store, func() error, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemory(0), func() error { return nil }, nil
	case "sqlite":
		s, err := OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "redis":
		r := NewRedis(opts.Redis)
		return r, r.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
