package rank

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("rank: no record")

// Entry 排行榜条目
type Entry struct {
	Name  string
	Stats Cache
}

// Store 统计存储的访问约定，只能在持有 Gateway 锁时调用
//
// Write adds the given counters onto whatever is stored for name.
type Store interface {
	Read(ctx context.Context, name string) (Cache, error)
	Write(ctx context.Context, name string, stats Cache) error
	Top(ctx context.Context, limit int) ([]Entry, error)
}
