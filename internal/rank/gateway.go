package rank

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	ErrDisabled    = errors.New("rank: ranking is disabled")
	ErrLockTimeout = errors.New("rank: timed out waiting for the ranking store")
)

// Gateway serializes every access to the shared statistics store. One holder at a time,
// whether it is a room loop or a background task.
type Gateway struct {
	store Store
	sem   *semaphore.Weighted
}

// NewGateway 创建网关，store 为 nil 时所有排名功能降级为空操作
func NewGateway(store Store) *Gateway {
	return &Gateway{
		store: store,
		sem:   semaphore.NewWeighted(1),
	}
}

// IsEnabled 是否有可用的存储连接
func (g *Gateway) IsEnabled() bool {
	return g != nil && g.store != nil
}

// TryLock acquires the gateway. timeoutMillis < 0 waits forever, 0 tries once,
// > 0 bounds the wait.
func (g *Gateway) TryLock(timeoutMillis int) bool {
	switch {
	case timeoutMillis < 0:
		return g.sem.Acquire(context.Background(), 1) == nil
	case timeoutMillis == 0:
		return g.sem.TryAcquire(1)
	default:
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMillis)*time.Millisecond)
		defer cancel()
		return g.sem.Acquire(ctx, 1) == nil
	}
}

// Unlock must be paired with exactly one successful TryLock.
func (g *Gateway) Unlock() {
	g.sem.Release(1)
}

// WithLock runs fn while holding the gateway and always releases it.
func (g *Gateway) WithLock(timeoutMillis int, fn func(Store) error) error {
	if !g.IsEnabled() {
		return ErrDisabled
	}
	if !g.TryLock(timeoutMillis) {
		return ErrLockTimeout
	}
	defer g.Unlock()
	return fn(g.store)
}
