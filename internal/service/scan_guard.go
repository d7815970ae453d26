package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// onceStore 跨实例的一次性标记（Redis SET NX）
type onceStore interface {
	AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// ScanGuard 扫码会话守卫：同一会话只放行第一次解码
type ScanGuard interface {
	Acquire(ctx context.Context, sessionID string) (bool, error)
}

type scanGuard struct {
	store  onceStore
	ttl    time.Duration
	logger *zap.Logger

	mu   sync.Mutex
	seen map[string]time.Time // Redis 不可用时的进程内兜底
	now  func() time.Time
}

// NewScanGuard store 为 nil 时仅使用进程内 map
func NewScanGuard(store onceStore, ttl time.Duration, logger *zap.Logger) ScanGuard {
	return &scanGuard{
		store:  store,
		ttl:    ttl,
		logger: logger,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

func (g *scanGuard) Acquire(ctx context.Context, sessionID string) (bool, error) {
	if g.store != nil {
		ok, err := g.store.AcquireOnce(ctx, "scan:"+sessionID, g.ttl)
		if err == nil {
			return ok, nil
		}
		g.logger.Warn("Redis 扫码守卫不可用，降级为进程内守卫", zap.Error(err))
	}
	return g.acquireLocal(sessionID), nil
}

func (g *scanGuard) acquireLocal(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for id, exp := range g.seen {
		if now.After(exp) {
			delete(g.seen, id)
		}
	}
	if _, ok := g.seen[sessionID]; ok {
		return false
	}
	g.seen[sessionID] = now.Add(g.ttl)
	return true
}
