package pipeline

import (
	"context"
	"sync"
	"time"
)

// Limiter 以固定间隔对远程服务调用限速
// 替代在业务代码里手写sleep，调用方只需在每次请求前Wait
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewLimiter 创建一个固定间隔限速器
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

// Wait 阻塞到距上次调用满一个间隔，首次调用立即返回
// 定时触发和HTTP触发可能同时执行，锁贯穿等待过程，并发调用按间隔排队
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.last.IsZero() {
		wait := l.interval - time.Since(l.last)
		if wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	l.last = time.Now()
	return nil
}
