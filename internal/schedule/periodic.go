// Package schedule 可取消的周期任务，时间源可替换以便测试。
package schedule

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Ticker 周期信号源
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory 按间隔创建 Ticker
type TickerFactory func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// RealTicker 基于 time.Ticker
func RealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Periodic 按固定间隔执行 fn，Start/Stop 控制生命周期
type Periodic struct {
	interval  time.Duration
	fn        func(ctx context.Context, now time.Time)
	newTicker TickerFactory

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPeriodic(interval time.Duration, fn func(ctx context.Context, now time.Time), factory TickerFactory) (*Periodic, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if fn == nil {
		return nil, errors.New("task func must not be nil")
	}
	if factory == nil {
		factory = RealTicker
	}
	return &Periodic{interval: interval, fn: fn, newTicker: factory}, nil
}

// Start 启动任务，重复调用无效果。ctx 结束时任务也会停止。
func (p *Periodic) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	ticker := p.newTicker(p.interval)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C():
				p.fn(ctx, now)
			}
		}
	}()
}

// Stop 停止任务并等待当前执行结束
func (p *Periodic) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running 任务是否在运行
func (p *Periodic) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Periodic) Interval() time.Duration {
	return p.interval
}
