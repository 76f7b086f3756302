package schedule

import (
	"sync"
	"time"
)

// Manual 手动推进的 Ticker，测试中替代真实时钟
type Manual struct {
	mu       sync.Mutex
	ch       chan time.Time
	stopped  bool
	interval time.Duration
}

func NewManual() *Manual {
	return &Manual{ch: make(chan time.Time)}
}

// Factory 返回总是产出该 Manual 的 TickerFactory
func (m *Manual) Factory() TickerFactory {
	return func(d time.Duration) Ticker {
		m.mu.Lock()
		m.interval = d
		m.mu.Unlock()
		return m
	}
}

// Tick 发送一次信号，阻塞到任务循环接收为止
func (m *Manual) Tick(now time.Time) {
	m.ch <- now
}

func (m *Manual) C() <-chan time.Time { return m.ch }

func (m *Manual) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

func (m *Manual) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

func (m *Manual) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}
