// Package dashboard 读取会话日志，统计、告警并渲染最近的事件。
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Hara602/pageSentry/internal/model"
	"github.com/Hara602/pageSentry/internal/schedule"
	"github.com/Hara602/pageSentry/internal/sysutil"
	"go.uber.org/zap"
)

const (
	DefaultRefreshInterval = 5 * time.Second
	DefaultRecentLimit     = 20
	DefaultAlertWindow     = 5 * time.Minute
)

// Log 仪表盘读取和清空的日志 (eventlog.Sink)
type Log interface {
	Events(ctx context.Context) []model.SecurityEvent
	Clear(ctx context.Context) error
}

// View 渲染目标，宿主决定如何展示
type View interface {
	Render(s Snapshot)
	ShowAlerts(alerts []Alert)
}

// Stats 计数器
type Stats struct {
	TotalEvents     int `json:"totalEvents"`
	Violations      int `json:"violations"`
	BlockedAttempts int `json:"blockedAttempts"`
	SessionMinutes  int `json:"sessionMinutes"`
}

// Fields 按页面元素 id 给出计数器文本
func (s Stats) Fields() map[string]string {
	return map[string]string{
		"total-events":     fmt.Sprint(s.TotalEvents),
		"violations":       fmt.Sprint(s.Violations),
		"blocked-attempts": fmt.Sprint(s.BlockedAttempts),
		"session-time":     fmt.Sprintf("%dm", s.SessionMinutes),
	}
}

// Snapshot 一次刷新的结果
type Snapshot struct {
	Stats   Stats   `json:"stats"`
	Entries []Entry `json:"entries"`
	Empty   string  `json:"empty,omitempty"`
}

// Options Reader 的可选参数
type Options struct {
	Clock           func() time.Time
	Location        *time.Location
	RecentLimit     int
	AlertWindow     time.Duration
	RefreshInterval time.Duration
	Ticker          schedule.TickerFactory
	Logger          *zap.Logger
}

// Reader 仪表盘
type Reader struct {
	log    Log
	view   View
	clock  func() time.Time
	start  time.Time
	loc    *time.Location
	recent int
	window time.Duration
	logger *zap.Logger

	interval time.Duration
	ticker   schedule.TickerFactory
	mu       sync.Mutex
	task     *schedule.Periodic
}

// NewReader 以当前时间作为仪表盘加载时间
func NewReader(log Log, view View, opts Options) *Reader {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = DefaultRecentLimit
	}
	if opts.AlertWindow <= 0 {
		opts.AlertWindow = DefaultAlertWindow
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	return &Reader{
		log:      log,
		view:     view,
		clock:    opts.Clock,
		start:    opts.Clock(),
		loc:      opts.Location,
		recent:   opts.RecentLimit,
		window:   opts.AlertWindow,
		logger:   sysutil.OrNop(opts.Logger),
		interval: opts.RefreshInterval,
		ticker:   opts.Ticker,
	}
}

// Refresh 重新读取日志，计算计数并渲染最近的事件 (倒序)
func (r *Reader) Refresh(ctx context.Context) Snapshot {
	logs := r.log.Events(ctx)
	snap := Snapshot{Stats: r.stats(logs), Entries: []Entry{}}

	if len(logs) == 0 {
		snap.Empty = EmptyMessage
	} else {
		from := len(logs) - r.recent
		if from < 0 {
			from = 0
		}
		for i := len(logs) - 1; i >= from; i-- {
			snap.Entries = append(snap.Entries, FormatEntry(logs[i], r.loc))
		}
	}

	if r.view != nil {
		r.view.Render(snap)
	}
	return snap
}

func (r *Reader) stats(logs []model.SecurityEvent) Stats {
	s := Stats{TotalEvents: len(logs)}
	for _, l := range logs {
		if l.EventType == model.EventCSPViolation {
			s.Violations++
		}
		if l.EventType.IsBlocked() {
			s.BlockedAttempts++
		}
	}
	s.SessionMinutes = int(r.clock().Sub(r.start) / time.Minute)
	return s
}

// Run 立即刷新一次，之后按间隔刷新并检查告警，直到 Stop 或 ctx 结束
func (r *Reader) Run(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.task != nil {
		return nil
	}

	cycle := func(ctx context.Context, _ time.Time) {
		r.Refresh(ctx)
		r.CheckForAlerts(ctx)
	}
	task, err := schedule.NewPeriodic(r.interval, cycle, r.ticker)
	if err != nil {
		return err
	}
	cycle(ctx, r.clock())
	task.Start(ctx)
	r.task = task
	r.logger.Debug("dashboard refresh started", zap.Duration("interval", r.interval))
	return nil
}

// RefreshInterval 刷新间隔，浏览器端按此轮询
func (r *Reader) RefreshInterval() time.Duration {
	return r.interval
}

func (r *Reader) Stop() {
	r.mu.Lock()
	task := r.task
	r.task = nil
	r.mu.Unlock()
	if task != nil {
		task.Stop()
	}
}
