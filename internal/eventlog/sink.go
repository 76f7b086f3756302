// Package eventlog 安全事件日志：追加到会话存储中的有界 JSON 数组。
package eventlog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Hara602/pageSentry/internal/metrics"
	"github.com/Hara602/pageSentry/internal/model"
	"github.com/Hara602/pageSentry/internal/storage"
	"github.com/Hara602/pageSentry/internal/sysutil"
	"go.uber.org/zap"
)

const (
	// Key 日志在会话存储中的 key
	Key = "securityLogs"
	// DefaultMaxEvents 日志最多保留的事件数，也是允许配置的上限
	DefaultMaxEvents = 50
)

// Tagger 提供会话令牌
type Tagger interface {
	GetOrCreate(ctx context.Context) string
}

// Options Sink 的可选参数
type Options struct {
	MaxEvents int
	Clock     func() time.Time
	Logger    *zap.Logger
}

// Sink 读取整个日志、追加、截断、写回。
// 互斥锁保证并发写入时日志长度不超过上限。
type Sink struct {
	mu        sync.Mutex
	store     storage.Store
	tagger    Tagger
	env       *Environment
	maxEvents int
	clock     func() time.Time
	logger    *zap.Logger
}

func NewSink(store storage.Store, tagger Tagger, env *Environment, opts Options) *Sink {
	if opts.MaxEvents <= 0 || opts.MaxEvents > DefaultMaxEvents {
		opts.MaxEvents = DefaultMaxEvents
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if env == nil {
		env = NewEnvironment("", "")
	}
	return &Sink{
		store:     store,
		tagger:    tagger,
		env:       env,
		maxEvents: opts.MaxEvents,
		clock:     opts.Clock,
		logger:    sysutil.OrNop(opts.Logger),
	}
}

// Record 追加一条事件。不返回错误：存储失败只记录日志，事件丢失。
func (s *Sink) Record(ctx context.Context, eventType model.EventType, severity model.Severity, details model.Details) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs := s.load(ctx)

	ts := s.clock().UTC().Truncate(time.Millisecond)
	if n := len(logs); n > 0 && ts.Before(logs[n-1].Timestamp) {
		// 时钟回拨时保持时间戳单调不减
		ts = logs[n-1].Timestamp
	}
	userAgent, url := s.env.Snapshot()
	event := model.SecurityEvent{
		Timestamp: ts,
		EventType: eventType,
		Severity:  severity,
		Details:   details,
		SessionID: s.tagger.GetOrCreate(ctx),
		UserAgent: userAgent,
		URL:       url,
	}
	logs = append(logs, event)
	if over := len(logs) - s.maxEvents; over > 0 {
		logs = logs[over:]
		metrics.EventsEvicted.Add(float64(over))
	}

	s.logger.Info("🔒 Security event",
		zap.String("event", string(eventType)),
		zap.String("severity", string(severity)),
		zap.Any("details", details),
		zap.String("session", event.SessionID),
	)
	metrics.EventsRecorded.WithLabelValues(string(eventType), string(severity)).Inc()

	data, err := json.Marshal(logs)
	if err != nil {
		s.logger.Warn("security log encode failed", zap.Error(err))
		metrics.StoreFailures.WithLabelValues("encode").Inc()
		return
	}
	if err := s.store.Set(ctx, Key, string(data)); err != nil {
		s.logger.Warn("security log not persisted", zap.Error(err))
		metrics.StoreFailures.WithLabelValues("write").Inc()
	}
}

// Events 返回当前日志，按插入顺序
func (s *Sink) Events(ctx context.Context) []model.SecurityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Clear 删除整个日志
func (s *Sink) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Remove(ctx, Key)
}

// Environment 返回事件打标签用的浏览器环境
func (s *Sink) Environment() *Environment {
	return s.env
}

// load 读取日志，不存在或损坏时返回空
func (s *Sink) load(ctx context.Context) []model.SecurityEvent {
	raw, ok, err := s.store.Get(ctx, Key)
	if err != nil {
		s.logger.Warn("security log read failed", zap.Error(err))
		metrics.StoreFailures.WithLabelValues("read").Inc()
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	return Decode([]byte(raw), s.logger)
}

// Decode 解析持久化的日志，格式错误时返回空
func Decode(raw []byte, logger *zap.Logger) []model.SecurityEvent {
	var logs []model.SecurityEvent
	if err := json.Unmarshal(raw, &logs); err != nil {
		sysutil.OrNop(logger).Warn("malformed security log ignored", zap.Error(err))
		return nil
	}
	return logs
}
