// Package watcher 页面观察器：每个 guard 监听一种浏览器信号，分类后写入事件日志。
package watcher

import (
	"context"
	"errors"
	"time"

	"github.com/Hara602/pageSentry/internal/model"
	"github.com/Hara602/pageSentry/internal/schedule"
	"github.com/Hara602/pageSentry/internal/sysutil"
	"go.uber.org/zap"
)

// ErrUnsupported 宿主缺少对应的平台 API，guard 不启用
var ErrUnsupported = errors.New("platform api unsupported")

// Recorder 事件日志 (eventlog.Sink)
type Recorder interface {
	Record(ctx context.Context, eventType model.EventType, severity model.Severity, details model.Details)
}

// StructuralChangeNotifier 报告文档树中新增的节点
type StructuralChangeNotifier interface {
	Subscribe(fn func(added []model.Node)) (unsubscribe func(), err error)
}

// ViolationSource 内容安全策略违规通知
type ViolationSource interface {
	Subscribe(fn func(v model.Violation)) (unsubscribe func(), err error)
}

// ElementCounter 统计当前文档中的 script / style 元素
type ElementCounter interface {
	Count() (model.ElementCounts, error)
}

// Platform 宿主提供的可选 API，nil 表示不支持
type Platform struct {
	Mutations  StructuralChangeNotifier
	Violations ViolationSource
	Elements   ElementCounter
}

// Config 观察器配置
type Config struct {
	AllowedHosts      []string
	DevHosts          []string
	LogNavigation     bool
	IntegrityInterval time.Duration
	Ticker            schedule.TickerFactory
	FileAliases       map[string][]string
}

// DefaultAllowedHosts 外链白名单 (社区使用的聊天和代码托管域名)
var DefaultAllowedHosts = []string{"discord.gg", "discord.com", "github.com", "githubusercontent.com"}

// DefaultIntegrityInterval 完整性轮询间隔
const DefaultIntegrityInterval = 5 * time.Second

// Page 一次页面加载的全部观察器，计数器和基线都属于这次加载
type Page struct {
	ContextMenu *ContextMenuGuard
	Keyboard    *KeyboardGuard
	Links       *LinkGuard
	Mutations   *MutationGuard
	Integrity   *IntegrityPoll
	CSP         *CSPListener
	Hash        *HashGuard
	Transfer    *TransferGuard

	logger *zap.Logger
}

// New 为页面主机 host 创建观察器
func New(rec Recorder, host string, cfg Config, logger *zap.Logger) *Page {
	logger = sysutil.OrNop(logger)
	if len(cfg.AllowedHosts) == 0 {
		cfg.AllowedHosts = DefaultAllowedHosts
	}
	if cfg.IntegrityInterval <= 0 {
		cfg.IntegrityInterval = DefaultIntegrityInterval
	}
	dev := sysutil.IsLocalDevHost(host, cfg.DevHosts)

	return &Page{
		ContextMenu: &ContextMenuGuard{devHost: dev},
		Keyboard:    &KeyboardGuard{rec: rec, devHost: dev},
		Links:       NewLinkGuard(rec, cfg.AllowedHosts, cfg.LogNavigation),
		Mutations:   &MutationGuard{rec: rec, logger: logger},
		Integrity:   &IntegrityPoll{rec: rec, interval: cfg.IntegrityInterval, ticker: cfg.Ticker, logger: logger},
		CSP:         &CSPListener{rec: rec, logger: logger},
		Hash:        &HashGuard{rec: rec},
		Transfer:    NewTransferGuard(rec, cfg.FileAliases),
		logger:      logger,
	}
}

// Start 挂载依赖平台 API 的观察器。缺失的 API 只会让对应 guard 不启用。
func (p *Page) Start(ctx context.Context, platform Platform) {
	if err := p.Mutations.Start(ctx, platform.Mutations); err != nil {
		p.logger.Debug("mutation guard inactive", zap.Error(err))
	}
	if err := p.CSP.Start(ctx, platform.Violations); err != nil {
		p.logger.Debug("csp listener inactive", zap.Error(err))
	}
	if err := p.Integrity.Start(ctx, platform.Elements); err != nil {
		p.logger.Debug("integrity poll inactive", zap.Error(err))
	}
}

// Stop 页面卸载
func (p *Page) Stop() {
	p.Mutations.Stop()
	p.CSP.Stop()
	p.Integrity.Stop()
}

// safely 宿主回调中的 panic 不向外传播
func safely(logger *zap.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("observer panic recovered", zap.String("observer", name), zap.Any("panic", r))
		}
	}()
	fn()
}
