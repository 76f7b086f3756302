package server

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/Hara602/pageSentry/internal/dashboard"
	"github.com/Hara602/pageSentry/internal/eventlog"
	"github.com/Hara602/pageSentry/internal/metrics"
	"github.com/Hara602/pageSentry/internal/session"
	"github.com/Hara602/pageSentry/internal/storage"
	"github.com/Hara602/pageSentry/internal/watcher"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// tab 一个浏览器标签页：独立的会话存储命名空间和事件日志
type tab struct {
	id       string
	store    *storage.Namespaced
	identity *session.Identity
	sink     *eventlog.Sink

	mu       sync.Mutex
	reader   *dashboard.Reader
	lastSeen time.Time
}

// page 一次页面加载：观察器和平台适配器
type page struct {
	id     string
	tab    *tab
	guards *watcher.Page
	cancel context.CancelFunc

	mutations  *mutationFeed
	violations *violationFeed
	elements   *elementFeed

	mu       sync.Mutex
	lastSeen time.Time
}

func (p *page) touch(now time.Time) {
	p.mu.Lock()
	p.lastSeen = now
	p.mu.Unlock()
	p.tab.touch(now)
}

func (p *page) idleSince() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSeen
}

func (t *tab) touch(now time.Time) {
	t.mu.Lock()
	t.lastSeen = now
	t.mu.Unlock()
}

// registry 标签页和页面的内存索引，数据本身在存储后端
type registry struct {
	mu    sync.Mutex
	tabs  map[string]*tab
	pages map[string]*page

	store  storage.Store
	opts   Options
	logger *zap.Logger
}

func newRegistry(store storage.Store, opts Options, logger *zap.Logger) *registry {
	return &registry{
		tabs:   make(map[string]*tab),
		pages:  make(map[string]*page),
		store:  store,
		opts:   opts,
		logger: logger,
	}
}

// tab 返回已有标签页，id 为空或未知时新建
func (r *registry) tab(id, userAgent string) *tab {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tabs[id]; ok && id != "" {
		t.touch(r.opts.Clock())
		return t
	}
	if id == "" {
		id = uuid.NewString()
	}
	ns := storage.Namespace(r.store, id, r.opts.TabQuota)
	identity := session.NewIdentity(ns, r.opts.Clock, r.logger)
	t := &tab{
		id:       id,
		store:    ns,
		identity: identity,
		sink: eventlog.NewSink(ns, identity, eventlog.NewEnvironment(userAgent, ""), eventlog.Options{
			MaxEvents: r.opts.MaxEvents,
			Clock:     r.opts.Clock,
			Logger:    r.logger.With(zap.String("tab", id)),
		}),
		lastSeen: r.opts.Clock(),
	}
	r.tabs[id] = t
	return t
}

func (r *registry) openPage(ctx context.Context, t *tab, load PageLoad) *page {
	host := load.Host
	if host == "" {
		if u, err := url.Parse(load.URL); err == nil {
			host = u.Host
		}
	}
	t.sink.Environment().SetURL(load.URL)

	ctx, cancel := context.WithCancel(ctx)
	p := &page{
		id:       uuid.NewString(),
		tab:      t,
		guards:   watcher.New(t.sink, host, r.opts.Watcher, r.logger),
		cancel:   cancel,
		lastSeen: r.opts.Clock(),
	}

	platform := watcher.Platform{}
	if load.Supports.MutationObserver {
		p.mutations = &mutationFeed{}
		platform.Mutations = p.mutations
	}
	if load.Supports.PolicyViolations {
		p.violations = &violationFeed{}
		platform.Violations = p.violations
	}
	if load.Counts != nil {
		p.elements = &elementFeed{counts: *load.Counts}
		platform.Elements = p.elements
	}
	p.guards.Start(ctx, platform)

	r.mu.Lock()
	r.pages[p.id] = p
	r.mu.Unlock()
	metrics.ActivePages.Inc()
	return p
}

func (r *registry) page(id string) (*page, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pages[id]
	return p, ok
}

func (r *registry) closePage(id string) bool {
	r.mu.Lock()
	p, ok := r.pages[id]
	delete(r.pages, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	p.guards.Stop()
	p.cancel()
	metrics.ActivePages.Dec()
	return true
}

// sweep 关闭空闲超时的页面；没有页面的空闲标签页视为已关闭，连同会话数据一起删除
func (r *registry) sweep(now time.Time) {
	ttl := r.opts.PageTTL
	var stale []string

	r.mu.Lock()
	for id, p := range r.pages {
		if now.Sub(p.idleSince()) > ttl {
			stale = append(stale, id)
		}
	}
	r.mu.Unlock()

	for _, id := range stale {
		r.closePage(id)
	}

	r.mu.Lock()
	active := map[*tab]bool{}
	for _, p := range r.pages {
		active[p.tab] = true
	}
	var ended []*tab
	for id, t := range r.tabs {
		t.mu.Lock()
		idle := now.Sub(t.lastSeen) > ttl
		t.mu.Unlock()
		if idle && !active[t] {
			delete(r.tabs, id)
			ended = append(ended, t)
		}
	}
	r.mu.Unlock()

	for _, t := range ended {
		t.end()
		if err := t.store.Clear(context.Background(), eventlog.Key, session.Key); err != nil {
			r.logger.Warn("tab storage not cleared", zap.String("tab", t.id), zap.Error(err))
		}
	}
	if len(stale) > 0 || len(ended) > 0 {
		r.logger.Info("idle pages swept", zap.Int("pages", len(stale)), zap.Int("tabs", len(ended)))
	}
}

func (r *registry) closeAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.pages))
	for id := range r.pages {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	for _, id := range ids {
		r.closePage(id)
	}
}

// end 停止标签页上仍在运行的仪表盘刷新
func (t *tab) end() {
	t.mu.Lock()
	reader := t.reader
	t.reader = nil
	t.mu.Unlock()
	if reader != nil {
		reader.Stop()
	}
}

// dashboard 标签页的仪表盘，第一次访问时创建 (会话时长从这时开始计)
func (t *tab) dashboard(opts dashboard.Options) *dashboard.Reader {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reader == nil {
		t.reader = dashboard.NewReader(t.sink, nil, opts)
	}
	return t.reader
}
