package server

import (
	"context"
	"fmt"
	"time"

	"github.com/Hara602/pageSentry/internal/config"
	"github.com/Hara602/pageSentry/internal/dashboard"
	"github.com/Hara602/pageSentry/internal/metrics"
	"github.com/Hara602/pageSentry/internal/schedule"
	"github.com/Hara602/pageSentry/internal/storage"
	"github.com/Hara602/pageSentry/internal/sysutil"
	"github.com/Hara602/pageSentry/internal/watcher"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

// TabCookie 标识浏览器标签页的 cookie
const TabCookie = "sentry_tab"

// Options agent 的运行参数
type Options struct {
	Port        int
	MetricsPort int
	StaticDir   string
	PageTTL     time.Duration
	TabQuota    int // 每个标签页会话存储的字节上限，0 表示不限
	MaxEvents   int
	Watcher     watcher.Config
	Dashboard   dashboard.Options
	Clock       func() time.Time
}

// OptionsFromConfig 把配置文件映射为运行参数
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Port:        cfg.Server.Port,
		MetricsPort: cfg.Server.MetricsPort,
		StaticDir:   cfg.Server.StaticDir,
		PageTTL:     cfg.Server.PageTTL,
		TabQuota:    cfg.Storage.MaxBytes,
		MaxEvents:   cfg.Security.MaxEvents,
		Watcher: watcher.Config{
			AllowedHosts:      cfg.Security.AllowedHosts,
			DevHosts:          cfg.Security.DevHosts,
			LogNavigation:     cfg.Security.LogNavigation,
			IntegrityInterval: cfg.Security.IntegrityInterval,
			FileAliases:       cfg.Security.FileAliases,
		},
		Dashboard: dashboard.Options{
			RecentLimit:     cfg.Dashboard.RecentLimit,
			AlertWindow:     cfg.Dashboard.AlertWindow,
			RefreshInterval: cfg.Dashboard.RefreshInterval,
		},
	}
}

// Server 浏览器宿主：接收页面信号，提供仪表盘、导出和清空
type Server struct {
	opts    Options
	app     *fiber.App
	metrics *fiber.App
	pages   *registry
	sweeper *schedule.Periodic
	baseCtx context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger
}

func New(store storage.Store, opts Options, logger *zap.Logger) *Server {
	logger = sysutil.OrNop(logger)
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.PageTTL <= 0 {
		opts.PageTTL = 30 * time.Minute
	}
	if opts.Dashboard.Logger == nil {
		opts.Dashboard.Logger = logger
	}
	opts.Dashboard.Clock = opts.Clock

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:    opts,
		pages:   newRegistry(store, opts, logger),
		baseCtx: ctx,
		cancel:  cancel,
		logger:  logger,
	}
	s.app = s.newApp()
	s.metrics = newMetricsApp()
	return s
}

func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             1 * 1024 * 1024,
	})
	app.Use(recover.New())

	api := app.Group("/api")
	api.Post("/pages", s.handlePageLoad)
	api.Post("/pages/:id/signals", s.handleSignal)
	api.Delete("/pages/:id", s.handlePageUnload)
	api.Get("/dashboard", s.handleDashboard)
	api.Get("/logs/export", s.handleExport)
	api.Delete("/logs", s.handleClear)

	if s.opts.StaticDir != "" {
		app.Static("/", s.opts.StaticDir)
	}
	return app
}

func newMetricsApp() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	app.Get("/metrics", func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	})
	return app
}

// App 页面和 API 路由
func (s *Server) App() *fiber.App { return s.app }

// MetricsApp Prometheus 路由
func (s *Server) MetricsApp() *fiber.App { return s.metrics }

// Start 启动空闲页面清理并监听端口，阻塞到主服务退出
func (s *Server) Start() error {
	sweeper, err := schedule.NewPeriodic(time.Minute, func(_ context.Context, now time.Time) {
		s.pages.sweep(now)
	}, nil)
	if err != nil {
		return err
	}
	sweeper.Start(s.baseCtx)
	s.sweeper = sweeper

	go func() {
		addr := fmt.Sprintf(":%d", s.opts.MetricsPort)
		if err := s.metrics.Listen(addr); err != nil {
			s.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("🛡️ Page Sentry agent listening", zap.Int("port", s.opts.Port), zap.Int("metrics_port", s.opts.MetricsPort))
	return s.app.Listen(fmt.Sprintf(":%d", s.opts.Port))
}

// Shutdown 停止清理任务、卸载所有页面并关闭监听
func (s *Server) Shutdown() error {
	if s.sweeper != nil {
		s.sweeper.Stop()
	}
	s.pages.closeAll()
	s.cancel()
	if err := s.metrics.Shutdown(); err != nil {
		s.logger.Warn("metrics shutdown", zap.Error(err))
	}
	return s.app.Shutdown()
}
