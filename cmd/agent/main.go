package main

import (
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/Hara602/pageSentry/internal/config"
	"github.com/Hara602/pageSentry/internal/server"
	"github.com/Hara602/pageSentry/internal/storage"
	"github.com/Hara602/pageSentry/internal/sysutil"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// loadEnv 读取 .env 到环境变量，文件不存在时 loaded 为 false 且不报错
func loadEnv(path string) (loaded bool, err error) {
	err = godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func main() {
	// 配置读取前先用默认级别的日志
	if err := sysutil.InitLogger(""); err != nil {
		panic(err)
	}

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	loaded, err := loadEnv(envFile)
	if err != nil {
		sysutil.LogSugar.Fatalf("Failed to load %s: %v", envFile, err)
	}
	if !loaded {
		sysutil.Log.Debug("no .env file found, using system environment variables", zap.String("path", envFile))
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		sysutil.LogSugar.Fatalf("Config load failed: %v", err)
	}

	// 按配置的级别重新初始化日志
	if err := sysutil.InitLogger(cfg.Log.Level); err != nil {
		sysutil.LogSugar.Fatalf("Invalid log level %q: %v", cfg.Log.Level, err)
	}
	defer sysutil.Log.Sync()

	sysutil.Log.Info("🛡️ Page Sentry Agent Starting...", zap.String("storage", cfg.Storage.Backend))

	store, closeStore, err := storage.Open(storage.Options{
		Backend:    cfg.Storage.Backend,
		SQLitePath: cfg.Storage.SQLitePath,
		Redis: storage.RedisOptions{
			Host:     cfg.Storage.Redis.Host,
			Port:     cfg.Storage.Redis.Port,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
			TTL:      cfg.Storage.Redis.TTL,
		},
	})
	if err != nil {
		sysutil.Log.Fatal("Storage init failed", zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			sysutil.Log.Warn("Storage close failed", zap.Error(err))
		}
	}()

	srv := server.New(store, server.OptionsFromConfig(cfg), sysutil.Log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// 捕获操作系统信号，优雅关闭服务器
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			sysutil.Log.Error("❌ Server stopped", zap.Error(err))
		}
	case <-sigCh:
		sysutil.Log.Info("Shutting down...")
	}

	if err := srv.Shutdown(); err != nil {
		sysutil.Log.Error("Shutdown failed", zap.Error(err))
	}
}
