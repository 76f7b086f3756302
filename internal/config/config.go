package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MaxEventsLimit 会话日志保留事件数的上限
const MaxEventsLimit = 50

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Security  SecurityConfig  `mapstructure:"security"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port        int           `mapstructure:"port"`
	MetricsPort int           `mapstructure:"metrics_port"`
	StaticDir   string        `mapstructure:"static_dir"`
	PageTTL     time.Duration `mapstructure:"page_ttl"`
}

type StorageConfig struct {
	Backend    string      `mapstructure:"backend"`
	SQLitePath string      `mapstructure:"sqlite_path"`
	MaxBytes   int         `mapstructure:"max_bytes"`
	Redis      RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type SecurityConfig struct {
	AllowedHosts      []string      `mapstructure:"allowed_hosts"`
	DevHosts          []string      `mapstructure:"dev_hosts"`
	MaxEvents         int           `mapstructure:"max_events"`
	IntegrityInterval time.Duration `mapstructure:"integrity_interval"`
	LogNavigation     bool          `mapstructure:"log_navigation"`
	// FileAliases 拖放检测中额外允许的 "真实类型 -> 文件后缀"
	FileAliases map[string][]string `mapstructure:"file_aliases"`
}

type DashboardConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	RecentLimit     int           `mapstructure:"recent_limit"`
	AlertWindow     time.Duration `mapstructure:"alert_window"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaultValues(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.page_ttl", 30*time.Minute)

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.sqlite_path", "pagesentry.db")
	v.SetDefault("storage.max_bytes", 5*1024*1024) // 与浏览器 sessionStorage 的配额相当
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.ttl", 24*time.Hour)

	v.SetDefault("security.allowed_hosts", []string{"discord.gg", "discord.com", "github.com", "githubusercontent.com"})
	v.SetDefault("security.dev_hosts", []string{})
	v.SetDefault("security.max_events", 50)
	v.SetDefault("security.integrity_interval", 5*time.Second)
	v.SetDefault("security.log_navigation", false)
	v.SetDefault("security.file_aliases", map[string][]string{})

	v.SetDefault("dashboard.refresh_interval", 5*time.Second)
	v.SetDefault("dashboard.recent_limit", 20)
	v.SetDefault("dashboard.alert_window", 5*time.Minute)

	v.SetDefault("log.level", "info")
}

// Load 读取 configPath 下的 config.yaml，环境变量 PAGESENTRY_* 覆盖文件中的值。
// 配置文件不存在时只使用默认值和环境变量。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("pagesentry")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaultValues(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file config.yaml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Security.MaxEvents <= 0 || c.Security.MaxEvents > MaxEventsLimit {
		return fmt.Errorf("security.max_events must be between 1 and %d", MaxEventsLimit)
	}
	if c.Security.IntegrityInterval <= 0 || c.Dashboard.RefreshInterval <= 0 {
		return errors.New("poll intervals must be positive")
	}
	if c.Server.Port <= 0 {
		return errors.New("server.port must be positive")
	}
	return nil
}
