package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded once at process start
// from environment variables and config files.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	PostgresDB       string `mapstructure:"postgres_db"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`

	Channel string `mapstructure:"notify_channel"`

	ForumProtocol string `mapstructure:"forum_protocol"`
	ForumHost     string `mapstructure:"forum_host"`
	ForumPort     int    `mapstructure:"forum_port"`

	DetectorsFile          string `mapstructure:"detectors_file"`
	SinksFile              string `mapstructure:"sinks_file"`
	IPOverridesFile        string `mapstructure:"ip_overrides_file"`
	UserAgentOverridesFile string `mapstructure:"user_agent_overrides_file"`

	EvaluateTimeoutSeconds int64         `mapstructure:"evaluate_timeout_seconds"`
	EvaluateTimeout        time.Duration `mapstructure:"-"`

	DedupEnabled         bool          `mapstructure:"dedup_enabled"`
	BBoltPath            string        `mapstructure:"bbolt_path"`
	DedupTTLSeconds      int64         `mapstructure:"dedup_ttl_seconds"`
	DedupCleanupSeconds  int64         `mapstructure:"dedup_cleanup_interval_seconds"`
	DedupTTL             time.Duration `mapstructure:"-"`
	DedupCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	// Every key is registered with a default so Unmarshal materializes it
	// and AutomaticEnv can surface the matching env var.
	v.SetDefault("app_name", "forum-sentinel")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("postgres_db", "")
	v.SetDefault("postgres_user", "")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_host", "127.0.0.1")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("notify_channel", "message_events")
	v.SetDefault("forum_protocol", "http")
	v.SetDefault("forum_host", "127.0.0.1")
	v.SetDefault("forum_port", 8000)
	v.SetDefault("detectors_file", "./configs/detectors.yaml")
	v.SetDefault("sinks_file", "")
	v.SetDefault("ip_overrides_file", "")
	v.SetDefault("user_agent_overrides_file", "")
	v.SetDefault("evaluate_timeout_seconds", 15)
	v.SetDefault("dedup_enabled", false)
	v.SetDefault("bbolt_path", "./data/seen.db")
	v.SetDefault("dedup_ttl_seconds", int64((1*time.Hour)/time.Second))
	v.SetDefault("dedup_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.PostgresDB) == "" {
		return nil, fmt.Errorf("postgres_db is required")
	}
	if strings.TrimSpace(cfg.PostgresUser) == "" {
		return nil, fmt.Errorf("postgres_user is required")
	}
	if strings.TrimSpace(cfg.Channel) == "" {
		return nil, fmt.Errorf("notify_channel must not be empty")
	}
	if cfg.EvaluateTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid evaluate_timeout_seconds (must be positive seconds)")
	}
	cfg.EvaluateTimeout = time.Duration(cfg.EvaluateTimeoutSeconds) * time.Second

	if cfg.DedupEnabled {
		if cfg.DedupTTLSeconds <= 0 {
			return nil, fmt.Errorf("invalid dedup_ttl_seconds (must be positive seconds)")
		}
		if cfg.DedupCleanupSeconds <= 0 {
			return nil, fmt.Errorf("invalid dedup_cleanup_interval_seconds (must be positive seconds)")
		}
	}
	cfg.DedupTTL = time.Duration(cfg.DedupTTLSeconds) * time.Second
	cfg.DedupCleanupInterval = time.Duration(cfg.DedupCleanupSeconds) * time.Second

	return &cfg, nil
}

// DatabaseURL assembles the Postgres connection string from the discrete
// credential fields.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:   "/" + c.PostgresDB,
	}
	if c.PostgresPassword != "" {
		u.User = url.UserPassword(c.PostgresUser, c.PostgresPassword)
	} else {
		u.User = url.User(c.PostgresUser)
	}
	return u.String()
}

// ForumBaseURL builds the base URL used for permalink construction.
func (c *Config) ForumBaseURL() string {
	return fmt.Sprintf("%s://%s:%d", c.ForumProtocol, c.ForumHost, c.ForumPort)
}
