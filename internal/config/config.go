package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	SessionSecret     string
	JWTSecret         string
	JWTTTL            time.Duration
	GinMode           string
	UploadDir         string
	UploadURLPath     string
	SuperRootUserName string
	SuperRootPassword string
	SiteBaseURL       string
	AllowedOrigins    []string
	TrustedProxies    []string
	RedisURL          string
	Logging           LoggingConfig
	Comments          CommentConfig
	SchedulerEnabled  bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// CommentConfig 控制评论提交的频率限制。
type CommentConfig struct {
	RateLimit  int
	RateWindow time.Duration
}

// Load 从环境变量（以及可选的 config.yaml）读取应用配置，并为缺失项提供安全的默认值。
func Load() (AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/homesite")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return fromViper(v), nil
}

// 开发环境默认密钥，仅允许在 debug/test 模式下使用。
const (
	devSessionSecret = "homesite-dev-secret"
	devJWTSecret     = "homesite-dev-jwt-secret"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("database_path", "homesite.db")
	v.SetDefault("session_secret", devSessionSecret)
	v.SetDefault("jwt_secret", devJWTSecret)
	v.SetDefault("jwt_ttl_hours", 24)
	v.SetDefault("gin_mode", "release")
	v.SetDefault("upload_dir", "web/static/uploads")
	v.SetDefault("upload_url_path", "/static/uploads")
	v.SetDefault("site_base_url", "http://localhost:5173")
	v.SetDefault("allowed_origins", "http://localhost:5173")
	v.SetDefault("trusted_proxies", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("comment_rate_limit", 5)
	v.SetDefault("comment_rate_window_minutes", 10)
	v.SetDefault("scheduler_enabled", true)
}

func fromViper(v *viper.Viper) AppConfig {
	port := strings.TrimSpace(v.GetString("port"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(v.GetString("listen_addr"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabasePath:      strings.TrimSpace(v.GetString("database_path")),
		SessionSecret:     strings.TrimSpace(v.GetString("session_secret")),
		JWTSecret:         strings.TrimSpace(v.GetString("jwt_secret")),
		JWTTTL:            time.Duration(v.GetInt("jwt_ttl_hours")) * time.Hour,
		GinMode:           strings.TrimSpace(v.GetString("gin_mode")),
		UploadDir:         strings.TrimSpace(v.GetString("upload_dir")),
		UploadURLPath:     strings.TrimSpace(v.GetString("upload_url_path")),
		SuperRootUserName: strings.TrimSpace(v.GetString("super_root_user_name")),
		SuperRootPassword: strings.TrimSpace(v.GetString("super_root_password")),
		SiteBaseURL:       strings.TrimSpace(v.GetString("site_base_url")),
		AllowedOrigins:    splitList(v.GetString("allowed_origins")),
		TrustedProxies:    splitList(v.GetString("trusted_proxies")),
		RedisURL:          strings.TrimSpace(v.GetString("redis_url")),
		Logging: LoggingConfig{
			Level:  strings.TrimSpace(v.GetString("log_level")),
			Format: strings.TrimSpace(v.GetString("log_format")),
		},
		Comments: CommentConfig{
			RateLimit:  v.GetInt("comment_rate_limit"),
			RateWindow: time.Duration(v.GetInt("comment_rate_window_minutes")) * time.Minute,
		},
		SchedulerEnabled: v.GetBool("scheduler_enabled"),
	}
}

// Validate 检查必需配置是否合法。
func (c AppConfig) Validate() error {
	if c.DatabasePath == "" {
		return errors.New("database_path is required")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if !c.allowsDevSecrets() {
		if c.JWTSecret == devJWTSecret {
			return fmt.Errorf("jwt_secret must be set in %s mode", c.modeName())
		}
		if c.SessionSecret == "" || c.SessionSecret == devSessionSecret {
			return fmt.Errorf("session_secret must be set in %s mode", c.modeName())
		}
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl_hours must be positive, got %s", c.JWTTTL)
	}
	if c.Comments.RateLimit < 0 {
		return fmt.Errorf("comment_rate_limit must not be negative, got %d", c.Comments.RateLimit)
	}
	if c.Comments.RateLimit > 0 && c.Comments.RateWindow <= 0 {
		return errors.New("comment_rate_window_minutes must be positive when rate limiting is enabled")
	}
	return nil
}

// allowsDevSecrets 仅在显式的 debug/test 模式下放行默认密钥。
func (c AppConfig) allowsDevSecrets() bool {
	switch strings.ToLower(c.GinMode) {
	case "debug", "test":
		return true
	default:
		return false
	}
}

func (c AppConfig) modeName() string {
	if c.GinMode == "" {
		return "release"
	}
	return c.GinMode
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
