package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files, environment variables and flags.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	AppID          string        `mapstructure:"medapi_app_id"`
	AppKey         string        `mapstructure:"medapi_app_key"`
	Endpoint       string        `mapstructure:"medapi_endpoint"`
	APIVersion     string        `mapstructure:"medapi_api_version"`
	Model          string        `mapstructure:"medapi_model"`
	DevMode        bool          `mapstructure:"medapi_dev_mode"`
	TimeoutSeconds int64         `mapstructure:"medapi_timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`
	RateLimitRPS   float64       `mapstructure:"medapi_rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"medapi_rate_limit_burst"`

	ProfilesFile   string `mapstructure:"profiles_file"`
	Profile        string `mapstructure:"profile"`
	PublishersFile string `mapstructure:"publishers_file"`
	MetricsAddr    string `mapstructure:"metrics_addr"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	RedisAddr              string        `mapstructure:"redis_addr"`
	RedisPassword          string        `mapstructure:"redis_password"`
	RedisDB                int           `mapstructure:"redis_db"`
	SessionTTLSeconds      int64         `mapstructure:"session_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	SessionTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"log-level":       "log_level",
	"app-id":          "medapi_app_id",
	"app-key":         "medapi_app_key",
	"endpoint":        "medapi_endpoint",
	"api-version":     "medapi_api_version",
	"model":           "medapi_model",
	"dev-mode":        "medapi_dev_mode",
	"timeout":         "medapi_timeout_seconds",
	"profiles-file":   "profiles_file",
	"profile":         "profile",
	"publishers-file": "publishers_file",
	"metrics-addr":    "metrics_addr",
	"storage":         "storage_type",
	"bbolt-path":      "bbolt_path",
	"redis-addr":      "redis_addr",
}

// Load reads configuration from configs/.env, the environment and, when given, bound flags.
// Flags only override when explicitly set.
func Load(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-diagnosis-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("medapi_app_id", "")
	v.SetDefault("medapi_app_key", "")
	v.SetDefault("medapi_endpoint", "https://api.infermedica.com/")
	v.SetDefault("medapi_api_version", "v3")
	v.SetDefault("medapi_model", "")
	v.SetDefault("medapi_dev_mode", false)
	v.SetDefault("medapi_timeout_seconds", 30)
	v.SetDefault("medapi_rate_limit_rps", 0)
	v.SetDefault("medapi_rate_limit_burst", 1)
	v.SetDefault("profiles_file", "")
	v.SetDefault("profile", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/sessions.db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("session_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64(time.Hour/time.Second))

	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(key, f)
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.APIVersion = strings.ToLower(strings.TrimSpace(cfg.APIVersion))
	switch cfg.APIVersion {
	case "v1", "v2", "v3":
	default:
		return nil, fmt.Errorf("invalid medapi_api_version %q (expected v1, v2 or v3)", cfg.APIVersion)
	}

	if strings.TrimSpace(cfg.ProfilesFile) == "" && (strings.TrimSpace(cfg.AppID) == "" || strings.TrimSpace(cfg.AppKey) == "") {
		return nil, fmt.Errorf("invalid credentials: set medapi_app_id and medapi_app_key or provide profiles_file")
	}

	if cfg.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid medapi_timeout_seconds (must be positive seconds)")
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second

	if cfg.RateLimitRPS < 0 {
		return nil, fmt.Errorf("invalid medapi_rate_limit_rps (must not be negative)")
	}

	if cfg.SessionTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid session_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.SessionTTL = time.Duration(cfg.SessionTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}
