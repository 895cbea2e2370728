package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"legalklarity-backend/cache"
	"legalklarity-backend/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Status reports whether every required setting is present
type Status string

const (
	StatusReady        Status = "ready"
	StatusUnconfigured Status = "unconfigured"
)

// GeminiConfig holds the inference collaborator settings
type GeminiConfig struct {
	APIKey          string
	CredentialsFile string
	AnalysisModel   string
	ChatModel       string
	BaseURL         string
	Temperature     float32
}

// Config is built once at startup and passed to the components that need it
type Config struct {
	Port       int
	AppEnv     string
	LogLevel   string
	APIBaseURL string

	Gemini        GeminiConfig
	DatabaseURL   string
	AuthJWTSecret string

	Storage storage.StorageConfig
	Redis   cache.RedisConfig

	ChatRatePerSecond float64
	ChatBurst         int
	RequestTimeout    time.Duration
	CORSAllowOrigins  []string
}

// Load reads the first .env file found among envFiles (".env" and
// "../../.env" when none are given) without overriding the process
// environment, then resolves every setting through viper.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", "../../.env"}
	}
	for _, f := range envFiles {
		err := godotenv.Load(f)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	timeout, err := duration(v, "request_timeout")
	if err != nil {
		return nil, err
	}
	ttl, err := duration(v, "cache_ttl")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:       v.GetInt("port"),
		AppEnv:     strings.ToLower(v.GetString("app_env")),
		LogLevel:   strings.ToLower(v.GetString("log_level")),
		APIBaseURL: v.GetString("api_base_url"),
		Gemini: GeminiConfig{
			APIKey:          v.GetString("gemini_api_key"),
			CredentialsFile: v.GetString("gemini_credentials_file"),
			AnalysisModel:   v.GetString("gemini_analysis_model"),
			ChatModel:       v.GetString("gemini_chat_model"),
			BaseURL:         v.GetString("gemini_base_url"),
			Temperature:     float32(v.GetFloat64("gemini_temperature")),
		},
		DatabaseURL:   v.GetString("database_url"),
		AuthJWTSecret: v.GetString("auth_jwt_secret"),
		Storage: storage.StorageConfig{
			Type:         storage.StorageType(strings.ToLower(v.GetString("storage_type"))),
			LocalPath:    v.GetString("storage_local_path"),
			S3Bucket:     v.GetString("aws_s3_bucket"),
			S3Region:     v.GetString("aws_region"),
			S3Endpoint:   v.GetString("aws_s3_endpoint"),
			S3Prefix:     v.GetString("aws_s3_prefix"),
			AWSAccessKey: v.GetString("aws_access_key_id"),
			AWSSecretKey: v.GetString("aws_secret_access_key"),
		},
		Redis: cache.RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
			TTL:      ttl,
		},
		ChatRatePerSecond: v.GetFloat64("chat_rate_per_second"),
		ChatBurst:         v.GetInt("chat_burst"),
		RequestTimeout:    timeout,
		CORSAllowOrigins:  splitList(v.GetString("cors_allow_origins")),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d", cfg.Port)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("app_env", "production")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_base_url", "http://localhost:8080")

	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_credentials_file", "")
	v.SetDefault("gemini_analysis_model", "gemini-2.5-flash")
	v.SetDefault("gemini_chat_model", "gemini-2.5-flash")
	v.SetDefault("gemini_base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini_temperature", 0.2)

	v.SetDefault("database_url", "")
	v.SetDefault("auth_jwt_secret", "")

	v.SetDefault("storage_type", "local")
	v.SetDefault("storage_local_path", "./storage/files")
	v.SetDefault("aws_s3_bucket", "")
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("aws_s3_endpoint", "")
	v.SetDefault("aws_s3_prefix", "")
	v.SetDefault("aws_access_key_id", "")
	v.SetDefault("aws_secret_access_key", "")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl", "24h")

	v.SetDefault("chat_rate_per_second", 2.0)
	v.SetDefault("chat_burst", 10)
	v.SetDefault("request_timeout", "120s")
	v.SetDefault("cors_allow_origins", "*")
}

// Status returns StatusReady when the inference credential, database and
// token secret are all set. Otherwise it returns StatusUnconfigured and the
// missing environment variables.
func (c *Config) Status() (Status, []string) {
	var missing []string
	if c.Gemini.APIKey == "" && c.Gemini.CredentialsFile == "" {
		missing = append(missing, "GEMINI_API_KEY or GEMINI_CREDENTIALS_FILE")
	}
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.AuthJWTSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}
	if c.Storage.Type == storage.StorageTypeS3 && c.Storage.S3Bucket == "" {
		missing = append(missing, "AWS_S3_BUCKET")
	}

	if len(missing) > 0 {
		return StatusUnconfigured, missing
	}
	return StatusReady, nil
}

// Development reports whether APP_ENV is development
func (c *Config) Development() bool {
	return c.AppEnv == "development"
}

// Address returns the listen address
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// CacheEnabled reports whether a Redis address is configured
func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != ""
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToUpper(key), raw, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
