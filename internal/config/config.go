package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/shouni/gemini-image-studio/pkg/generator"
)

// Config は環境変数から読み込んだサーバー設定です。
type Config struct {
	// サーバー
	Port             string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	MaxBodyBytes     int64
	AllowedOrigins   []string

	// ログ
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Gemini
	GeminiAPIKey     string
	ImageModel       string
	KeyCheckModel    string
	CompressRefs     bool
	ReferenceQuality int
}

// Load は環境変数から設定を読み込みます。
// .env ファイルがあれば先に読み込み、無ければ何もしません。
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvOrDefault("PORT", "8080"),
		HTTPReadTimeout:  getEnvDurationOrDefault("HTTP_READ_TIMEOUT", 30*time.Second),
		HTTPWriteTimeout: getEnvDurationOrDefault("HTTP_WRITE_TIMEOUT", 0),
		HTTPIdleTimeout:  getEnvDurationOrDefault("HTTP_IDLE_TIMEOUT", 120*time.Second),
		MaxBodyBytes:     int64(getEnvIntOrDefault("MAX_BODY_BYTES", 32<<20)),
		AllowedOrigins:   splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:         strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json")),
		GeminiAPIKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		ImageModel:       getEnvOrDefault("GEMINI_IMAGE_MODEL", generator.DefaultImageModel),
		KeyCheckModel:    getEnvOrDefault("GEMINI_TEXT_MODEL", generator.DefaultTextModel),
		CompressRefs:     getEnvBoolOrDefault("COMPRESS_REFERENCE_IMAGES", false),
		ReferenceQuality: getEnvIntOrDefault("REFERENCE_JPEG_QUALITY", generator.DefaultJPEGQuality),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定が使える値かを確認します。
// GEMINI_API_KEY は未設定でも構いません。リクエストごとにキーを渡せるからなのだ。
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	if c.ReferenceQuality < 1 || c.ReferenceQuality > 100 {
		return fmt.Errorf("REFERENCE_JPEG_QUALITY must be between 1 and 100, got %d", c.ReferenceQuality)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown LOG_LEVEL: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown LOG_FORMAT: %s (must be json or text)", c.LogFormat)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
