package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultLogLevel        = "info"
	defaultAnalysisTimeout = 60 * time.Second
	defaultMaxUploadBytes  = 10 << 20
	defaultTextureBackend  = "lbp"
	defaultAzureContainer  = "leaf-reports"
	defaultArchiveCapacity = 100
	defaultSessionTTL      = 7 * 24 * time.Hour
)

type Config struct {
	TelegramToken string
	HTTPAddr      string

	LogLevel  string
	LogPretty bool

	AnalysisTimeout   time.Duration
	MaxUploadBytes    int64
	TextureBackend    string
	IsolateForeground bool

	RedisAddr  string
	SessionTTL time.Duration

	AzureConnectionString string
	AzureContainer        string
	ArchiveCapacity       int
}

// Load читает конфигурацию из окружения и .env файла.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv строит конфигурацию через lookup и проверяет её.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	env := envReader{lookup: lookup}

	cfg := &Config{
		TelegramToken:         env.text("TELEGRAM_TOKEN", ""),
		HTTPAddr:              env.text("HTTP_ADDR", defaultHTTPAddr),
		LogLevel:              env.text("LOG_LEVEL", defaultLogLevel),
		LogPretty:             env.flag("LOG_PRETTY", false),
		AnalysisTimeout:       env.duration("ANALYSIS_TIMEOUT", defaultAnalysisTimeout),
		MaxUploadBytes:        env.integer("MAX_UPLOAD_BYTES", defaultMaxUploadBytes),
		TextureBackend:        strings.ToLower(env.text("TEXTURE_BACKEND", defaultTextureBackend)),
		IsolateForeground:     env.flag("ISOLATE_FOREGROUND", false),
		RedisAddr:             env.text("REDIS_ADDR", ""),
		SessionTTL:            env.duration("SESSION_TTL", defaultSessionTTL),
		AzureConnectionString: env.text("AZURE_STORAGE_CONNECTION_STRING", ""),
		AzureContainer:        env.text("AZURE_CONTAINER", defaultAzureContainer),
		ArchiveCapacity:       int(env.integer("ARCHIVE_CAPACITY", defaultArchiveCapacity)),
	}

	if env.err != nil {
		return nil, env.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность значений.
func (c *Config) Validate() error {
	var errs []error
	if c.TelegramToken == "" && c.HTTPAddr == "" {
		errs = append(errs, errors.New("at least one of TELEGRAM_TOKEN or HTTP_ADDR must be set"))
	}
	if c.AnalysisTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ANALYSIS_TIMEOUT must be > 0 (got %s)", c.AnalysisTimeout))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES must be > 0 (got %d)", c.MaxUploadBytes))
	}
	if c.ArchiveCapacity <= 0 {
		errs = append(errs, fmt.Errorf("ARCHIVE_CAPACITY must be > 0 (got %d)", c.ArchiveCapacity))
	}
	switch c.TextureBackend {
	case "lbp", "none":
	default:
		errs = append(errs, fmt.Errorf("TEXTURE_BACKEND must be lbp or none (got %q)", c.TextureBackend))
	}
	return errors.Join(errs...)
}

// BotEnabled сообщает, что задан токен Telegram.
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// HTTPEnabled сообщает, что задан адрес HTTP API.
func (c *Config) HTTPEnabled() bool {
	return c.HTTPAddr != ""
}

// envReader запоминает первую ошибку разбора.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) raw(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// text возвращает значение; явно заданная пустая строка сохраняется.
func (e *envReader) text(key, def string) string {
	if v, ok := e.raw(key); ok {
		return v
	}
	return def
}

func (e *envReader) flag(key string, def bool) bool {
	v, ok := e.raw(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return b
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := e.raw(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return d
}

func (e *envReader) integer(key string, def int64) int64 {
	v, ok := e.raw(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		e.fail(fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return n
}

func (e *envReader) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}
