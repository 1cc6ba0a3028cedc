package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/unowned-ai/nutriscan/pkg/ai"
	"github.com/unowned-ai/nutriscan/pkg/products"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the environment-driven part of the configuration. Database and
// logging settings come from command line flags instead.
type Config struct {
	GeminiAPIKey string
	AIModel      string
	AIRegion     string

	HTTPAddr    string
	CORSOrigins []string

	Retry products.RetryPolicy
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

// LoadFile is Load with an explicit env file, which must exist.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	return fromEnv()
}

func fromEnv() (Config, error) {
	cfg := Config{
		GeminiAPIKey: getenv("GEMINI_API_KEY", ""),
		AIModel:      getenv("NUTRISCAN_AI_MODEL", ai.DefaultModel),
		AIRegion:     getenv("NUTRISCAN_AI_REGION", "Romania"),
		HTTPAddr:     getenv("NUTRISCAN_HTTP_ADDR", "127.0.0.1:8080"),
		CORSOrigins:  splitList(getenv("NUTRISCAN_CORS_ORIGINS", "")),
		Retry:        products.DefaultRetryPolicy(),
	}

	var err error
	if cfg.Retry.Timeout, err = getDuration("NUTRISCAN_HTTP_TIMEOUT", cfg.Retry.Timeout); err != nil {
		return Config{}, err
	}
	if cfg.Retry.BaseDelay, err = getDuration("NUTRISCAN_RETRY_BASE", cfg.Retry.BaseDelay); err != nil {
		return Config{}, err
	}
	if cfg.Retry.MaxDelay, err = getDuration("NUTRISCAN_RETRY_MAX", cfg.Retry.MaxDelay); err != nil {
		return Config{}, err
	}
	if v := getenv("NUTRISCAN_RETRY_ATTEMPTS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("%w: NUTRISCAN_RETRY_ATTEMPTS must be a positive integer, got %q", ErrInvalidConfig, v)
		}
		cfg.Retry.Attempts = n
	}
	return cfg, nil
}

// RequireAPIKey is called by the commands that talk to the model.
func (c Config) RequireAPIKey() (string, error) {
	if c.GeminiAPIKey == "" {
		return "", ai.ErrMissingAPIKey
	}
	return c.GeminiAPIKey, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %s must be a duration like 10s, got %q", ErrInvalidConfig, key, v)
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
