package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr        string // API bind address, e.g., "127.0.0.1:8080" (local) or ":8080" (Docker)
	LogDir      string // logs directory
	LogLevel    string // debug | info | warn | error
	DatabaseURL string // empty means in-memory stores
	RedisURL    string // empty disables the event relay
	Environment string // "production" selects the large download test file

	SpeedTestURL       string // global override for the download test endpoint
	MaxConcurrentTests int64  // cap on in-flight speed tests process-wide
	CallTimeout        time.Duration

	RateLimitPerMin int
	RateLimitBurst  int
	PublicAPIKeys   []string
	AdminAPIKeys    []string

	SlackWebhook string
}

func FromEnv() Config {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	maxTests := int64(4)
	if v := os.Getenv("MAX_CONCURRENT_TESTS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxTests = n
		}
	}

	callTimeout := 10 * time.Second
	if v := os.Getenv("CALL_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			callTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	rpm := 120
	if v := os.Getenv("RATE_LIMIT_PER_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			rpm = n
		}
	}
	burst := 60
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			burst = n
		}
	}

	return Config{
		Addr:               addr,
		LogDir:             logDir,
		LogLevel:           logLevel,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		Environment:        os.Getenv("APP_ENV"),
		SpeedTestURL:       os.Getenv("SPEED_TEST_URL"),
		MaxConcurrentTests: maxTests,
		CallTimeout:        callTimeout,
		RateLimitPerMin:    rpm,
		RateLimitBurst:     burst,
		PublicAPIKeys:      splitKeys(os.Getenv("PUBLIC_API_KEYS")),
		AdminAPIKeys:       splitKeys(os.Getenv("ADMIN_API_KEYS")),
		SlackWebhook:       os.Getenv("SLACK_WEBHOOK"),
	}
}

func (c Config) Production() bool {
	return c.Environment == "production"
}

func splitKeys(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
