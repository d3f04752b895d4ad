package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                 string
	DBPath               string
	LogLevel             string
	TickInterval         time.Duration
	SessionIdleTimeout   time.Duration
	CorrectFeedbackDelay time.Duration
	WrongFeedbackDelay   time.Duration
	FocusSwitchSeconds   int
	ActivityWorkerCount  int
	ActivityQueueSize    int
	ActivityBatchSize    int
	ActivityFlushEvery   time.Duration
	RecordTones          bool
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                 envOr("ADDR", ":8080"),
		DBPath:               envOr("DB_PATH", "file:visionize.db"),
		LogLevel:             envOr("LOG_LEVEL", "INFO"),
		TickInterval:         envDurationOr("TICK_INTERVAL", time.Second),
		SessionIdleTimeout:   envDurationOr("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		CorrectFeedbackDelay: envDurationOr("CORRECT_FEEDBACK_DELAY", 1500*time.Millisecond),
		WrongFeedbackDelay:   envDurationOr("WRONG_FEEDBACK_DELAY", 750*time.Millisecond),
		FocusSwitchSeconds:   envIntOr("FOCUS_SWITCH_SECONDS", 2),
		ActivityWorkerCount:  envIntOr("ACTIVITY_WORKER_COUNT", 2),
		ActivityQueueSize:    envIntOr("ACTIVITY_QUEUE_SIZE", 256),
		ActivityBatchSize:    envIntOr("ACTIVITY_BATCH_SIZE", 32),
		ActivityFlushEvery:   envDurationOr("ACTIVITY_FLUSH_INTERVAL", 2*time.Second),
		RecordTones:          envBoolOr("RECORD_TONES", true),
	}
}

// Validate reports every unusable value at once.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		problems = append(problems, fmt.Sprintf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR (got %q)", c.LogLevel))
	}
	if c.TickInterval <= 0 {
		problems = append(problems, "TICK_INTERVAL must be positive")
	}
	if c.SessionIdleTimeout <= 0 {
		problems = append(problems, "SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.CorrectFeedbackDelay <= 0 {
		problems = append(problems, "CORRECT_FEEDBACK_DELAY must be positive")
	}
	if c.WrongFeedbackDelay <= 0 {
		problems = append(problems, "WRONG_FEEDBACK_DELAY must be positive")
	}
	if c.FocusSwitchSeconds < 1 || c.FocusSwitchSeconds > 3 {
		problems = append(problems, fmt.Sprintf("FOCUS_SWITCH_SECONDS must be between 1 and 3 (got %d)", c.FocusSwitchSeconds))
	}
	if c.ActivityWorkerCount <= 0 {
		problems = append(problems, "ACTIVITY_WORKER_COUNT must be positive")
	}
	if c.ActivityQueueSize <= 0 {
		problems = append(problems, "ACTIVITY_QUEUE_SIZE must be positive")
	}
	if c.ActivityBatchSize <= 0 {
		problems = append(problems, "ACTIVITY_BATCH_SIZE must be positive")
	}
	if c.ActivityFlushEvery <= 0 {
		problems = append(problems, "ACTIVITY_FLUSH_INTERVAL must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("invalid value for %s=%q, using default %t", key, v, def)
	}
	return def
}
