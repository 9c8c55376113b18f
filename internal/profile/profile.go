package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where veida stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your veida instance.
	InstanceURL string

	// Timezone is the canonical IANA timezone used for every calendar date
	// (review schedules and due-today scans).
	Timezone string // VEIDA_TIMEZONE (default: UTC)
	// ReviewStrategy selects how flashcards are scheduled: ratio, fixed or dynamic.
	ReviewStrategy string // VEIDA_REVIEW_STRATEGY (default: ratio)

	// JWTSecret verifies bearer tokens issued by the identity provider.
	JWTSecret string // VEIDA_JWT_SECRET
	// AllowedOrigins is a comma separated CORS origin list.
	AllowedOrigins string // VEIDA_ALLOWED_ORIGINS (default: http://localhost:3000)

	// AI Configuration
	AIEnabled       bool   // VEIDA_AI_ENABLED
	AIOpenAIAPIKey  string // VEIDA_AI_OPENAI_API_KEY
	AIOpenAIBaseURL string // VEIDA_AI_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	AILLMModel      string // VEIDA_AI_LLM_MODEL (default: gpt-4o-mini)
	AIMaxConcurrent int    // VEIDA_AI_MAX_CONCURRENT (default: 3)

	// Document Processing Configuration
	TextExtractEnabled bool   // VEIDA_TEXTEXTRACT_ENABLED (default: false)
	TikaServerURL      string // VEIDA_TEXTEXTRACT_TIKA_URL (default: http://localhost:9998)

	// Push Notification Configuration
	PushEnabled        bool   // VEIDA_PUSH_ENABLED (default: false)
	FCMProjectID       string // VEIDA_FCM_PROJECT_ID
	FCMCredentialsFile string // VEIDA_FCM_CREDENTIALS_FILE
	ReminderHour       int    // VEIDA_REMINDER_HOUR (default: 9)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and an API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && p.AIOpenAIAPIKey != ""
}

// IsPushEnabled returns true if push reminders are enabled and FCM is configured.
func (p *Profile) IsPushEnabled() bool {
	return p.PushEnabled && p.FCMProjectID != "" && p.FCMCredentialsFile != ""
}

// Origins splits AllowedOrigins into a list, dropping blanks.
func (p *Profile) Origins() []string {
	origins := []string{}
	for _, origin := range strings.Split(p.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("ignoring invalid integer environment variable", slog.String("key", key), slog.String("value", value))
		return defaultValue
	}
	return n
}

// FromEnv loads the settings that are not bound to command line flags.
func (p *Profile) FromEnv() {
	getBoolEnv := func(key string) bool {
		v := os.Getenv(key)
		return v == "true" || v == "1"
	}

	p.Timezone = getEnvOrDefault("VEIDA_TIMEZONE", "UTC")
	p.ReviewStrategy = getEnvOrDefault("VEIDA_REVIEW_STRATEGY", "ratio")
	p.JWTSecret = os.Getenv("VEIDA_JWT_SECRET")
	p.AllowedOrigins = getEnvOrDefault("VEIDA_ALLOWED_ORIGINS", "http://localhost:3000")

	p.AIEnabled = getBoolEnv("VEIDA_AI_ENABLED")
	p.AIOpenAIAPIKey = os.Getenv("VEIDA_AI_OPENAI_API_KEY")
	p.AIOpenAIBaseURL = getEnvOrDefault("VEIDA_AI_OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.AILLMModel = getEnvOrDefault("VEIDA_AI_LLM_MODEL", "gpt-4o-mini")
	p.AIMaxConcurrent = getIntEnvOrDefault("VEIDA_AI_MAX_CONCURRENT", 3)

	p.TextExtractEnabled = getBoolEnv("VEIDA_TEXTEXTRACT_ENABLED")
	p.TikaServerURL = getEnvOrDefault("VEIDA_TEXTEXTRACT_TIKA_URL", "http://localhost:9998")

	p.PushEnabled = getBoolEnv("VEIDA_PUSH_ENABLED")
	p.FCMProjectID = os.Getenv("VEIDA_FCM_PROJECT_ID")
	p.FCMCredentialsFile = os.Getenv("VEIDA_FCM_CREDENTIALS_FILE")
	p.ReminderHour = getIntEnvOrDefault("VEIDA_REMINDER_HOUR", 9)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "veida")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/veida"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("veida_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	switch p.ReviewStrategy {
	case "":
		p.ReviewStrategy = "ratio"
	case "ratio", "fixed", "dynamic":
	default:
		return errors.Errorf("unknown review strategy %q: expected ratio, fixed or dynamic", p.ReviewStrategy)
	}

	if p.ReminderHour < 0 || p.ReminderHour > 23 {
		return errors.Errorf("reminder hour %d out of range [0, 23]", p.ReminderHour)
	}

	return nil
}
