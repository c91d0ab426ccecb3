package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Session SessionConfig
	AI      AIConfig
	Campus  CampusConfig
	Alerts  AlertsConfig
	Lockout LockoutConfig
	Cameras CamerasConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DBConfig struct {
	Path string
}

type SessionConfig struct {
	Secret string
	MaxAge int // seconds
}

// AIConfig selects and configures the external generative-AI provider.
type AIConfig struct {
	Provider          string // "gemini", "openai", or "" (disabled; fallbacks only)
	APIKey            string
	Model             string // text/matching model
	VisionModel       string // image-analysis model
	BaseURL           string
	TimeoutSecs       int
	RequestsPerMinute int // 0 disables client-side pacing
}

type CampusConfig struct {
	// HubsPath points at the YAML file defining security hubs and the
	// class timetable. Empty falls back to the built-in defaults.
	HubsPath string
}

type AlertsConfig struct {
	// Brokers is a comma-separated Kafka broker list. Empty disables the
	// alert outbox; notifications are still stored locally.
	Brokers    string
	WebhookURL string
}

// CamerasConfig registers surveillance camera snapshot feeds.
type CamerasConfig struct {
	// Feeds is a semicolon-separated list of "id|name|url" entries, each
	// url serving a still frame. Empty registers no feeds.
	Feeds string
}

// LockoutConfig controls how quiz-failure lockout is keyed.
type LockoutConfig struct {
	// PerClaimant keys the failure counter by (item, claimant) instead of
	// item alone. Off by default to preserve the original per-item rule.
	PerClaimant bool
	// MaxAttempts is the number of failed quiz attempts before lockout.
	MaxAttempts int
}

// Load returns application configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		DB: DBConfig{
			Path: getEnv("DB_PATH", "campusfind.db"),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", ""),
			MaxAge: getEnvInt("SESSION_COOKIE_MAX_AGE", 3600), // 1 hour
		},
		AI: AIConfig{
			Provider:          getEnv("AI_PROVIDER", ""),
			APIKey:            getEnv("AI_API_KEY", os.Getenv("GEMINI_API_KEY")),
			Model:             getEnv("AI_MODEL", ""),
			VisionModel:       getEnv("AI_VISION_MODEL", ""),
			BaseURL:           getEnv("AI_BASE_URL", ""),
			TimeoutSecs:       getEnvInt("AI_TIMEOUT_SECONDS", 30),
			RequestsPerMinute: getEnvInt("AI_REQUESTS_PER_MINUTE", 0),
		},
		Campus: CampusConfig{
			HubsPath: getEnv("CAMPUS_HUBS_PATH", ""),
		},
		Alerts: AlertsConfig{
			Brokers:    getEnv("KAFKA_BROKERS", ""),
			WebhookURL: getEnv("ALERT_WEBHOOK_URL", ""),
		},
		Lockout: LockoutConfig{
			PerClaimant: getEnvBool("LOCKOUT_PER_CLAIMANT", false),
			MaxAttempts: getEnvInt("LOCKOUT_MAX_ATTEMPTS", 2),
		},
		Cameras: CamerasConfig{
			Feeds: getEnv("SURVEILLANCE_FEEDS", ""),
		},
	}
}

// BrokerList splits the configured broker string into addresses.
func (c *Config) BrokerList() []string {
	if c.Alerts.Brokers == "" {
		return nil
	}
	parts := strings.Split(c.Alerts.Brokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolVal, err := strconv.ParseBool(value)
		if err == nil {
			return boolVal
		}
	}
	return defaultValue
}
