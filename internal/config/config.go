package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string
	SiteID   string

	DBDriver string // sqlite|postgres|memory
	DBDSN    string

	LogMode string // dev|prod

	AuthHMACSecret  string
	EnableLocalAuth bool
	EnableMetrics   bool

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	// Learner-side sync client (cmd/lessonctl)
	APIURL          string
	APIToken        string
	APITokenURL     string
	APIClientID     string
	APIClientSecret string
	SyncQueueSize   int
	SyncTimeout     time.Duration
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	defLog := "dev"
	if mode == ModeOnline {
		defLog = "prod"
	}
	return Config{
		Mode:               mode,
		HTTPAddr:           envOr("HTTP_ADDR", ":8080"),
		SiteID:             envOr("SITE_ID", "local"),
		DBDriver:           envOr("DB_DRIVER", "sqlite"),
		DBDSN:              envOr("DB_DSN", ""),
		LogMode:            envOr("LOG_MODE", defLog),
		AuthHMACSecret:     envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		EnableLocalAuth:    envBool("ENABLE_LOCAL_AUTH", mode == ModeOffline),
		EnableMetrics:      envBool("ENABLE_METRICS", true),
		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://lessons.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:3010"),

		APIURL:          envOr("LESSONS_API_URL", "http://localhost:8080"),
		APIToken:        os.Getenv("LESSONS_API_TOKEN"),
		APITokenURL:     os.Getenv("LESSONS_TOKEN_URL"),
		APIClientID:     os.Getenv("LESSONS_CLIENT_ID"),
		APIClientSecret: os.Getenv("LESSONS_CLIENT_SECRET"),
		SyncQueueSize:   envInt("SYNC_QUEUE_SIZE", 64),
		SyncTimeout:     envDuration("SYNC_TIMEOUT", 15*time.Second),
	}
}

// CORSOrigins returns the allow-list for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
