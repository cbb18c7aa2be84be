package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	StoreDriver   string // memory|sqlite|postgres|mongo
	DBDSN         string
	MongoURI      string
	MongoDatabase string

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	LogLevel string
	LogFile  string // empty: console only

	StatementPolicy string // all_or_nothing|proportional
	EnableMetrics   bool
	EventSiteID     string
}

// Load reads a .env file when present, then the environment. Variables
// already set in the environment win over the file.
func Load(files ...string) Config {
	_ = godotenv.Load(files...)
	return FromEnv()
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:               mode,
		HTTPAddr:           envOr("HTTP_ADDR", ":8080"),
		StoreDriver:        strings.ToLower(envOr("STORE_DRIVER", StoreSQLite)),
		DBDSN:              envOr("DB_DSN", ""),
		MongoURI:           envOr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:      envOr("MONGO_DATABASE", "assessment"),
		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://lms.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:3010,http://localhost:3020"),
		LogLevel:           envOr("LOG_LEVEL", "info"),
		LogFile:            envOr("LOG_FILE", ""),
		StatementPolicy:    envOr("STATEMENT_POLICY", "all_or_nothing"),
		EnableMetrics:      envBool("ENABLE_METRICS", mode == ModeOnline),
		EventSiteID:        envOr("EVENT_SITE_ID", "local"),
	}
}

// CORSOrigins returns the allow-list for the configured mode.
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
