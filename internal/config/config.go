package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Graph   GraphConfig
	Store   StoreConfig
	Logging LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
}

// GraphConfig describes connectivity to the Neo4j database.
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// StoreConfig selects and tunes the hub store.
type StoreConfig struct {
	Backend         string // badger|neo4j
	BadgerPath      string
	BadgerInMemory  bool
	MaxRetries      int
	StrictIntegrity bool
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
	File          string
	MaxSizeMB     int
	MaxAgeDays    int
	MaxBackups    int
}

const (
	BackendBadger = "badger"
	BackendNeo4j  = "neo4j"
)

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8080
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
	defaultBadgerPath       = "./data/hubs"
	defaultStoreRetries     = 5
	defaultLogMaxSizeMB     = 100
	defaultLogMaxAgeDays    = 28
)

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Host:            defaultHost,
			Port:            defaultPort,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Graph: GraphConfig{
			MaxConnections: defaultGraphMaxSessions,
		},
		Store: StoreConfig{
			Backend:    BackendBadger,
			BadgerPath: defaultBadgerPath,
			MaxRetries: defaultStoreRetries,
		},
		Logging: LoggingConfig{
			Level:      defaultLoggingLevel,
			Format:     defaultLoggingFormat,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}

// Load reads configuration from the optional TOML file named by CONFIG_FILE
// and then from environment variables, which take precedence.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// AllowedOrigins splits the CSV origin list, dropping blanks.
func (c HTTPConfig) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOriginsCSV, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// Addr is the listen address.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.HTTP.Port)
	}
	switch c.Store.Backend {
	case BackendBadger:
		if !c.Store.BadgerInMemory && c.Store.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required unless BADGER_IN_MEMORY is set")
		}
	case BackendNeo4j:
		if c.Graph.URI == "" {
			return fmt.Errorf("GRAPH_URI is required for the %s backend", BackendNeo4j)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want %s or %s)", c.Store.Backend, BackendBadger, BackendNeo4j)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.HTTP.Host = valueOrDefault("SERVER_HOST", cfg.HTTP.Host)

	port, err := parsePort("SERVER_PORT", cfg.HTTP.Port)
	if err != nil {
		return err
	}
	cfg.HTTP.Port = port

	for key, target := range map[string]*time.Duration{
		"SERVER_READ_TIMEOUT":     &cfg.HTTP.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":    &cfg.HTTP.WriteTimeout,
		"SERVER_IDLE_TIMEOUT":     &cfg.HTTP.IdleTimeout,
		"SERVER_SHUTDOWN_TIMEOUT": &cfg.HTTP.ShutdownTimeout,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*target = d
		}
	}

	cfg.HTTP.MetricsEnabled = parseBoolWithDefault("SERVER_METRICS_ENABLED", cfg.HTTP.MetricsEnabled)
	cfg.HTTP.AllowedOriginsCSV = valueOrDefault("SERVER_ALLOWED_ORIGINS", cfg.HTTP.AllowedOriginsCSV)

	cfg.Logging.Level = valueOrDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = valueOrDefault("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.IncludeCaller = parseBoolWithDefault("LOG_INCLUDE_CALLER", cfg.Logging.IncludeCaller)
	cfg.Logging.File = valueOrDefault("LOG_FILE", cfg.Logging.File)
	cfg.Logging.MaxSizeMB = parseIntWithDefault("LOG_MAX_SIZE_MB", cfg.Logging.MaxSizeMB)
	cfg.Logging.MaxAgeDays = parseIntWithDefault("LOG_MAX_AGE_DAYS", cfg.Logging.MaxAgeDays)
	cfg.Logging.MaxBackups = parseIntWithDefault("LOG_MAX_BACKUPS", cfg.Logging.MaxBackups)

	cfg.Graph.URI = valueOrDefault("GRAPH_URI", cfg.Graph.URI)
	cfg.Graph.Database = valueOrDefault("GRAPH_DATABASE", cfg.Graph.Database)
	cfg.Graph.Username = valueOrDefault("GRAPH_USERNAME", cfg.Graph.Username)
	cfg.Graph.Password = valueOrDefault("GRAPH_PASSWORD", cfg.Graph.Password)
	cfg.Graph.MaxConnections = parseIntWithDefault("GRAPH_MAX_CONNECTIONS", cfg.Graph.MaxConnections)

	cfg.Store.Backend = strings.ToLower(valueOrDefault("STORE_BACKEND", cfg.Store.Backend))
	cfg.Store.BadgerPath = valueOrDefault("BADGER_PATH", cfg.Store.BadgerPath)
	cfg.Store.BadgerInMemory = parseBoolWithDefault("BADGER_IN_MEMORY", cfg.Store.BadgerInMemory)
	cfg.Store.MaxRetries = parseIntWithDefault("STORE_MAX_RETRIES", cfg.Store.MaxRetries)
	cfg.Store.StrictIntegrity = parseBoolWithDefault("GRAPH_STRICT_INTEGRITY", cfg.Store.StrictIntegrity)
	return nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
