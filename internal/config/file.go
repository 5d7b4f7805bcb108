package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// tomlConfig mirrors the CONFIG_FILE layout. Unset keys leave defaults alone.
//
//	[server]
//	host = "0.0.0.0"
//	port = 8080
//	read_timeout = "10s"
//	metrics_enabled = true
//	allowed_origins = ["http://localhost:3000"]
//
//	[store]
//	backend = "badger"
//	badger_path = "./data/hubs"
//
//	[log]
//	level = "debug"
//	logfile = "/var/log/hubnet.log"
type tomlConfig struct {
	Server struct {
		Host            string   `toml:"host"`
		Port            int      `toml:"port"`
		ReadTimeout     duration `toml:"read_timeout"`
		WriteTimeout    duration `toml:"write_timeout"`
		IdleTimeout     duration `toml:"idle_timeout"`
		ShutdownTimeout duration `toml:"shutdown_timeout"`
		MetricsEnabled  *bool    `toml:"metrics_enabled"`
		AllowedOrigins  []string `toml:"allowed_origins"`
	} `toml:"server"`

	Graph struct {
		URI            string `toml:"uri"`
		Database       string `toml:"database"`
		Username       string `toml:"username"`
		Password       string `toml:"password"`
		MaxConnections int    `toml:"max_connections"`
	} `toml:"graph"`

	Store struct {
		Backend         string `toml:"backend"`
		BadgerPath      string `toml:"badger_path"`
		BadgerInMemory  *bool  `toml:"badger_in_memory"`
		MaxRetries      int    `toml:"max_retries"`
		StrictIntegrity *bool  `toml:"strict_integrity"`
	} `toml:"store"`

	Log struct {
		Level         string `toml:"level"`
		Format        string `toml:"format"`
		IncludeCaller *bool  `toml:"include_caller"`
		Logfile       string `toml:"logfile"`
		MaxSize       int    `toml:"max_log_size"`
		MaxAge        int    `toml:"max_log_age"`
		MaxBackups    int    `toml:"max_log_backups"`
	} `toml:"log"`
}

// duration decodes TOML strings such as "15s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func applyFile(cfg *Config, path string) error {
	var tc tomlConfig
	md, err := toml.DecodeFile(path, &tc)
	if err != nil {
		return fmt.Errorf("could not decode TOML config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys in TOML config %s: %s", path, strings.Join(keys, ", "))
	}

	setString(&cfg.HTTP.Host, tc.Server.Host)
	setInt(&cfg.HTTP.Port, tc.Server.Port)
	setDuration(&cfg.HTTP.ReadTimeout, tc.Server.ReadTimeout)
	setDuration(&cfg.HTTP.WriteTimeout, tc.Server.WriteTimeout)
	setDuration(&cfg.HTTP.IdleTimeout, tc.Server.IdleTimeout)
	setDuration(&cfg.HTTP.ShutdownTimeout, tc.Server.ShutdownTimeout)
	setBool(&cfg.HTTP.MetricsEnabled, tc.Server.MetricsEnabled)
	if len(tc.Server.AllowedOrigins) > 0 {
		cfg.HTTP.AllowedOriginsCSV = strings.Join(tc.Server.AllowedOrigins, ",")
	}

	setString(&cfg.Graph.URI, tc.Graph.URI)
	setString(&cfg.Graph.Database, tc.Graph.Database)
	setString(&cfg.Graph.Username, tc.Graph.Username)
	setString(&cfg.Graph.Password, tc.Graph.Password)
	setInt(&cfg.Graph.MaxConnections, tc.Graph.MaxConnections)

	setString(&cfg.Store.Backend, strings.ToLower(tc.Store.Backend))
	setString(&cfg.Store.BadgerPath, tc.Store.BadgerPath)
	setBool(&cfg.Store.BadgerInMemory, tc.Store.BadgerInMemory)
	setInt(&cfg.Store.MaxRetries, tc.Store.MaxRetries)
	setBool(&cfg.Store.StrictIntegrity, tc.Store.StrictIntegrity)

	setString(&cfg.Logging.Level, tc.Log.Level)
	setString(&cfg.Logging.Format, tc.Log.Format)
	setBool(&cfg.Logging.IncludeCaller, tc.Log.IncludeCaller)
	setString(&cfg.Logging.File, tc.Log.Logfile)
	setInt(&cfg.Logging.MaxSizeMB, tc.Log.MaxSize)
	setInt(&cfg.Logging.MaxAgeDays, tc.Log.MaxAge)
	setInt(&cfg.Logging.MaxBackups, tc.Log.MaxBackups)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
