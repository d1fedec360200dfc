// Package config provides configuration management for GRISERA.
//
// Settings come from, in increasing priority: built-in defaults, the config
// file and GRISERA_* environment variables (GRISERA_GRAPH_DSN overrides
// graph.dsn).
//
// Config file locations (priority order):
//  1. $GRISERA_CONFIG
//  2. ./grisera.yaml
//  3. ~/.config/grisera/config.yaml
//  4. /etc/grisera/config.yaml
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Backend names a persistence family
const (
	BackendGraph    = "graph"
	BackendDocument = "document"
)

// Config is the full server configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Backend  string         `mapstructure:"backend" yaml:"backend"`
	Graph    GraphConfig    `mapstructure:"graph" yaml:"graph"`
	Document DocumentConfig `mapstructure:"document" yaml:"document"`
	Influx   InfluxConfig   `mapstructure:"influx" yaml:"influx"`
	Tracing  TracingConfig  `mapstructure:"tracing" yaml:"tracing"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigin      string        `mapstructure:"cors_origin" yaml:"cors_origin"`
}

// LogConfig configures the slog handler. Format is auto, json or text.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// GraphConfig selects the SQL engine behind the graph backend
type GraphConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

// DocumentConfig selects the engine behind the document backend
type DocumentConfig struct {
	Driver   string        `mapstructure:"driver" yaml:"driver"`
	Path     string        `mapstructure:"path" yaml:"path"`
	InMemory bool          `mapstructure:"in_memory" yaml:"in_memory"`
	MongoURI string        `mapstructure:"mongo_uri" yaml:"mongo_uri"`
	Database string        `mapstructure:"database" yaml:"database"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// InfluxConfig enables mirroring of signal values when URL is set
type InfluxConfig struct {
	URL    string `mapstructure:"url" yaml:"url"`
	Token  string `mapstructure:"token" yaml:"token"`
	Org    string `mapstructure:"org" yaml:"org"`
	Bucket string `mapstructure:"bucket" yaml:"bucket"`
}

// Enabled reports whether a sink is configured
func (c InfluxConfig) Enabled() bool {
	return c.URL != ""
}

// TracingConfig toggles the stdout span exporter
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			CORSOrigin:      "*",
		},
		Log:     LogConfig{Level: "info", Format: "auto"},
		Backend: BackendGraph,
		Graph:   GraphConfig{Driver: "sqlite", DSN: "./grisera.db"},
		Document: DocumentConfig{
			Driver:   "badger",
			Path:     "./grisera-data",
			MongoURI: "mongodb://localhost:27017",
			Database: "grisera",
			Timeout:  10 * time.Second,
		},
		Influx: InfluxConfig{Bucket: "grisera"},
	}
}

// setDefaults registers every key so that environment overrides apply even
// when the file omits them
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origin", d.Server.CORSOrigin)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("graph.driver", d.Graph.Driver)
	v.SetDefault("graph.dsn", d.Graph.DSN)
	v.SetDefault("document.driver", d.Document.Driver)
	v.SetDefault("document.path", d.Document.Path)
	v.SetDefault("document.in_memory", d.Document.InMemory)
	v.SetDefault("document.mongo_uri", d.Document.MongoURI)
	v.SetDefault("document.database", d.Document.Database)
	v.SetDefault("document.timeout", d.Document.Timeout)
	v.SetDefault("influx.url", d.Influx.URL)
	v.SetDefault("influx.token", d.Influx.Token)
	v.SetDefault("influx.org", d.Influx.Org)
	v.SetDefault("influx.bucket", d.Influx.Bucket)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
}

// Load reads the config file at path, or the first one found by
// FindConfigPath when path is empty, and applies environment overrides.
// It returns the file actually used, "" when running on defaults.
func Load(path string) (*Config, string, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("GRISERA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = FindConfigPath()
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, path, fmt.Errorf("read config: %w", err)
			}
			path = ""
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

// Validate checks the enumerated settings
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGraph:
		if c.Graph.Driver != "sqlite" && c.Graph.Driver != "postgres" {
			return fmt.Errorf("config: unknown graph.driver %q", c.Graph.Driver)
		}
	case BackendDocument:
		if c.Document.Driver != "badger" && c.Document.Driver != "mongo" {
			return fmt.Errorf("config: unknown document.driver %q", c.Document.Driver)
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	switch c.Log.Format {
	case "auto", "json", "text":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Write renders config as YAML
func (c *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return enc.Close()
}
