package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every lookup location at an empty temp dir
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv(EnvConfigPath, "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, path, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: document
server:
  addr: ":9000"
  shutdown_timeout: 3s
document:
  driver: mongo
  database: lab
`), 0644))
	t.Setenv("GRISERA_DOCUMENT_DATABASE", "override")
	t.Setenv("GRISERA_LOG_LEVEL", "debug")

	cfg, used, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, BackendDocument, cfg.Backend)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "mongo", cfg.Document.Driver)
	assert.Equal(t, "override", cfg.Document.Database)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Document.MongoURI)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	isolate(t)
	t.Setenv("GRISERA_BACKEND", "columnar")
	_, _, err := Load("")
	assert.ErrorContains(t, err, "unknown backend")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"postgres", func(c *Config) { c.Graph.Driver = "postgres" }, true},
		{"bad graph driver", func(c *Config) { c.Graph.Driver = "neo4j" }, false},
		{"badger", func(c *Config) { c.Backend = BackendDocument }, true},
		{"bad document driver", func(c *Config) { c.Backend = BackendDocument; c.Document.Driver = "couch" }, false},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Influx.URL = "http://influx:8086"
	require.NoError(t, cfg.Save(path))

	loaded, used, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, cfg, loaded)
	assert.True(t, loaded.Influx.Enabled())
}

func TestFindConfigPath(t *testing.T) {
	dir := isolate(t)
	assert.Empty(t, FindConfigPath())

	xdg := filepath.Join(dir, "xdg", ConfigDirName, "config.yaml")
	require.NoError(t, EnsureConfigDir(xdg))
	require.NoError(t, os.WriteFile(xdg, []byte("backend: graph\n"), 0644))
	assert.Equal(t, xdg, FindConfigPath())

	require.NoError(t, os.WriteFile(ConfigFileName, []byte("backend: graph\n"), 0644))
	assert.Equal(t, filepath.Join(dir, ConfigFileName), FindConfigPath())

	explicit := filepath.Join(dir, "explicit.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("backend: graph\n"), 0644))
	t.Setenv(EnvConfigPath, explicit)
	assert.Equal(t, explicit, FindConfigPath())
}

func TestDefaultConfigPath(t *testing.T) {
	dir := isolate(t)
	assert.Equal(t, filepath.Join(dir, "xdg", ConfigDirName, "config.yaml"), DefaultConfigPath())
}
