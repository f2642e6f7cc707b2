package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, "root: /srv/forum\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/forum", cfg.Root)
	require.Equal(t, DefaultProjectsDir, cfg.ProjectsDir)
	require.Equal(t, filepath.Join("/srv/forum", "includes"), cfg.IncludesDir)
	require.Equal(t, DefaultChecksumWorkers, cfg.Checksum.Workers)
	require.Equal(t, LogLevelInfo, cfg.Logging.Level)
	require.Equal(t, LogFormatText, cfg.Logging.Format)
	require.Equal(t, DefaultWatchDebounce, cfg.Watch.Debounce)
	require.Zero(t, cfg.Watch.Interval)
}

func TestLoadExplicitValues(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, `root: /srv/forum
projects_dir: src
includes_dir: /srv/forum/inc
database: host.db
checksum:
  workers: 8
logging:
  level: DEBUG
  format: json
metrics:
  textfile: /var/lib/node_exporter/productbuilder.prom
watch:
  debounce: 500ms
  interval: 1h
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "src", cfg.ProjectsDir)
	require.Equal(t, "/srv/forum/inc", cfg.IncludesDir)
	require.Equal(t, "host.db", cfg.Database)
	require.Equal(t, 8, cfg.Checksum.Workers)
	require.Equal(t, LogLevelDebug, cfg.Logging.Level)
	require.Equal(t, LogFormatJSON, cfg.Logging.Format)
	require.Equal(t, "/var/lib/node_exporter/productbuilder.prom", cfg.Metrics.Textfile)
	require.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	require.Equal(t, time.Hour, cfg.Watch.Interval)
}

func TestLoadExpandsEnvFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("PB_TEST_ROOT", "")
	require.NoError(t, os.Unsetenv("PB_TEST_ROOT"))
	t.Setenv("PB_TEST_DB", "from-env.db")

	require.NoError(t, os.WriteFile(".env", []byte("PB_TEST_ROOT=/srv/dotenv\nPB_TEST_DB=from-file.db\n"), 0o600))
	path := writeConfig(t, dir, "root: ${PB_TEST_ROOT}\ndatabase: ${PB_TEST_DB}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/dotenv", cfg.Root)
	require.Equal(t, "from-env.db", cfg.Database)
}

func TestLoadMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load("nope.yaml")
	require.Error(t, err)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, "root: [unterminated\n")
	_, err := Load(path)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Root: "/srv/forum"}
		require.NoError(t, NewDefaultApplier().ApplyDefaults(cfg))
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name  string
		field string
		edit  func(*Config)
	}{
		{"missing root", "root", func(c *Config) { c.Root = "" }},
		{"zero workers", "checksum.workers", func(c *Config) { c.Checksum.Workers = 0 }},
		{"negative debounce", "watch.debounce", func(c *Config) { c.Watch.Debounce = -time.Second }},
		{"negative interval", "watch.interval", func(c *Config) { c.Watch.Interval = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.edit(cfg)
			err := cfg.Validate()
			require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
			ce, ok := foundationerrors.AsClassified(err)
			require.True(t, ok)
			field, _ := ce.Context().GetString("field")
			require.Equal(t, tt.field, field)
		})
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, DefaultFile)

	require.NoError(t, Init(path, false))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/www/forum", cfg.Root)
	require.Equal(t, DefaultWatchDebounce, cfg.Watch.Debounce)

	err = Init(path, false)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
	require.NoError(t, Init(path, true))
}

func TestLogLevelSlog(t *testing.T) {
	require.Equal(t, LogLevelWarn, NormalizeLogLevel(" Warning "))
	require.Equal(t, LogLevelInfo, NormalizeLogLevel("chatty"))
	require.Equal(t, "DEBUG", LogLevelDebug.SlogLevel().String())
	require.Equal(t, "ERROR", LogLevelError.SlogLevel().String())
}
