package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenOnlyEnvDirectoriesSet(t *testing.T) {
	t.Setenv("JUSTMCP_WATCH_DIRECTORIES", "/repo")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"/repo"}, cfg.Watch.Directories)
	assert.Equal(t, "auto", cfg.Parser.Preference)
	assert.Equal(t, "stdio", cfg.Transport.Mode)
	assert.Equal(t, 250, cfg.Watch.DebounceMS)
}

func TestLoad_EnvOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "justmcp.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[watch]
directories = ["/from-file"]
debounce_ms = 500

[parser]
preference = "ast"
`), 0o644))

	t.Setenv("JUSTMCP_WATCH_DIRECTORIES", "/from-env")
	t.Setenv("JUSTMCP_PARSER_PREFERENCE", "regex")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/from-env"}, cfg.Watch.Directories, "env var must win over file")
	assert.Equal(t, "regex", cfg.Parser.Preference, "env var must win over file")
	assert.Equal(t, 500, cfg.Watch.DebounceMS, "file value used where no env override exists")
}

func TestLoad_ConfigFileWithoutEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "justmcp.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[watch]
directories = ["/from-file"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/from-file"}, cfg.Watch.Directories)
}

func TestLoad_NoWatchDirectoriesFails(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no watch directories configured")
}

func TestValidate_RejectsBadTransportMode(t *testing.T) {
	c := &Config{
		Watch:     WatchConfig{Directories: []string{"/repo"}},
		Parser:    ParserConfig{Preference: "auto"},
		Transport: TransportConfig{Mode: "carrier-pigeon"},
	}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid transport mode")
}

func TestValidate_RejectsBadParserPreference(t *testing.T) {
	c := &Config{
		Watch:     WatchConfig{Directories: []string{"/repo"}},
		Parser:    ParserConfig{Preference: "telepathy"},
		Transport: TransportConfig{Mode: "stdio"},
	}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid parser preference")
}

func TestDurationHelpers(t *testing.T) {
	c := &Config{
		Watch:  WatchConfig{DebounceMS: 300},
		Parser: ParserConfig{CLITimeoutSeconds: 5, CallTimeoutSeconds: 120},
	}
	assert.Equal(t, 300*time.Millisecond, c.DebounceDuration())
	assert.Equal(t, 5*time.Second, c.CLITimeout())
	assert.Equal(t, 120*time.Second, c.CallTimeout())
}

func TestMultiDirectory(t *testing.T) {
	single := &Config{Watch: WatchConfig{Directories: []string{"/repo"}}}
	multi := &Config{Watch: WatchConfig{Directories: []string{"/repo/a", "/repo/b"}}}
	assert.False(t, single.MultiDirectory())
	assert.True(t, multi.MultiDirectory())
}
