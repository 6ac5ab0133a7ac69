// Package config loads justmcp's configuration, adapted from the teacher's
// TOML-file-plus-env-overlay pattern (internal/config/config.go): defaults,
// then a TOML file, then environment variables, each layer overriding the
// last.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration for the justmcp server. Precedence:
// environment variables > config file > defaults.
type Config struct {
	Watch     WatchConfig     `toml:"watch"`
	Parser    ParserConfig    `toml:"parser"`
	Server    ServerConfig    `toml:"server"`
	Transport TransportConfig `toml:"transport"`
	Log       LogConfig       `toml:"log"`
}

// WatchConfig holds the directories justmcp watches for justfiles.
type WatchConfig struct {
	Directories []string `toml:"directories"`
	// DebounceMS is how long a changed path waits, in milliseconds, before
	// it is reconciled.
	DebounceMS int `toml:"debounce_ms"`
}

// ParserConfig holds parser-pipeline settings.
type ParserConfig struct {
	// Preference is one of "auto", "ast", "cli", "regex".
	Preference string `toml:"preference"`
	// JustBinary is the executable used by the external-tool layer and by
	// tools/call execution.
	JustBinary string `toml:"just_binary"`
	// CLITimeoutSeconds bounds a single `just --summary` invocation.
	CLITimeoutSeconds int `toml:"cli_timeout_seconds"`
	// CallTimeoutSeconds bounds a single tools/call recipe invocation.
	CallTimeoutSeconds int `toml:"call_timeout_seconds"`
}

// ServerConfig holds MCP server metadata.
type ServerConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// TransportConfig holds transport-related settings.
type TransportConfig struct {
	// Mode selects the transport: "stdio" (default) or "http".
	Mode string `toml:"mode"`
	// Port is the HTTP listen port. Only used when Mode is "http".
	Port string `toml:"port"`
	// Host is the HTTP listen address. Only used when Mode is "http".
	Host string `toml:"host"`
	// CORSOrigins is a comma-separated list of allowed CORS origins.
	CORSOrigins string `toml:"cors_origins"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// Load creates a Config by reading from a TOML config file and environment
// variables. Precedence: environment variables > config file > defaults.
//
// Config file search order (first found wins):
//  1. Path passed via configPath parameter (from --config flag)
//  2. JUSTMCP_CONFIG environment variable
//  3. ./justmcp.toml (current directory)
//  4. ~/.config/justmcp/justmcp.toml (XDG-style)
//
// All fields are optional in the config file. Environment variables always
// override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Watch: WatchConfig{
			DebounceMS: 250,
		},
		Parser: ParserConfig{
			Preference:         "auto",
			JustBinary:         "just",
			CLITimeoutSeconds:  10,
			CallTimeoutSeconds: 300,
		},
		Server: ServerConfig{
			Name:    "justmcp",
			Version: "0.1.0",
		},
		Transport: TransportConfig{
			Mode:        "stdio",
			Port:        "21453",
			Host:        "0.0.0.0",
			CORSOrigins: "*",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if err := cfg.loadFile(configPath); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(configPath string) error {
	path := resolveConfigPath(configPath)
	if path == "" {
		return nil
	}

	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	return nil
}

func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}

	if p := os.Getenv("JUSTMCP_CONFIG"); p != "" {
		return p
	}

	if _, err := os.Stat("justmcp.toml"); err == nil {
		return "justmcp.toml"
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := home + "/.config/justmcp/justmcp.toml"
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnv overlays environment variables on top of existing config values.
// An env var only takes effect if it is non-empty.
func (c *Config) applyEnv() {
	if v := os.Getenv("JUSTMCP_WATCH_DIRECTORIES"); v != "" {
		c.Watch.Directories = strings.Split(v, ",")
	}
	envOverrideInt("JUSTMCP_DEBOUNCE_MS", &c.Watch.DebounceMS)

	envOverride("JUSTMCP_PARSER_PREFERENCE", &c.Parser.Preference)
	envOverride("JUSTMCP_JUST_BINARY", &c.Parser.JustBinary)
	envOverrideInt("JUSTMCP_CLI_TIMEOUT_SECONDS", &c.Parser.CLITimeoutSeconds)
	envOverrideInt("JUSTMCP_CALL_TIMEOUT_SECONDS", &c.Parser.CallTimeoutSeconds)

	envOverride("JUSTMCP_TRANSPORT", &c.Transport.Mode)
	envOverride("JUSTMCP_PORT", &c.Transport.Port)
	envOverride("JUSTMCP_HOST", &c.Transport.Host)
	envOverride("JUSTMCP_CORS_ORIGINS", &c.Transport.CORSOrigins)

	envOverride("JUSTMCP_LOG_LEVEL", &c.Log.Level)
}

// Validate checks that required fields are present and consistent.
func (c *Config) Validate() error {
	if len(c.Watch.Directories) == 0 {
		return fmt.Errorf("no watch directories configured: set watch.directories in config file, or JUSTMCP_WATCH_DIRECTORIES env var")
	}

	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode: %q (must be \"stdio\" or \"http\")", c.Transport.Mode)
	}

	switch c.Parser.Preference {
	case "auto", "ast", "cli", "regex":
	default:
		return fmt.Errorf("invalid parser preference: %q (must be one of auto, ast, cli, regex)", c.Parser.Preference)
	}

	return nil
}

// DebounceDuration returns Watch.DebounceMS as a time.Duration.
func (c *Config) DebounceDuration() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// CLITimeout returns Parser.CLITimeoutSeconds as a time.Duration.
func (c *Config) CLITimeout() time.Duration {
	return time.Duration(c.Parser.CLITimeoutSeconds) * time.Second
}

// CallTimeout returns Parser.CallTimeoutSeconds as a time.Duration.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Parser.CallTimeoutSeconds) * time.Second
}

// MultiDirectory reports whether more than one directory is watched, which
// enables "@suffix" tool-id disambiguation.
func (c *Config) MultiDirectory() bool {
	return len(c.Watch.Directories) > 1
}

func envOverride(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
		*dst = n
	}
}
