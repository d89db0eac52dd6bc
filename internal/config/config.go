package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	ThumbDir string `toml:"thumb_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Bridge contains the connection settings for the host application's
// extension channel.
type Bridge struct {
	Port                   int    `toml:"port"`
	Identifier             string `toml:"identifier"`
	ResponseTimeoutSeconds int    `toml:"response_timeout_seconds"`
	HeartbeatIntervalMS    int    `toml:"heartbeat_interval_ms"`
	HeartbeatTimeoutMS     int    `toml:"heartbeat_timeout_ms"`
	HeartbeatTolerance     int    `toml:"heartbeat_tolerance"`
	NetworkDebug           bool   `toml:"network_debug"`
}

// Platform contains configuration for the production-tracking platform API.
type Platform struct {
	BaseURL        string `toml:"base_url"`
	ScriptName     string `toml:"script_name"`
	APIKey         string `toml:"api_key"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Publish contains path templates and output-module policy for publishing.
type Publish struct {
	WorkTemplate         string   `toml:"work_template"`
	SequenceTemplate     string   `toml:"sequence_template"`
	MovieTemplate        string   `toml:"movie_template"`
	SequenceOutputModule string   `toml:"sequence_output_module"`
	MovieOutputModule    string   `toml:"movie_output_module"`
	CheckOutputModule    bool     `toml:"check_output_module"`
	ForceOutputModule    bool     `toml:"force_output_module"`
	ShelfFavorites       []string `toml:"shelf_favorites"`
}

// Session controls how the controller reacts to host document changes.
type Session struct {
	AutomaticContextSwitch bool `toml:"automatic_context_switch"`
	ContextCache           bool `toml:"context_cache"`
}

// Launcher contains software-discovery settings.
type Launcher struct {
	ExtraMatchTemplates []string `toml:"extra_match_templates"`
	MinimumVersion      string   `toml:"minimum_version"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Publish        bool   `toml:"publish"`
	Render         bool   `toml:"render"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Slate.
//
// Configuration sections by subsystem:
//   - Paths: directories and API bind address
//   - Bridge: host extension channel port, timeouts, heartbeat
//   - Platform: production-tracking platform credentials
//   - Publish: path templates and output-module policy
//   - Session: context-switch behavior on document change
//   - Launcher: installed host application discovery
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Bridge        Bridge        `toml:"bridge"`
	Platform      Platform      `toml:"platform"`
	Publish       Publish       `toml:"publish"`
	Session       Session       `toml:"session"`
	Launcher      Launcher      `toml:"launcher"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/slate/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return value
// is the resolved path, the third reports whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("slate.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("SLATE_PLATFORM_API_KEY")); v != "" {
		c.Platform.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("SLATE_BRIDGE_PORT")); v != "" {
		if port, err := parsePort(v); err == nil {
			c.Bridge.Port = port
		}
	}
}

// EnsureDirectories creates every directory the daemon needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.ThumbDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// Sample returns the embedded sample configuration text.
func Sample() string {
	return sampleConfig
}
