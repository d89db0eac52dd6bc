package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize default config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Bridge.Port != defaultBridgePort {
		t.Fatalf("bridge port = %d, want %d", cfg.Bridge.Port, defaultBridgePort)
	}
	if cfg.Bridge.ResponseTimeoutSeconds != defaultResponseTimeoutSeconds {
		t.Fatalf("response timeout = %d, want %d", cfg.Bridge.ResponseTimeoutSeconds, defaultResponseTimeoutSeconds)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[bridge]
port = 9100
response_timeout_seconds = 60

[publish]
sequence_output_module = "EXR Sequence"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Bridge.Port != 9100 {
		t.Fatalf("bridge port = %d, want 9100", cfg.Bridge.Port)
	}
	if cfg.Bridge.ResponseTimeoutSeconds != 60 {
		t.Fatalf("response timeout = %d, want 60", cfg.Bridge.ResponseTimeoutSeconds)
	}
	if cfg.Publish.SequenceOutputModule != "EXR Sequence" {
		t.Fatalf("sequence output module = %q", cfg.Publish.SequenceOutputModule)
	}
	// Untouched sections keep their defaults.
	if cfg.Publish.MovieOutputModule != defaultMovieOutputModule {
		t.Fatalf("movie output module = %q, want default", cfg.Publish.MovieOutputModule)
	}
}

func TestEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("SLATE_PLATFORM_API_KEY", "secret-from-env")

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[platform]
base_url = "https://studio.example.com"
script_name = "slate"
api_key = "from-file"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Platform.APIKey != "secret-from-env" {
		t.Fatalf("api key = %q, want env override", cfg.Platform.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Bridge.Port = 0 },
			wantSub: "bridge.port",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Bridge.ResponseTimeoutSeconds = 0 },
			wantSub: "response_timeout_seconds",
		},
		{
			name:    "zero tolerance",
			mutate:  func(c *Config) { c.Bridge.HeartbeatTolerance = 0 },
			wantSub: "heartbeat_tolerance",
		},
		{
			name:    "bad scheme",
			mutate:  func(c *Config) { c.Platform.BaseURL = "ftp://host"; c.Platform.ScriptName = "s" },
			wantSub: "platform.base_url",
		},
		{
			name:    "missing script name",
			mutate:  func(c *Config) { c.Platform.BaseURL = "https://host" },
			wantSub: "script_name",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantSub: "logging.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "yaml" },
			wantSub: "logging.format",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.normalize(); err != nil {
				t.Fatalf("normalize: %v", err)
			}
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	got, err := ExpandPath("~/slate/data")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	want := filepath.Join(home, "slate", "data")
	if got != want {
		t.Fatalf("ExpandPath = %q, want %q", got, want)
	}

	if _, err := ExpandPath("   "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected error writing over existing file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[bridge]") {
		t.Fatal("sample config missing [bridge] section")
	}
}
