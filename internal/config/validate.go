package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for invalid values. It returns the first
// problem found, prefixed with the offending section and key.
func (c *Config) Validate() error {
	if err := c.Paths.validate(); err != nil {
		return err
	}
	if err := c.Bridge.validate(); err != nil {
		return err
	}
	if err := c.Platform.validate(); err != nil {
		return err
	}
	if err := c.Publish.validate(); err != nil {
		return err
	}
	if err := c.Notifications.validate(); err != nil {
		return err
	}
	return c.Logging.validate()
}

func (p *Paths) validate() error {
	if strings.TrimSpace(p.DataDir) == "" {
		return fmt.Errorf("paths.data_dir must not be empty")
	}
	if strings.TrimSpace(p.LogDir) == "" {
		return fmt.Errorf("paths.log_dir must not be empty")
	}
	if strings.TrimSpace(p.APIBind) == "" {
		return fmt.Errorf("paths.api_bind must not be empty")
	}
	return nil
}

func (b *Bridge) validate() error {
	if b.Port < 1 || b.Port > 65535 {
		return fmt.Errorf("bridge.port must be between 1 and 65535, got %d", b.Port)
	}
	if b.Identifier == "" {
		return fmt.Errorf("bridge.identifier must not be empty")
	}
	if b.ResponseTimeoutSeconds < 1 {
		return fmt.Errorf("bridge.response_timeout_seconds must be positive, got %d", b.ResponseTimeoutSeconds)
	}
	if b.HeartbeatIntervalMS < 1 {
		return fmt.Errorf("bridge.heartbeat_interval_ms must be positive, got %d", b.HeartbeatIntervalMS)
	}
	if b.HeartbeatTimeoutMS < 1 {
		return fmt.Errorf("bridge.heartbeat_timeout_ms must be positive, got %d", b.HeartbeatTimeoutMS)
	}
	if b.HeartbeatTolerance < 1 {
		return fmt.Errorf("bridge.heartbeat_tolerance must be positive, got %d", b.HeartbeatTolerance)
	}
	return nil
}

func (p *Platform) validate() error {
	if p.BaseURL != "" && !strings.HasPrefix(p.BaseURL, "http://") && !strings.HasPrefix(p.BaseURL, "https://") {
		return fmt.Errorf("platform.base_url must start with http:// or https://")
	}
	if p.BaseURL != "" && p.ScriptName == "" {
		return fmt.Errorf("platform.script_name required when platform.base_url is set")
	}
	if p.RequestTimeout < 1 {
		return fmt.Errorf("platform.request_timeout must be positive, got %d", p.RequestTimeout)
	}
	return nil
}

func (p *Publish) validate() error {
	if p.SequenceOutputModule == "" {
		return fmt.Errorf("publish.sequence_output_module must not be empty")
	}
	if p.MovieOutputModule == "" {
		return fmt.Errorf("publish.movie_output_module must not be empty")
	}
	return nil
}

func (n *Notifications) validate() error {
	if n.NtfyTopic != "" && n.RequestTimeout < 1 {
		return fmt.Errorf("notifications.request_timeout must be positive, got %d", n.RequestTimeout)
	}
	return nil
}

func (l *Logging) validate() error {
	switch l.Format {
	case "pretty", "json":
	default:
		return fmt.Errorf("logging.format must be pretty or json, got %q", l.Format)
	}
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", l.Level)
	}
	if l.RetentionDays < 0 {
		return fmt.Errorf("logging.retention_days must not be negative, got %d", l.RetentionDays)
	}
	return nil
}
