// Package config loads the discode configuration: a JSON5 file overlaid
// with environment variables. Env vars take precedence over file values.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/titanous/json5"

	"github.com/nextlevelbuilder/discode/internal/telemetry"
)

// Language selects the chat-facing phrasing for peripheral strings.
type Language string

const (
	LanguageEN Language = "en"
	LanguageKO Language = "ko"
)

// PlatformName selects the chat backend.
type PlatformName string

const (
	PlatformDiscord PlatformName = "discord"
	PlatformSlack   PlatformName = "slack"
)

// HookConfig is the localhost hook listener.
type HookConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// RateLimitRPS bounds hook event intake. Zero disables limiting.
	RateLimitRPS int `json:"rateLimitRps"`
}

// ChatConfig is the chat platform binding.
type ChatConfig struct {
	Platform PlatformName `json:"platform"`
	Token    string       `json:"token"`
}

// TimeoutsConfig holds the approval/question windows in milliseconds.
type TimeoutsConfig struct {
	ApprovalMS int `json:"approvalMs"`
	QuestionMS int `json:"questionMs"`
}

// Config is the root configuration.
type Config struct {
	Hook        HookConfig       `json:"hook"`
	Chat        ChatConfig       `json:"chat"`
	Timeouts    TimeoutsConfig   `json:"timeouts"`
	Telemetry   telemetry.Config `json:"telemetry"`
	Language    Language         `json:"language"`
	RoutingFile string           `json:"routingFile"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Hook: HookConfig{
			Host: "127.0.0.1",
			Port: 18470,
		},
		Chat: ChatConfig{
			Platform: PlatformDiscord,
		},
		Timeouts: TimeoutsConfig{
			ApprovalMS: 120000,
			QuestionMS: 300000,
		},
		Language:    LanguageEN,
		RoutingFile: "~/.discode/routing.json",
	}
}

// Load reads config from a JSON5 file, then overlays env vars. A missing
// file is not an error; defaults plus env apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*dst = n
			}
		}
	}

	envStr("DISCODE_DISCORD_TOKEN", &c.Chat.Token)
	envStr("DISCODE_ROUTING_FILE", &c.RoutingFile)
	envInt("AGENT_DISCORD_PORT", &c.Hook.Port)
	envInt("DISCODE_APPROVAL_TIMEOUT_MS", &c.Timeouts.ApprovalMS)
	envInt("DISCODE_QUESTION_TIMEOUT_MS", &c.Timeouts.QuestionMS)

	if v := os.Getenv("DISCODE_LANGUAGE"); v != "" {
		c.Language = Language(v)
	}

	envStr("DISCODE_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("DISCODE_TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)
	if v := os.Getenv("DISCODE_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = v == "true" || v == "1"
	}
}

func (c *Config) validate() error {
	switch c.Chat.Platform {
	case PlatformDiscord, PlatformSlack:
	default:
		return fmt.Errorf("unknown chat platform %q", c.Chat.Platform)
	}
	switch c.Language {
	case LanguageEN, LanguageKO:
	default:
		return fmt.Errorf("unknown language %q", c.Language)
	}
	if c.Hook.Port <= 0 || c.Hook.Port > 65535 {
		return fmt.Errorf("hook port %d out of range", c.Hook.Port)
	}
	return nil
}
