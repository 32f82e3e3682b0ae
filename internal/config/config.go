// Package config loads the two-layer JSON configuration Genesis uses: a
// business Config (raw per-channel/per-provider JSON sections, deferred
// unmarshaling by each concrete factory) and an engine SystemConfig
// (concrete technical parameters), grounded on Genesis's pkg/config/config.go.
package config

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config is the business-level configuration: per-channel and per-provider
// sections are kept as raw JSON so each concrete factory unmarshals only
// what it understands, exactly as Genesis's Config does for Channels/LLM.
type Config struct {
	Channels     map[string]jsoniter.RawMessage `json:"channels"`
	Providers    jsoniter.RawMessage            `json:"providers"`
	Routing      jsoniter.RawMessage            `json:"routing"`
	Connectors   jsoniter.RawMessage            `json:"connectors"`
	SystemPrompt string                          `json:"system_prompt"`
	AllowList    []string                        `json:"allow_list"`
	ShellAllowList []string                      `json:"shell_allow_list"`
	RateLimitPerHour int                         `json:"rate_limit_per_hour"`
	SkillDisable []string                        `json:"skill_disable"`
}

// Validate mirrors Genesis's Config.Validate: a config with no providers
// configured cannot route anything.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("config: no providers configured")
	}
	return nil
}

// SystemConfig is the engine-level technical parameter set, mirroring
// Genesis's SystemConfig fields and defaults (pkg/config/config.go).
type SystemConfig struct {
	Host                     string `json:"host"`
	Port                     int    `json:"port"`
	LogLevel                 string `json:"log_level"`
	MaxRetries               int    `json:"max_retries"`
	RetryDelayMs             int    `json:"retry_delay_ms"`
	ProviderTimeoutMs        int    `json:"provider_timeout_ms"`
	ConnectorTimeoutMs       int    `json:"connector_timeout_ms"`
	InternalChannelBuffer    int    `json:"internal_channel_buffer"`
	ThinkingInitDelayMs      int    `json:"thinking_init_delay_ms"`
	TelegramMessageLimit     int    `json:"telegram_message_limit"`
	DownloadTimeoutMs        int    `json:"download_timeout_ms"`
	DebugChunks              bool   `json:"debug_chunks"`
	EnableTools              bool   `json:"enable_tools"`
	HistorySummarizeThreshold int   `json:"history_summarize_threshold"`
	HistoryKeepRecentCount   int    `json:"history_keep_recent_count"`
	HistoryMaxChars          int    `json:"history_max_chars"`
	ConversationCapacity     int    `json:"conversation_capacity"`
	ConversationTTLSeconds   int    `json:"conversation_ttl_seconds"`
}

// DefaultSystemConfig mirrors Genesis's DefaultSystemConfig defaults, with
// new fields for this domain's connector timeout and conversation store.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		Host:                      "0.0.0.0",
		Port:                      8080,
		LogLevel:                  "info",
		MaxRetries:                2,
		RetryDelayMs:              500,
		ProviderTimeoutMs:         30000,
		ConnectorTimeoutMs:        5000,
		InternalChannelBuffer:     100,
		ThinkingInitDelayMs:       1200,
		TelegramMessageLimit:      4096,
		DownloadTimeoutMs:         15000,
		DebugChunks:               false,
		EnableTools:               true,
		HistorySummarizeThreshold: 30,
		HistoryKeepRecentCount:    10,
		HistoryMaxChars:           16000,
		ConversationCapacity:      20,
		ConversationTTLSeconds:    3600,
	}
}

func (c *SystemConfig) DeepCopy() *SystemConfig {
	cp := *c
	return &cp
}

// Load reads and parses the config file at path (main.go passes
// "config.json", resolved against the working directory), matching
// Genesis's Load() convention.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSystemConfig returns DefaultSystemConfig merged with path's contents,
// if the file exists; matching Genesis's LoadSystemConfig.
func LoadSystemConfig(path string) (*SystemConfig, error) {
	cfg := DefaultSystemConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
