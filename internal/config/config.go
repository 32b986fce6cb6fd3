package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	TaskAPI   TaskAPIConfig   `yaml:"taskapi"`
	Cohere    CohereConfig    `yaml:"cohere"`
	Assistant AssistantConfig `yaml:"assistant"`
	Channels  ChannelsConfig  `yaml:"channels"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// TaskAPIConfig holds settings for the external Task REST API
type TaskAPIConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// GetTimeout returns the Task API request timeout
func (c *TaskAPIConfig) GetTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CohereConfig holds settings for the optional Cohere classification service
type CohereConfig struct {
	APIKey         string `yaml:"api_key"`
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	NaturalReplies bool   `yaml:"natural_replies"`
}

// GetTimeout returns the Cohere request timeout
func (c *CohereConfig) GetTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AssistantConfig tunes the intent pipeline
type AssistantConfig struct {
	// ConfidenceThreshold gates classifier overrides; parser results at or
	// above it are never overridden.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// ChannelsConfig enables/disables chat surfaces
type ChannelsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Discord  DiscordConfig  `yaml:"discord"`
	WebChat  WebChatConfig  `yaml:"webchat"`
}

// TelegramConfig holds telegram channel settings
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// DiscordConfig holds discord channel settings
type DiscordConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// WebChatConfig holds webchat channel settings
type WebChatConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads and parses the config file, applying env overrides for secrets
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 18700
	}
	if c.Cohere.URL == "" {
		c.Cohere.URL = "https://api.cohere.ai/v1"
	}
	if c.Assistant.ConfidenceThreshold == 0 {
		c.Assistant.ConfidenceThreshold = 0.8
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("COHERE_API_KEY"); v != "" {
		c.Cohere.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Channels.Telegram.Token = v
	}
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.Channels.Discord.Token = v
	}
}

// Validate checks the configuration for obvious mistakes
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.TaskAPI.URL == "" {
		return fmt.Errorf("taskapi.url is required")
	}
	if c.Assistant.ConfidenceThreshold < 0 || c.Assistant.ConfidenceThreshold > 1 {
		return fmt.Errorf("assistant.confidence_threshold must be in [0,1], got %v", c.Assistant.ConfidenceThreshold)
	}
	if c.Channels.Telegram.Enabled && c.Channels.Telegram.Token == "" {
		return fmt.Errorf("telegram channel enabled but no token configured")
	}
	if c.Channels.Discord.Enabled && c.Channels.Discord.Token == "" {
		return fmt.Errorf("discord channel enabled but no token configured")
	}
	if c.Channels.WebChat.Enabled && c.Channels.WebChat.Port <= 0 {
		return fmt.Errorf("webchat channel enabled but no port configured")
	}
	return nil
}
