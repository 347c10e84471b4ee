package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type ProviderConfig struct {
	BaseURL      string `toml:"base_url,omitempty"`
	DefaultModel string `toml:"default_model,omitempty"`
}

type UserConfig struct {
	DefaultProvider string         `toml:"default_provider"`
	OpenAI          ProviderConfig `toml:"openai"`
	Anthropic       ProviderConfig `toml:"anthropic"`
	OpenRouter      ProviderConfig `toml:"openrouter"`
	Ollama          ProviderConfig `toml:"ollama"`
}

type Config struct {
	DataDirectory   string
	DefaultProvider string
	OpenAI          ProviderConfig
	Anthropic       ProviderConfig
	OpenRouter      ProviderConfig
	Ollama          ProviderConfig
	Credentials     *CredentialStore
}

// DebugLog is nil unless ZEN_DEBUG is set; call sites must nil-check.
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// ProviderSettings returns the configured endpoint/model pair for a provider id.
func (c *Config) ProviderSettings(id string) ProviderConfig {
	switch id {
	case "anthropic":
		return c.Anthropic
	case "openrouter":
		return c.OpenRouter
	case "ollama":
		return c.Ollama
	default:
		return c.OpenAI
	}
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("ZEN_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if provider := os.Getenv("ZEN_PROVIDER"); provider != "" {
		c.DefaultProvider = provider
	}
	if model := os.Getenv("ZEN_MODEL"); model != "" {
		switch c.DefaultProvider {
		case "anthropic":
			c.Anthropic.DefaultModel = model
		case "openrouter":
			c.OpenRouter.DefaultModel = model
		case "ollama":
			c.Ollama.DefaultModel = model
		default:
			c.OpenAI.DefaultModel = model
		}
	}
	if host := os.Getenv("ZEN_OLLAMA_HOST"); host != "" {
		c.Ollama.BaseURL = host
	}
}

func CheckDebug() bool {
	debug := os.Getenv("ZEN_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	logPath := filepath.Join(dataDir, "debug.log")

	// Create debug log with secure permissions (0600 - may contain sensitive debug info)
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (ZEN_DEBUG=%s) ===", os.Getenv("ZEN_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

func Load() (*Config, error) {
	cfg := &Config{
		DataDirectory:   "~/.local/share/zen",
		DefaultProvider: "openai",
		OpenAI:          ProviderConfig{BaseURL: "https://api.openai.com/v1", DefaultModel: "gpt-4o-mini"},
		Anthropic:       ProviderConfig{BaseURL: "https://api.anthropic.com", DefaultModel: ""},
		OpenRouter:      ProviderConfig{BaseURL: "https://openrouter.ai/api/v1", DefaultModel: "meta-llama/llama-3.2-90b-instruct"},
		Ollama:          ProviderConfig{BaseURL: "http://localhost:11434", DefaultModel: "llama3.1:latest"},
	}

	systemCfg, err := LoadSystemConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}
	cfg.DataDirectory = systemCfg.DataDirectory

	cfg.applyEnvOverrides()

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Ensure data directory has correct permissions (fix if needed)
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	if userCfg.DefaultProvider != "" {
		cfg.DefaultProvider = userCfg.DefaultProvider
	}
	mergeProvider(&cfg.OpenAI, userCfg.OpenAI)
	mergeProvider(&cfg.Anthropic, userCfg.Anthropic)
	mergeProvider(&cfg.OpenRouter, userCfg.OpenRouter)
	mergeProvider(&cfg.Ollama, userCfg.Ollama)

	// Environment wins over the user config file as well
	cfg.applyEnvOverrides()

	creds := NewCredentialStore()
	if err := creds.Load(dataDir); err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	cfg.Credentials = creds

	return cfg, nil
}

func mergeProvider(dst *ProviderConfig, src ProviderConfig) {
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.DefaultModel != "" {
		dst.DefaultModel = src.DefaultModel
	}
}
