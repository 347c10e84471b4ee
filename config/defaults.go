package config

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/zen",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		DefaultProvider: "openai",
		OpenAI: ProviderConfig{
			BaseURL:      "https://api.openai.com/v1",
			DefaultModel: "gpt-4o-mini",
		},
		Ollama: ProviderConfig{
			BaseURL:      "http://localhost:11434",
			DefaultModel: "llama3.1:latest",
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# Zen System Configuration
# Location: ~/.config/zen/settings.toml
# This file uses TOML format: https://toml.io

# Directory where chat history, preferences and user config are stored
data_directory = "~/.local/share/zen"
`
}

func GenerateUserConfigTemplate() string {
	return `# Zen User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

# Provider used for all generation requests: "openai", "anthropic" or "ollama"
# Only the OpenAI provider supports image/video/speech generation, OCR and
# transcription; the others are chat-only.
default_provider = "openai"

[openai]
base_url = "https://api.openai.com/v1"
default_model = "gpt-4o-mini"

[anthropic]
base_url = "https://api.anthropic.com"

[ollama]
base_url = "http://localhost:11434"
default_model = "llama3.1:latest"
`
}
