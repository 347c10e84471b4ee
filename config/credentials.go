package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CredentialStore manages API credentials, keyed by provider id.
// Keys are stored in <data_dir>/credentials.json with 0600 permissions;
// environment variables take precedence over the file.
type CredentialStore struct {
	credentials map[string]string // providerID → API key
}

// NewCredentialStore creates a new credential store
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		credentials: make(map[string]string),
	}
}

// Load loads credentials from disk. A missing file is not an error; a corrupt
// file is treated as empty so a bad write never locks the user out.
func (c *CredentialStore) Load(dataDir string) error {
	credPath := filepath.Join(dataDir, "credentials.json")

	data, err := os.ReadFile(credPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read credentials file: %w", err)
	}

	creds := make(map[string]string)
	if err := json.Unmarshal(data, &creds); err != nil {
		if DebugLog != nil {
			DebugLog.Printf("[Credentials] corrupt credentials file, starting empty: %v", err)
		}
		return nil
	}

	c.credentials = creds
	return nil
}

// Save writes credentials to disk (0600 - contains API keys)
func (c *CredentialStore) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(c.credentials, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	credPath := filepath.Join(dataDir, "credentials.json")
	if err := os.WriteFile(credPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}

// Get retrieves a credential for a provider. Environment variables
// (ZEN_OPENAI_API_KEY, ZEN_ANTHROPIC_API_KEY, ZEN_OPENROUTER_API_KEY)
// override stored values.
func (c *CredentialStore) Get(providerID string) string {
	switch providerID {
	case "openai":
		if key := os.Getenv("ZEN_OPENAI_API_KEY"); key != "" {
			return key
		}
	case "anthropic":
		if key := os.Getenv("ZEN_ANTHROPIC_API_KEY"); key != "" {
			return key
		}
	case "openrouter":
		if key := os.Getenv("ZEN_OPENROUTER_API_KEY"); key != "" {
			return key
		}
	}
	return c.credentials[providerID]
}

// Set stores a credential for a provider
func (c *CredentialStore) Set(providerID string, apiKey string) {
	c.credentials[providerID] = apiKey
}

// Delete removes a credential for a provider
func (c *CredentialStore) Delete(providerID string) {
	delete(c.credentials, providerID)
}
