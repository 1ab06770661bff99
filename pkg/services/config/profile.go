package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

const DefaultProfile = "default"

// AzureProfile is the subset of an Azure CLI profile section the reconciler reads.
type AzureProfile struct {
	SubscriptionID string
	TenantID       string
}

// DefaultAzureConfigPath returns $HOME/.azure/config.
func DefaultAzureConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".azure", "config"), nil
}

// LoadAzureProfile reads a profile section from an ini-formatted Azure config file.
// A missing file yields (nil, nil).
func LoadAzureProfile(path, profile string) (*AzureProfile, error) {
	if profile == "" {
		profile = DefaultProfile
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load Azure config file: %w", err)
	}

	section, err := cfg.GetSection(profile)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found in Azure config: %w", profile, err)
	}

	return &AzureProfile{
		SubscriptionID: section.Key("subscription").String(),
		TenantID:       section.Key("tenant").String(),
	}, nil
}
