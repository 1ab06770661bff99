package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const EnvPrefix = "ALCA"

// defaults lists every recognised key. Keys without a default still need an entry
// so that environment variables are picked up on Unmarshal.
var defaults = map[string]interface{}{
	"wsm_url":                           "",
	"rawls_url":                         "",
	"current_workspace_id":              "",
	"subscription_id":                   "",
	"tenant_id":                         "",
	"storage_account":                   "",
	"target_mrgs":                       []string{},
	"container_name":                    "",
	"container_id":                      "",
	"blob_inventory_name":               "",
	"blob_inventory_prefix":             "",
	"cost_management_storage_account":   "",
	"cost_management_storage_container": "",
	"cost_management_directory":         "",
	"cost_management_key":               "",
	"aks_management_storage_account":    "",
	"aks_management_storage_container":  "",
	"aks_management_directory":          "",
	"aks_management_key":                "",
	"cost_export_name":                  "",
	"aks_export_name":                   "",
	"local_costs_url":                   "costexport/latest.csv",
	"local_aks_costs_url":               "costexport/latest-aks.csv",
	"analysis_window_size":              30,
	"cost_column_name":                  "PreTaxCost",
	"export_suffix":                     ".csv",
	"sas_expiration_seconds":            28800,
	"source_sas_ttl":                    30 * time.Minute,
	"token_scope":                       "https://management.core.windows.net//.default",
	"auth_mode":                         string(domain.AuthModeDefault),
	"azure_profile":                     "",
	"azure_config_path":                 "",
	"download_concurrency":              1,
}

// Load reads the YAML file at path (optional) and ALCA_* environment variables into a
// validated Config. Environment variables win over the file.
func Load(path string) (domain.Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return domain.Config{}, &domain.ConfigError{
				Field:   "config",
				Message: fmt.Sprintf("failed to read config file: %v", err),
			}
		}
	}

	var cfg domain.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return domain.Config{}, &domain.ConfigError{Message: fmt.Sprintf("failed to parse config: %v", err)}
	}

	cfg.TargetMRGs = normalizeMRGs(cfg.TargetMRGs)

	if err := applyAzureProfile(&cfg); err != nil {
		return domain.Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// normalizeMRGs lower-cases and de-duplicates the target resource groups.
func normalizeMRGs(mrgs []string) []string {
	var out []string
	for _, m := range mrgs {
		for _, part := range strings.Split(m, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return lo.Uniq(out)
}

// applyAzureProfile fills subscription and tenant from the Azure CLI config when unset.
func applyAzureProfile(cfg *domain.Config) error {
	if cfg.SubscriptionID != "" && cfg.TenantID != "" {
		return nil
	}

	path := cfg.AzureConfigPath
	if path == "" {
		var err error
		if path, err = DefaultAzureConfigPath(); err != nil {
			return nil
		}
	}

	profile, err := LoadAzureProfile(path, cfg.AzureProfile)
	if err != nil {
		if cfg.AzureProfile == "" && cfg.AzureConfigPath == "" {
			// the implicit profile is best effort
			return nil
		}
		return &domain.ConfigError{Field: "azure_profile", Message: err.Error()}
	}
	if profile == nil {
		return nil
	}

	cfg.SubscriptionID = lo.Ternary(cfg.SubscriptionID == "", profile.SubscriptionID, cfg.SubscriptionID)
	cfg.TenantID = lo.Ternary(cfg.TenantID == "", profile.TenantID, cfg.TenantID)
	return nil
}

// Validate checks the fields every run needs.
func Validate(cfg domain.Config) error {
	required := []struct {
		field string
		value string
	}{
		{"wsm_url", cfg.WsmURL},
		{"rawls_url", cfg.RawlsURL},
		{"current_workspace_id", cfg.CurrentWorkspaceID},
		{"storage_account", cfg.StorageAccount},
		{"container_name", cfg.ContainerName},
		{"container_id", cfg.ContainerID},
		{"blob_inventory_prefix", cfg.BlobInventoryPrefix},
		{"cost_management_storage_account", cfg.CostManagementStorageAccount},
		{"cost_management_storage_container", cfg.CostManagementStorageContainer},
		{"cost_management_key", cfg.CostManagementKey},
		{"local_costs_url", cfg.LocalCostsURL},
		{"local_aks_costs_url", cfg.LocalAKSCostsURL},
		{"cost_column_name", cfg.CostColumnName},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &domain.ConfigError{Field: r.field, Message: "required"}
		}
	}

	if len(cfg.TargetMRGs) == 0 {
		return &domain.ConfigError{Field: "target_mrgs", Message: "at least one managed resource group is required"}
	}

	if err := validateDirectory("cost_management_directory", cfg.CostManagementDirectory, cfg.CostExportName, cfg.SubscriptionID); err != nil {
		return err
	}
	if err := validateDirectory("aks_management_directory", cfg.AKSManagementDirectory, cfg.AKSExportName, cfg.SubscriptionID); err != nil {
		return err
	}

	switch {
	case cfg.AnalysisWindowSize <= 0:
		return &domain.ConfigError{Field: "analysis_window_size", Message: "must be positive"}
	case cfg.SasExpirationSeconds <= 0:
		return &domain.ConfigError{Field: "sas_expiration_seconds", Message: "must be positive"}
	case cfg.SourceSasTTL <= 0:
		return &domain.ConfigError{Field: "source_sas_ttl", Message: "must be positive"}
	case cfg.DownloadConcurrency < 1:
		return &domain.ConfigError{Field: "download_concurrency", Message: "must be at least 1"}
	}

	switch cfg.AuthMode {
	case domain.AuthModeDefault, domain.AuthModeManagedIdentity, domain.AuthModeCLI:
	default:
		return &domain.ConfigError{Field: "auth_mode", Message: fmt.Sprintf("unsupported value %q", cfg.AuthMode)}
	}
	return nil
}

// validateDirectory accepts either an explicit export directory or an export name that
// can be resolved through Cost Management, which needs a subscription.
func validateDirectory(field, directory, exportName, subscriptionID string) error {
	if directory != "" {
		return nil
	}
	if exportName == "" {
		return &domain.ConfigError{Field: field, Message: "required unless an export name is configured"}
	}
	if subscriptionID == "" {
		return &domain.ConfigError{Field: "subscription_id", Message: "required to resolve export " + exportName}
	}
	return nil
}
