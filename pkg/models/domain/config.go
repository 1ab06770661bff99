package domain

import (
	"strings"
	"time"
)

type AuthMode string

const (
	AuthModeDefault         AuthMode = "default"
	AuthModeManagedIdentity AuthMode = "managed_identity"
	AuthModeCLI             AuthMode = "cli"
)

// Config holds the deployment parameters of a run. It is built once at startup
// and passed by value; nothing mutates it afterwards.
type Config struct {
	WsmURL             string   `mapstructure:"wsm_url"`
	RawlsURL           string   `mapstructure:"rawls_url"`
	CurrentWorkspaceID string   `mapstructure:"current_workspace_id"`
	SubscriptionID     string   `mapstructure:"subscription_id"`
	TenantID           string   `mapstructure:"tenant_id"`
	StorageAccount     string   `mapstructure:"storage_account"`
	TargetMRGs         []string `mapstructure:"target_mrgs"`
	ContainerName      string   `mapstructure:"container_name"`
	ContainerID        string   `mapstructure:"container_id"`

	BlobInventoryName   string `mapstructure:"blob_inventory_name"`
	BlobInventoryPrefix string `mapstructure:"blob_inventory_prefix"`

	CostManagementStorageAccount   string `mapstructure:"cost_management_storage_account"`
	CostManagementStorageContainer string `mapstructure:"cost_management_storage_container"`
	CostManagementDirectory        string `mapstructure:"cost_management_directory"`
	CostManagementKey              string `mapstructure:"cost_management_key"`

	AKSManagementStorageAccount   string `mapstructure:"aks_management_storage_account"`
	AKSManagementStorageContainer string `mapstructure:"aks_management_storage_container"`
	AKSManagementDirectory        string `mapstructure:"aks_management_directory"`
	AKSManagementKey              string `mapstructure:"aks_management_key"`

	CostExportName string `mapstructure:"cost_export_name"`
	AKSExportName  string `mapstructure:"aks_export_name"`

	LocalCostsURL    string `mapstructure:"local_costs_url"`
	LocalAKSCostsURL string `mapstructure:"local_aks_costs_url"`

	AnalysisWindowSize int    `mapstructure:"analysis_window_size"`
	CostColumnName     string `mapstructure:"cost_column_name"`
	ExportSuffix       string `mapstructure:"export_suffix"`

	SasExpirationSeconds int           `mapstructure:"sas_expiration_seconds"`
	SourceSasTTL         time.Duration `mapstructure:"source_sas_ttl"`
	TokenScope           string        `mapstructure:"token_scope"`
	AuthMode             AuthMode      `mapstructure:"auth_mode"`
	AzureProfile         string        `mapstructure:"azure_profile"`
	AzureConfigPath      string        `mapstructure:"azure_config_path"`

	DownloadConcurrency int `mapstructure:"download_concurrency"`
}

// ExportSource describes where one export stream lives.
type ExportSource struct {
	Label      string
	Account    string
	Container  string
	Directory  string
	AccountKey string
}

func (c Config) CostSource() ExportSource {
	return ExportSource{
		Label:      "cost",
		Account:    c.CostManagementStorageAccount,
		Container:  c.CostManagementStorageContainer,
		Directory:  c.CostManagementDirectory,
		AccountKey: c.CostManagementKey,
	}
}

func (c Config) AKSSource() ExportSource {
	return ExportSource{
		Label:      "aks",
		Account:    firstSet(c.AKSManagementStorageAccount, c.CostManagementStorageAccount),
		Container:  firstSet(c.AKSManagementStorageContainer, c.CostManagementStorageContainer),
		Directory:  c.AKSManagementDirectory,
		AccountKey: firstSet(c.AKSManagementKey, c.CostManagementKey),
	}
}

// IsTargetMRG reports whether a resource group is in the configured target set, ignoring case.
func (c Config) IsTargetMRG(resourceGroup string) bool {
	rg := strings.ToLower(resourceGroup)
	for _, mrg := range c.TargetMRGs {
		if strings.ToLower(mrg) == rg {
			return true
		}
	}
	return false
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
