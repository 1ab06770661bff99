package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// No indentation inside the backtick block to avoid YAML parsing errors
const validYAML = `wsm_url: "https://wsm.example.org"
rawls_url: "https://rawls.example.org"
current_workspace_id: "ws-current"
subscription_id: "sub-1"
tenant_id: "tenant-1"
storage_account: "workspacesa"
container_name: "sc-current"
container_id: "container-1"
blob_inventory_prefix: "inventory/"
cost_management_storage_account: "costsa"
cost_management_storage_container: "exports"
cost_management_directory: "daily/cost"
cost_management_key: "a2V5"
aks_management_directory: "daily/aks"
target_mrgs:
  - MRG-One
  - mrg-two
azure_config_path: "/nonexistent/azure/config"`

func TestLoad_ValidYAML_AppliesDefaults(t *testing.T) {
	// Given
	path := writeFile(t, t.TempDir(), "alca.yaml", validYAML)

	// When
	cfg, err := Load(path)

	// Then
	require.NoError(t, err)
	assert.Equal(t, "https://wsm.example.org", cfg.WsmURL)
	assert.Equal(t, []string{"mrg-one", "mrg-two"}, cfg.TargetMRGs)
	assert.Equal(t, 30, cfg.AnalysisWindowSize)
	assert.Equal(t, "PreTaxCost", cfg.CostColumnName)
	assert.Equal(t, ".csv", cfg.ExportSuffix)
	assert.Equal(t, 28800, cfg.SasExpirationSeconds)
	assert.Equal(t, 30*time.Minute, cfg.SourceSasTTL)
	assert.Equal(t, domain.AuthModeDefault, cfg.AuthMode)
	assert.Equal(t, 1, cfg.DownloadConcurrency)
	assert.Equal(t, "costexport/latest.csv", cfg.LocalCostsURL)

	aks := cfg.AKSSource()
	assert.Equal(t, "costsa", aks.Account)
	assert.Equal(t, "exports", aks.Container)
	assert.Equal(t, "a2V5", aks.AccountKey)
	assert.Equal(t, "daily/aks", aks.Directory)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	// Given
	path := writeFile(t, t.TempDir(), "alca.yaml", validYAML)
	t.Setenv("ALCA_ANALYSIS_WINDOW_SIZE", "14")
	t.Setenv("ALCA_TARGET_MRGS", "MRG-Three, mrg-three ,mrg-four")
	t.Setenv("ALCA_SOURCE_SAS_TTL", "45m")

	// When
	cfg, err := Load(path)

	// Then
	require.NoError(t, err)
	assert.Equal(t, 14, cfg.AnalysisWindowSize)
	assert.Equal(t, []string{"mrg-three", "mrg-four"}, cfg.TargetMRGs)
	assert.Equal(t, 45*time.Minute, cfg.SourceSasTTL)
}

func TestLoad_MissingRequiredField_ReturnsConfigError(t *testing.T) {
	// Given
	path := writeFile(t, t.TempDir(), "alca.yaml", `wsm_url: "https://wsm.example.org"
azure_config_path: "/nonexistent/azure/config"`)

	// When
	_, err := Load(path)

	// Then
	var cfgErr *domain.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "rawls_url", cfgErr.Field)
	assert.Equal(t, domain.ExitConfig, domain.ExitCode(err))
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	// Given
	path := writeFile(t, t.TempDir(), "bad.yaml", "wsm_url: example:443: bad")

	// When
	_, err := Load(path)

	// Then
	assert.Equal(t, domain.ExitConfig, domain.ExitCode(err))
}

func TestLoad_SubscriptionFromAzureProfile(t *testing.T) {
	// Given
	dir := t.TempDir()
	azureConfig := writeFile(t, dir, "config", "[work]\nsubscription = sub-from-profile\ntenant = tenant-from-profile\n")
	withoutAccount := strings.NewReplacer("subscription_id: \"sub-1\"\n", "", "tenant_id: \"tenant-1\"\n", "").Replace(validYAML)
	yaml := writeFile(t, dir, "alca.yaml", withoutAccount)
	t.Setenv("ALCA_AZURE_CONFIG_PATH", azureConfig)
	t.Setenv("ALCA_AZURE_PROFILE", "work")

	// When
	cfg, err := Load(yaml)

	// Then
	require.NoError(t, err)
	assert.Equal(t, "sub-from-profile", cfg.SubscriptionID)
	assert.Equal(t, "tenant-from-profile", cfg.TenantID)
}

func TestValidate(t *testing.T) {
	base := domain.Config{
		WsmURL:                         "w",
		RawlsURL:                       "r",
		CurrentWorkspaceID:             "ws",
		StorageAccount:                 "sa",
		ContainerName:                  "c",
		ContainerID:                    "cid",
		BlobInventoryPrefix:            "inv",
		CostManagementStorageAccount:   "csa",
		CostManagementStorageContainer: "cc",
		CostManagementDirectory:        "cd",
		CostManagementKey:              "k",
		AKSManagementDirectory:         "ad",
		LocalCostsURL:                  "l",
		LocalAKSCostsURL:               "la",
		CostColumnName:                 "PreTaxCost",
		TargetMRGs:                     []string{"mrg"},
		AnalysisWindowSize:             30,
		SasExpirationSeconds:           1,
		SourceSasTTL:                   time.Minute,
		AuthMode:                       domain.AuthModeCLI,
		DownloadConcurrency:            1,
	}

	tests := []struct {
		name   string
		mutate func(*domain.Config)
		field  string
	}{
		{name: "valid", mutate: func(*domain.Config) {}},
		{name: "no target mrgs", mutate: func(c *domain.Config) { c.TargetMRGs = nil }, field: "target_mrgs"},
		{name: "zero window", mutate: func(c *domain.Config) { c.AnalysisWindowSize = 0 }, field: "analysis_window_size"},
		{name: "zero concurrency", mutate: func(c *domain.Config) { c.DownloadConcurrency = 0 }, field: "download_concurrency"},
		{name: "bad auth mode", mutate: func(c *domain.Config) { c.AuthMode = "kerberos" }, field: "auth_mode"},
		{
			name:   "no directory and no export name",
			mutate: func(c *domain.Config) { c.AKSManagementDirectory = "" },
			field:  "aks_management_directory",
		},
		{
			name: "export name without subscription",
			mutate: func(c *domain.Config) {
				c.CostManagementDirectory = ""
				c.CostExportName = "daily-cost"
			},
			field: "subscription_id",
		},
		{
			name: "export name with subscription",
			mutate: func(c *domain.Config) {
				c.CostManagementDirectory = ""
				c.CostExportName = "daily-cost"
				c.SubscriptionID = "sub"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)

			err := Validate(cfg)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			var cfgErr *domain.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestLoadAzureProfile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config", "[default]\nsubscription = s1\ntenant = t1\n")

	profile, err := LoadAzureProfile(path, "")
	require.NoError(t, err)
	assert.Equal(t, &AzureProfile{SubscriptionID: "s1", TenantID: "t1"}, profile)

	_, err = LoadAzureProfile(path, "missing")
	assert.Error(t, err)

	profile, err = LoadAzureProfile(filepath.Join(dir, "absent"), "")
	require.NoError(t, err)
	assert.Nil(t, profile)
}
