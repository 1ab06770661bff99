package terminal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/de-tools/alca/pkg/runtime/terminal/commands"
	"github.com/de-tools/alca/pkg/runtime/terminal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// No indentation inside the backtick block to avoid YAML parsing errors
const configYAML = `wsm_url: "https://wsm.example.org"
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
target_mrgs: ["mrg-one"]`

type fakeRunner struct {
	analysis *domain.Analysis
	exports  domain.Exports
	err      error
}

func (f *fakeRunner) Run(context.Context) (*domain.Analysis, error) {
	return f.analysis, f.err
}

func (f *fakeRunner) SelectExports(context.Context) (domain.Exports, error) {
	return f.exports, f.err
}

func newTestCLI(t *testing.T, runner *fakeRunner, args ...string) (*CLI, *bytes.Buffer, *domain.Config) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "alca.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o644))

	var out, logs bytes.Buffer
	var seen domain.Config
	cli := NewCLI(Options{
		Factory: func(_ context.Context, cfg domain.Config) (commands.Runner, error) {
			seen = cfg
			return runner, nil
		},
		Output:    &out,
		LogOutput: &logs,
	})
	cli.SetArgs(append([]string{"--config", path}, args...))
	return cli, &out, &seen
}

func sampleAnalysis() *domain.Analysis {
	latest := time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)
	return &domain.Analysis{
		Exports: domain.Exports{
			LatestCost: domain.ExportDescriptor{Name: "daily/cost/b.csv", LastModified: latest},
			LatestAKS:  domain.ExportDescriptor{Name: "daily/aks/b.csv", LastModified: latest},
		},
		Window:         domain.TimePeriod{Start: latest.AddDate(0, 0, -30), End: latest, Duration: 30},
		StorageGrouped: []domain.StorageSummary{{Key: "alpha", ContentLength: 3000, TotalSize: "3.0 kB"}},
		CostsGrouped:   []domain.CostSummary{{Key: "alpha", Cost: 11, Count: 2}},
	}
}

func TestCLI_Run(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "tables")
	cli, out, seen := newTestCLI(t, &fakeRunner{analysis: sampleAnalysis()},
		"run", "--output-dir", outputDir, "--download-concurrency", "3")

	require.NoError(t, cli.Execute())

	assert.Equal(t, 3, seen.DownloadConcurrency)
	assert.Equal(t, []string{"mrg-one"}, seen.TargetMRGs)
	assert.Contains(t, out.String(), "Storage By Workspace")
	assert.Contains(t, out.String(), "3.0 kB")
	assert.FileExists(t, filepath.Join(outputDir, export.StorageGroupedFile))
	assert.FileExists(t, filepath.Join(outputDir, export.CostsGroupedFile))
}

func TestCLI_Exports(t *testing.T) {
	analysis := sampleAnalysis()
	cli, out, _ := newTestCLI(t, &fakeRunner{exports: analysis.Exports}, "--format", "text", "exports")

	require.NoError(t, cli.Execute())

	assert.Contains(t, out.String(), "Export Selection")
	assert.Contains(t, out.String(), "  * latest = daily/cost/b.csv")
}

func TestCLI_ErrorsKeepTheirExitCode(t *testing.T) {
	t.Run("collaborator failure", func(t *testing.T) {
		failure := &domain.RemoteCopyError{Source: "a", Destination: "b", Err: errors.New("boom")}
		cli, _, _ := newTestCLI(t, &fakeRunner{err: failure}, "run")

		err := cli.Execute()
		assert.Equal(t, domain.ExitRemoteCopy, domain.ExitCode(err))
	})

	t.Run("bad log level", func(t *testing.T) {
		cli, _, _ := newTestCLI(t, &fakeRunner{}, "--log-level", "loud", "run")

		err := cli.Execute()
		assert.Equal(t, domain.ExitConfig, domain.ExitCode(err))
	})

	t.Run("non-positive concurrency override is ignored", func(t *testing.T) {
		cli, _, seen := newTestCLI(t, &fakeRunner{analysis: sampleAnalysis()}, "run", "--download-concurrency", "-2")

		require.NoError(t, cli.Execute())
		assert.Equal(t, 1, seen.DownloadConcurrency)
	})
}
