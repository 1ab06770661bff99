package blobstore

import (
	"errors"
	"testing"
	"time"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectManifest(t *testing.T) {
	base := time.Date(2024, 4, 2, 3, 0, 0, 0, time.UTC)

	t.Run("success - most recent manifest", func(t *testing.T) {
		listing := []domain.ExportDescriptor{
			{Name: "inventory/2024/04/01/rule/manifest.json", LastModified: base.Add(-24 * time.Hour)},
			{Name: "inventory/2024/04/02/rule/manifest.json", LastModified: base},
			{Name: "inventory/2024/04/02/rule/part-0001.csv", LastModified: base.Add(time.Hour)},
			{Name: "inventory/2024/04/02/rule/manifest.checksum", LastModified: base.Add(time.Hour)},
		}

		name, err := SelectManifest(listing, "inventory")
		require.NoError(t, err)
		assert.Equal(t, "inventory/2024/04/02/rule/manifest.json", name)
	})

	t.Run("error - no manifest", func(t *testing.T) {
		_, err := SelectManifest([]domain.ExportDescriptor{
			{Name: "inventory/part-0001.csv", LastModified: base},
		}, "inventory")
		require.Error(t, err)

		var manifestErr *domain.ManifestUnreadableError
		assert.True(t, errors.As(err, &manifestErr))
		assert.Equal(t, domain.ExitManifest, domain.ExitCode(err))
	})
}

func TestWorkspaceURLs(t *testing.T) {
	store := NewStore(Settings{StorageAccount: "wsaccount", ContainerName: "sc-123"})

	assert.Equal(t,
		"https://wsaccount.blob.core.windows.net/sc-123/costexport/2024_2_5.csv?sv=1&sig=abc",
		store.workspaceBlobURL("costexport/2024_2_5.csv", "?sv=1&sig=abc"))
	assert.Equal(t,
		"https://wsaccount.blob.core.windows.net/sc-123/cost%20export/latest.csv?sv=1",
		store.workspaceBlobURL("cost export/latest.csv", "sv=1"))
	assert.Equal(t,
		"https://wsaccount.blob.core.windows.net/sc-123?sv=1",
		store.workspaceContainerURL("sv=1"))

	local := NewStore(Settings{StorageAccount: "devstoreaccount1", ContainerName: "c", Endpoint: "http://127.0.0.1:10000/%s/"})
	assert.Equal(t, "http://127.0.0.1:10000/devstoreaccount1/c?sv=1", local.workspaceContainerURL("sv=1"))
}

func TestStripQuery(t *testing.T) {
	assert.Equal(t,
		"https://acct.blob.core.windows.net/exports/costs/a.csv",
		stripQuery("https://acct.blob.core.windows.net/exports/costs/a.csv?sig=secret&se=2024"))
}
