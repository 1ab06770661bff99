package blobstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const manifestSuffix = "manifest.json"

// Settings locate the working storage container.
type Settings struct {
	StorageAccount string
	ContainerName  string
	// Endpoint overrides the blob endpoint template, e.g. for Azurite. "%s" is the account.
	Endpoint string
}

type Store struct {
	settings Settings
}

func NewStore(settings Settings) *Store {
	return &Store{settings: settings}
}

func serviceURL(endpoint, account string) string {
	if endpoint == "" {
		endpoint = "https://%s.blob.core.windows.net/"
	}
	return fmt.Sprintf(endpoint, account)
}

func (s *Store) exportClient(source domain.ExportSource) (*azblob.Client, error) {
	cred, err := azblob.NewSharedKeyCredential(source.Account, source.AccountKey)
	if err != nil {
		return nil, &domain.AuthorizationError{Resource: source.Account, Err: err}
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL(s.settings.Endpoint, source.Account), cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client for %s: %w", source.Account, err)
	}
	return client, nil
}

// ListExports lists every blob under the source directory.
func (s *Store) ListExports(ctx context.Context, source domain.ExportSource) ([]domain.ExportDescriptor, error) {
	logger := zerolog.Ctx(ctx)

	client, err := s.exportClient(source)
	if err != nil {
		return nil, err
	}

	location := fmt.Sprintf("%s/%s/%s", source.Account, source.Container, source.Directory)
	pager := client.NewListBlobsFlatPager(source.Container, &azblob.ListBlobsFlatOptions{
		Prefix: to.Ptr(source.Directory),
	})

	var exports []domain.ExportDescriptor
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, &domain.ListingError{Source: location, Err: err}
		}
		for _, item := range resp.Segment.BlobItems {
			if item.Name == nil || item.Properties == nil || item.Properties.LastModified == nil {
				continue
			}
			exports = append(exports, domain.ExportDescriptor{
				Name:         *item.Name,
				LastModified: *item.Properties.LastModified,
			})
		}
	}

	logger.Debug().
		Str("source", source.Label).
		Str("location", location).
		Int("blobs", len(exports)).
		Msg("listed exports")

	return exports, nil
}

// SourceURL mints a short-lived read-only SAS URL for an export blob using the account key.
func (s *Store) SourceURL(
	ctx context.Context,
	source domain.ExportSource,
	blobName string,
	ttl time.Duration,
) (string, error) {
	client, err := s.exportClient(source)
	if err != nil {
		return "", err
	}

	blobClient := client.ServiceClient().NewContainerClient(source.Container).NewBlobClient(blobName)
	expiry := time.Now().UTC().Add(ttl)
	sasURL, err := blobClient.GetSASURL(sas.BlobPermissions{Read: true}, expiry, nil)
	if err != nil {
		return "", &domain.AuthorizationError{Resource: blobName, Err: err}
	}

	zerolog.Ctx(ctx).Debug().Str("blob", blobName).Time("expiry", expiry).Msg("minted source sas url")
	return sasURL, nil
}

func (s *Store) workspaceBlobURL(blobName, sasToken string) string {
	return fmt.Sprintf("%s%s/%s?%s",
		serviceURL(s.settings.Endpoint, s.settings.StorageAccount),
		s.settings.ContainerName,
		escapePath(blobName),
		strings.TrimPrefix(sasToken, "?"))
}

func (s *Store) workspaceContainerURL(sasToken string) string {
	return fmt.Sprintf("%s%s?%s",
		serviceURL(s.settings.Endpoint, s.settings.StorageAccount),
		s.settings.ContainerName,
		strings.TrimPrefix(sasToken, "?"))
}

// CopyToWorkspace performs a synchronous server-side copy of sourceURL into the working
// container. The call returns once the copy has completed.
func (s *Store) CopyToWorkspace(
	ctx context.Context,
	sourceURL, destination, sasToken string,
) (*domain.CopyResult, error) {
	logger := zerolog.Ctx(ctx)
	source := stripQuery(sourceURL)

	dest, err := blob.NewClientWithNoCredential(s.workspaceBlobURL(destination, sasToken), nil)
	if err != nil {
		return nil, &domain.RemoteCopyError{Source: source, Destination: destination, Err: err}
	}

	resp, err := dest.CopyFromURL(ctx, sourceURL, nil)
	if err != nil {
		return nil, &domain.RemoteCopyError{Source: source, Destination: destination, Err: err}
	}

	result := &domain.CopyResult{
		Source:      source,
		Destination: destination,
		CopyID:      lo.FromPtr(resp.CopyID),
	}
	if resp.CopyStatus != nil {
		result.Status = string(*resp.CopyStatus)
	}

	logger.Info().
		Str("source", source).
		Str("destination", destination).
		Str("status", result.Status).
		Msg("copied export to workspace storage")

	return result, nil
}

// LatestManifest returns the name of the most recently modified inventory manifest under prefix.
func (s *Store) LatestManifest(ctx context.Context, prefix, sasToken string) (string, error) {
	client, err := container.NewClientWithNoCredential(s.workspaceContainerURL(sasToken), nil)
	if err != nil {
		return "", &domain.ManifestUnreadableError{Manifest: prefix, Err: err}
	}

	pager := client.NewListBlobsFlatPager(&container.ListBlobsFlatOptions{
		Prefix: to.Ptr(prefix),
	})

	var listing []domain.ExportDescriptor
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return "", &domain.ManifestUnreadableError{Manifest: prefix, Err: err}
		}
		for _, item := range resp.Segment.BlobItems {
			if item.Name == nil || item.Properties == nil || item.Properties.LastModified == nil {
				continue
			}
			listing = append(listing, domain.ExportDescriptor{
				Name:         *item.Name,
				LastModified: *item.Properties.LastModified,
			})
		}
	}

	return SelectManifest(listing, prefix)
}

// SelectManifest picks the most recent blob whose name ends in manifest.json.
func SelectManifest(listing []domain.ExportDescriptor, prefix string) (string, error) {
	var latest *domain.ExportDescriptor
	for i := range listing {
		if !strings.HasSuffix(listing[i].Name, manifestSuffix) {
			continue
		}
		if latest == nil || listing[i].LastModified.After(latest.LastModified) {
			latest = &listing[i]
		}
	}

	if latest == nil {
		return "", &domain.ManifestUnreadableError{
			Manifest: prefix,
			Err:      fmt.Errorf("no %s found under prefix", manifestSuffix),
		}
	}
	return latest.Name, nil
}

func stripQuery(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	return u.String()
}

func escapePath(name string) string {
	segments := strings.Split(name, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
