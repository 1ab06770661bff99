package aggregator

import (
	"context"
	"time"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/stretchr/testify/mock"
)

type mockExportStore struct {
	mock.Mock
}

func (m *mockExportStore) ListExports(ctx context.Context, source domain.ExportSource) ([]domain.ExportDescriptor, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExportDescriptor), args.Error(1)
}

func (m *mockExportStore) SourceURL(
	ctx context.Context,
	source domain.ExportSource,
	blobName string,
	ttl time.Duration,
) (string, error) {
	args := m.Called(ctx, source, blobName, ttl)
	return args.String(0), args.Error(1)
}

type mockWorkspaceStore struct {
	mock.Mock
}

func (m *mockWorkspaceStore) CopyToWorkspace(
	ctx context.Context,
	sourceURL, destination, sasToken string,
) (*domain.CopyResult, error) {
	args := m.Called(ctx, sourceURL, destination, sasToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CopyResult), args.Error(1)
}

func (m *mockWorkspaceStore) LatestManifest(ctx context.Context, prefix, sasToken string) (string, error) {
	args := m.Called(ctx, prefix, sasToken)
	return args.String(0), args.Error(1)
}

type mockSasIssuer struct {
	mock.Mock
}

func (m *mockSasIssuer) GetSasToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockSasIssuer) GetSasURL(ctx context.Context, blobName string) (string, error) {
	args := m.Called(ctx, blobName)
	return args.String(0), args.Error(1)
}

type mockTableLoader struct {
	mock.Mock
}

func (m *mockTableLoader) Load(ctx context.Context, url string) (domain.Table, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(domain.Table), args.Error(1)
}

func (m *mockTableLoader) LoadManifest(ctx context.Context, url string) (domain.Manifest, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(domain.Manifest), args.Error(1)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) ListWorkspaces(ctx context.Context) (domain.WorkspaceDirectory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.WorkspaceDirectory), args.Error(1)
}

type mockDirectoryResolver struct {
	mock.Mock
}

func (m *mockDirectoryResolver) ExportDirectory(ctx context.Context, exportName string) (string, error) {
	args := m.Called(ctx, exportName)
	return args.String(0), args.Error(1)
}
