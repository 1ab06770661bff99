package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/de-tools/alca/pkg/services/exports"
	"github.com/de-tools/alca/pkg/services/identity"
	"github.com/rs/zerolog"
)

// ExportStore lists exports at their delivery location and mints read-only source URLs.
type ExportStore interface {
	ListExports(ctx context.Context, source domain.ExportSource) ([]domain.ExportDescriptor, error)
	SourceURL(ctx context.Context, source domain.ExportSource, blobName string, ttl time.Duration) (string, error)
}

// WorkspaceStore is the working storage container of the current workspace.
type WorkspaceStore interface {
	CopyToWorkspace(ctx context.Context, sourceURL, destination, sasToken string) (*domain.CopyResult, error)
	LatestManifest(ctx context.Context, prefix, sasToken string) (string, error)
}

// SasIssuer mints SAS credentials for the working storage container.
type SasIssuer interface {
	GetSasToken(ctx context.Context) (string, error)
	GetSasURL(ctx context.Context, blobName string) (string, error)
}

type TableLoader interface {
	Load(ctx context.Context, url string) (domain.Table, error)
	LoadManifest(ctx context.Context, url string) (domain.Manifest, error)
}

type Directory interface {
	ListWorkspaces(ctx context.Context) (domain.WorkspaceDirectory, error)
}

// DirectoryResolver resolves an export directory from its Cost Management definition.
type DirectoryResolver interface {
	ExportDirectory(ctx context.Context, exportName string) (string, error)
}

type Dependencies struct {
	Exports   ExportStore
	Workspace WorkspaceStore
	Sas       SasIssuer
	Tables    TableLoader
	Directory Directory
	// Definitions is optional; it is only consulted when a directory is not configured.
	Definitions DirectoryResolver
}

type Aggregator struct {
	config domain.Config
	deps   Dependencies
	now    func() time.Time
}

type Option func(*Aggregator)

// WithClock overrides the reference time used for previous-month selection.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

func New(config domain.Config, deps Dependencies, opts ...Option) *Aggregator {
	a := &Aggregator{
		config: config,
		deps:   deps,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes one full reconciliation: select, copy, download, join, resolve and group.
func (a *Aggregator) Run(ctx context.Context) (*domain.Analysis, error) {
	logger := zerolog.Ctx(ctx)

	selected, err := a.SelectExports(ctx)
	if err != nil {
		return nil, err
	}

	sasToken, err := a.deps.Sas.GetSasToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container sas token: %w", err)
	}
	logger.Info().Msg("obtained sas token for the workspace storage container")

	if err := a.copyExports(ctx, selected, sasToken); err != nil {
		return nil, err
	}

	tables, err := a.downloadTables(ctx, selected, sasToken)
	if err != nil {
		return nil, err
	}

	storage, err := tables.storageRows()
	if err != nil {
		return nil, err
	}
	logger.Info().Int("rows", len(storage)).Msg("storage loaded")

	costs, err := a.joinCosts(ctx, selected, tables)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("rows", len(costs)).Msg("costs loaded")

	return a.reconcile(ctx, selected, storage, costs)
}

func (a *Aggregator) reconcile(
	ctx context.Context,
	selected domain.Exports,
	storage []domain.StorageRow,
	costs []domain.CostRow,
) (*domain.Analysis, error) {
	logger := zerolog.Ctx(ctx)

	annotatedStorage := AnnotateStorage(storage)
	annotatedCosts := AnnotateCosts(ctx, costs)

	storageIDs := workspaceIDs(annotatedStorage, func(r domain.AnnotatedStorageRow) *string { return r.WorkspaceID })
	costIDs := workspaceIDs(annotatedCosts, func(r domain.AnnotatedCostRow) *string { return r.WorkspaceID })
	logger.Info().Int("workspaces", len(storageIDs)).Msg("found workspaces represented in storage export")
	logger.Info().Int("workspaces", len(costIDs)).Msg("found workspaces represented in cost export")

	logger.Info().Msg("retrieving workspace names")
	directory, err := a.deps.Directory.ListWorkspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	allIDs := mergeIDs(storageIDs, costIDs)
	names := identity.ResolveNames(allIDs, directory)
	logger.Info().
		Int("resolved", len(names)).
		Int("total", len(allIDs)).
		Msg("found names for workspaces")

	applyStorageNames(annotatedStorage, names)
	applyCostNames(annotatedCosts, names)
	logger.Info().Msg("calculated grouping keys")

	workspaceCosts, sharedCosts := SplitShared(annotatedCosts)

	analysis := &domain.Analysis{
		Exports: selected,
		Window: domain.TimePeriod{
			Start:    exports.WindowStart(selected.LatestCost.LastModified, a.config.AnalysisWindowSize),
			End:      selected.LatestCost.LastModified.UTC(),
			Duration: a.config.AnalysisWindowSize,
		},
		Storage:               annotatedStorage,
		Costs:                 annotatedCosts,
		StorageGrouped:        GroupStorage(annotatedStorage),
		CostsGrouped:          GroupCosts(annotatedCosts, func(r domain.AnnotatedCostRow) string { return r.WorkspaceOrCategory }),
		CostsWorkspaceGrouped: GroupCosts(workspaceCosts, func(r domain.AnnotatedCostRow) string { return r.WorkspaceOrCategory }),
		CostsSharedGrouped:    GroupCosts(sharedCosts, func(r domain.AnnotatedCostRow) string { return r.MeterCategory }),
		WorkspacesResolved:    len(names),
		WorkspacesSeen:        len(allIDs),
	}

	logger.Info().
		Int("storage_groups", len(analysis.StorageGrouped)).
		Int("cost_groups", len(analysis.CostsGrouped)).
		Msg("analysis complete")

	return analysis, nil
}

// SelectExports lists both export streams and picks the latest and previous-month export of each.
func (a *Aggregator) SelectExports(ctx context.Context) (domain.Exports, error) {
	now := a.now()

	latestCost, previousCost, err := a.selectStream(ctx, a.config.CostSource(), a.config.CostExportName, now)
	if err != nil {
		return domain.Exports{}, err
	}

	latestAKS, previousAKS, err := a.selectStream(ctx, a.config.AKSSource(), a.config.AKSExportName, now)
	if err != nil {
		return domain.Exports{}, err
	}

	return domain.Exports{
		LatestCost:   latestCost,
		PreviousCost: previousCost,
		LatestAKS:    latestAKS,
		PreviousAKS:  previousAKS,
	}, nil
}

func (a *Aggregator) selectStream(
	ctx context.Context,
	source domain.ExportSource,
	exportName string,
	now time.Time,
) (domain.ExportDescriptor, *domain.ExportDescriptor, error) {
	logger := zerolog.Ctx(ctx)

	source, err := a.resolveSource(ctx, source, exportName)
	if err != nil {
		return domain.ExportDescriptor{}, nil, err
	}

	listing, err := a.deps.Exports.ListExports(ctx, source)
	if err != nil {
		return domain.ExportDescriptor{}, nil, fmt.Errorf("failed to list %s exports: %w", source.Label, err)
	}

	candidates := exports.FilterExports(listing, a.config.ExportSuffix)
	latest, err := exports.SelectLatest(candidates)
	if err != nil {
		var empty *domain.EmptyInputError
		if errors.As(err, &empty) {
			return domain.ExportDescriptor{}, nil, &domain.EmptyInputError{
				Source: fmt.Sprintf("%s/%s/%s", source.Account, source.Container, source.Directory),
			}
		}
		return domain.ExportDescriptor{}, nil, err
	}
	previous := exports.SelectPreviousMonth(candidates, now)

	event := logger.Info().
		Str("source", source.Label).
		Str("latest", latest.Name).
		Time("latest_modified", latest.LastModified)
	if previous != nil {
		event = event.Str("previous", previous.Name)
	}
	event.Msg("selected exports")

	return latest, previous, nil
}

func (a *Aggregator) resolveSource(
	ctx context.Context,
	source domain.ExportSource,
	exportName string,
) (domain.ExportSource, error) {
	if source.Directory != "" || exportName == "" {
		return source, nil
	}
	if a.deps.Definitions == nil {
		return source, &domain.ConfigError{
			Field:   source.Label + "_management_directory",
			Message: "no directory configured and export definitions are unavailable",
		}
	}

	directory, err := a.deps.Definitions.ExportDirectory(ctx, exportName)
	if err != nil {
		return source, &domain.ListingError{Source: exportName, Err: err}
	}
	source.Directory = directory
	return source, nil
}

// copyExports copies the latest exports, and the previous-month exports when they differ,
// into the working container.
func (a *Aggregator) copyExports(ctx context.Context, selected domain.Exports, sasToken string) error {
	logger := zerolog.Ctx(ctx)

	for _, c := range a.copyPlan(selected) {
		sourceURL, err := a.deps.Exports.SourceURL(ctx, c.source, c.export.Name, a.config.SourceSasTTL)
		if err != nil {
			return fmt.Errorf("failed to mint source url for %s: %w", c.export.Name, err)
		}

		result, err := a.deps.Workspace.CopyToWorkspace(ctx, sourceURL, c.destination, sasToken)
		if err != nil {
			return fmt.Errorf("failed to copy %s export: %w", c.source.Label, err)
		}
		logger.Debug().Str("copy_id", result.CopyID).Str("status", result.Status).Msg("copy finished")
	}

	logger.Info().Msg("copied exports to workspace storage")
	return nil
}

type copyItem struct {
	source      domain.ExportSource
	export      domain.ExportDescriptor
	destination string
}

func (a *Aggregator) copyPlan(selected domain.Exports) []copyItem {
	cost, aks := a.config.CostSource(), a.config.AKSSource()

	plan := []copyItem{
		{source: cost, export: selected.LatestCost, destination: a.config.LocalCostsURL},
		{source: aks, export: selected.LatestAKS, destination: a.config.LocalAKSCostsURL},
	}
	if selected.HasPreviousCost() {
		plan = append(plan, copyItem{
			source:      cost,
			export:      *selected.PreviousCost,
			destination: exports.PreviousExportFilename(*selected.PreviousCost, exports.PreviousCostTemplate),
		})
	}
	if selected.HasPreviousAKS() {
		plan = append(plan, copyItem{
			source:      aks,
			export:      *selected.PreviousAKS,
			destination: exports.PreviousExportFilename(*selected.PreviousAKS, exports.PreviousAKSTemplate),
		})
	}
	return plan
}
