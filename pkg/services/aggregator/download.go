package aggregator

import (
	"context"
	"fmt"

	"github.com/de-tools/alca/pkg/adapters"
	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/de-tools/alca/pkg/services/exports"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type downloadKind int

const (
	kindInventory downloadKind = iota
	kindLatestCost
	kindLatestAKS
	kindPreviousCost
	kindPreviousAKS
)

type download struct {
	kind downloadKind
	blob string
	url  string
}

// tableSet holds the downloaded tables. Inventory parts keep manifest order.
type tableSet struct {
	inventory    []domain.Table
	latestCost   domain.Table
	latestAKS    domain.Table
	previousCost *domain.Table
	previousAKS  *domain.Table
	costColumn   string
}

func (a *Aggregator) downloadTables(ctx context.Context, selected domain.Exports, sasToken string) (*tableSet, error) {
	logger := zerolog.Ctx(ctx)

	manifestName, err := a.deps.Workspace.LatestManifest(ctx, a.config.BlobInventoryPrefix, sasToken)
	if err != nil {
		return nil, fmt.Errorf("failed to locate inventory manifest: %w", err)
	}
	logger.Info().Str("manifest", manifestName).Msg("found blob inventory manifest file")

	manifestURL, err := a.deps.Sas.GetSasURL(ctx, manifestName)
	if err != nil {
		return nil, fmt.Errorf("failed to get sas url for manifest: %w", err)
	}

	manifest, err := a.deps.Tables.LoadManifest(ctx, manifestURL)
	if err != nil {
		return nil, err
	}
	if len(manifest.Files) == 0 {
		return nil, &domain.ManifestUnreadableError{
			Manifest: manifestName,
			Err:      fmt.Errorf("manifest lists no inventory files"),
		}
	}

	plan := make([]download, 0, len(manifest.Files)+4)
	for _, blob := range manifest.Blobs() {
		plan = append(plan, download{kind: kindInventory, blob: blob})
	}
	plan = append(plan,
		download{kind: kindLatestCost, blob: a.config.LocalCostsURL},
		download{kind: kindLatestAKS, blob: a.config.LocalAKSCostsURL},
	)
	if selected.HasPreviousCost() {
		plan = append(plan, download{
			kind: kindPreviousCost,
			blob: exports.PreviousExportFilename(*selected.PreviousCost, exports.PreviousCostTemplate),
		})
	}
	if selected.HasPreviousAKS() {
		plan = append(plan, download{
			kind: kindPreviousAKS,
			blob: exports.PreviousExportFilename(*selected.PreviousAKS, exports.PreviousAKSTemplate),
		})
	}

	for i := range plan {
		plan[i].url, err = a.deps.Sas.GetSasURL(ctx, plan[i].blob)
		if err != nil {
			return nil, fmt.Errorf("failed to get sas url for %s: %w", plan[i].blob, err)
		}
	}
	logger.Info().Int("tables", len(plan)).Msg("appended sas token to each export")

	results, err := a.fetchAll(ctx, plan)
	if err != nil {
		return nil, err
	}

	set := &tableSet{costColumn: a.config.CostColumnName}
	for i, d := range plan {
		table := results[i]
		switch d.kind {
		case kindInventory:
			set.inventory = append(set.inventory, table)
		case kindLatestCost:
			set.latestCost = table
		case kindLatestAKS:
			set.latestAKS = table
		case kindPreviousCost:
			set.previousCost = &table
		case kindPreviousAKS:
			set.previousAKS = &table
		}
	}
	return set, nil
}

// fetchAll downloads every planned table with at most download_concurrency requests in
// flight. Each goroutine writes only its own slot, so the result order is the plan order.
func (a *Aggregator) fetchAll(ctx context.Context, plan []download) ([]domain.Table, error) {
	results := make([]domain.Table, len(plan))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(a.config.DownloadConcurrency, 1))

	for i, d := range plan {
		g.Go(func() error {
			table, err := a.deps.Tables.Load(gctx, d.url)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", d.blob, err)
			}
			table.Source = d.blob
			results[i] = table
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *tableSet) storageRows() ([]domain.StorageRow, error) {
	var rows []domain.StorageRow
	for _, t := range s.inventory {
		part, err := adapters.MapTableToStorageRows(t)
		if err != nil {
			return nil, err
		}
		rows = append(rows, part...)
	}
	return rows, nil
}

func (s *tableSet) costRows(t *domain.Table) ([]domain.CostRow, error) {
	if t == nil {
		return nil, nil
	}
	return adapters.MapTableToCostRows(*t, s.costColumn)
}
