package aggregator

import (
	"cmp"
	"context"
	"slices"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/de-tools/alca/pkg/services/exports"
	"github.com/de-tools/alca/pkg/services/identity"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const bytesPerMB = 1024 * 1024

// joinCosts windows the cost and AKS streams independently, concatenates them in that order
// and keeps the target managed resource groups.
func (a *Aggregator) joinCosts(ctx context.Context, selected domain.Exports, tables *tableSet) ([]domain.CostRow, error) {
	logger := zerolog.Ctx(ctx)

	cost, err := a.joinStream(ctx, tables, &tables.latestCost, tables.previousCost, selected.LatestCost)
	if err != nil {
		return nil, err
	}
	aks, err := a.joinStream(ctx, tables, &tables.latestAKS, tables.previousAKS, selected.LatestAKS)
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("cost_rows", len(cost)).Int("aks_rows", len(aks)).Msg("applied rolling window")

	combined := append(cost, aks...)
	filtered := lo.Filter(combined, func(row domain.CostRow, _ int) bool {
		return a.config.IsTargetMRG(row.ResourceGroup)
	})
	logger.Debug().
		Int("before", len(combined)).
		Int("after", len(filtered)).
		Strs("target_mrgs", a.config.TargetMRGs).
		Msg("filtered costs to target resource groups")

	return filtered, nil
}

func (a *Aggregator) joinStream(
	ctx context.Context,
	tables *tableSet,
	latest, previous *domain.Table,
	latestExport domain.ExportDescriptor,
) ([]domain.CostRow, error) {
	latestRows, err := tables.costRows(latest)
	if err != nil {
		return nil, err
	}
	previousRows, err := tables.costRows(previous)
	if err != nil {
		return nil, err
	}
	noUsageTime := func(row domain.CostRow) bool { return row.UsageDateTime.IsZero() }
	undated := lo.CountBy(latestRows, noUsageTime) + lo.CountBy(previousRows, noUsageTime)
	if undated > 0 {
		zerolog.Ctx(ctx).Debug().
			Str("export", latestExport.Name).
			Int("rows", undated).
			Msg("skipping cost rows without usage time")
	}
	return exports.RollingWindow(latestRows, previousRows, latestExport.LastModified, a.config.AnalysisWindowSize), nil
}

// AnnotateStorage derives the container and container-encoded workspace id of every row.
func AnnotateStorage(rows []domain.StorageRow) []domain.AnnotatedStorageRow {
	return lo.Map(rows, func(row domain.StorageRow, _ int) domain.AnnotatedStorageRow {
		annotated := domain.AnnotatedStorageRow{
			StorageRow:    row,
			ContainerName: identity.ContainerName(row.Name),
		}
		if id, ok := identity.ExtractWorkspaceID(annotated.ContainerName); ok {
			annotated.WorkspaceID = lo.ToPtr(id.String())
		}
		annotated.WorkspaceOrContainer = identity.StorageKey(nil, annotated.ContainerName)
		return annotated
	})
}

// AnnotateCosts reads the workspace id tag of every row.
func AnnotateCosts(ctx context.Context, rows []domain.CostRow) []domain.AnnotatedCostRow {
	return lo.Map(rows, func(row domain.CostRow, _ int) domain.AnnotatedCostRow {
		annotated := domain.AnnotatedCostRow{CostRow: row}
		if id, ok := identity.ExtractWorkspaceTag(ctx, row.Tags); ok {
			annotated.WorkspaceID = &id
		}
		annotated.WorkspaceOrCategory = identity.CostKey(nil, row.MeterCategory)
		return annotated
	})
}

func workspaceIDs[T any](rows []T, id func(T) *string) []string {
	return lo.Uniq(lo.FilterMap(rows, func(row T, _ int) (string, bool) {
		if p := id(row); p != nil {
			return *p, true
		}
		return "", false
	}))
}

func mergeIDs(ids ...[]string) []string {
	return lo.Uniq(lo.Flatten(ids))
}

func lookupName(id *string, names map[string]string) *string {
	if id == nil {
		return nil
	}
	if name, ok := names[*id]; ok {
		return &name
	}
	return nil
}

func applyStorageNames(rows []domain.AnnotatedStorageRow, names map[string]string) {
	for i := range rows {
		rows[i].WorkspaceName = lookupName(rows[i].WorkspaceID, names)
		rows[i].WorkspaceOrContainer = identity.StorageKey(rows[i].WorkspaceName, rows[i].ContainerName)
	}
}

func applyCostNames(rows []domain.AnnotatedCostRow, names map[string]string) {
	for i := range rows {
		rows[i].WorkspaceName = lookupName(rows[i].WorkspaceID, names)
		rows[i].WorkspaceOrCategory = identity.CostKey(rows[i].WorkspaceName, rows[i].MeterCategory)
	}
}

// SplitShared separates rows attributed to a named workspace from shared ones.
func SplitShared(rows []domain.AnnotatedCostRow) (workspace, shared []domain.AnnotatedCostRow) {
	for _, row := range rows {
		if row.Shared() {
			shared = append(shared, row)
		} else {
			workspace = append(workspace, row)
		}
	}
	return workspace, shared
}

// GroupStorage sums Content-Length per grouping key, largest first.
func GroupStorage(rows []domain.AnnotatedStorageRow) []domain.StorageSummary {
	groups := lo.GroupBy(rows, func(row domain.AnnotatedStorageRow) string {
		return row.WorkspaceOrContainer
	})

	summaries := lo.MapToSlice(groups, func(key string, group []domain.AnnotatedStorageRow) domain.StorageSummary {
		size := lo.SumBy(group, func(row domain.AnnotatedStorageRow) int64 { return row.ContentLength })
		return domain.StorageSummary{
			Key:           key,
			ContentLength: size,
			MB:            float64(size) / bytesPerMB,
			TotalSize:     humanize.Bytes(uint64(max(size, 0))),
		}
	})

	slices.SortFunc(summaries, func(a, b domain.StorageSummary) int {
		if c := cmp.Compare(b.ContentLength, a.ContentLength); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return summaries
}

// GroupCosts sums the cost column per key, most expensive first.
func GroupCosts(rows []domain.AnnotatedCostRow, key func(domain.AnnotatedCostRow) string) []domain.CostSummary {
	groups := lo.GroupBy(rows, key)

	summaries := lo.MapToSlice(groups, func(k string, group []domain.AnnotatedCostRow) domain.CostSummary {
		return domain.CostSummary{
			Key:   k,
			Cost:  lo.SumBy(group, func(row domain.AnnotatedCostRow) float64 { return row.Cost }),
			Count: len(group),
		}
	})

	slices.SortFunc(summaries, func(a, b domain.CostSummary) int {
		if c := cmp.Compare(b.Cost, a.Cost); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return summaries
}
