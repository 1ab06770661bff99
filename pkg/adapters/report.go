package adapters

import (
	"fmt"
	"time"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/dustin/go-humanize"
)

const defaultCurrency = "USD"

func MapAnalysisToReport(analysis *domain.Analysis) *domain.Report {
	var total float64
	for _, c := range analysis.CostsGrouped {
		total += c.Cost
	}

	var totalBytes int64
	for _, s := range analysis.StorageGrouped {
		totalBytes += s.ContentLength
	}

	return &domain.Report{
		Title:  "Workspace Cost And Storage Reconciliation",
		Period: analysis.Window,
		Sections: []domain.ReportSection{
			{
				Title: "Storage By Workspace",
				Summary: map[string]interface{}{
					"Groups":     len(analysis.StorageGrouped),
					"Total Size": humanize.Bytes(uint64(max(totalBytes, 0))),
					"Workspaces": fmt.Sprintf("%d/%d resolved", analysis.WorkspacesResolved, analysis.WorkspacesSeen),
				},
				Details: mapStorageDetails(analysis.StorageGrouped),
			},
			{
				Title:   "Costs By Workspace",
				Summary: map[string]interface{}{"Groups": len(analysis.CostsWorkspaceGrouped)},
				Details: mapCostDetails(analysis.CostsWorkspaceGrouped, "workspace cost"),
			},
			{
				Title:   "Shared Costs By Meter Category",
				Summary: map[string]interface{}{"Groups": len(analysis.CostsSharedGrouped)},
				Details: mapCostDetails(analysis.CostsSharedGrouped, "unattributed cost"),
			},
		},
		TotalAmount: total,
		Currency:    defaultCurrency,
	}
}

func mapStorageDetails(groups []domain.StorageSummary) []domain.ReportDetail {
	details := make([]domain.ReportDetail, 0, len(groups))
	for _, g := range groups {
		details = append(details, domain.ReportDetail{
			Name:        g.Key,
			Value:       g.TotalSize,
			Unit:        "",
			Description: fmt.Sprintf("%.2f MB", g.MB),
		})
	}
	return details
}

func mapCostDetails(groups []domain.CostSummary, description string) []domain.ReportDetail {
	details := make([]domain.ReportDetail, 0, len(groups))
	for _, g := range groups {
		details = append(details, domain.ReportDetail{
			Name:        g.Key,
			Value:       fmt.Sprintf("%.2f", g.Cost),
			Unit:        defaultCurrency,
			Description: fmt.Sprintf("%s over %d rows", description, g.Count),
		})
	}
	return details
}

// MapExportsToReport describes the export selection without running the analysis.
func MapExportsToReport(selected domain.Exports, windowDays int) *domain.Report {
	return &domain.Report{
		Title: "Export Selection",
		Period: domain.TimePeriod{
			Start:    selected.LatestCost.LastModified.UTC().AddDate(0, 0, -windowDays),
			End:      selected.LatestCost.LastModified.UTC(),
			Duration: windowDays,
		},
		Sections: []domain.ReportSection{
			exportSection("Cost Exports", selected.LatestCost, selected.PreviousCost, selected.HasPreviousCost()),
			exportSection("AKS Cost Exports", selected.LatestAKS, selected.PreviousAKS, selected.HasPreviousAKS()),
		},
		Currency: defaultCurrency,
	}
}

func exportSection(
	title string,
	latest domain.ExportDescriptor,
	previous *domain.ExportDescriptor,
	usePrevious bool,
) domain.ReportSection {
	section := domain.ReportSection{
		Title:   title,
		Summary: map[string]interface{}{"Previous Month": usePrevious},
		Details: []domain.ReportDetail{
			{Name: "latest", Value: latest.Name, Description: latest.LastModified.UTC().Format(time.RFC3339)},
		},
	}
	if previous != nil {
		section.Details = append(section.Details, domain.ReportDetail{
			Name:        "previous",
			Value:       previous.Name,
			Description: previous.LastModified.UTC().Format(time.RFC3339),
		})
	}
	return section
}
