package exports

import (
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/alca/pkg/models/domain"
)

const (
	PreviousCostTemplate = "costexport/{}.csv"
	PreviousAKSTemplate  = "costexport/{}-aks.csv"
)

// SelectLatest returns the export with the most recent timestamp.
// Equal timestamps resolve to the lexicographically greatest name, whatever the input order.
func SelectLatest(exports []domain.ExportDescriptor) (domain.ExportDescriptor, error) {
	if len(exports) == 0 {
		return domain.ExportDescriptor{}, &domain.EmptyInputError{Source: "export listing"}
	}

	latest := exports[0]
	for _, ex := range exports[1:] {
		if newer(ex, latest) {
			latest = ex
		}
	}
	return latest, nil
}

// SelectPreviousMonth returns the most recent export whose timestamp falls in the calendar
// month before now's month, or nil if there is none.
func SelectPreviousMonth(exports []domain.ExportDescriptor, now time.Time) *domain.ExportDescriptor {
	month, year := PreviousMonth(now)

	var previous *domain.ExportDescriptor
	for i := range exports {
		ts := exports[i].LastModified
		if ts.Month() != month || ts.Year() != year {
			continue
		}
		if previous == nil || newer(exports[i], *previous) {
			ex := exports[i]
			previous = &ex
		}
	}
	return previous
}

// PreviousMonth returns the month and year of the last day of the month preceding now.
func PreviousMonth(now time.Time) (time.Month, int) {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastOfPrevious := firstOfMonth.AddDate(0, 0, -1)
	return lastOfPrevious.Month(), lastOfPrevious.Year()
}

// PreviousExportFilename renders the working-storage name of a previous-month export copy.
// The "{}" placeholder is replaced by year_month_day of the export timestamp, unpadded.
func PreviousExportFilename(export domain.ExportDescriptor, template string) string {
	ts := export.LastModified
	stamp := fmt.Sprintf("%d_%d_%d", ts.Year(), int(ts.Month()), ts.Day())
	return strings.Replace(template, "{}", stamp, 1)
}

// FilterExports drops listing entries that are not export files, such as folder markers
// and run manifests.
func FilterExports(blobs []domain.ExportDescriptor, suffix string) []domain.ExportDescriptor {
	if suffix == "" {
		return blobs
	}
	out := make([]domain.ExportDescriptor, 0, len(blobs))
	for _, b := range blobs {
		if strings.HasSuffix(strings.ToLower(b.Name), strings.ToLower(suffix)) {
			out = append(out, b)
		}
	}
	return out
}

func newer(a, b domain.ExportDescriptor) bool {
	if a.LastModified.Equal(b.LastModified) {
		return a.Name > b.Name
	}
	return a.LastModified.After(b.LastModified)
}
