package exports

import (
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/alca/pkg/models/domain"
)

var usageTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"01/02/2006",
	"1/2/2006",
	"20060102",
}

// RollingWindow concatenates the latest and previous rows and keeps those whose usage
// timestamp is not older than windowDays before latestTS. Rows newer than latestTS are kept,
// rows without a usage timestamp are not.
func RollingWindow(
	latest, previous []domain.CostRow,
	latestTS time.Time,
	windowDays int,
) []domain.CostRow {
	cutoff := WindowStart(latestTS, windowDays)

	out := make([]domain.CostRow, 0, len(latest)+len(previous))
	for _, rows := range [][]domain.CostRow{latest, previous} {
		for _, row := range rows {
			if !row.UsageDateTime.IsZero() && !row.UsageDateTime.Before(cutoff) {
				out = append(out, row)
			}
		}
	}
	return out
}

// WindowStart is the inclusive lower bound of the rolling window.
func WindowStart(latestTS time.Time, windowDays int) time.Time {
	return latestTS.UTC().Add(-time.Duration(windowDays) * 24 * time.Hour)
}

// ParseUsageTime parses the UsageDateTime column of an export. Values without a zone are UTC.
func ParseUsageTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range usageTimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
