package adapters

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/de-tools/alca/pkg/services/exports"
)

const (
	ColumnUsageDateTime = "UsageDateTime"
	ColumnResourceGroup = "ResourceGroup"
	ColumnMeterCategory = "MeterCategory"
	ColumnTags          = "Tags"
	ColumnName          = "Name"
	ColumnContentLength = "Content-Length"
)

func columnIndexes(t domain.Table, columns ...string) (map[string]int, error) {
	idx := make(map[string]int, len(columns))
	for _, c := range columns {
		i := t.Index(c)
		if i < 0 {
			return nil, &domain.MalformedExportError{Source: t.Source, Err: fmt.Errorf("missing column %q", c)}
		}
		idx[c] = i
	}
	return idx, nil
}

func cell(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

// MapTableToCostRows parses a cost export. costColumn names the amount column.
func MapTableToCostRows(t domain.Table, costColumn string) ([]domain.CostRow, error) {
	if len(t.Columns) == 0 {
		return nil, nil
	}

	idx, err := columnIndexes(t, ColumnUsageDateTime, ColumnResourceGroup, ColumnMeterCategory, ColumnTags, costColumn)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.CostRow, 0, len(t.Records))
	for n, record := range t.Records {
		line := n + 2 // header is line 1

		// a blank usage cell leaves UsageDateTime zero; RollingWindow drops such rows
		var usage time.Time
		if value := strings.TrimSpace(cell(record, idx[ColumnUsageDateTime])); value != "" {
			usage, err = exports.ParseUsageTime(value)
			if err != nil {
				return nil, &domain.MalformedExportError{Source: t.Source, Line: line, Err: err}
			}
		}

		amount, err := parseAmount(cell(record, idx[costColumn]))
		if err != nil {
			return nil, &domain.MalformedExportError{Source: t.Source, Line: line, Err: err}
		}

		row := domain.CostRow{
			UsageDateTime: usage,
			ResourceGroup: cell(record, idx[ColumnResourceGroup]),
			MeterCategory: cell(record, idx[ColumnMeterCategory]),
			Cost:          amount,
			Source:        t.Source,
		}
		if tags := cell(record, idx[ColumnTags]); tags != "" {
			row.Tags = &tags
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// MapTableToStorageRows keeps the blob name and size of each inventory record.
func MapTableToStorageRows(t domain.Table) ([]domain.StorageRow, error) {
	if len(t.Columns) == 0 {
		return nil, nil
	}

	idx, err := columnIndexes(t, ColumnName, ColumnContentLength)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.StorageRow, 0, len(t.Records))
	for n, record := range t.Records {
		size := strings.TrimSpace(cell(record, idx[ColumnContentLength]))
		var length int64
		if size != "" {
			length, err = strconv.ParseInt(size, 10, 64)
			if err != nil {
				return nil, &domain.MalformedExportError{Source: t.Source, Line: n + 2, Err: err}
			}
		}
		rows = append(rows, domain.StorageRow{
			Name:          cell(record, idx[ColumnName]),
			ContentLength: length,
		})
	}
	return rows, nil
}

func parseAmount(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.ParseFloat(value, 64)
}
