package domain

import "time"

// Table is a CSV export in its raw form: a header and the records below it.
type Table struct {
	Source  string
	Columns []string
	Records [][]string
}

// Index returns the position of the named column, or -1.
func (t Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// CostRow is one line of an Azure usage/cost export.
type CostRow struct {
	UsageDateTime time.Time
	ResourceGroup string
	MeterCategory string
	Tags          *string // nil when the export cell is empty
	Cost          float64
	Source        string
}

// StorageRow is one line of a blob inventory CSV.
type StorageRow struct {
	Name          string
	ContentLength int64
}

type AnnotatedStorageRow struct {
	StorageRow
	ContainerName        string
	WorkspaceID          *string
	WorkspaceName        *string
	WorkspaceOrContainer string
}

type AnnotatedCostRow struct {
	CostRow
	WorkspaceID         *string
	WorkspaceName       *string
	WorkspaceOrCategory string
}

// Shared reports whether the row could not be attributed to a workspace.
func (r AnnotatedCostRow) Shared() bool {
	return r.WorkspaceName == nil
}

type StorageSummary struct {
	Key           string
	ContentLength int64
	MB            float64
	TotalSize     string
}

type CostSummary struct {
	Key   string
	Cost  float64
	Count int
}

// Analysis is the output of one reconciliation run.
type Analysis struct {
	Exports               Exports
	Window                TimePeriod
	Storage               []AnnotatedStorageRow
	Costs                 []AnnotatedCostRow
	StorageGrouped        []StorageSummary
	CostsGrouped          []CostSummary
	CostsWorkspaceGrouped []CostSummary
	CostsSharedGrouped    []CostSummary
	WorkspacesResolved    int
	WorkspacesSeen        int
}
