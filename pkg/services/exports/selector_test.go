package exports

import (
	"errors"
	"testing"
	"time"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func export(name string, ts time.Time) domain.ExportDescriptor {
	return domain.ExportDescriptor{Name: name, LastModified: ts}
}

func TestSelectLatest(t *testing.T) {
	base := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("success - picks the most recent export", func(t *testing.T) {
		exports := []domain.ExportDescriptor{
			export("a.csv", base),
			export("c.csv", base.Add(48*time.Hour)),
			export("b.csv", base.Add(24*time.Hour)),
		}

		latest, err := SelectLatest(exports)
		require.NoError(t, err)
		assert.Equal(t, "c.csv", latest.Name)

		for _, ex := range exports {
			assert.False(t, ex.LastModified.After(latest.LastModified))
		}
	})

	t.Run("success - ties resolve by name regardless of order", func(t *testing.T) {
		forward := []domain.ExportDescriptor{export("x/1.csv", base), export("x/2.csv", base)}
		backward := []domain.ExportDescriptor{export("x/2.csv", base), export("x/1.csv", base)}

		a, err := SelectLatest(forward)
		require.NoError(t, err)
		b, err := SelectLatest(backward)
		require.NoError(t, err)

		assert.Equal(t, "x/2.csv", a.Name)
		assert.Equal(t, a, b)
	})

	t.Run("success - compares instants across zones", func(t *testing.T) {
		plusTwo := time.FixedZone("+02", 2*60*60)
		exports := []domain.ExportDescriptor{
			export("utc.csv", time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)),
			export("local.csv", time.Date(2024, 3, 10, 10, 30, 0, 0, plusTwo)),
		}

		latest, err := SelectLatest(exports)
		require.NoError(t, err)
		assert.Equal(t, "utc.csv", latest.Name)
	})

	t.Run("error - empty listing", func(t *testing.T) {
		_, err := SelectLatest(nil)
		require.Error(t, err)

		var emptyErr *domain.EmptyInputError
		assert.True(t, errors.As(err, &emptyErr))
		assert.Equal(t, domain.ExitNoExports, domain.ExitCode(err))
	})
}

func TestSelectPreviousMonth(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		exports  []domain.ExportDescriptor
		expected string
	}{
		{
			name: "picks latest export of the previous month",
			now:  time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC),
			exports: []domain.ExportDescriptor{
				export("april-10.csv", time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)),
				export("april-30.csv", time.Date(2024, 4, 30, 23, 0, 0, 0, time.UTC)),
				export("may-01.csv", time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)),
				export("march-31.csv", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)),
			},
			expected: "april-30.csv",
		},
		{
			name: "january wraps to december of the prior year",
			now:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			exports: []domain.ExportDescriptor{
				export("dec-2023.csv", time.Date(2023, 12, 31, 6, 0, 0, 0, time.UTC)),
				export("dec-2022.csv", time.Date(2022, 12, 31, 6, 0, 0, 0, time.UTC)),
				export("nov-2023.csv", time.Date(2023, 11, 30, 6, 0, 0, 0, time.UTC)),
				export("jan-2024.csv", time.Date(2024, 1, 2, 6, 0, 0, 0, time.UTC)),
			},
			expected: "dec-2023.csv",
		},
		{
			name: "march after a leap february",
			now:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			exports: []domain.ExportDescriptor{
				export("feb-29.csv", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)),
				export("feb-01.csv", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
			},
			expected: "feb-29.csv",
		},
		{
			name: "no export in the previous month",
			now:  time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
			exports: []domain.ExportDescriptor{
				export("june.csv", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)),
				export("april.csv", time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)),
			},
			expected: "",
		},
		{
			name:     "empty listing",
			now:      time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			previous := SelectPreviousMonth(tt.exports, tt.now)
			if tt.expected == "" {
				assert.Nil(t, previous)
				return
			}

			require.NotNil(t, previous)
			assert.Equal(t, tt.expected, previous.Name)

			month, year := PreviousMonth(tt.now)
			assert.Equal(t, month, previous.LastModified.Month())
			assert.Equal(t, year, previous.LastModified.Year())
		})
	}
}

func TestPreviousMonth(t *testing.T) {
	month, year := PreviousMonth(time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.December, month)
	assert.Equal(t, 2023, year)

	month, year = PreviousMonth(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.November, month)
	assert.Equal(t, 2024, year)
}

func TestPreviousExportFilename(t *testing.T) {
	ex := export("dir/export.csv", time.Date(2024, 2, 5, 10, 0, 0, 0, time.UTC))

	assert.Equal(t, "costexport/2024_2_5.csv", PreviousExportFilename(ex, PreviousCostTemplate))
	assert.Equal(t, "costexport/2024_2_5-aks.csv", PreviousExportFilename(ex, PreviousAKSTemplate))
}

func TestFilterExports(t *testing.T) {
	ts := time.Date(2024, 2, 5, 10, 0, 0, 0, time.UTC)
	blobs := []domain.ExportDescriptor{
		export("costs/20240201-20240229/costs_0a1b.csv", ts),
		export("costs/20240201-20240229/manifest.json", ts),
		export("costs/20240201-20240229/COSTS_UPPER.CSV", ts),
	}

	filtered := FilterExports(blobs, ".csv")
	assert.Len(t, filtered, 2)
	assert.Len(t, FilterExports(blobs, ""), 3)
}
