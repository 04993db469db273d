package reader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/trajbatch/internal/domain/model"
	"github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/exception"
)

const validRow = `site_a,40.0,-105.25,500,2014,10,15,2014,10,17,-72,"06 18",10000.0`

func readAll(t *testing.T, r *RunDescriptorReader) ([]*model.RunDescriptor, []error) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, r.Open(ctx))
	defer r.Close(ctx)

	var runs []*model.RunDescriptor
	var errs []error
	for {
		run, err := r.Read(ctx)
		if errors.Is(err, port.ErrNoMoreItems) {
			return runs, errs
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		runs = append(runs, run)
	}
}

func TestParseRow(t *testing.T) {
	run, err := ParseRow(1, strings.Split(`site_a,40.0,-105.25,500,2014,10,15,2014,10,17,-72,06 18 06,10000.0`, ","))
	require.NoError(t, err)

	assert.Equal(t, 1, run.Row)
	assert.Equal(t, "site_a", run.OutputFolder)
	assert.Equal(t, "40.0", run.Latitude.Text)
	assert.InDelta(t, -105.25, run.Longitude.Value, 1e-9)
	assert.Equal(t, "500", run.Height.Text)
	assert.Equal(t, time.Date(2014, time.October, 15, 0, 0, 0, 0, time.UTC), run.StartDate)
	assert.Equal(t, time.Date(2014, time.October, 17, 0, 0, 0, 0, time.UTC), run.EndDate)
	assert.Equal(t, -72, run.BackwardHours)
	assert.Equal(t, []string{"06", "18", "06"}, run.Hours)
	assert.Equal(t, "10000.0", run.TopOfModel)
}

func TestParseRow_Malformed(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"too few fields", `site_a,40.0,-105.25,500,2014,10,15`},
		{"non-numeric latitude", `site_a,north,-105.25,500,2014,10,15,2014,10,17,-72,06,10000.0`},
		{"non-numeric height", `site_a,40.0,-105.25,high,2014,10,15,2014,10,17,-72,06,10000.0`},
		{"non-numeric month", `site_a,40.0,-105.25,500,2014,oct,15,2014,10,17,-72,06,10000.0`},
		{"invalid calendar date", `site_a,40.0,-105.25,500,2014,2,30,2014,3,1,-72,06,10000.0`},
		{"start after end", `site_a,40.0,-105.25,500,2014,10,18,2014,10,17,-72,06,10000.0`},
		{"zero backward hours", `site_a,40.0,-105.25,500,2014,10,15,2014,10,17,0,06,10000.0`},
		{"backward hours beyond limit", `site_a,40.0,-105.25,500,2014,10,15,2014,10,17,9223372036854775807,06,10000.0`},
		{"negative backward hours beyond limit", `site_a,40.0,-105.25,500,2014,10,15,2014,10,17,-1000000,06,10000.0`},
		{"float backward hours out of range", `site_a,40.0,-105.25,500,2014,10,15,2014,10,17,1e300,06,10000.0`},
		{"fractional backward hours", `site_a,40.0,-105.25,500,2014,10,15,2014,10,17,-72.5,06,10000.0`},
		{"no hours", `site_a,40.0,-105.25,500,2014,10,15,2014,10,17,-72, ,10000.0`},
		{"empty folder", `,40.0,-105.25,500,2014,10,15,2014,10,17,-72,06,10000.0`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRow(7, strings.Split(tt.row, ","))
			require.Error(t, err)
			assert.True(t, errors.Is(err, exception.ErrMalformedRow))
			assert.Contains(t, err.Error(), "row 7")

			var be *exception.BatchError
			require.True(t, errors.As(err, &be))
			assert.True(t, be.IsSkippable())
		})
	}
}

func TestParseRow_AcceptsWholeFloatHours(t *testing.T) {
	run, err := ParseRow(1, strings.Split(`site_a,40.0,-105.25,500,2014,10,15,2014,10,15,-72.0,00,10000.0`, ","))
	require.NoError(t, err)
	assert.Equal(t, -72, run.BackwardHours)
}

func TestRunDescriptorReader_SkipsCommentsAndBlankLines(t *testing.T) {
	input := "# folder,lat,lon,...\n" +
		"\n" +
		validRow + "\n" +
		"   \n" +
		`site_b, 51.5, -0.12, 10, 2015, 1, 1, 2015, 1, 1, 24, "00", 10000.0` + "\n"

	runs, errs := readAll(t, NewRunDescriptorReaderFrom(strings.NewReader(input)))

	require.Empty(t, errs)
	require.Len(t, runs, 2)
	assert.Equal(t, "site_a", runs[0].OutputFolder)
	assert.Equal(t, []string{"06", "18"}, runs[0].Hours)
	assert.Equal(t, "site_b", runs[1].OutputFolder)
	assert.Equal(t, "51.5", runs[1].Latitude.Text)
	assert.Equal(t, 24, runs[1].BackwardHours)
}

func TestRunDescriptorReader_ContinuesAfterMalformedRow(t *testing.T) {
	input := "bad,row\n" + validRow + "\n"

	runs, errs := readAll(t, NewRunDescriptorReaderFrom(strings.NewReader(input)))

	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], exception.ErrMalformedRow))
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Row)
}

func TestRunDescriptorReader_ReportsFileLines(t *testing.T) {
	input := "# folder,lat,lon,...\n" +
		"\n" +
		validRow + "\n" +
		"# second block\n" +
		"bad,row\n"

	runs, errs := readAll(t, NewRunDescriptorReaderFrom(strings.NewReader(input)))

	require.Len(t, runs, 1)
	assert.Equal(t, 3, runs[0].Row)
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], exception.ErrMalformedRow))
	assert.Contains(t, errs[0].Error(), "row 5")
}

func TestRunDescriptorReader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.csv")
	require.NoError(t, os.WriteFile(path, []byte(validRow+"\n"), 0o644))

	runs, errs := readAll(t, NewRunDescriptorReader(path))
	require.Empty(t, errs)
	require.Len(t, runs, 1)
	assert.Equal(t, 3, len(runs[0].Dates()))
}

func TestRunDescriptorReader_MissingFile(t *testing.T) {
	r := NewRunDescriptorReader(filepath.Join(t.TempDir(), "absent.csv"))
	err := r.Open(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrIO))
}

func TestRunDescriptorReader_ReadBeforeOpen(t *testing.T) {
	_, err := NewRunDescriptorReaderFrom(strings.NewReader(validRow)).Read(context.Background())
	assert.Error(t, err)
}
