// Package reader reads run descriptors from the runs file.
package reader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tigerroll/trajbatch/internal/domain/model"
	"github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/exception"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

const module = "RunDescriptorReader"

// FieldCount is the number of positional fields of a runs file row.
const FieldCount = 13

// Positions of the runs file fields.
const (
	fieldOutputFolder = iota
	fieldLatitude
	fieldLongitude
	fieldHeight
	fieldStartYear
	fieldStartMonth
	fieldStartDay
	fieldEndYear
	fieldEndMonth
	fieldEndDay
	fieldBackwardHours
	fieldHours
	fieldTopOfModel
)

// RunDescriptorReader reads the runs file one row at a time. Blank lines and lines starting
// with '#' are ignored. A malformed row yields a skippable MalformedRowError and the next Read
// continues with the following row.
type RunDescriptorReader struct {
	path   string
	source io.Reader
	file   *os.File
	csv    *csv.Reader
}

// NewRunDescriptorReader creates a reader over the file at path. The file is opened by Open.
func NewRunDescriptorReader(path string) *RunDescriptorReader {
	return &RunDescriptorReader{path: path}
}

// NewRunDescriptorReaderFrom creates a reader over an already open source.
func NewRunDescriptorReaderFrom(source io.Reader) *RunDescriptorReader {
	return &RunDescriptorReader{source: source}
}

// Open opens the runs file.
func (r *RunDescriptorReader) Open(ctx context.Context) error {
	source := r.source
	if source == nil {
		f, err := os.Open(r.path)
		if err != nil {
			return exception.NewIOError(module, fmt.Sprintf("failed to open runs file '%s'", r.path), err)
		}
		r.file = f
		source = f
		logger.Infof("Reading runs from '%s'.", r.path)
	}
	r.csv = csv.NewReader(source)
	r.csv.FieldsPerRecord = -1
	r.csv.Comment = '#'
	r.csv.TrimLeadingSpace = true
	return nil
}

// Read returns the next run descriptor, or port.ErrNoMoreItems at the end of the file.
func (r *RunDescriptorReader) Read(ctx context.Context) (*model.RunDescriptor, error) {
	if r.csv == nil {
		return nil, exception.NewBatchErrorf(module, "Read called before Open")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := r.csv.Read()
	for err == nil && isBlank(record) {
		record, err = r.csv.Read()
	}
	if errors.Is(err, io.EOF) {
		return nil, port.ErrNoMoreItems
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, exception.NewMalformedRowError(module, parseErr.StartLine, "unreadable record", err)
		}
		return nil, exception.NewIOError(module, "failed to read runs file", err)
	}
	line, _ := r.csv.FieldPos(0)
	return ParseRow(line, record)
}

// Close closes the runs file if this reader opened it.
func (r *RunDescriptorReader) Close(ctx context.Context) error {
	r.csv = nil
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// ParseRow converts one record of the runs file into a validated RunDescriptor.
// row is the line of the runs file the record starts on.
func ParseRow(row int, record []string) (*model.RunDescriptor, error) {
	if len(record) < FieldCount {
		return nil, exception.NewMalformedRowError(module, row, fmt.Sprintf("expected %d fields, got %d", FieldCount, len(record)), nil)
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}

	lat, err := parseCoordinate(record[fieldLatitude])
	if err != nil {
		return nil, exception.NewMalformedRowError(module, row, "invalid latitude", err)
	}
	lon, err := parseCoordinate(record[fieldLongitude])
	if err != nil {
		return nil, exception.NewMalformedRowError(module, row, "invalid longitude", err)
	}
	height, err := parseCoordinate(record[fieldHeight])
	if err != nil {
		return nil, exception.NewMalformedRowError(module, row, "invalid height", err)
	}
	start, err := parseDate(record[fieldStartYear], record[fieldStartMonth], record[fieldStartDay])
	if err != nil {
		return nil, exception.NewMalformedRowError(module, row, "invalid start date", err)
	}
	end, err := parseDate(record[fieldEndYear], record[fieldEndMonth], record[fieldEndDay])
	if err != nil {
		return nil, exception.NewMalformedRowError(module, row, "invalid end date", err)
	}
	hours, err := parseInt(record[fieldBackwardHours])
	if err != nil {
		return nil, exception.NewMalformedRowError(module, row, "invalid backward hours", err)
	}

	run := &model.RunDescriptor{
		Row:           row,
		OutputFolder:  record[fieldOutputFolder],
		Latitude:      lat,
		Longitude:     lon,
		Height:        height,
		StartDate:     start,
		EndDate:       end,
		BackwardHours: hours,
		Hours:         strings.Fields(record[fieldHours]),
		TopOfModel:    record[fieldTopOfModel],
	}
	if err := run.Validate(); err != nil {
		return nil, exception.NewMalformedRowError(module, row, err.Error(), nil)
	}
	return run, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseCoordinate(s string) (model.Coordinate, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return model.Coordinate{}, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return model.Coordinate{}, fmt.Errorf("%q is not a finite number", s)
	}
	return model.Coordinate{Text: s, Value: v}, nil
}

func parseInt(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	if f >= math.MaxInt32 || f <= math.MinInt32 {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return int(f), nil
}

func parseDate(year, month, day string) (time.Time, error) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, err
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return time.Time{}, err
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, err
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, fmt.Errorf("%04d-%02d-%02d is not a calendar date", y, m, d)
	}
	return t, nil
}

var _ port.ItemReader[*model.RunDescriptor] = (*RunDescriptorReader)(nil)
