// Package jtl reads JMeter timing logs (JTL files in CSV format) and
// aggregates them into overall and per-label statistics.
package jtl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Column names consumed from the JTL header. Other columns are ignored.
const (
	ColumnLabel     = "label"
	ColumnElapsed   = "elapsed"
	ColumnSuccess   = "success"
	ColumnTimestamp = "timeStamp"
)

// RequiredColumns must all be present in the header of a timing log.
var RequiredColumns = []string{ColumnLabel, ColumnElapsed, ColumnSuccess}

var (
	// ErrMissingColumn is wrapped when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")

	// ErrNoHeader is wrapped when the log has no header row.
	ErrNoHeader = errors.New("timing log has no header row")
)

// Record is one sampled request from the timing log.
type Record struct {
	Label string

	// Elapsed is the response time in milliseconds
	Elapsed float64

	Success bool

	// Timestamp is the request start in epoch milliseconds, 0 when the log
	// has no usable timeStamp column
	Timestamp int64
}

// MissingResultsError is returned when the timing log does not exist.
type MissingResultsError struct {
	Path string
}

func (e *MissingResultsError) Error() string {
	return fmt.Sprintf("results file '%s' not found", e.Path)
}

// AggregationError reports a malformed timing log.
type AggregationError struct {
	Path string
	Line int
	Err  error
}

func (e *AggregationError) Error() string {
	var sb strings.Builder
	sb.WriteString("malformed timing log")
	if e.Path != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Path)
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(" (line %d)", e.Line))
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}

type columns struct {
	label     int
	elapsed   int
	success   int
	timestamp int
}

// Reader decodes typed records from a CSV timing log. The header is read
// and validated by NewReader, so a Reader that exists has a usable schema.
type Reader struct {
	csv  *csv.Reader
	cols columns
	line int
}

// NewReader reads the header from r and checks that every required column
// is present.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &AggregationError{Err: ErrNoHeader}
	}
	if err != nil {
		return nil, &AggregationError{Line: 1, Err: err}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &AggregationError{
			Line: 1,
			Err:  fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", ")),
		}
	}

	cols := columns{
		label:     index[ColumnLabel],
		elapsed:   index[ColumnElapsed],
		success:   index[ColumnSuccess],
		timestamp: -1,
	}
	if i, ok := index[ColumnTimestamp]; ok {
		cols.timestamp = i
	}

	return &Reader{csv: cr, cols: cols, line: 1}, nil
}

// Read returns the next record, or io.EOF when the log is exhausted.
func (r *Reader) Read() (Record, error) {
	row, err := r.csv.Read()
	if err == io.EOF {
		return Record{}, io.EOF
	}
	r.line++
	if err != nil {
		return Record{}, &AggregationError{Line: r.line, Err: err}
	}

	elapsedRaw := strings.TrimSpace(row[r.cols.elapsed])
	elapsed, err := strconv.ParseFloat(elapsedRaw, 64)
	if err != nil || math.IsNaN(elapsed) || math.IsInf(elapsed, 0) {
		return Record{}, &AggregationError{
			Line: r.line,
			Err:  fmt.Errorf("non-numeric elapsed value %q", elapsedRaw),
		}
	}
	if elapsed < 0 {
		return Record{}, &AggregationError{
			Line: r.line,
			Err:  fmt.Errorf("negative elapsed value %q", elapsedRaw),
		}
	}

	successRaw := strings.TrimSpace(row[r.cols.success])
	success, err := strconv.ParseBool(successRaw)
	if err != nil {
		return Record{}, &AggregationError{
			Line: r.line,
			Err:  fmt.Errorf("invalid success value %q", successRaw),
		}
	}

	rec := Record{
		Label:   row[r.cols.label],
		Elapsed: elapsed,
		Success: success,
	}

	// timeStamp may be written in a custom date format; only epoch
	// milliseconds are used and anything else leaves the record untimed.
	if r.cols.timestamp >= 0 {
		if ts, err := strconv.ParseInt(strings.TrimSpace(row[r.cols.timestamp]), 10, 64); err == nil && ts > 0 {
			rec.Timestamp = ts
		}
	}

	return rec, nil
}

// ReadAll returns every remaining record.
func (r *Reader) ReadAll() ([]Record, error) {
	var records []Record
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// Load reads the whole timing log at path into memory.
//
// A missing file yields *MissingResultsError; a malformed one yields
// *AggregationError carrying the path and, where known, the line.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &MissingResultsError{Path: path}
		}
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()

	reader, err := NewReader(f)
	if err != nil {
		return nil, withPath(err, path)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, withPath(err, path)
	}
	return records, nil
}

func withPath(err error, path string) error {
	var aggErr *AggregationError
	if errors.As(err, &aggErr) && aggErr.Path == "" {
		aggErr.Path = path
	}
	return err
}
