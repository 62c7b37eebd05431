// Package csvsource implements seriesmodel.ReadingSource over a directory
// of per-well CSV files, the host-side data acquisition the core spec
// leaves unimplemented (spec §6). There is no CSV precedent in the teacher
// or pack repos for this domain, so this is a deliberate stdlib-only
// package (DESIGN.md notes the justification).
package csvsource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caeser-uofm/gwrecharge/gwerrors"
	"github.com/caeser-uofm/gwrecharge/preprocess"
	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

// Source reads <dir>/<well_id>.csv files with a header row containing any
// of the timestamp/level column aliases preprocess.StandardizeColumns
// recognizes.
type Source struct {
	Dir string
}

var _ seriesmodel.ReadingSource = Source{}

// FetchReadings reads the well's CSV file, optionally filtered to
// [start, end], and returns it standardized to (timestamp, level) columns.
func (s Source) FetchReadings(ctx context.Context, wellID string, start, end *time.Time) (seriesmodel.Series, error) {
	if err := ctx.Err(); err != nil {
		return seriesmodel.Series{}, gwerrors.New(gwerrors.Cancelled, "fetch_readings cancelled before read")
	}

	path := filepath.Join(s.Dir, wellID+".csv")
	f, err := os.Open(path)
	if err != nil {
		return seriesmodel.Series{}, gwerrors.Newf(gwerrors.RepositoryError, "failed to open readings file for well %q", wellID).
			WithOffending(path).Wrap(err)
	}
	defer f.Close()

	records, err := readRecords(f)
	if err != nil {
		return seriesmodel.Series{}, gwerrors.Newf(gwerrors.RepositoryError, "failed to parse readings file for well %q", wellID).
			WithOffending(path).Wrap(err)
	}

	series := preprocess.StandardizeColumns(records)
	if start == nil && end == nil {
		return series, nil
	}
	return filterRange(series, start, end), nil
}

func readRecords(r io.Reader) ([]preprocess.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.ToLower(header[i]))
	}

	var out []preprocess.RawRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		rec := make(preprocess.RawRecord, len(header))
		for i, col := range header {
			if i >= len(row) {
				continue
			}
			val := strings.TrimSpace(row[i])
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				rec[col] = f
			} else {
				rec[col] = val
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func filterRange(s seriesmodel.Series, start, end *time.Time) seriesmodel.Series {
	out := seriesmodel.Series{
		Timestamps: make([]time.Time, 0, s.Len()),
		Levels:     make([]float64, 0, s.Len()),
	}
	for i := 0; i < s.Len(); i++ {
		ts := s.Timestamps[i]
		if start != nil && ts.Before(*start) {
			continue
		}
		if end != nil && ts.After(*end) {
			continue
		}
		out.Timestamps = append(out.Timestamps, ts)
		out.Levels = append(out.Levels, s.Levels[i])
	}
	return out
}
