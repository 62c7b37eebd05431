package repository

import (
	"context"

	"github.com/caeser-uofm/gwrecharge/gwerrors"
)

// SegmentDiagnostic counts segments with a null/invalid data blob (NULL, or
// a JSON value that is not an object) for one well, surfacing legacy-format
// issues (§4.9 diagnose_segment_data).
type SegmentDiagnostic struct {
	WellID        string
	TotalSegments int
	InvalidBlobs  int
}

// DiagnoseSegmentData runs the broken-row count for one well, or every well
// if wellID is empty. Matches the original's rise_database.py/mrc_database.py
// diagnostic queries (a single aggregate count, not a row-by-row repair
// attempt).
func (s *Store) DiagnoseSegmentData(ctx context.Context, wellID string) (SegmentDiagnostic, error) {
	const query = `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE data_blob IS NULL OR jsonb_typeof(data_blob) <> 'object') AS invalid
		FROM recession_segments
		WHERE ($1 = '' OR well_id = $1)`

	var row struct {
		Total   int `db:"total"`
		Invalid int `db:"invalid"`
	}
	if err := s.db.GetContext(ctx, &row, query, wellID); err != nil {
		return SegmentDiagnostic{}, gwerrors.New(gwerrors.RepositoryError, "diagnose_segment_data query failed").Wrap(err)
	}
	return SegmentDiagnostic{WellID: wellID, TotalSegments: row.Total, InvalidBlobs: row.Invalid}, nil
}

// DiagnoseAllWells runs DiagnoseSegmentData per distinct well_id, one row
// per well. A supplemented operation (SPEC_FULL.md §4.9).
func (s *Store) DiagnoseAllWells(ctx context.Context) ([]SegmentDiagnostic, error) {
	var wellIDs []string
	if err := s.db.SelectContext(ctx, &wellIDs, `SELECT DISTINCT well_id FROM recession_segments ORDER BY well_id`); err != nil {
		return nil, gwerrors.New(gwerrors.RepositoryError, "failed to enumerate wells for diagnostics").Wrap(err)
	}

	out := make([]SegmentDiagnostic, 0, len(wellIDs))
	for _, wellID := range wellIDs {
		if ctx.Err() != nil {
			return nil, gwerrors.New(gwerrors.Cancelled, "diagnose_all_wells cancelled mid-batch")
		}
		diag, err := s.DiagnoseSegmentData(ctx, wellID)
		if err != nil {
			return nil, err
		}
		out = append(out, diag)
	}
	return out, nil
}
