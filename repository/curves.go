package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/caeser-uofm/gwrecharge/gwerrors"
	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

// SaveCurve persists a curve and its recession segments atomically; on
// partial failure the transaction rolls back (§4.9 save_curve).
func (s *Store) SaveCurve(ctx context.Context, curve seriesmodel.Curve, segments []seriesmodel.RecessionSegment) (uuid.UUID, error) {
	row, err := curveToRow(curve)
	if err != nil {
		return uuid.Nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, gwerrors.New(gwerrors.RepositoryError, "failed to begin transaction").Wrap(err)
	}
	defer tx.Rollback()

	const insertCurve = `
		INSERT INTO curves (id, well_id, curve_type, params_blob, r_squared, rmse,
			recession_segments_count, data_start_ts, data_end_ts, description,
			version, parent_curve_id, is_active, is_manual, created_ts)
		VALUES (:id, :well_id, :curve_type, :params_blob, :r_squared, :rmse,
			:recession_segments_count, :data_start_ts, :data_end_ts, :description,
			:version, :parent_curve_id, :is_active, :is_manual, :created_ts)`
	if _, err := tx.NamedExecContext(ctx, insertCurve, row); err != nil {
		return uuid.Nil, gwerrors.New(gwerrors.RepositoryError, "failed to insert curve").Wrap(err)
	}

	const insertSegment = `
		INSERT INTO recession_segments (id, well_id, curve_id, start_ts, end_ts,
			duration_days, start_level, end_level, recession_rate, quality,
			data_blob, selected, created_ts)
		VALUES (:id, :well_id, :curve_id, :start_ts, :end_ts, :duration_days,
			:start_level, :end_level, :recession_rate, :quality, :data_blob,
			:selected, :created_ts)`
	for _, seg := range segments {
		if ctx.Err() != nil {
			return uuid.Nil, gwerrors.New(gwerrors.Cancelled, "save_curve cancelled mid-batch")
		}
		segRow, err := segmentToRow(seg, &curve.ID)
		if err != nil {
			return uuid.Nil, err
		}
		if _, err := tx.NamedExecContext(ctx, insertSegment, segRow); err != nil {
			return uuid.Nil, gwerrors.New(gwerrors.RepositoryError, "failed to insert segment").Wrap(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, gwerrors.New(gwerrors.RepositoryError, "failed to commit save_curve").Wrap(err)
	}
	return curve.ID, nil
}

// GetCurvesForWell returns curve metadata ordered by created_ts descending
// (§4.9 get_curves_for_well).
func (s *Store) GetCurvesForWell(ctx context.Context, wellID string, activeOnly bool) ([]seriesmodel.Curve, error) {
	query := `SELECT * FROM curves WHERE well_id = $1`
	args := []any{wellID}
	if activeOnly {
		query += ` AND is_active = true`
	}
	query += ` ORDER BY created_ts DESC`

	var rows []curveRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, gwerrors.New(gwerrors.RepositoryError, "get_curves_for_well query failed").Wrap(err)
	}

	curves := make([]seriesmodel.Curve, 0, len(rows))
	for _, r := range rows {
		c, err := rowToCurve(r)
		if err != nil {
			return nil, err
		}
		curves = append(curves, c)
	}
	return curves, nil
}

// GetCurveDetails returns a curve together with its recession segments
// (§4.9 get_curve_details).
func (s *Store) GetCurveDetails(ctx context.Context, curveID uuid.UUID) (seriesmodel.Curve, error) {
	var row curveRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM curves WHERE id = $1`, curveID); err != nil {
		return seriesmodel.Curve{}, gwerrors.New(gwerrors.RepositoryError, "curve not found").
			WithOffending(curveID).Wrap(err)
	}
	curve, err := rowToCurve(row)
	if err != nil {
		return seriesmodel.Curve{}, err
	}

	segments, _, err := s.GetSegmentsForCurve(ctx, curveID)
	if err != nil {
		return seriesmodel.Curve{}, err
	}
	curve.Segments = segments
	return curve, nil
}

// GetSegmentsForCurve returns the segments referencing a curve, plus a
// count of rows rejected for a null/unparseable data blob (§4.9).
func (s *Store) GetSegmentsForCurve(ctx context.Context, curveID uuid.UUID) ([]seriesmodel.RecessionSegment, int, error) {
	var rows []segmentRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM recession_segments WHERE curve_id = $1 ORDER BY start_ts`, curveID); err != nil {
		return nil, 0, gwerrors.New(gwerrors.RepositoryError, "get_segments_for_curve query failed").Wrap(err)
	}

	segments := make([]seriesmodel.RecessionSegment, 0, len(rows))
	invalid := 0
	for _, r := range rows {
		seg, ok := rowToSegment(r)
		if !ok {
			invalid++
			continue
		}
		segments = append(segments, seg)
	}
	return segments, invalid, nil
}

// SegmentSetSummary is one row of get_all_segment_sets_for_well's result.
type SegmentSetSummary struct {
	CurveID      uuid.UUID
	CreatedTS    time.Time
	CurveType    seriesmodel.CurveType
	RSquared     float64
	SegmentCount int
}

// GetAllSegmentSetsForWell returns summary rows for selection UIs (§4.9).
func (s *Store) GetAllSegmentSetsForWell(ctx context.Context, wellID string) ([]SegmentSetSummary, error) {
	const query = `
		SELECT c.id AS curve_id, c.curve_type, c.r_squared, c.created_ts,
		       COUNT(seg.id) AS segment_count
		FROM curves c
		LEFT JOIN recession_segments seg ON seg.curve_id = c.id
		WHERE c.well_id = $1
		GROUP BY c.id
		ORDER BY c.created_ts DESC`

	rows, err := s.db.QueryxContext(ctx, query, wellID)
	if err != nil {
		return nil, gwerrors.New(gwerrors.RepositoryError, "get_all_segment_sets_for_well query failed").Wrap(err)
	}
	defer rows.Close()

	var out []SegmentSetSummary
	for rows.Next() {
		var r struct {
			CurveID      uuid.UUID `db:"curve_id"`
			CurveType    string    `db:"curve_type"`
			RSquared     float64   `db:"r_squared"`
			CreatedTS    time.Time `db:"created_ts"`
			SegmentCount int       `db:"segment_count"`
		}
		if err := rows.StructScan(&r); err != nil {
			return nil, gwerrors.New(gwerrors.RepositoryError, "get_all_segment_sets_for_well scan failed").Wrap(err)
		}
		out = append(out, SegmentSetSummary{
			CurveID:      r.CurveID,
			CreatedTS:    r.CreatedTS,
			CurveType:    seriesmodel.CurveType(r.CurveType),
			RSquared:     r.RSquared,
			SegmentCount: r.SegmentCount,
		})
	}
	return out, rows.Err()
}

// UpdateCurveVersion deactivates old and sets new.parent_curve_id = old
// (§4.9 update_curve_version).
func (s *Store) UpdateCurveVersion(ctx context.Context, oldID, newID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return gwerrors.New(gwerrors.RepositoryError, "failed to begin transaction").Wrap(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE curves SET is_active = false WHERE id = $1`, oldID); err != nil {
		return gwerrors.New(gwerrors.RepositoryError, "failed to deactivate old curve").Wrap(err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE curves SET parent_curve_id = $1, version = (SELECT version FROM curves WHERE id = $1) + 1 WHERE id = $2`, oldID, newID); err != nil {
		return gwerrors.New(gwerrors.RepositoryError, "failed to link new curve to parent").Wrap(err)
	}
	if err := tx.Commit(); err != nil {
		return gwerrors.New(gwerrors.RepositoryError, "failed to commit update_curve_version").Wrap(err)
	}
	return nil
}

// GetCurveLineage walks parent_curve_id back to the root, returning the
// chain newest-first. A supplemented operation (SPEC_FULL.md §4.9).
func (s *Store) GetCurveLineage(ctx context.Context, curveID uuid.UUID) ([]seriesmodel.Curve, error) {
	var chain []seriesmodel.Curve
	current := curveID
	for {
		var row curveRow
		if err := s.db.GetContext(ctx, &row, `SELECT * FROM curves WHERE id = $1`, current); err != nil {
			return nil, gwerrors.New(gwerrors.RepositoryError, "curve lineage walk failed").
				WithOffending(current).Wrap(err)
		}
		curve, err := rowToCurve(row)
		if err != nil {
			return nil, err
		}
		chain = append(chain, curve)
		if curve.ParentCurveID == nil {
			return chain, nil
		}
		current = *curve.ParentCurveID
	}
}
