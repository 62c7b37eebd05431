package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/caeser-uofm/gwrecharge/gwerrors"
)

func uuidsToStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// DeleteCurvesAndSegments cascade-deletes in the order required by the
// schema's foreign keys: segments, then events/summaries of calculations
// referencing these curves, then those calculations, then the curves
// themselves — all inside a single transaction (§4.9 delete_curves_and_segments).
func (s *Store) DeleteCurvesAndSegments(ctx context.Context, curveIDs []uuid.UUID) error {
	if len(curveIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return gwerrors.New(gwerrors.RepositoryError, "failed to begin transaction").Wrap(err)
	}
	defer tx.Rollback()

	ids := pq.Array(uuidsToStrings(curveIDs))

	if _, err := tx.ExecContext(ctx, `DELETE FROM recession_segments WHERE curve_id = ANY($1)`, ids); err != nil {
		return gwerrors.New(gwerrors.RepositoryError, "failed to delete segments").Wrap(err)
	}

	const calcIDsForCurves = `SELECT id FROM calculations WHERE curve_id = ANY($1)`
	var calcIDStrs []string
	if err := tx.SelectContext(ctx, &calcIDStrs, calcIDsForCurves, ids); err != nil {
		return gwerrors.New(gwerrors.RepositoryError, "failed to enumerate dependent calculations").Wrap(err)
	}

	if len(calcIDStrs) > 0 {
		calcIDsArr := pq.Array(calcIDStrs)
		if _, err := tx.ExecContext(ctx, `DELETE FROM recharge_events WHERE calculation_id = ANY($1)`, calcIDsArr); err != nil {
			return gwerrors.New(gwerrors.RepositoryError, "failed to delete recharge events").Wrap(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM yearly_summaries WHERE calculation_id = ANY($1)`, calcIDsArr); err != nil {
			return gwerrors.New(gwerrors.RepositoryError, "failed to delete yearly summaries").Wrap(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM calculations WHERE id = ANY($1)`, calcIDsArr); err != nil {
			return gwerrors.New(gwerrors.RepositoryError, "failed to delete calculations").Wrap(err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM curves WHERE id = ANY($1)`, ids); err != nil {
		return gwerrors.New(gwerrors.RepositoryError, "failed to delete curves").Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return gwerrors.New(gwerrors.RepositoryError, "failed to commit delete_curves_and_segments").Wrap(err)
	}
	return nil
}
