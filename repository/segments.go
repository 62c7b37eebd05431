package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/caeser-uofm/gwrecharge/gwerrors"
)

// SetSegmentSelection toggles a segment's inclusion in its curve's fit
// set post-detection, without re-running detection. A supplemented
// operation (SPEC_FULL.md §4.9).
func (s *Store) SetSegmentSelection(ctx context.Context, segmentID uuid.UUID, selected bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE recession_segments SET selected = $1 WHERE id = $2`, selected, segmentID)
	if err != nil {
		return gwerrors.New(gwerrors.RepositoryError, "failed to update segment selection").Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return gwerrors.New(gwerrors.RepositoryError, "failed to confirm segment selection update").Wrap(err)
	}
	if n == 0 {
		return gwerrors.New(gwerrors.RepositoryError, "segment not found").WithOffending(segmentID)
	}
	return nil
}
