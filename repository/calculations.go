package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/caeser-uofm/gwrecharge/gwerrors"
	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

// SaveCalculation persists a calculation with its events and summaries
// atomically (§4.9 save_calculation). Ordering within the transaction
// matches §5's "curve exists before calculation, calculation exists before
// its events and summaries" since the curve is assumed already committed
// by a prior SaveCurve call.
func (s *Store) SaveCalculation(ctx context.Context, calc seriesmodel.Calculation, events []seriesmodel.RechargeEvent, summaries []seriesmodel.YearlySummary) (uuid.UUID, error) {
	row, err := calculationToRow(calc)
	if err != nil {
		return uuid.Nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, gwerrors.New(gwerrors.RepositoryError, "failed to begin transaction").Wrap(err)
	}
	defer tx.Rollback()

	const insertCalc = `
		INSERT INTO calculations (id, curve_id, well_id, method, params_blob,
			total_recharge, annual_rate, data_start_ts, data_end_ts, created_ts)
		VALUES (:id, :curve_id, :well_id, :method, :params_blob, :total_recharge,
			:annual_rate, :data_start_ts, :data_end_ts, :created_ts)`
	if _, err := tx.NamedExecContext(ctx, insertCalc, row); err != nil {
		return uuid.Nil, gwerrors.New(gwerrors.RepositoryError, "failed to insert calculation").Wrap(err)
	}

	const insertEvent = `
		INSERT INTO recharge_events (id, calculation_id, event_ts, water_year,
			level, predicted_level, deviation, recharge_value)
		VALUES (:id, :calculation_id, :event_ts, :water_year, :level,
			:predicted_level, :deviation, :recharge_value)`
	for i, e := range events {
		if i%256 == 0 && ctx.Err() != nil {
			return uuid.Nil, gwerrors.New(gwerrors.Cancelled, "save_calculation cancelled mid-batch")
		}
		if _, err := tx.NamedExecContext(ctx, insertEvent, eventToRow(calc.ID, e)); err != nil {
			return uuid.Nil, gwerrors.New(gwerrors.RepositoryError, "failed to insert recharge event").Wrap(err)
		}
	}

	const insertSummary = `
		INSERT INTO yearly_summaries (id, calculation_id, water_year,
			total_recharge, num_events, annual_rate, max_deviation, avg_deviation)
		VALUES (:id, :calculation_id, :water_year, :total_recharge, :num_events,
			:annual_rate, :max_deviation, :avg_deviation)`
	for _, sum := range summaries {
		if _, err := tx.NamedExecContext(ctx, insertSummary, summaryToRow(calc.ID, sum)); err != nil {
			return uuid.Nil, gwerrors.New(gwerrors.RepositoryError, "failed to insert yearly summary").Wrap(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, gwerrors.New(gwerrors.RepositoryError, "failed to commit save_calculation").Wrap(err)
	}
	return calc.ID, nil
}

// GetCalculationsForCurve lists calculations referencing a curve (§4.9).
func (s *Store) GetCalculationsForCurve(ctx context.Context, curveID uuid.UUID) ([]seriesmodel.Calculation, error) {
	var rows []calculationRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM calculations WHERE curve_id = $1 ORDER BY created_ts DESC`, curveID); err != nil {
		return nil, gwerrors.New(gwerrors.RepositoryError, "get_calculations_for_curve query failed").Wrap(err)
	}
	out := make([]seriesmodel.Calculation, 0, len(rows))
	for _, r := range rows {
		c, err := rowToCalculation(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// GetCalculationDetails returns a calculation with its events and yearly
// summaries (§4.9 get_calculation_details).
func (s *Store) GetCalculationDetails(ctx context.Context, calcID uuid.UUID) (seriesmodel.Calculation, error) {
	var row calculationRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM calculations WHERE id = $1`, calcID); err != nil {
		return seriesmodel.Calculation{}, gwerrors.New(gwerrors.RepositoryError, "calculation not found").
			WithOffending(calcID).Wrap(err)
	}
	calc, err := rowToCalculation(row)
	if err != nil {
		return seriesmodel.Calculation{}, err
	}

	var eventRows []eventRow
	if err := s.db.SelectContext(ctx, &eventRows, `SELECT * FROM recharge_events WHERE calculation_id = $1 ORDER BY event_ts`, calcID); err != nil {
		return seriesmodel.Calculation{}, gwerrors.New(gwerrors.RepositoryError, "failed to load events").Wrap(err)
	}
	for _, er := range eventRows {
		calc.Events = append(calc.Events, rowToEvent(er))
	}

	var summaryRows []summaryRow
	if err := s.db.SelectContext(ctx, &summaryRows, `SELECT * FROM yearly_summaries WHERE calculation_id = $1 ORDER BY water_year`, calcID); err != nil {
		return seriesmodel.Calculation{}, gwerrors.New(gwerrors.RepositoryError, "failed to load yearly summaries").Wrap(err)
	}
	for _, sr := range summaryRows {
		calc.Summaries = append(calc.Summaries, rowToSummary(sr))
	}

	return calc, nil
}
