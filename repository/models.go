package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/caeser-uofm/gwrecharge/gwerrors"
	"github.com/caeser-uofm/gwrecharge/repository/sqlutil"
	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

// curveRow mirrors the curves table (spec.md §6).
type curveRow struct {
	ID                     uuid.UUID      `db:"id"`
	WellID                 string         `db:"well_id"`
	CurveType              string         `db:"curve_type"`
	ParamsBlob             []byte         `db:"params_blob"`
	RSquared               float64        `db:"r_squared"`
	RMSE                   float64        `db:"rmse"`
	RecessionSegmentsCount int            `db:"recession_segments_count"`
	DataStartTS            time.Time      `db:"data_start_ts"`
	DataEndTS              time.Time      `db:"data_end_ts"`
	Description            string         `db:"description"`
	Version                int            `db:"version"`
	ParentCurveID          sql.NullString `db:"parent_curve_id"`
	IsActive               bool           `db:"is_active"`
	IsManual               bool           `db:"is_manual"`
	CreatedTS              time.Time      `db:"created_ts"`
}

func curveToRow(c seriesmodel.Curve) (curveRow, error) {
	paramsBlob, err := json.Marshal(c.Params)
	if err != nil {
		return curveRow{}, gwerrors.New(gwerrors.RepositoryError, "failed to marshal curve params").Wrap(err)
	}
	return curveRow{
		ID:                     c.ID,
		WellID:                 c.WellID,
		CurveType:              string(c.CurveType),
		ParamsBlob:             paramsBlob,
		RSquared:               c.RSquared,
		RMSE:                   c.RMSE,
		RecessionSegmentsCount: c.RecessionSegmentsCount,
		DataStartTS:            c.DataStartTS,
		DataEndTS:              c.DataEndTS,
		Description:            c.Description,
		Version:                c.Version,
		ParentCurveID:          sqlutil.ToNullUUID(c.ParentCurveID),
		IsActive:               c.IsActive,
		IsManual:               c.IsManual,
		CreatedTS:              c.CreatedTS,
	}, nil
}

func rowToCurve(r curveRow) (seriesmodel.Curve, error) {
	var params seriesmodel.CurveParams
	if len(r.ParamsBlob) > 0 {
		if err := json.Unmarshal(r.ParamsBlob, &params); err != nil {
			return seriesmodel.Curve{}, gwerrors.New(gwerrors.RepositoryError, "curve params_blob is unparseable").
				WithOffending(r.ID).Wrap(err)
		}
	}
	parentCurveID, err := sqlutil.FromNullUUID(r.ParentCurveID)
	if err != nil {
		return seriesmodel.Curve{}, gwerrors.New(gwerrors.RepositoryError, "curve parent_curve_id is unparseable").
			WithOffending(r.ID).Wrap(err)
	}
	return seriesmodel.Curve{
		ID:                     r.ID,
		WellID:                 r.WellID,
		CurveType:              seriesmodel.CurveType(r.CurveType),
		Params:                 params,
		RSquared:               r.RSquared,
		RMSE:                   r.RMSE,
		RecessionSegmentsCount: r.RecessionSegmentsCount,
		DataStartTS:            r.DataStartTS,
		DataEndTS:              r.DataEndTS,
		Description:            r.Description,
		Version:                r.Version,
		ParentCurveID:          parentCurveID,
		IsActive:               r.IsActive,
		IsManual:               r.IsManual,
		CreatedTS:              r.CreatedTS,
	}, nil
}

// segmentRow mirrors the recession_segments table.
type segmentRow struct {
	ID            uuid.UUID      `db:"id"`
	WellID        string         `db:"well_id"`
	CurveID       sql.NullString `db:"curve_id"`
	StartTS       time.Time      `db:"start_ts"`
	EndTS         time.Time      `db:"end_ts"`
	DurationDays  int            `db:"duration_days"`
	StartLevel    float64        `db:"start_level"`
	EndLevel      float64        `db:"end_level"`
	RecessionRate float64        `db:"recession_rate"`
	Quality       float64        `db:"quality"`
	DataBlob      []byte         `db:"data_blob"`
	Selected      bool           `db:"selected"`
	CreatedTS     time.Time      `db:"created_ts"`
}

type seriesBlob struct {
	Timestamps []time.Time `json:"timestamps"`
	Levels     []float64   `json:"levels"`
}

func segmentToRow(s seriesmodel.RecessionSegment, curveID *uuid.UUID) (segmentRow, error) {
	blob, err := json.Marshal(seriesBlob{Timestamps: s.Data.Timestamps, Levels: s.Data.Levels})
	if err != nil {
		return segmentRow{}, gwerrors.New(gwerrors.RepositoryError, "failed to marshal segment data").Wrap(err)
	}
	return segmentRow{
		ID:            s.ID,
		WellID:        s.WellID,
		CurveID:       sqlutil.ToNullUUID(curveID),
		StartTS:       s.StartTS,
		EndTS:         s.EndTS,
		DurationDays:  s.DurationDays,
		StartLevel:    s.StartLevel,
		EndLevel:      s.EndLevel,
		RecessionRate: s.RecessionRate,
		Quality:       s.Quality,
		DataBlob:      blob,
		Selected:      s.Selected,
		CreatedTS:     s.CreatedTS,
	}, nil
}

// rowToSegment converts a row to a domain segment. If the data_blob is
// null/unparseable it returns ok=false rather than an error, so the caller
// (GetSegmentsForCurve) can count broken rows instead of failing the whole
// query (§4.9: "the repository must reject rows whose
// slice blob is null or unparseable, reported via a diagnostic count").
func rowToSegment(r segmentRow) (seriesmodel.RecessionSegment, bool) {
	curveID, err := sqlutil.FromNullUUID(r.CurveID)
	if err != nil {
		return seriesmodel.RecessionSegment{}, false
	}
	seg := seriesmodel.RecessionSegment{
		ID:            r.ID,
		WellID:        r.WellID,
		CurveID:       curveID,
		StartTS:       r.StartTS,
		EndTS:         r.EndTS,
		DurationDays:  r.DurationDays,
		StartLevel:    r.StartLevel,
		EndLevel:      r.EndLevel,
		RecessionRate: r.RecessionRate,
		Quality:       r.Quality,
		Selected:      r.Selected,
		CreatedTS:     r.CreatedTS,
	}
	if len(r.DataBlob) == 0 {
		return seg, false
	}
	var blob seriesBlob
	if err := json.Unmarshal(r.DataBlob, &blob); err != nil {
		return seg, false
	}
	seg.Data = seriesmodel.Series{Timestamps: blob.Timestamps, Levels: blob.Levels}
	return seg, true
}

// calculationRow mirrors the calculations table.
type calculationRow struct {
	ID            uuid.UUID      `db:"id"`
	CurveID       sql.NullString `db:"curve_id"`
	WellID        string         `db:"well_id"`
	Method        string         `db:"method"`
	ParamsBlob    []byte         `db:"params_blob"`
	TotalRecharge float64        `db:"total_recharge"`
	AnnualRate    float64        `db:"annual_rate"`
	DataStartTS   time.Time      `db:"data_start_ts"`
	DataEndTS     time.Time      `db:"data_end_ts"`
	CreatedTS     time.Time      `db:"created_ts"`
}

func calculationToRow(c seriesmodel.Calculation) (calculationRow, error) {
	blob, err := json.Marshal(c.Params)
	if err != nil {
		return calculationRow{}, gwerrors.New(gwerrors.RepositoryError, "failed to marshal calculation params").Wrap(err)
	}
	return calculationRow{
		ID:            c.ID,
		CurveID:       sqlutil.ToNullUUID(c.CurveID),
		WellID:        c.WellID,
		Method:        string(c.Method),
		ParamsBlob:    blob,
		TotalRecharge: c.TotalRechargeIn,
		AnnualRate:    c.AnnualRateInYr,
		DataStartTS:   c.DataStartTS,
		DataEndTS:     c.DataEndTS,
		CreatedTS:     c.CreatedTS,
	}, nil
}

func rowToCalculation(r calculationRow) (seriesmodel.Calculation, error) {
	var params seriesmodel.MethodParams
	if len(r.ParamsBlob) > 0 {
		if err := json.Unmarshal(r.ParamsBlob, &params); err != nil {
			return seriesmodel.Calculation{}, gwerrors.New(gwerrors.RepositoryError, "calculation params_blob is unparseable").
				WithOffending(r.ID).Wrap(err)
		}
	}
	curveID, err := sqlutil.FromNullUUID(r.CurveID)
	if err != nil {
		return seriesmodel.Calculation{}, gwerrors.New(gwerrors.RepositoryError, "calculation curve_id is unparseable").
			WithOffending(r.ID).Wrap(err)
	}
	return seriesmodel.Calculation{
		ID:              r.ID,
		CurveID:         curveID,
		WellID:          r.WellID,
		Method:          seriesmodel.Method(r.Method),
		Params:          params,
		TotalRechargeIn: r.TotalRecharge,
		AnnualRateInYr:  r.AnnualRate,
		DataStartTS:     r.DataStartTS,
		DataEndTS:       r.DataEndTS,
		CreatedTS:       r.CreatedTS,
	}, nil
}

// eventRow mirrors the recharge_events table.
type eventRow struct {
	ID             uuid.UUID `db:"id"`
	CalculationID  uuid.UUID `db:"calculation_id"`
	EventTS        time.Time `db:"event_ts"`
	WaterYear      string    `db:"water_year"`
	Level          float64   `db:"level"`
	PredictedLevel float64   `db:"predicted_level"`
	Deviation      float64   `db:"deviation"`
	RechargeValue  float64   `db:"recharge_value"`
}

func eventToRow(calculationID uuid.UUID, e seriesmodel.RechargeEvent) eventRow {
	return eventRow{
		ID:             e.ID,
		CalculationID:  calculationID,
		EventTS:        e.EventTS,
		WaterYear:      e.WaterYear,
		Level:          e.Level,
		PredictedLevel: e.PredictedLevel,
		Deviation:      e.Deviation,
		RechargeValue:  e.RechargeValueIn,
	}
}

func rowToEvent(r eventRow) seriesmodel.RechargeEvent {
	return seriesmodel.RechargeEvent{
		ID:              r.ID,
		CalculationID:   r.CalculationID,
		EventTS:         r.EventTS,
		WaterYear:       r.WaterYear,
		Level:           r.Level,
		PredictedLevel:  r.PredictedLevel,
		Deviation:       r.Deviation,
		RechargeValueIn: r.RechargeValue,
	}
}

// summaryRow mirrors the yearly_summaries table.
type summaryRow struct {
	ID            uuid.UUID `db:"id"`
	CalculationID uuid.UUID `db:"calculation_id"`
	WaterYear     string    `db:"water_year"`
	TotalRecharge float64   `db:"total_recharge"`
	NumEvents     int       `db:"num_events"`
	AnnualRate    float64   `db:"annual_rate"`
	MaxDeviation  float64   `db:"max_deviation"`
	AvgDeviation  float64   `db:"avg_deviation"`
}

func summaryToRow(calculationID uuid.UUID, s seriesmodel.YearlySummary) summaryRow {
	return summaryRow{
		ID:            s.ID,
		CalculationID: calculationID,
		WaterYear:     s.WaterYear,
		TotalRecharge: s.TotalRechargeIn,
		NumEvents:     s.NumEvents,
		AnnualRate:    s.AnnualRateInYr,
		MaxDeviation:  s.MaxDeviation,
		AvgDeviation:  s.AvgDeviation,
	}
}

func rowToSummary(r summaryRow) seriesmodel.YearlySummary {
	return seriesmodel.YearlySummary{
		ID:              r.ID,
		CalculationID:   r.CalculationID,
		WaterYear:       r.WaterYear,
		TotalRechargeIn: r.TotalRecharge,
		NumEvents:       r.NumEvents,
		AnnualRateInYr:  r.AnnualRate,
		MaxDeviation:    r.MaxDeviation,
		AvgDeviation:    r.AvgDeviation,
	}
}
