package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

func TestCurveRoundTrip(t *testing.T) {
	parent := uuid.New()
	curve := seriesmodel.Curve{
		ID:                     uuid.New(),
		WellID:                 "well-1",
		CurveType:              seriesmodel.CurveExponential,
		Params:                 seriesmodel.CurveParams{A: 5.0, B: 0.1},
		RSquared:               0.987,
		RMSE:                   0.05,
		RecessionSegmentsCount: 3,
		DataStartTS:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DataEndTS:              time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Description:            "auto fit",
		Version:                2,
		ParentCurveID:          &parent,
		IsActive:               true,
		IsManual:               false,
		CreatedTS:              time.Now().UTC(),
	}

	row, err := curveToRow(curve)
	require.NoError(t, err)
	assert.Equal(t, curve.WellID, row.WellID)
	assert.True(t, row.ParentCurveID.Valid)

	back, err := rowToCurve(row)
	require.NoError(t, err)
	assert.Equal(t, curve.Params, back.Params)
	assert.Equal(t, curve.CurveType, back.CurveType)
	require.NotNil(t, back.ParentCurveID)
	assert.Equal(t, parent, *back.ParentCurveID)
}

func TestCurveRoundTrip_NilParent(t *testing.T) {
	curve := seriesmodel.Curve{ID: uuid.New(), CurveType: seriesmodel.CurveLinear, Params: seriesmodel.CurveParams{B: 0.1}}
	row, err := curveToRow(curve)
	require.NoError(t, err)
	assert.False(t, row.ParentCurveID.Valid)

	back, err := rowToCurve(row)
	require.NoError(t, err)
	assert.Nil(t, back.ParentCurveID)
}

func TestSegmentRoundTrip(t *testing.T) {
	curveID := uuid.New()
	seg := seriesmodel.RecessionSegment{
		ID:            uuid.New(),
		WellID:        "well-1",
		StartTS:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndTS:         time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
		DurationDays:  10,
		StartLevel:    10.0,
		EndLevel:      9.5,
		RecessionRate: -0.05,
		Quality:       0.8,
		Selected:      true,
		Data: seriesmodel.Series{
			Timestamps: []time.Time{
				time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			},
			Levels: []float64{10.0, 9.95},
		},
	}

	row, err := segmentToRow(seg, &curveID)
	require.NoError(t, err)
	require.NotEmpty(t, row.DataBlob)

	back, ok := rowToSegment(row)
	require.True(t, ok)
	assert.Equal(t, seg.Data.Levels, back.Data.Levels)
	require.NotNil(t, back.CurveID)
	assert.Equal(t, curveID, *back.CurveID)
}

func TestRowToSegment_NullBlobIsRejected(t *testing.T) {
	row := segmentRow{ID: uuid.New(), WellID: "well-1"}
	_, ok := rowToSegment(row)
	assert.False(t, ok, "a segment row with no data_blob must be reported invalid, not silently zero-valued")
}

func TestRowToSegment_UnparseableBlobIsRejected(t *testing.T) {
	row := segmentRow{ID: uuid.New(), WellID: "well-1", DataBlob: []byte("not json")}
	_, ok := rowToSegment(row)
	assert.False(t, ok)
}

func TestCalculationRoundTrip(t *testing.T) {
	curveID := uuid.New()
	calc := seriesmodel.Calculation{
		ID:              uuid.New(),
		CurveID:         &curveID,
		WellID:          "well-1",
		Method:          seriesmodel.MethodMrc,
		Params:          seriesmodel.MethodParams{SpecificYield: 0.2, MRCDeviationThresh: 0.1},
		TotalRechargeIn: 1.5,
		AnnualRateInYr:  12.3,
	}

	row, err := calculationToRow(calc)
	require.NoError(t, err)

	back, err := rowToCalculation(row)
	require.NoError(t, err)
	assert.Equal(t, calc.Params, back.Params)
	assert.Equal(t, calc.Method, back.Method)
	require.NotNil(t, back.CurveID)
	assert.Equal(t, curveID, *back.CurveID)
}

func TestEventRoundTrip(t *testing.T) {
	calcID := uuid.New()
	e := seriesmodel.RechargeEvent{
		ID:              uuid.New(),
		EventTS:         time.Now().UTC(),
		WaterYear:       "2024-2025",
		Level:           10.3,
		PredictedLevel:  10.0,
		Deviation:       0.3,
		RechargeValueIn: 0.72,
	}
	row := eventToRow(calcID, e)
	back := rowToEvent(row)
	assert.Equal(t, calcID, back.CalculationID)
	assert.Equal(t, e.WaterYear, back.WaterYear)
	assert.Equal(t, e.RechargeValueIn, back.RechargeValueIn)
}

func TestSummaryRoundTrip(t *testing.T) {
	calcID := uuid.New()
	sum := seriesmodel.YearlySummary{
		ID:              uuid.New(),
		WaterYear:       "2024-2025",
		TotalRechargeIn: 1.5,
		NumEvents:       2,
		AnnualRateInYr:  54.75,
		MaxDeviation:    0.3,
		AvgDeviation:    0.15,
	}
	row := summaryToRow(calcID, sum)
	back := rowToSummary(row)
	assert.Equal(t, calcID, back.CalculationID)
	assert.Equal(t, sum.NumEvents, back.NumEvents)
}
