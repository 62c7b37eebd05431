// Package seriesmodel holds the value types shared across every stage of
// the recharge pipeline: the raw/processed water-level series and the
// entities derived from it (segments, curves, calculations, events,
// summaries). Series uses parallel typed-column slices rather than a slice
// of structs, the same shape the teacher uses for schedules and cashflows
// (instruments/bonds, swap.SchedulePeriod).
package seriesmodel

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Series is an ordered water-level trace. After preprocessing it is
// strictly increasing in Timestamps, free of NaN/±Inf, and de-duplicated.
type Series struct {
	Timestamps []time.Time
	Levels     []float64
}

// Len returns the number of readings.
func (s Series) Len() int { return len(s.Timestamps) }

// Slice returns the sub-series [i, j).
func (s Series) Slice(i, j int) Series {
	return Series{
		Timestamps: s.Timestamps[i:j],
		Levels:     s.Levels[i:j],
	}
}

// ReadingSource is the host-implemented data-acquisition interface (spec §6).
// start/end are nil for an unbounded range.
type ReadingSource interface {
	FetchReadings(ctx context.Context, wellID string, start, end *time.Time) (Series, error)
}

// CurveType identifies a drawdown-model family.
type CurveType string

const (
	CurveExponential CurveType = "exponential"
	CurvePower       CurveType = "power"
	CurveLinear      CurveType = "linear"
)

// Method identifies a recharge-estimation method.
type Method string

const (
	MethodRise Method = "RISE"
	MethodMrc  Method = "MRC"
	MethodEmr  Method = "EMR"
)

// CurveParams holds the two-parameter family shared by all CurveTypes (§4.5).
type CurveParams struct {
	A float64
	B float64
}

// RecessionSegment is a maximal, tolerance-bounded declining run (§4.3).
type RecessionSegment struct {
	ID            uuid.UUID
	WellID        string
	CurveID       *uuid.UUID
	StartTS       time.Time
	EndTS         time.Time
	DurationDays  int
	StartLevel    float64
	EndLevel      float64
	RecessionRate float64
	Data          Series
	Quality       float64
	Selected      bool
	CreatedTS     time.Time
}

// QualityBand buckets a segment's quality score for reporting.
type QualityBand string

const (
	QualityHigh   QualityBand = "high"
	QualityMedium QualityBand = "medium"
	QualityLow    QualityBand = "low"
)

// Band returns the reporting band for a quality score (§4.4).
func Band(quality float64) QualityBand {
	switch {
	case quality >= 0.8:
		return QualityHigh
	case quality >= 0.6:
		return QualityMedium
	default:
		return QualityLow
	}
}

// Curve is a fitted drawdown model, owning the segments used to fit it.
type Curve struct {
	ID                     uuid.UUID
	WellID                 string
	CurveType              CurveType
	Params                 CurveParams
	RSquared               float64
	RMSE                   float64
	RecessionSegmentsCount int
	DataStartTS            time.Time
	DataEndTS              time.Time
	Description            string
	Version                int
	ParentCurveID          *uuid.UUID
	IsActive               bool
	IsManual               bool
	CreatedTS              time.Time
	Segments               []RecessionSegment
}

// FitBand buckets R² into a reporting quality band (§4.5).
func FitBand(rSquared float64) string {
	switch {
	case rSquared >= 0.95:
		return "excellent"
	case rSquared >= 0.90:
		return "good"
	case rSquared >= 0.80:
		return "fair"
	default:
		return "poor"
	}
}

// RechargeEvent is a single dated recharge contribution (§3).
type RechargeEvent struct {
	ID              uuid.UUID
	CalculationID   uuid.UUID
	EventTS         time.Time
	WaterYear       string
	Level           float64
	PredictedLevel  float64
	Deviation       float64
	RechargeValueIn float64
}

// YearlySummary aggregates events within one water year (§4.8).
type YearlySummary struct {
	ID              uuid.UUID
	CalculationID   uuid.UUID
	WaterYear       string
	TotalRechargeIn float64
	NumEvents       int
	AnnualRateInYr  float64
	MaxDeviation    float64
	AvgDeviation    float64
}

// MethodParams carries the method-specific parameters recorded on a Calculation.
type MethodParams struct {
	SpecificYield       float64
	RiseThreshold       float64
	MinRecessionLength  int
	FluctuationTol      float64
	MRCDeviationThresh  float64
	WaterYearStartMonth time.Month
	WaterYearStartDay   int
}

// Calculation is the result of one RISE/MRC/EMR run, owning its events and summaries.
type Calculation struct {
	ID              uuid.UUID
	CurveID         *uuid.UUID
	WellID          string
	Method          Method
	Params          MethodParams
	TotalRechargeIn float64
	AnnualRateInYr  float64
	DataStartTS     time.Time
	DataEndTS       time.Time
	CreatedTS       time.Time
	Events          []RechargeEvent
	Summaries       []YearlySummary
}
