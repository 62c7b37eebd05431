package curvefit

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/caeser-uofm/gwrecharge/gwerrors"
	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

// Metrics is the always-on goodness-of-fit summary computed on drawdown
// residuals (§4.5).
type Metrics struct {
	RSquared float64
	RMSE     float64
}

// buildDrawdownData concatenates segments, resetting t=0 at each segment's
// first sample and computing drawdown d = start_level - level (§4.5).
func buildDrawdownData(segments []seriesmodel.RecessionSegment) (ts, ds []float64) {
	for _, seg := range segments {
		if seg.Data.Len() == 0 {
			continue
		}
		t0 := seg.Data.Timestamps[0]
		startLevel := seg.Data.Levels[0]
		for i := 0; i < seg.Data.Len(); i++ {
			t := seg.Data.Timestamps[i].Sub(t0).Hours() / 24
			d := startLevel - seg.Data.Levels[i]
			ts = append(ts, t)
			ds = append(ds, d)
		}
	}
	return ts, ds
}

func computeMetrics(curveType seriesmodel.CurveType, params seriesmodel.CurveParams, ts, ds []float64, clampNonNegative bool) Metrics {
	n := len(ts)
	if n == 0 {
		return Metrics{}
	}
	var meanD float64
	for _, d := range ds {
		meanD += d
	}
	meanD /= float64(n)

	var ssRes, ssTot float64
	for i := range ts {
		pred := Predict(curveType, params, ts[i])
		res := ds[i] - pred
		ssRes += res * res
		dm := ds[i] - meanD
		ssTot += dm * dm
	}

	var rSquared float64
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
	}
	if clampNonNegative && rSquared < 0 {
		rSquared = 0
	}
	rmse := math.Sqrt(ssRes / float64(n))
	return Metrics{RSquared: rSquared, RMSE: rmse}
}

// FitAuto runs automatic non-linear least squares over the required set of
// initial guesses, keeping the converged fit with the highest R² (§4.5).
func FitAuto(wellID string, segments []seriesmodel.RecessionSegment, curveType seriesmodel.CurveType, solverCfg SolverConfig) (seriesmodel.Curve, error) {
	if len(segments) == 0 {
		return seriesmodel.Curve{}, gwerrors.New(gwerrors.InsufficientData, "at least one segment is required to fit a curve")
	}

	ts, ds := buildDrawdownData(segments)
	if len(ts) == 0 {
		return seriesmodel.Curve{}, gwerrors.New(gwerrors.InsufficientData, "selected segments contain no samples")
	}

	var best *seriesmodel.CurveParams
	var bestMetrics Metrics
	for _, guess := range initialGuesses() {
		result := levenbergMarquardt(curveType, ts, ds, guess, solverCfg)
		if !result.converged {
			continue
		}
		if err := validateParams(curveType, result.params); err != nil {
			continue
		}
		metrics := computeMetrics(curveType, result.params, ts, ds, false)
		if best == nil || metrics.RSquared > bestMetrics.RSquared {
			p := result.params
			best = &p
			bestMetrics = metrics
		}
	}

	if best == nil {
		return seriesmodel.Curve{}, gwerrors.New(gwerrors.FitDidNotConverge, "all initial guesses failed to converge").
			WithHint("try manual parameter entry or a different curve_type")
	}

	return newCurve(wellID, segments, curveType, *best, bestMetrics, false), nil
}

// FitManual computes R²/RMSE for caller-supplied parameters without running
// the optimizer; is_manual=true is recorded on the resulting Curve (§4.5).
func FitManual(wellID string, segments []seriesmodel.RecessionSegment, curveType seriesmodel.CurveType, params seriesmodel.CurveParams) (seriesmodel.Curve, error) {
	if len(segments) == 0 {
		return seriesmodel.Curve{}, gwerrors.New(gwerrors.InsufficientData, "at least one segment is required to fit a curve")
	}
	if err := validateParams(curveType, params); err != nil {
		return seriesmodel.Curve{}, err
	}

	ts, ds := buildDrawdownData(segments)
	if len(ts) == 0 {
		return seriesmodel.Curve{}, gwerrors.New(gwerrors.InsufficientData, "selected segments contain no samples")
	}

	metrics := computeMetrics(curveType, params, ts, ds, true)
	return newCurve(wellID, segments, curveType, params, metrics, true), nil
}

func newCurve(wellID string, segments []seriesmodel.RecessionSegment, curveType seriesmodel.CurveType, params seriesmodel.CurveParams, metrics Metrics, manual bool) seriesmodel.Curve {
	start, end := dataRange(segments)
	return seriesmodel.Curve{
		ID:                     uuid.New(),
		WellID:                 wellID,
		CurveType:              curveType,
		Params:                 params,
		RSquared:               metrics.RSquared,
		RMSE:                   metrics.RMSE,
		RecessionSegmentsCount: len(segments),
		DataStartTS:            start,
		DataEndTS:              end,
		Version:                1,
		IsActive:               true,
		IsManual:               manual,
		CreatedTS:              time.Now().UTC(),
		Segments:               segments,
	}
}

func dataRange(segments []seriesmodel.RecessionSegment) (start, end time.Time) {
	for i, seg := range segments {
		if i == 0 || seg.StartTS.Before(start) {
			start = seg.StartTS
		}
		if i == 0 || seg.EndTS.After(end) {
			end = seg.EndTS
		}
	}
	return start, end
}
