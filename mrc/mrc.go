// Package mrc implements the Master Recession Curve method (C7): a
// recession-aware predicted ("no-recharge") trajectory compared against
// the observed series to derive deviations and recharge events.
package mrc

import (
	"github.com/google/uuid"

	"github.com/caeser-uofm/gwrecharge/curvefit"
	"github.com/caeser-uofm/gwrecharge/gwconfig"
	"github.com/caeser-uofm/gwrecharge/gwerrors"
	"github.com/caeser-uofm/gwrecharge/seriesmodel"
	"github.com/caeser-uofm/gwrecharge/wateryear"
)

const inchesPerFoot = 12.0

// Analyze computes RechargeEvents from a processed series and a fitted
// Curve (§4.7).
func Analyze(s seriesmodel.Series, curve seriesmodel.Curve, cfg gwconfig.Config) ([]seriesmodel.RechargeEvent, error) {
	if err := validateCurve(curve); err != nil {
		return nil, err
	}
	if cfg.SpecificYield <= 0 || cfg.SpecificYield > 0.5 {
		return nil, gwerrors.Newf(gwerrors.InvalidParameter, "specific_yield must be in (0, 0.5], got %v", cfg.SpecificYield).
			WithOffending(cfg.SpecificYield)
	}
	if cfg.MRCDeviationThresh <= 0 {
		return nil, gwerrors.Newf(gwerrors.InvalidParameter, "mrc_deviation_threshold must be > 0, got %v", cfg.MRCDeviationThresh).
			WithOffending(cfg.MRCDeviationThresh)
	}

	predicted := buildPredictedTrajectory(s, curve)

	month, day := cfg.WaterYearBoundary()
	var events []seriesmodel.RechargeEvent
	for i := 0; i < s.Len(); i++ {
		deviation := s.Levels[i] - predicted[i]
		if deviation <= cfg.MRCDeviationThresh {
			continue
		}
		events = append(events, seriesmodel.RechargeEvent{
			ID:              uuid.New(),
			EventTS:         s.Timestamps[i],
			WaterYear:       wateryear.Of(s.Timestamps[i], month, day),
			Level:           s.Levels[i],
			PredictedLevel:  predicted[i],
			Deviation:       deviation,
			RechargeValueIn: deviation * cfg.SpecificYield * inchesPerFoot,
		})
	}
	return events, nil
}

func validateCurve(curve seriesmodel.Curve) error {
	switch curve.CurveType {
	case seriesmodel.CurveExponential, seriesmodel.CurvePower, seriesmodel.CurveLinear:
	default:
		return gwerrors.Newf(gwerrors.InvalidCurve, "curve has unknown or missing curve_type %q", curve.CurveType).
			WithOffending(curve.CurveType)
	}
	if curve.Params.A == 0 && curve.Params.B == 0 {
		return gwerrors.New(gwerrors.InvalidCurve, "curve parameters are absent or incomplete").
			WithHint("fit or select a curve with non-zero params before running MRC")
	}
	return nil
}

// buildPredictedTrajectory initializes predicted=level everywhere, then
// overwrites in-recession groups with the curve-derived trajectory (§4.7
// steps 1-2).
func buildPredictedTrajectory(s seriesmodel.Series, curve seriesmodel.Curve) []float64 {
	n := s.Len()
	predicted := make([]float64, n)
	copy(predicted, s.Levels)

	for _, group := range inRecessionGroups(s) {
		if group.hi-group.lo+1 < 2 {
			continue
		}
		t0 := s.Timestamps[group.lo]
		l0 := s.Levels[group.lo]
		for i := group.lo; i <= group.hi; i++ {
			tDays := s.Timestamps[i].Sub(t0).Hours() / 24
			drawdown := curvefit.Predict(curve.CurveType, curve.Params, tDays)
			predicted[i] = l0 - drawdown
		}
	}
	return predicted
}

type indexRange struct {
	lo, hi int
}

// inRecessionGroups marks samples where level[i] < level[i-1] and returns
// maximal runs of consecutive marked indices (§4.7 step 1).
func inRecessionGroups(s seriesmodel.Series) []indexRange {
	var groups []indexRange
	n := s.Len()
	i := 1
	for i < n {
		if s.Levels[i] >= s.Levels[i-1] {
			i++
			continue
		}
		lo := i
		for i < n && s.Levels[i] < s.Levels[i-1] {
			i++
		}
		groups = append(groups, indexRange{lo: lo, hi: i - 1})
	}
	return groups
}
