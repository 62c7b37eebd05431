// Package curvefit fits exponential/power/linear drawdown models to
// recession segments (C5), via automatic non-linear least squares or
// manually supplied parameters, and computes R²/RMSE.
package curvefit

import (
	"fmt"
	"math"

	"github.com/caeser-uofm/gwrecharge/gwerrors"
	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

// minPowerT is the clamp floor applied to t in the power model so t^b stays
// finite as t -> 0 (spec §4.5).
const minPowerT = 0.001

// Predict evaluates the drawdown d(t) for the given model/params (§4.5).
func Predict(curveType seriesmodel.CurveType, params seriesmodel.CurveParams, t float64) float64 {
	a, b := params.A, params.B
	switch curveType {
	case seriesmodel.CurveExponential:
		return a * (1 - math.Exp(-b*t))
	case seriesmodel.CurvePower:
		if t < minPowerT {
			t = minPowerT
		}
		return a * math.Pow(t, b)
	case seriesmodel.CurveLinear:
		return a + b*t
	default:
		return math.NaN()
	}
}

// Equation returns a human-readable equation string for the fitted curve,
// following the teacher's convention of small formatting helpers alongside
// the numeric code they describe (swap/curve's day-count comments).
func Equation(curveType seriesmodel.CurveType, params seriesmodel.CurveParams) string {
	switch curveType {
	case seriesmodel.CurveExponential:
		return fmt.Sprintf("d = %.4f * (1 - e^(-%.4f*t))", params.A, params.B)
	case seriesmodel.CurvePower:
		return fmt.Sprintf("d = %.4f * t^%.4f", params.A, params.B)
	case seriesmodel.CurveLinear:
		return fmt.Sprintf("Q = %.4f - %.4f*t", params.A, params.B)
	default:
		return "unknown curve type"
	}
}

// initialGuesses returns the required seed set for the automatic optimizer (§4.5).
func initialGuesses() []seriesmodel.CurveParams {
	return []seriesmodel.CurveParams{
		{A: 1, B: 0.1},
		{A: 10, B: 0.01},
		{A: 0.1, B: 1.0},
		{A: 5, B: 0.05},
	}
}

// validateParams enforces the per-type sign constraints from §4.5.
func validateParams(curveType seriesmodel.CurveType, p seriesmodel.CurveParams) error {
	switch curveType {
	case seriesmodel.CurveExponential, seriesmodel.CurvePower:
		if p.A <= 0 || p.B <= 0 {
			return gwerrors.Newf(gwerrors.InvalidParameter, "%s requires a > 0 and b > 0, got a=%v b=%v", curveType, p.A, p.B).
				WithOffending(p)
		}
	case seriesmodel.CurveLinear:
		if p.B <= 0 {
			return gwerrors.Newf(gwerrors.InvalidParameter, "linear curve requires b > 0, got b=%v", p.B).WithOffending(p)
		}
	default:
		return gwerrors.Newf(gwerrors.InvalidParameter, "unknown curve_type %q", curveType).WithOffending(curveType)
	}
	return nil
}
