package curvefit

import (
	"math"
	"testing"
	"time"

	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

func syntheticExponentialSegment(a, b float64, days int) seriesmodel.RecessionSegment {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seg := seriesmodel.RecessionSegment{Data: seriesmodel.Series{}}
	for t := 0; t <= days; t++ {
		d := a * (1 - math.Exp(-b*float64(t)))
		seg.Data.Timestamps = append(seg.Data.Timestamps, start.AddDate(0, 0, t))
		seg.Data.Levels = append(seg.Data.Levels, -d) // start_level=0 => level = -d
	}
	seg.StartTS = seg.Data.Timestamps[0]
	seg.EndTS = seg.Data.Timestamps[len(seg.Data.Timestamps)-1]
	return seg
}

func TestFitAuto_S4ExponentialFit(t *testing.T) {
	seg := syntheticExponentialSegment(5.0, 0.1, 30)
	curve, err := FitAuto("well-1", []seriesmodel.RecessionSegment{seg}, seriesmodel.CurveExponential, DefaultSolverConfig())
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if math.Abs(curve.Params.A-5.0) > 1e-2 {
		t.Errorf("a = %v, want ~5.0", curve.Params.A)
	}
	if math.Abs(curve.Params.B-0.1) > 1e-2 {
		t.Errorf("b = %v, want ~0.1", curve.Params.B)
	}
	if curve.RSquared < 0.999 {
		t.Errorf("r_squared = %v, want >= 0.999", curve.RSquared)
	}
	if curve.IsManual {
		t.Error("FitAuto must not set IsManual")
	}
}

func TestFitManual_RecordsIsManualAndClampsRSquared(t *testing.T) {
	seg := syntheticExponentialSegment(5.0, 0.1, 30)
	// Deliberately bad params: R² could go negative without clamping.
	curve, err := FitManual("well-1", []seriesmodel.RecessionSegment{seg}, seriesmodel.CurveExponential, seriesmodel.CurveParams{A: 0.001, B: 100})
	if err != nil {
		t.Fatal(err)
	}
	if !curve.IsManual {
		t.Error("FitManual must set IsManual=true")
	}
	if curve.RSquared < 0 {
		t.Errorf("manual fit r_squared must be clamped to >= 0, got %v", curve.RSquared)
	}
}

func TestFitManual_RejectsInvalidParams(t *testing.T) {
	seg := syntheticExponentialSegment(5.0, 0.1, 30)
	_, err := FitManual("well-1", []seriesmodel.RecessionSegment{seg}, seriesmodel.CurveExponential, seriesmodel.CurveParams{A: -1, B: 1})
	if err == nil {
		t.Fatal("expected InvalidParameter for a <= 0")
	}
}

func TestFit_EmptySegmentsIsInsufficientData(t *testing.T) {
	_, err := FitAuto("well-1", nil, seriesmodel.CurveExponential, DefaultSolverConfig())
	if err == nil {
		t.Fatal("expected InsufficientData for zero segments")
	}
}

func TestPredict_PowerClampsT(t *testing.T) {
	d := Predict(seriesmodel.CurvePower, seriesmodel.CurveParams{A: 2, B: 0.5}, -1)
	want := 2 * math.Pow(minPowerT, 0.5)
	if math.Abs(d-want) > 1e-9 {
		t.Errorf("Predict power at negative t = %v, want %v (clamped)", d, want)
	}
}

func TestFitBand(t *testing.T) {
	if seriesmodel.FitBand(0.96) != "excellent" {
		t.Error("0.96 should be excellent")
	}
	if seriesmodel.FitBand(0.91) != "good" {
		t.Error("0.91 should be good")
	}
	if seriesmodel.FitBand(0.81) != "fair" {
		t.Error("0.81 should be fair")
	}
	if seriesmodel.FitBand(0.5) != "poor" {
		t.Error("0.5 should be poor")
	}
}
