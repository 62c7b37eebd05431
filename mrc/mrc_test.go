package mrc

import (
	"math"
	"testing"
	"time"

	"github.com/caeser-uofm/gwrecharge/gwconfig"
	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

func dailySeries(levels []float64) seriesmodel.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := seriesmodel.Series{}
	for i, l := range levels {
		s.Timestamps = append(s.Timestamps, start.AddDate(0, 0, i))
		s.Levels = append(s.Levels, l)
	}
	return s
}

func linearCurve() seriesmodel.Curve {
	return seriesmodel.Curve{
		CurveType: seriesmodel.CurveLinear,
		Params:    seriesmodel.CurveParams{A: 0, B: 0.05},
	}
}

// TestAnalyze_DeviationWithinContinuingRecessionGroup constructs a recession
// group that briefly rises above the curve-predicted trajectory without
// reversing the overall decline (so it stays part of the same in-recession
// group), and checks that exactly the anomalous sample is flagged.
func TestAnalyze_DeviationWithinContinuingRecessionGroup(t *testing.T) {
	s := dailySeries([]float64{10.00, 9.95, 9.90, 9.89, 9.80, 9.75})
	cfg := gwconfig.Default()
	cfg.MRCDeviationThresh = 0.01
	cfg.SpecificYield = 0.2

	events, err := Analyze(s, linearCurve(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if !e.EventTS.Equal(s.Timestamps[3]) {
		t.Errorf("event should be attributed to index 3, got %v", e.EventTS)
	}
	if math.Abs(e.Deviation-0.04) > 1e-9 {
		t.Errorf("deviation = %v, want 0.04", e.Deviation)
	}
	if math.Abs(e.RechargeValueIn-0.096) > 1e-9 {
		t.Errorf("recharge = %v, want 0.096", e.RechargeValueIn)
	}
}

func TestAnalyze_NoRecessionGroupsNoEventsNoError(t *testing.T) {
	s := dailySeries([]float64{10.0, 10.1, 10.2, 10.3})
	events, err := Analyze(s, linearCurve(), gwconfig.Default())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("expected 0 events for a monotonically rising series, got %d", len(events))
	}
}

func TestAnalyze_SingleSampleDipIsNotAGroup(t *testing.T) {
	// index 1 dips below index 0 but index 2 rises again: a group of length
	// 1 must not get a predicted overwrite (length > 1 required).
	s := dailySeries([]float64{10.0, 9.9, 10.0})
	events, err := Analyze(s, linearCurve(), gwconfig.Default())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("expected 0 events, got %d", len(events))
	}
}

func TestAnalyze_MissingCurveParamsIsInvalidCurve(t *testing.T) {
	s := dailySeries([]float64{10.0, 9.9, 9.8})
	curve := seriesmodel.Curve{CurveType: seriesmodel.CurveLinear}
	_, err := Analyze(s, curve, gwconfig.Default())
	if err == nil {
		t.Fatal("expected InvalidCurve for absent curve parameters")
	}
}

func TestAnalyze_UnknownCurveTypeIsInvalidCurve(t *testing.T) {
	s := dailySeries([]float64{10.0, 9.9, 9.8})
	curve := seriesmodel.Curve{CurveType: "quadratic", Params: seriesmodel.CurveParams{A: 1, B: 1}}
	_, err := Analyze(s, curve, gwconfig.Default())
	if err == nil {
		t.Fatal("expected InvalidCurve for unknown curve_type")
	}
}

func TestAnalyze_DeviationExactlyAtThresholdIsNotAnEvent(t *testing.T) {
	// Construct a case where deviation at index 3 equals the threshold
	// exactly: must be excluded (strict > required).
	s := dailySeries([]float64{10.00, 9.95, 9.90, 9.86, 9.80, 9.75})
	cfg := gwconfig.Default()
	cfg.MRCDeviationThresh = 0.01
	// predicted[3] with group starting at index1 (L0=9.95,t0=day1): 9.95-0.05*2=9.85
	// deviation = 9.86 - 9.85 = 0.01 == threshold -> excluded
	events, err := Analyze(s, linearCurve(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("deviation exactly at threshold must not be an event, got %d events", len(events))
	}
}

func TestAnalyze_InvalidSpecificYield(t *testing.T) {
	s := dailySeries([]float64{10.0, 9.9, 9.8})
	cfg := gwconfig.Default()
	cfg.SpecificYield = 0
	_, err := Analyze(s, linearCurve(), cfg)
	if err == nil {
		t.Fatal("expected InvalidParameter for Sy <= 0")
	}
}

func TestAnalyze_InvalidDeviationThreshold(t *testing.T) {
	s := dailySeries([]float64{10.0, 9.9, 9.8})
	cfg := gwconfig.Default()
	cfg.MRCDeviationThresh = 0
	_, err := Analyze(s, linearCurve(), cfg)
	if err == nil {
		t.Fatal("expected InvalidParameter for non-positive deviation threshold")
	}
}
