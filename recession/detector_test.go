package recession

import (
	"math"
	"testing"
	"time"

	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

func dailySeries(startLevel float64, deltas []float64, start time.Time) seriesmodel.Series {
	s := seriesmodel.Series{
		Timestamps: make([]time.Time, len(deltas)+1),
		Levels:     make([]float64, len(deltas)+1),
	}
	s.Timestamps[0] = start
	s.Levels[0] = startLevel
	for i, d := range deltas {
		s.Timestamps[i+1] = start.AddDate(0, 0, i+1)
		s.Levels[i+1] = s.Levels[i] + d
	}
	return s
}

func TestDetect_S3RecessionDetection(t *testing.T) {
	// 12 daily samples strictly decreasing by 0.05 ft.
	deltas := make([]float64, 11)
	for i := range deltas {
		deltas[i] = -0.05
	}
	s := dailySeries(10.0, deltas, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	segs, err := Detect("well-1", s, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	seg := segs[0]
	if seg.DurationDays != 11 {
		t.Errorf("duration = %d, want 11", seg.DurationDays)
	}
	if math.Abs(seg.RecessionRate-(-0.05)) > 1e-9 {
		t.Errorf("recession_rate = %v, want -0.05", seg.RecessionRate)
	}
	if math.Abs((seg.EndLevel-seg.StartLevel)-(-0.55)) > 1e-9 {
		t.Errorf("end-start = %v, want -0.55", seg.EndLevel-seg.StartLevel)
	}
}

func TestDetect_ToleranceAbsorbsNoise(t *testing.T) {
	// Decline with one small +0.01 blip, absorbed by a 0.02 tolerance.
	deltas := []float64{-0.05, -0.05, 0.01, -0.05, -0.05, -0.05, -0.05, -0.05, -0.05, -0.05, -0.05}
	s := dailySeries(10.0, deltas, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	segs, err := Detect("well-1", s, 10, 0.02)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected tolerance to merge into 1 segment, got %d", len(segs))
	}
}

func TestDetect_ConstantSeriesYieldsNoSegments(t *testing.T) {
	deltas := make([]float64, 11)
	s := dailySeries(10.0, deltas, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	segs, err := Detect("well-1", s, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 0 {
		t.Fatalf("constant series must yield 0 segments (end_level not < start_level), got %d", len(segs))
	}
}

func TestDetect_RejectsInvalidParameters(t *testing.T) {
	s := dailySeries(10.0, []float64{-0.1}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if _, err := Detect("well-1", s, 1, 0); err == nil {
		t.Fatal("expected InvalidParameter for min_recession_length < 2")
	}
	if _, err := Detect("well-1", s, 10, -1); err == nil {
		t.Fatal("expected InvalidParameter for negative fluctuation_tolerance")
	}
}

func TestScore_Bands(t *testing.T) {
	q := Score(30, []float64{-0.05, -0.05, -0.05}, -0.05)
	if seriesmodel.Band(q) != seriesmodel.QualityHigh {
		t.Errorf("expected high-quality band for a long, consistent, mid-rate segment, got %v (%v)", seriesmodel.Band(q), q)
	}
}
