// Package recession identifies monotone (within tolerance) declining runs
// in a processed series (C3) and scores their quality (C4).
package recession

import (
	"time"

	"github.com/google/uuid"

	"github.com/caeser-uofm/gwrecharge/gwerrors"
	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

// Detect segments the series into maximal recession-compatible runs and
// keeps those meeting minRecessionLengthDays with a strictly negative net
// decline (spec §4.3). wellID is stamped onto each returned segment.
func Detect(wellID string, s seriesmodel.Series, minRecessionLengthDays int, fluctuationToleranceFt float64) ([]seriesmodel.RecessionSegment, error) {
	n := s.Len()
	if n < 2 {
		return nil, gwerrors.New(gwerrors.InsufficientData, "at least 2 samples are required to detect recessions")
	}
	if minRecessionLengthDays < 2 {
		return nil, gwerrors.Newf(gwerrors.InvalidParameter, "min_recession_length must be >= 2, got %d", minRecessionLengthDays).
			WithOffending(minRecessionLengthDays)
	}
	if fluctuationToleranceFt < 0 {
		return nil, gwerrors.Newf(gwerrors.InvalidParameter, "fluctuation_tolerance must be >= 0, got %v", fluctuationToleranceFt).
			WithOffending(fluctuationToleranceFt)
	}

	var segments []seriesmodel.RecessionSegment
	runStart := 0
	for i := 1; i <= n; i++ {
		compatible := i < n && (s.Levels[i]-s.Levels[i-1]) <= fluctuationToleranceFt
		if compatible {
			continue
		}
		// run ends at i-1 (inclusive); the run is [runStart, i-1]
		if seg, ok := buildSegment(wellID, s, runStart, i-1, minRecessionLengthDays); ok {
			segments = append(segments, seg)
		}
		runStart = i
	}
	return segments, nil
}

func buildSegment(wellID string, s seriesmodel.Series, lo, hi int, minRecessionLengthDays int) (seriesmodel.RecessionSegment, bool) {
	if hi <= lo {
		return seriesmodel.RecessionSegment{}, false
	}
	startTS, endTS := s.Timestamps[lo], s.Timestamps[hi]
	durationDays := int(endTS.Sub(startTS).Hours() / 24)
	if durationDays < minRecessionLengthDays {
		return seriesmodel.RecessionSegment{}, false
	}
	startLevel, endLevel := s.Levels[lo], s.Levels[hi]
	if !(endLevel < startLevel) {
		return seriesmodel.RecessionSegment{}, false
	}

	rate := (endLevel - startLevel) / float64(durationDays)
	data := s.Slice(lo, hi+1)
	quality := Score(durationDays, DailyDeltas(data.Levels), rate)

	return seriesmodel.RecessionSegment{
		ID:            uuid.New(),
		WellID:        wellID,
		StartTS:       startTS,
		EndTS:         endTS,
		DurationDays:  durationDays,
		StartLevel:    startLevel,
		EndLevel:      endLevel,
		RecessionRate: rate,
		Data:          data,
		Quality:       quality,
		Selected:      true,
		CreatedTS:     time.Now().UTC(),
	}, true
}
