// Package rise implements the RISE method (C6): positive daily rises,
// gated by a threshold, attributed to recharge and scaled by specific yield.
package rise

import (
	"sort"

	"github.com/google/uuid"

	"github.com/caeser-uofm/gwrecharge/gwconfig"
	"github.com/caeser-uofm/gwrecharge/gwerrors"
	"github.com/caeser-uofm/gwrecharge/preprocess"
	"github.com/caeser-uofm/gwrecharge/seriesmodel"
	"github.com/caeser-uofm/gwrecharge/wateryear"
)

const inchesPerFoot = 12.0

// Analyze computes RechargeEvents from a processed series (§4.6). The
// series must have been preprocessed with trailing (not centered)
// smoothing, since centered smoothing leaks future samples into today's
// attribution; callers should validate cfg with preprocess.RequireTrailingForRise
// before preprocessing.
func Analyze(s seriesmodel.Series, cfg gwconfig.Config) ([]seriesmodel.RechargeEvent, error) {
	if err := preprocess.RequireTrailingForRise(cfg); err != nil {
		return nil, err
	}
	if cfg.SpecificYield <= 0 || cfg.SpecificYield > 0.5 {
		return nil, gwerrors.Newf(gwerrors.InvalidParameter, "specific_yield must be in (0, 0.5], got %v", cfg.SpecificYield).
			WithOffending(cfg.SpecificYield)
	}
	if s.Len() == 0 {
		return nil, nil
	}

	month, day := cfg.WaterYearBoundary()

	var events []seriesmodel.RechargeEvent
	for i := 1; i < s.Len(); i++ {
		riseAmount := s.Levels[i] - s.Levels[i-1]
		if riseAmount <= 0 || riseAmount < cfg.RiseThreshold {
			continue
		}
		events = append(events, seriesmodel.RechargeEvent{
			ID:              uuid.New(),
			EventTS:         s.Timestamps[i],
			WaterYear:       wateryear.Of(s.Timestamps[i], month, day),
			Level:           s.Levels[i],
			PredictedLevel:  s.Levels[i-1],
			Deviation:       riseAmount,
			RechargeValueIn: riseAmount * cfg.SpecificYield * inchesPerFoot,
		})
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].EventTS.Before(events[j].EventTS)
	})
	return events, nil
}
