package recession

import "math"

// Score assigns a 0–1 quality to a segment from duration, consistency, and
// rate magnitude (§4.4). dailyDeltas are the day-over-day level changes
// (level[i] - level[i-1]) within the segment.
func Score(durationDays int, dailyDeltas []float64, recessionRate float64) float64 {
	duration := durationScore(durationDays)
	consistency := consistencyScore(dailyDeltas)
	rate := rateScore(recessionRate)
	return 0.4*duration + 0.4*consistency + 0.2*rate
}

func durationScore(durationDays int) float64 {
	s := float64(durationDays) / 30.0
	if s > 1 {
		return 1
	}
	return s
}

func consistencyScore(dailyDeltas []float64) float64 {
	abs := make([]float64, len(dailyDeltas))
	for i, d := range dailyDeltas {
		abs[i] = math.Abs(d)
	}
	mean, stdev := meanStdev(abs)
	if mean <= 0 {
		return 0.5
	}
	ratio := stdev / mean
	if ratio > 1 {
		ratio = 1
	}
	return 1 - ratio
}

func rateScore(rate float64) float64 {
	r := math.Abs(rate)
	var score float64
	switch {
	case r >= 0.001 && r <= 0.1:
		score = 1
	case r < 0.001:
		if r <= 0 {
			return 0.1
		}
		score = r / 0.001
	default: // r > 0.1
		score = 0.1 / r
	}
	if score < 0.1 {
		score = 0.1
	}
	return score
}

func meanStdev(xs []float64) (mean, stdev float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean = sum / n
	var sqsum float64
	for _, x := range xs {
		d := x - mean
		sqsum += d * d
	}
	stdev = math.Sqrt(sqsum / n)
	return mean, stdev
}

// DailyDeltas computes level[i]-level[i-1] for a segment's data slice.
func DailyDeltas(levels []float64) []float64 {
	if len(levels) < 2 {
		return nil
	}
	out := make([]float64, len(levels)-1)
	for i := 1; i < len(levels); i++ {
		out[i-1] = levels[i] - levels[i-1]
	}
	return out
}
