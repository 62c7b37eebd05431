// Package preprocess conditions irregular, noisy, pump-cycle-contaminated
// sensor traces into analysis-grade series (C2). Each stage is a no-op when
// disabled by gwconfig.Config; stages run in the fixed order spec.md §4.2
// enumerates.
package preprocess

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/caeser-uofm/gwrecharge/gwconfig"
	"github.com/caeser-uofm/gwrecharge/gwerrors"
	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

// RawRecord is one row of host-supplied data before column standardization.
// Keys are matched case-insensitively against the canonical/alias table.
type RawRecord map[string]any

var timestampAliases = []string{"timestamp", "timestamp_utc", "date_time", "datetime", "reading_date", "date"}
var levelAliases = []string{"level", "water_level", "level_ft"}
var gwElevationAliases = []string{"gwe"}
var depthToWaterAliases = []string{"dtw"}

// StandardizeColumns normalizes raw rows with aliased column names to the
// canonical (timestamp, level) pair, coercing level to numeric and dropping
// rows that fail coercion. Depth-to-water columns are negated on ingest
// since DTW increases as the water table falls (SPEC_FULL.md §4.2).
func StandardizeColumns(records []RawRecord) seriesmodel.Series {
	out := seriesmodel.Series{
		Timestamps: make([]time.Time, 0, len(records)),
		Levels:     make([]float64, 0, len(records)),
	}
	for _, rec := range records {
		ts, ok := findTimestamp(rec)
		if !ok {
			continue
		}
		level, ok := findLevel(rec)
		if !ok {
			continue
		}
		out.Timestamps = append(out.Timestamps, ts)
		out.Levels = append(out.Levels, level)
	}
	return out
}

func findKey(rec RawRecord, aliases []string) (any, bool) {
	for k, v := range rec {
		for _, alias := range aliases {
			if equalFold(k, alias) {
				return v, true
			}
		}
	}
	return nil, false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func findTimestamp(rec RawRecord) (time.Time, bool) {
	v, ok := findKey(rec, timestampAliases)
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func findLevel(rec RawRecord) (float64, bool) {
	if v, ok := findKey(rec, levelAliases); ok {
		if f, ok := coerceFloat(v); ok {
			return f, true
		}
	}
	if v, ok := findKey(rec, gwElevationAliases); ok {
		if f, ok := coerceFloat(v); ok {
			return f, true
		}
	}
	if v, ok := findKey(rec, depthToWaterAliases); ok {
		if f, ok := coerceFloat(v); ok {
			return -f, true
		}
	}
	return 0, false
}

func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// SortAndDeduplicate strictly sorts by timestamp and drops duplicates,
// keeping the last occurrence of any repeated timestamp (stage 2).
func SortAndDeduplicate(s seriesmodel.Series) seriesmodel.Series {
	n := s.Len()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return s.Timestamps[idx[i]].Before(s.Timestamps[idx[j]])
	})

	out := seriesmodel.Series{
		Timestamps: make([]time.Time, 0, n),
		Levels:     make([]float64, 0, n),
	}
	for i := 0; i < len(idx); i++ {
		cur := idx[i]
		if i+1 < len(idx) && s.Timestamps[idx[i+1]].Equal(s.Timestamps[cur]) {
			continue // a later duplicate will win when we reach it
		}
		out.Timestamps = append(out.Timestamps, s.Timestamps[cur])
		out.Levels = append(out.Levels, s.Levels[cur])
	}
	return out
}

// RemoveOutliers drops rows whose level z-score (computed from the sorted
// sample mean/stdev) has absolute value >= threshold (stage 3).
func RemoveOutliers(s seriesmodel.Series, threshold float64) seriesmodel.Series {
	n := s.Len()
	if n == 0 {
		return s
	}
	mean, stdev := meanStdev(s.Levels)
	if stdev == 0 {
		return s
	}
	out := seriesmodel.Series{
		Timestamps: make([]time.Time, 0, n),
		Levels:     make([]float64, 0, n),
	}
	for i := 0; i < n; i++ {
		z := math.Abs((s.Levels[i] - mean) / stdev)
		if z >= threshold {
			continue
		}
		out.Timestamps = append(out.Timestamps, s.Timestamps[i])
		out.Levels = append(out.Levels, s.Levels[i])
	}
	return out
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

// Downsample resamples onto a uniform grid with the given period and
// aggregator. Empty periods produce no row (stage 4).
func Downsample(s seriesmodel.Series, freq gwconfig.DownsampleFrequency, method gwconfig.DownsampleMethod) (seriesmodel.Series, error) {
	if freq == gwconfig.DownsampleNone || s.Len() == 0 {
		return s, nil
	}
	period, err := periodDuration(freq)
	if err != nil {
		return seriesmodel.Series{}, err
	}

	out := seriesmodel.Series{}
	bucketStart := truncateToPeriod(s.Timestamps[0], period)
	var bucketLevels []float64
	thisBucketStart := bucketStart

	flush := func() {
		if len(bucketLevels) == 0 {
			return
		}
		// Label each bucket by its grid-aligned start so a second pass over
		// an already-uniform series truncates each timestamp to itself,
		// keeping Downsample idempotent (invariant 1).
		out.Timestamps = append(out.Timestamps, thisBucketStart)
		out.Levels = append(out.Levels, aggregate(bucketLevels, method))
	}

	for i := 0; i < s.Len(); i++ {
		ts := s.Timestamps[i]
		for !ts.Before(bucketStart.Add(period)) {
			flush()
			bucketLevels = nil
			bucketStart = bucketStart.Add(period)
			thisBucketStart = bucketStart
		}
		bucketLevels = append(bucketLevels, s.Levels[i])
	}
	flush()

	return out, nil
}

func periodDuration(freq gwconfig.DownsampleFrequency) (time.Duration, error) {
	switch freq {
	case gwconfig.Downsample1H:
		return time.Hour, nil
	case gwconfig.Downsample1D:
		return 24 * time.Hour, nil
	case gwconfig.Downsample1W:
		return 7 * 24 * time.Hour, nil
	case gwconfig.Downsample1M:
		return 30 * 24 * time.Hour, nil
	default:
		return 0, gwerrors.Newf(gwerrors.InvalidParameter, "unsupported downsample_frequency %q", freq).WithOffending(freq)
	}
}

func truncateToPeriod(t time.Time, period time.Duration) time.Time {
	return t.Truncate(period)
}

func aggregate(xs []float64, method gwconfig.DownsampleMethod) float64 {
	switch method {
	case gwconfig.AggregateMedian:
		return median(xs)
	case gwconfig.AggregateLast:
		return xs[len(xs)-1]
	case gwconfig.AggregateMean:
		fallthrough
	default:
		sum := 0.0
		for _, x := range xs {
			sum += x
		}
		return sum / float64(len(xs))
	}
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Smooth applies a rolling-window average over the series, in either
// trailing or centered alignment (stage 5). RISE requires trailing
// smoothing for causality (see RequireTrailingForRise); centered is
// otherwise permitted (e.g. MRC preview).
func Smooth(s seriesmodel.Series, window int, windowType gwconfig.SmoothingWindowType) (seriesmodel.Series, error) {
	n := s.Len()
	if window < 2 {
		return seriesmodel.Series{}, gwerrors.Newf(gwerrors.InvalidParameter, "smoothing_window must be >= 2, got %d", window).
			WithOffending(window)
	}
	if window > n {
		return seriesmodel.Series{}, gwerrors.Newf(gwerrors.InvalidParameter, "smoothing_window %d exceeds series length %d", window, n).
			WithOffending(window).WithHint("reduce smoothing_window or supply a longer series")
	}

	out := seriesmodel.Series{
		Timestamps: append([]time.Time(nil), s.Timestamps...),
		Levels:     make([]float64, n),
	}

	for i := 0; i < n; i++ {
		var lo, hi int
		switch windowType {
		case gwconfig.WindowCentered:
			half := window / 2
			lo, hi = i-half, i+(window-half)-1
		default: // trailing
			lo, hi = i-window+1, i
		}
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		sum := 0.0
		count := 0
		for j := lo; j <= hi; j++ {
			sum += s.Levels[j]
			count++
		}
		out.Levels[i] = sum / float64(count)
	}
	return out, nil
}

// RequireTrailingForRise enforces SPEC_FULL.md §4.6's causality constraint:
// RISE may not be preprocessed with centered smoothing, since a centered
// window leaks future samples into today's value and shifts attribution.
func RequireTrailingForRise(cfg gwconfig.Config) error {
	if cfg.EnableSmoothing && cfg.SmoothingWindowType == gwconfig.WindowCentered {
		return gwerrors.New(gwerrors.InvalidParameter, "RISE requires trailing smoothing; centered smoothing leaks future samples into today's attribution").
			WithOffending(cfg.SmoothingWindowType).
			WithHint("set smoothing_window_type to trailing for RISE analyses")
	}
	return nil
}

// Sanitize drops rows with NaN/±Inf level values (stage 6).
func Sanitize(s seriesmodel.Series) seriesmodel.Series {
	out := seriesmodel.Series{
		Timestamps: make([]time.Time, 0, s.Len()),
		Levels:     make([]float64, 0, s.Len()),
	}
	for i := 0; i < s.Len(); i++ {
		l := s.Levels[i]
		if math.IsNaN(l) || math.IsInf(l, 0) {
			continue
		}
		out.Timestamps = append(out.Timestamps, s.Timestamps[i])
		out.Levels = append(out.Levels, l)
	}
	return out
}

// Run executes the full C2 pipeline in order, deterministically, per
// (raw, cfg). Each stage is a no-op if its corresponding option is disabled.
func Run(raw []RawRecord, cfg gwconfig.Config) (seriesmodel.Series, error) {
	return RunFromSeries(StandardizeColumns(raw), cfg)
}

// RunFromSeries runs stages 2-6 of the pipeline (sort/dedup through
// sanitize) over a series that has already been through column
// standardization — the shape seriesmodel.ReadingSource returns (§6).
func RunFromSeries(s seriesmodel.Series, cfg gwconfig.Config) (seriesmodel.Series, error) {
	s = SortAndDeduplicate(s)

	if cfg.RemoveOutliers {
		s = RemoveOutliers(s, cfg.OutlierThreshold)
	}

	if cfg.DownsampleFrequency != gwconfig.DownsampleNone {
		var err error
		s, err = Downsample(s, cfg.DownsampleFrequency, cfg.DownsampleMethod)
		if err != nil {
			return seriesmodel.Series{}, err
		}
		if s.Len() == 0 {
			return seriesmodel.Series{}, gwerrors.New(gwerrors.InsufficientData, "downsampling produced 0 rows").
				WithHint("widen the time range or choose a finer downsample_frequency")
		}
	}

	if cfg.EnableSmoothing {
		var err error
		s, err = Smooth(s, cfg.SmoothingWindow, cfg.SmoothingWindowType)
		if err != nil {
			return seriesmodel.Series{}, err
		}
	}

	s = Sanitize(s)

	if s.Len() < 2 {
		return seriesmodel.Series{}, gwerrors.New(gwerrors.InsufficientData, fmt.Sprintf("only %d usable rows remain after preprocessing", s.Len())).
			WithHint("supply a longer raw series or relax filtering options")
	}
	return s, nil
}
