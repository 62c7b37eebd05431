package analysis

import (
	"math"
	"sort"

	"github.com/caeser-uofm/gwrecharge/gwerrors"
	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

// YearlyComparison is one water year's RISE-vs-MRC recharge totals (§4.10,
// "Supplemented features" item 1).
type YearlyComparison struct {
	WaterYear             string
	RiseTotalRechargeIn   float64
	MRCTotalRechargeIn    float64
	RelativeDifferencePct float64
}

// MethodComparison is the result of comparing a RISE and an MRC
// Calculation for the same well, grounded on
// original_source/method_comparison.py's summary table and recommendation
// logic.
type MethodComparison struct {
	WellID                 string
	RiseTotalRechargeIn    float64
	MRCTotalRechargeIn     float64
	RelativeDifferencePct  float64
	CoefficientOfVariation float64
	Agreement              string
	Yearly                 []YearlyComparison
	Recommendations        []string
}

// CompareMethods computes the relative difference in total recharge and
// per-water-year recharge between a RISE and an MRC calculation for the
// same well (SPEC_FULL.md "Supplemented features" item 1). Both
// calculations must already be for the same well; method comparison across
// wells has no meaning.
func CompareMethods(rise, mrc *seriesmodel.Calculation) (MethodComparison, error) {
	if rise == nil || mrc == nil {
		return MethodComparison{}, gwerrors.New(gwerrors.InvalidParameter, "both rise and mrc calculations are required for comparison")
	}
	if rise.Method != seriesmodel.MethodRise {
		return MethodComparison{}, gwerrors.Newf(gwerrors.InvalidParameter, "rise calculation has method %q, want RISE", rise.Method).
			WithOffending(rise.Method)
	}
	if mrc.Method != seriesmodel.MethodMrc {
		return MethodComparison{}, gwerrors.Newf(gwerrors.InvalidParameter, "mrc calculation has method %q, want MRC", mrc.Method).
			WithOffending(mrc.Method)
	}
	if rise.WellID != mrc.WellID {
		return MethodComparison{}, gwerrors.Newf(gwerrors.InvalidParameter, "calculations belong to different wells (%q vs %q)", rise.WellID, mrc.WellID).
			WithOffending(mrc.WellID)
	}

	cmp := MethodComparison{
		WellID:                rise.WellID,
		RiseTotalRechargeIn:   rise.TotalRechargeIn,
		MRCTotalRechargeIn:    mrc.TotalRechargeIn,
		RelativeDifferencePct: relativeDifferencePct(rise.TotalRechargeIn, mrc.TotalRechargeIn),
		Yearly:                yearlyComparisons(rise.Summaries, mrc.Summaries),
	}
	cmp.CoefficientOfVariation = coefficientOfVariation(rise.TotalRechargeIn, mrc.TotalRechargeIn)
	cmp.Agreement = agreementBand(cmp.CoefficientOfVariation)
	cmp.Recommendations = recommendations(rise, mrc, cmp)
	return cmp, nil
}

func relativeDifferencePct(riseTotal, mrcTotal float64) float64 {
	if riseTotal == 0 {
		return 0
	}
	return (mrcTotal - riseTotal) / riseTotal * 100
}

// coefficientOfVariation mirrors method_comparison.py's
// np.std(values)/np.mean(values) agreement check, specialized to the
// two-value case.
func coefficientOfVariation(a, b float64) float64 {
	mean := (a + b) / 2
	if mean == 0 {
		return 0
	}
	variance := (math.Pow(a-mean, 2) + math.Pow(b-mean, 2)) / 2
	return math.Sqrt(variance) / mean
}

// agreementBand mirrors method_comparison.py's cv<0.2/cv>0.5 thresholds.
func agreementBand(cv float64) string {
	switch {
	case cv < 0.2:
		return "good"
	case cv > 0.5:
		return "poor"
	default:
		return "moderate"
	}
}

func yearlyComparisons(riseSummaries, mrcSummaries []seriesmodel.YearlySummary) []YearlyComparison {
	riseByYear := make(map[string]float64, len(riseSummaries))
	for _, s := range riseSummaries {
		riseByYear[s.WaterYear] = s.TotalRechargeIn
	}
	mrcByYear := make(map[string]float64, len(mrcSummaries))
	for _, s := range mrcSummaries {
		mrcByYear[s.WaterYear] = s.TotalRechargeIn
	}

	years := make(map[string]struct{}, len(riseByYear)+len(mrcByYear))
	for wy := range riseByYear {
		years[wy] = struct{}{}
	}
	for wy := range mrcByYear {
		years[wy] = struct{}{}
	}

	ordered := make([]string, 0, len(years))
	for wy := range years {
		ordered = append(ordered, wy)
	}
	sort.Strings(ordered)

	out := make([]YearlyComparison, 0, len(ordered))
	for _, wy := range ordered {
		riseTotal := riseByYear[wy]
		mrcTotal := mrcByYear[wy]
		out = append(out, YearlyComparison{
			WaterYear:             wy,
			RiseTotalRechargeIn:   riseTotal,
			MRCTotalRechargeIn:    mrcTotal,
			RelativeDifferencePct: relativeDifferencePct(riseTotal, mrcTotal),
		})
	}
	return out
}

// recommendations mirrors method_comparison.py's generate_recommendations:
// which method found more events, which found more total recharge, and an
// agreement-based caution or endorsement.
func recommendations(rise, mrc *seriesmodel.Calculation, cmp MethodComparison) []string {
	var recs []string

	switch {
	case len(rise.Events) > len(mrc.Events):
		recs = append(recs, "RISE identified more recharge events")
	case len(mrc.Events) > len(rise.Events):
		recs = append(recs, "MRC identified more recharge events")
	}

	switch {
	case cmp.RiseTotalRechargeIn > cmp.MRCTotalRechargeIn:
		recs = append(recs, "RISE calculated the higher total recharge")
	case cmp.MRCTotalRechargeIn > cmp.RiseTotalRechargeIn:
		recs = append(recs, "MRC calculated the higher total recharge")
	}

	switch cmp.Agreement {
	case "good":
		recs = append(recs, "methods show good agreement (low variability)")
	case "poor":
		recs = append(recs, "methods show significant disagreement; consider data quality")
	}

	recs = append(recs, "for reporting, consider MRC results with RISE as a cross-check")
	return recs
}
