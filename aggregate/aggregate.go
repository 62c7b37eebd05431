// Package aggregate implements the WaterYearAggregator (C8): grouping
// recharge events into per-water-year summaries and overall totals.
package aggregate

import (
	"sort"

	"github.com/google/uuid"

	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

// Totals holds the overall (all-events) aggregate alongside the ordered
// per-water-year summaries (§4.8).
type Totals struct {
	TotalRechargeIn float64
	AnnualRateInYr  float64
	Yearly          []seriesmodel.YearlySummary
}

// Run groups events by water year and computes per-year and overall
// summaries (§4.8). Events need not be pre-sorted.
func Run(calculationID uuid.UUID, events []seriesmodel.RechargeEvent) Totals {
	if len(events) == 0 {
		return Totals{}
	}

	groups := make(map[string][]seriesmodel.RechargeEvent)
	var order []string
	for _, e := range events {
		if _, ok := groups[e.WaterYear]; !ok {
			order = append(order, e.WaterYear)
		}
		groups[e.WaterYear] = append(groups[e.WaterYear], e)
	}
	sort.Strings(order)

	yearly := make([]seriesmodel.YearlySummary, 0, len(order))
	for _, wy := range order {
		yearly = append(yearly, summarize(calculationID, wy, groups[wy]))
	}

	overall := summarize(calculationID, "", events)
	return Totals{
		TotalRechargeIn: overall.TotalRechargeIn,
		AnnualRateInYr:  overall.AnnualRateInYr,
		Yearly:          yearly,
	}
}

func summarize(calculationID uuid.UUID, waterYear string, group []seriesmodel.RechargeEvent) seriesmodel.YearlySummary {
	var total, maxDeviation, sumDeviation float64
	minTS, maxTS := group[0].EventTS, group[0].EventTS
	for _, e := range group {
		total += e.RechargeValueIn
		sumDeviation += e.Deviation
		if e.Deviation > maxDeviation {
			maxDeviation = e.Deviation
		}
		if e.EventTS.Before(minTS) {
			minTS = e.EventTS
		}
		if e.EventTS.After(maxTS) {
			maxTS = e.EventTS
		}
	}
	numEvents := len(group)
	avgDeviation := sumDeviation / float64(numEvents)

	var annualRate float64
	if numEvents > 1 {
		spanDays := maxTS.Sub(minTS).Hours() / 24
		if spanDays > 0 {
			annualRate = total * 365 / spanDays
		} else {
			annualRate = total * 365
		}
	} else {
		annualRate = total * 365
	}

	return seriesmodel.YearlySummary{
		ID:              uuid.New(),
		CalculationID:   calculationID,
		WaterYear:       waterYear,
		TotalRechargeIn: total,
		NumEvents:       numEvents,
		AnnualRateInYr:  annualRate,
		MaxDeviation:    maxDeviation,
		AvgDeviation:    avgDeviation,
	}
}
