// Package wateryear maps a timestamp to its water-year label under a
// configurable (month, day) start boundary.
package wateryear

import (
	"fmt"
	"time"
)

// Of returns the water-year label "YYYY-YYYY" containing ts, given a
// start boundary of startMonth/startDay.
//
// If (ts.Month, ts.Day) is on or after the start boundary, the water year
// begins in ts's calendar year; otherwise it began the previous calendar
// year. The label is always "<start-year>-<start-year+1>".
func Of(ts time.Time, startMonth time.Month, startDay int) string {
	startYear := ts.Year()
	if !onOrAfterBoundary(ts, startMonth, startDay) {
		startYear--
	}
	return fmt.Sprintf("%d-%d", startYear, startYear+1)
}

// onOrAfterBoundary compares (ts.Month, ts.Day) to (startMonth, startDay)
// lexicographically, ignoring year.
func onOrAfterBoundary(ts time.Time, startMonth time.Month, startDay int) bool {
	if ts.Month() != startMonth {
		return ts.Month() > startMonth
	}
	return ts.Day() >= startDay
}

// Start returns the first instant of the water year containing ts, i.e.
// the most recent start-of-water-year boundary on or before ts.
func Start(ts time.Time, startMonth time.Month, startDay int) time.Time {
	year := ts.Year()
	if !onOrAfterBoundary(ts, startMonth, startDay) {
		year--
	}
	return time.Date(year, startMonth, startDay, 0, 0, 0, 0, ts.Location())
}
