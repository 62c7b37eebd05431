package wateryear

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOf_Boundary(t *testing.T) {
	// S6: start_month=10, start_day=1.
	cases := []struct {
		ts   time.Time
		want string
	}{
		{date(2023, time.September, 30), "2022-2023"},
		{date(2023, time.October, 1), "2023-2024"},
		{date(2023, time.October, 2), "2023-2024"},
		{date(2024, time.January, 1), "2023-2024"},
		{date(2024, time.September, 30), "2023-2024"},
	}
	for _, c := range cases {
		got := Of(c.ts, time.October, 1)
		if got != c.want {
			t.Errorf("Of(%s) = %s, want %s", c.ts.Format("2006-01-02"), got, c.want)
		}
	}
}

func TestOf_CalendarYearDefault(t *testing.T) {
	got := Of(date(2023, time.June, 15), time.January, 1)
	if got != "2023-2024" {
		t.Errorf("Of = %s, want 2023-2024", got)
	}
}

func TestStart_IsMostRecentBoundaryOnOrBefore(t *testing.T) {
	ts := date(2023, time.November, 15)
	start := Start(ts, time.October, 1)
	if !start.Equal(date(2023, time.October, 1)) {
		t.Errorf("Start = %s, want 2023-10-01", start)
	}
	if start.After(ts) {
		t.Errorf("Start %s must not be after ts %s", start, ts)
	}
}
