package loan

import "time"

const day = 24 * time.Hour

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths advances d by n calendar months, clamping the day of month to
// the last valid day of the target month (Jan 31 + 1 month is Feb 28/29).
func AddMonths(d time.Time, n int) time.Time {
	y, m, dd := d.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first.Year(), first.Month()); dd > last {
		dd = last
	}
	return time.Date(first.Year(), first.Month(), dd, 0, 0, 0, 0, time.UTC)
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysUntil counts whole calendar days from now to t. Negative when t is in the past.
func DaysUntil(now, t time.Time) int {
	return int(Day(t).Sub(Day(now)) / day)
}
