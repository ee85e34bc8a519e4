package s1_fundamentals

import "time"

// SelectEarningsDate picks the closest upcoming date, else the latest past one.
// 날짜 단위 비교 (오늘 발표 = 예정으로 취급)
func SelectEarningsDate(candidates []time.Time, now time.Time) (time.Time, bool) {
	today := truncateDay(now)

	var future, past time.Time
	var hasFuture, hasPast bool
	for _, c := range candidates {
		if c.IsZero() {
			continue
		}
		d := truncateDay(c)
		if !d.Before(today) {
			if !hasFuture || d.Before(future) {
				future, hasFuture = d, true
			}
			continue
		}
		if !hasPast || d.After(past) {
			past, hasPast = d, true
		}
	}

	if hasFuture {
		return future, true
	}
	return past, hasPast
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
