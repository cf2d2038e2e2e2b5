package collector

import "FuturesSentinel/internal/model"

// AggregateWeekly folds daily bars into ISO-week bars. Each weekly bar is
// stamped with the time of its last daily bar so it never postdates the
// data it summarizes.
func AggregateWeekly(daily []model.Bar) []model.Bar {
	if len(daily) == 0 {
		return nil
	}
	var weekly []model.Bar
	week := daily[0]
	wy, ww := week.Time.ISOWeek()

	for _, d := range daily[1:] {
		y, w := d.Time.ISOWeek()
		if y != wy || w != ww {
			weekly = append(weekly, week)
			week = d
			wy, ww = y, w
			continue
		}
		week.High = max(week.High, d.High)
		week.Low = min(week.Low, d.Low)
		week.Close = d.Close
		week.Volume += d.Volume
		week.Time = d.Time
	}
	return append(weekly, week)
}
