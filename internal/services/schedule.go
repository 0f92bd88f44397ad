package services

import (
	"time"

	"github.com/prefeitura-rio/app-callback/internal/models"
)

// IsActiveNow reports whether any configured window contains now. No
// windows means always active.
//
// A time of day is inside a window when its hour lies strictly between the
// window hours, or equals the from hour with the minute at or past the from
// minute, or equals the to hour with the minute at or before the to minute.
// Each clause matches on its own, so a window whose from and to share an
// hour matches the whole of that hour's upper or lower part.
func IsActiveNow(windows []models.TimeWindow, now time.Time) bool {
	if len(windows) == 0 {
		return true
	}

	hour, minute := now.Hour(), now.Minute()
	dayOff := isDayOff(now.Weekday())

	for _, w := range windows {
		switch w.Kind {
		case models.WindowWeekday:
			if dayOff {
				continue
			}
		case models.WindowDayOff:
			if !dayOff {
				continue
			}
		}

		if (hour > w.From.Hour && hour < w.To.Hour) ||
			(hour == w.From.Hour && minute >= w.From.Minute) ||
			(hour == w.To.Hour && minute <= w.To.Minute) {
			return true
		}
	}

	return false
}

func isDayOff(day time.Weekday) bool {
	return day == time.Saturday || day == time.Sunday
}
