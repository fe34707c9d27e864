package holiday

import (
	"strings"
	"time"
)

// PeakRule decides whether a showtime start falls in peak time: a holiday,
// one of the configured peak days, or a Monday to Friday evening from
// EveningFromHour on.
type PeakRule struct {
	Calendar        *Calendar
	Days            map[time.Weekday]bool
	EveningFromHour int // 0 disables the evening window
	Location        *time.Location
}

// ParseWeekdays accepts names like "Fri", "saturday" or "SUN".
func ParseWeekdays(names []string) map[time.Weekday]bool {
	out := map[time.Weekday]bool{}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if len(n) < 3 {
			continue
		}
		for d := time.Sunday; d <= time.Saturday; d++ {
			if strings.HasPrefix(strings.ToLower(d.String()), n[:3]) {
				out[d] = true
			}
		}
	}
	return out
}

func (r PeakRule) IsPeak(t time.Time) bool {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	if r.Calendar != nil && r.Calendar.IsHoliday(lt) {
		return true
	}
	if r.Days[lt.Weekday()] {
		return true
	}
	if r.EveningFromHour <= 0 || !isWeekday(lt.Weekday()) {
		return false
	}
	return lt.Hour() >= r.EveningFromHour
}

func isWeekday(d time.Weekday) bool {
	return d != time.Saturday && d != time.Sunday
}
