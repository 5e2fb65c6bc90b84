package pricing

import (
	"time"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"
)

// SaleActive reports whether the storewide sale window is open at now.
// Both dates are required and inclusive. The daily time range is
// optional; either bound may be left empty. A range whose end is
// earlier than its start wraps past midnight. Dates are matched on the
// calendar day of now.
func SaleActive(s *model.StorewideSale, now time.Time) bool {
	if s == nil || !s.Adjustment.Present() {
		return false
	}
	if s.DateFrom == "" || s.DateTo == "" {
		return false
	}

	loc := now.Location()
	from, err := time.ParseInLocation(model.SaleDateLayout, s.DateFrom, loc)
	if err != nil {
		return false
	}
	to, err := time.ParseInLocation(model.SaleDateLayout, s.DateTo, loc)
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if today.Before(from) || today.After(to) {
		return false
	}

	minute := now.Hour()*60 + now.Minute()
	start, end := 0, 24*60-1
	if s.TimeFrom != "" {
		var ok bool
		if start, ok = minuteOfDay(s.TimeFrom); !ok {
			return false
		}
	}
	if s.TimeTo != "" {
		var ok bool
		if end, ok = minuteOfDay(s.TimeTo); !ok {
			return false
		}
	}
	if end < start {
		// the window runs past midnight, e.g. 22:00 to 02:00
		return minute >= start || minute <= end
	}
	return minute >= start && minute <= end
}

func minuteOfDay(hhmm string) (int, bool) {
	t, err := time.Parse(model.SaleTimeLayout, hhmm)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
