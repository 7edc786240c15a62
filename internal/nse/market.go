package nse

import (
	"sync"
	"time"
)

// NSE trading session: 9:15 to 15:30 IST, Monday through Friday.
const (
	openMinute  = 9*60 + 15
	closeMinute = 15*60 + 30
)

var (
	istOnce sync.Once
	ist     *time.Location
)

// IST returns the Asia/Kolkata location, falling back to a fixed +05:30
// zone when tzdata is unavailable.
func IST() *time.Location {
	istOnce.Do(func() {
		loc, err := time.LoadLocation("Asia/Kolkata")
		if err != nil {
			loc = time.FixedZone("IST", 5*3600+1800)
		}
		ist = loc
	})
	return ist
}

// MarketOpen reports whether the NSE cash market is trading at t.
func MarketOpen(t time.Time) bool {
	local := t.In(IST())

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	minute := local.Hour()*60 + local.Minute()
	return minute >= openMinute && minute <= closeMinute
}

// MarketHours describes the trading session for display.
func MarketHours() string {
	return "9:15 AM - 3:30 PM IST, Mon-Fri"
}
