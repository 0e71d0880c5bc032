package utils

import (
	"time"
	_ "time/tzdata"

	"hangarhub/src/config"
	"hangarhub/src/types"
)

// WallClock is a local calendar/clock reading of an instant. The
// reservation protocol only ever consumes these components, so the
// timezone conversion stays isolated here.
type WallClock struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// ToLocalWallClock converts an instant into wall-clock components in
// the named IANA timezone. An unknown zone falls back to UTC rather
// than failing: a day-level policy decision is better taken in a
// wrong zone than not at all, and the fallback is logged by callers
// that care.
func ToLocalWallClock(instant time.Time, timezoneName string) WallClock {
	loc, err := time.LoadLocation(timezoneName)
	if err != nil {
		loc = time.UTC
	}
	t := instant.In(loc)
	return WallClock{
		Year:   t.Year(),
		Month:  t.Month(),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// ClassifyBookingType applies the same-day-or-last-minute no-refund
// rule: booked on the day of arrival, or after 18:00 local time the
// evening before, forfeits refund eligibility. Pure and total; the
// result is stored once at row creation and never recomputed.
func ClassifyBookingType(now, checkIn time.Time, timezoneName string) types.BookingType {
	n := ToLocalWallClock(now, timezoneName)
	c := ToLocalWallClock(checkIn, timezoneName)
	nowDate := time.Date(n.Year, n.Month, n.Day, 0, 0, 0, 0, time.UTC)
	checkInDate := time.Date(c.Year, c.Month, c.Day, 0, 0, 0, 0, time.UTC)
	if checkInDate.Equal(nowDate) {
		return types.BOOKING_NON_REFUNDABLE
	}
	if checkInDate.Equal(nowDate.AddDate(0, 0, 1)) && n.Hour >= 18 {
		return types.BOOKING_NON_REFUNDABLE
	}
	return types.BOOKING_REFUNDABLE
}

// ComputeNights returns the ceiling of the elapsed whole days between
// check-in and check-out; zero or negative ranges yield 0.
func ComputeNights(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	if d <= 0 {
		return 0
	}
	nights := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		nights++
	}
	return nights
}

// ParseDateTime accepts RFC3339 first, then the legacy request format.
func ParseDateTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return t, nil
	}
	return time.Parse(config.TIME_PARSE_FORMAT, value)
}
