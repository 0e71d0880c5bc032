package utils

import (
	"testing"
	"time"

	"hangarhub/src/types"

	"github.com/stretchr/testify/assert"
)

const testTimezone = "America/Sao_Paulo"

func saoPaulo(t *testing.T) *time.Location {
	loc, err := time.LoadLocation(testTimezone)
	assert.Nil(t, err)
	return loc
}

func TestToLocalWallClock(t *testing.T) {
	// 03:00 UTC is midnight in Sao Paulo (UTC-3, no DST since 2019).
	instant := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)
	wc := ToLocalWallClock(instant, testTimezone)
	assert.Equal(t, 2025, wc.Year)
	assert.Equal(t, time.June, wc.Month)
	assert.Equal(t, 15, wc.Day)
	assert.Equal(t, 0, wc.Hour)
	assert.Equal(t, 0, wc.Minute)
}

func TestToLocalWallClockUnknownZoneFallsBackToUTC(t *testing.T) {
	instant := time.Date(2025, 6, 15, 3, 30, 0, 0, time.UTC)
	wc := ToLocalWallClock(instant, "Not/AZone")
	assert.Equal(t, 3, wc.Hour)
	assert.Equal(t, 30, wc.Minute)
}

func TestClassifyBookingTypeSameDay(t *testing.T) {
	loc := saoPaulo(t)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, loc)
	checkIn := time.Date(2025, 3, 1, 18, 0, 0, 0, loc)
	assert.Equal(t, types.BOOKING_NON_REFUNDABLE, ClassifyBookingType(now, checkIn, testTimezone))
}

func TestClassifyBookingTypeEveningBefore(t *testing.T) {
	loc := saoPaulo(t)
	checkIn := time.Date(2025, 3, 2, 10, 0, 0, 0, loc)

	at18 := time.Date(2025, 3, 1, 18, 0, 0, 0, loc)
	assert.Equal(t, types.BOOKING_NON_REFUNDABLE, ClassifyBookingType(at18, checkIn, testTimezone))

	at1759 := time.Date(2025, 3, 1, 17, 59, 0, 0, loc)
	assert.Equal(t, types.BOOKING_REFUNDABLE, ClassifyBookingType(at1759, checkIn, testTimezone))
}

func TestClassifyBookingTypeTwoDaysOut(t *testing.T) {
	loc := saoPaulo(t)
	now := time.Date(2025, 3, 1, 23, 0, 0, 0, loc)
	checkIn := time.Date(2025, 3, 3, 10, 0, 0, 0, loc)
	assert.Equal(t, types.BOOKING_REFUNDABLE, ClassifyBookingType(now, checkIn, testTimezone))
}

func TestClassifyBookingTypeUsesLocalCalendarDay(t *testing.T) {
	// 00:30 UTC on March 2nd is still 21:30 on March 1st in Sao
	// Paulo, so a March 1st check-in counts as same-day.
	now := time.Date(2025, 3, 2, 0, 30, 0, 0, time.UTC)
	loc := saoPaulo(t)
	checkIn := time.Date(2025, 3, 1, 8, 0, 0, 0, loc)
	assert.Equal(t, types.BOOKING_NON_REFUNDABLE, ClassifyBookingType(now, checkIn, testTimezone))
}

func TestClassifyBookingTypeIsDeterministic(t *testing.T) {
	loc := saoPaulo(t)
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, loc)
	checkIn := time.Date(2025, 3, 2, 10, 0, 0, 0, loc)
	first := ClassifyBookingType(now, checkIn, testTimezone)
	for range 10 {
		assert.Equal(t, first, ClassifyBookingType(now, checkIn, testTimezone))
	}
}

func TestComputeNights(t *testing.T) {
	checkIn := time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, ComputeNights(checkIn, checkOut))

	assert.Equal(t, 0, ComputeNights(checkIn, checkIn))
	assert.Equal(t, 0, ComputeNights(checkOut, checkIn))
	assert.Equal(t, 1, ComputeNights(checkIn, checkIn.Add(24*time.Hour)))
	assert.Equal(t, 2, ComputeNights(checkIn, checkIn.Add(25*time.Hour)))
}

func TestParseDateTime(t *testing.T) {
	parsed, err := ParseDateTime("2025-03-01T14:00:00-03:00")
	assert.Nil(t, err)
	assert.Equal(t, 14, parsed.Hour())

	parsed, err = ParseDateTime("2025-03-01 14:00:00 -03:00")
	assert.Nil(t, err)
	assert.Equal(t, 14, parsed.Hour())

	_, err = ParseDateTime("not-a-date")
	assert.NotNil(t, err)
}
