package config

import (
	"fmt"
	"os"
	"time"
)

// const dsn = "host=localhost user=postgres password=password dbname=hangarhub port=5432 sslmode=disable TimeZone=America/Sao_Paulo"

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

// BusinessTimezone is the wall-clock zone the refund policy is decided in.
func BusinessTimezone() string {
	tz := os.Getenv("BUSINESS_TIMEZONE")
	if tz == "" {
		tz = "America/Sao_Paulo"
	}
	return tz
}

func StripePublishableKey() string {
	return os.Getenv("STRIPE_PUBLISHABLE_KEY")
}

const (
	// A pending row still blocks overlapping dates for this long.
	BOOKING_HOLD_WINDOW = 30 * time.Minute
	// An identical request inside this window is treated as a retry.
	BOOKING_IDEMPOTENCY_WINDOW = 15 * time.Minute

	BOOKING_CURRENCY = "brl"

	// Stored on every row so future policy revisions can tell which
	// ruleset classified a booking.
	REFUND_POLICY_VERSION = "same-day-no-refund/v1"
)
