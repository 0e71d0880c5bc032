package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymentIdempotencyKeyStableAcrossTime(t *testing.T) {
	checkIn := time.Date(2025, 9, 10, 10, 0, 0, 0, time.UTC)
	checkOut := checkIn.AddDate(0, 0, 2)

	first := paymentIdempotencyKey(3, 7, checkIn, checkOut)
	// A retry minutes later must derive the identical key; the key
	// depends only on the request tuple, never on the submission time.
	time.Sleep(5 * time.Millisecond)
	second := paymentIdempotencyKey(3, 7, checkIn, checkOut)
	assert.Equal(t, first, second)
}

func TestPaymentIdempotencyKeyDistinguishesTuples(t *testing.T) {
	checkIn := time.Date(2025, 9, 10, 10, 0, 0, 0, time.UTC)
	checkOut := checkIn.AddDate(0, 0, 2)

	base := paymentIdempotencyKey(3, 7, checkIn, checkOut)
	assert.NotEqual(t, base, paymentIdempotencyKey(4, 7, checkIn, checkOut))
	assert.NotEqual(t, base, paymentIdempotencyKey(3, 8, checkIn, checkOut))
	assert.NotEqual(t, base, paymentIdempotencyKey(3, 7, checkIn.Add(time.Hour), checkOut))
	assert.NotEqual(t, base, paymentIdempotencyKey(3, 7, checkIn, checkOut.Add(time.Hour)))
}
