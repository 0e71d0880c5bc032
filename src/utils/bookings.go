package utils

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"time"

	"hangarhub/src/config"
	"hangarhub/src/db"
	"hangarhub/src/lib"
	"hangarhub/src/models"
	"hangarhub/src/types"

	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

type ConfirmBookingResult struct {
	Booking models.Booking
	Hangar  models.Hangar
	Intent  *stripe.PaymentIntent
	// Reused is set when an idempotent match was found and the
	// existing payment intent was retrieved instead of created.
	Reused bool
}

func (r *ConfirmBookingResult) Summary() types.BookingSummary {
	return types.BookingSummary{
		ID:           r.Booking.ID,
		Status:       string(r.Booking.Status),
		HangarNumber: r.Hangar.HangarNumber,
		CheckIn:      r.Booking.CheckIn,
		CheckOut:     r.Booking.CheckOut,
		Nights:       r.Booking.Nights,
		TotalPrice:   r.Booking.TotalPrice,
		BookingType:  r.Booking.BookingType,
	}
}

// toMinorUnits converts a decimal amount to the currency's minor unit.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// paymentIdempotencyKey is a pure function of the request tuple, so a
// retry after a local failure always reuses the gateway object instead
// of double-authorizing, no matter when the retry arrives. The gateway
// retains idempotency keys for 24 hours, after which a legitimate
// re-booking of the same dates gets a fresh object.
func paymentIdempotencyKey(hangarID, userID uint, checkIn, checkOut time.Time) string {
	return fmt.Sprintf("booking:%d:%d:%d:%d", hangarID, userID, checkIn.Unix(), checkOut.Unix())
}

// ConfirmBooking runs the reservation protocol: validate, then under
// the hangar's exclusive hold sweep stale pending rows, resolve the
// hangar and user, reuse an idempotent match if one exists, check
// date overlap, classify the refund policy, create a payment intent,
// and insert the confirmed row, all in one transaction.
func ConfirmBooking(ctx context.Context, body *types.ConfirmBookingRequestBody) (*ConfirmBookingResult, error) {
	checkIn, err := ParseDateTime(body.CheckIn)
	if err != nil {
		return nil, types.NewRequestError(http.StatusBadRequest, "Invalid check-in date")
	}
	checkOut, err := ParseDateTime(body.CheckOut)
	if err != nil {
		return nil, types.NewRequestError(http.StatusBadRequest, "Invalid check-out date")
	}
	nights := ComputeNights(checkIn, checkOut)
	if nights < 1 {
		return nil, types.NewRequestError(http.StatusBadRequest, "Check-out must be after check-in")
	}
	totalPrice := *body.TotalPrice
	if totalPrice < 0 {
		return nil, types.NewRequestError(http.StatusBadRequest, "Total price must not be negative")
	}
	subtotal, fees := body.Subtotal, body.Fees
	if subtotal == 0 && fees == 0 {
		subtotal = totalPrice
	}
	if math.Abs(totalPrice-(subtotal+fees)) > 0.009 {
		return nil, types.NewRequestError(http.StatusBadRequest, "Price breakdown does not add up to the total")
	}

	result := &ConfirmBookingResult{}
	err = db.WithExclusiveHold(int64(body.HangarID), func(tx *gorm.DB) error {
		now := time.Now()
		holdCutoff := now.Add(-config.BOOKING_HOLD_WINDOW)

		// Abandoned holds free their dates here instead of via a
		// background job.
		if err := tx.
			Model(&models.Booking{}).
			Where("hangar_id = ? AND status = ? AND created_at < ?", body.HangarID, types.BOOKING_PENDING, holdCutoff).
			Update("status", types.BOOKING_CANCELED).
			Error; err != nil {
			return err
		}

		var hangar models.Hangar
		if err := tx.
			Where("id = ?", body.HangarID).
			First(&hangar).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewRequestError(http.StatusNotFound, "Hangar not found")
			}
			return err
		}
		if !hangar.Available {
			return types.NewRequestError(http.StatusNotFound, "Hangar is not available")
		}
		result.Hangar = hangar

		var user models.User
		if err := tx.
			Where("id = ?", body.UserID).
			First(&user).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewRequestError(http.StatusNotFound, "User not found")
			}
			return err
		}

		// A repeat of the identical request inside the window is a
		// retry, not a new booking. This lookup must run before the
		// overlap check: the retry's own confirmed row intersects its
		// own date range, so checking overlap first would 409 every
		// duplicate submission instead of reusing it.
		var existing models.Booking
		err := tx.
			Where("hangar_id = ? AND user_id = ? AND check_in = ? AND check_out = ?", body.HangarID, body.UserID, checkIn, checkOut).
			Where("status IN ? AND created_at >= ?", []types.BookingStatus{types.BOOKING_PENDING, types.BOOKING_CONFIRMED}, now.Add(-config.BOOKING_IDEMPOTENCY_WINDOW)).
			First(&existing).
			Error
		if err == nil {
			if existing.PaymentIntentId == nil {
				return types.NewRequestError(http.StatusConflict, "A matching booking exists without a payment reference")
			}
			gw := lib.GetPaymentGateway()
			pi, err := gw.RetrieveIntent(ctx, *existing.PaymentIntentId)
			if err != nil {
				log.Printf("Could not retrieve PaymentIntent [%s] for Booking [%d]: %s\n", *existing.PaymentIntentId, existing.ID, err.Error())
				return types.NewRequestError(http.StatusInternalServerError, "Could not retrieve payment details")
			}
			result.Booking = existing
			result.Intent = pi
			result.Reused = true
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// Half-open [check_in, check_out) intersection against rows
		// that still block the calendar.
		var overlapping int64
		if err := tx.
			Model(&models.Booking{}).
			Where("hangar_id = ? AND check_in < ? AND check_out > ?", body.HangarID, checkOut, checkIn).
			Where("status = ? OR (status = ? AND created_at >= ?)", types.BOOKING_CONFIRMED, types.BOOKING_PENDING, holdCutoff).
			Count(&overlapping).
			Error; err != nil {
			return err
		}
		if overlapping > 0 {
			return types.NewRequestError(http.StatusConflict, "Hangar is unavailable for the selected dates")
		}

		bookingType := ClassifyBookingType(now, checkIn, config.BusinessTimezone())

		lib.MonitorPaymentEvent("initiated", map[string]any{
			"hangar_id": body.HangarID,
			"user_id":   body.UserID,
			"amount":    totalPrice,
			"currency":  config.BOOKING_CURRENCY,
		})
		gw := lib.GetPaymentGateway()
		pi, err := gw.CreateIntent(ctx, &lib.CreatePaymentIntentInput{
			Amount:       toMinorUnits(totalPrice),
			Currency:     config.BOOKING_CURRENCY,
			Description:  fmt.Sprintf("Hangar %s - %d night(s)", hangar.HangarNumber, nights),
			ReceiptEmail: user.Email,
			Metadata: map[string]string{
				"service":      "hangarhub",
				"hangarId":     fmt.Sprint(body.HangarID),
				"userId":       fmt.Sprint(body.UserID),
				"nights":       fmt.Sprint(nights),
				"bookingType":  string(bookingType),
				"refundPolicy": config.REFUND_POLICY_VERSION,
			},
			IdempotencyKey: paymentIdempotencyKey(body.HangarID, body.UserID, checkIn, checkOut),
		})
		if err != nil {
			log.Printf("Error creating PaymentIntent for Hangar [%d]: %s\n", body.HangarID, err.Error())
			lib.MonitorPaymentEvent("failed", map[string]any{
				"hangar_id": body.HangarID,
				"user_id":   body.UserID,
				"reason":    err.Error(),
			})
			return types.NewRequestError(http.StatusInternalServerError, "Could not initialize payment")
		}

		booking := models.Booking{
			HangarID:            body.HangarID,
			UserID:              body.UserID,
			CheckIn:             checkIn,
			CheckOut:            checkOut,
			Nights:              nights,
			Subtotal:            subtotal,
			Fees:                fees,
			TotalPrice:          totalPrice,
			Currency:            config.BOOKING_CURRENCY,
			Status:              types.BOOKING_CONFIRMED,
			BookingType:         bookingType,
			RefundPolicyApplied: config.REFUND_POLICY_VERSION,
			PaymentMethod:       "card",
			PaymentIntentId:     &pi.ID,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		result.Booking = booking
		result.Intent = pi
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Reused {
		go sendBookingConfirmation(result)
	}
	return result, nil
}

func sendBookingConfirmation(result *ConfirmBookingResult) {
	var user models.User
	d := db.GetDb()
	if err := d.Where("id = ?", result.Booking.UserID).First(&user).Error; err != nil {
		log.Printf("Could not load user [%d] for confirmation mail: %s\n", result.Booking.UserID, err.Error())
		return
	}
	body := fmt.Sprintf(
		"Your booking for hangar %s from %s to %s (%d night(s), %.2f %s) is confirmed.",
		result.Hangar.HangarNumber,
		result.Booking.CheckIn.Format("2006-01-02"),
		result.Booking.CheckOut.Format("2006-01-02"),
		result.Booking.Nights,
		result.Booking.TotalPrice,
		result.Booking.Currency,
	)
	if err := lib.SendMail(&lib.SendMailInput{
		From:     os.Getenv("MAIL_FROM"),
		FromName: "HangarHub",
		To:       []string{user.Email},
		Subject:  fmt.Sprintf("Booking #%d confirmed", result.Booking.ID),
		Body:     body,
	}); err != nil {
		log.Printf("Could not send confirmation mail for Booking [%d]: %s\n", result.Booking.ID, err.Error())
	}
}

// CancelBooking transitions a confirmed row to cancelled. Refundable
// bookings get their subtotal refunded through the gateway; fees are
// non-refundable, and non_refundable bookings release the dates
// without any refund.
func CancelBooking(ctx context.Context, bookingID uint) (*models.Booking, error) {
	d := db.GetDb()
	var booking models.Booking
	err := d.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("id = ?", bookingID).
			First(&booking).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewRequestError(http.StatusNotFound, "Booking not found")
			}
			return err
		}
		if booking.Status != types.BOOKING_CONFIRMED {
			return types.NewRequestError(http.StatusConflict, "Only confirmed bookings can be cancelled")
		}
		if booking.BookingType == types.BOOKING_REFUNDABLE && booking.PaymentIntentId != nil {
			gw := lib.GetPaymentGateway()
			if _, err := gw.RefundIntent(ctx, *booking.PaymentIntentId, toMinorUnits(booking.Subtotal)); err != nil {
				log.Printf("Error refunding PaymentIntent [%s]: %s\n", *booking.PaymentIntentId, err.Error())
				return types.NewRequestError(http.StatusInternalServerError, "Could not process refund")
			}
		}
		if err := tx.
			Model(&models.Booking{}).
			Where("id = ?", bookingID).
			Update("status", types.BOOKING_CANCELED).
			Error; err != nil {
			return err
		}
		booking.Status = types.BOOKING_CANCELED
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ReconcileOrphanedIntents sweeps for gateway authorizations that
// have no local booking row, the residual of a gateway-side success
// followed by a local failure. Intents older than the idempotency
// window that never got a row are cancelled so the authorization is
// released.
func ReconcileOrphanedIntents() {
	ctx := context.Background()
	gw := lib.GetPaymentGateway()
	intents, err := gw.ListIntentsSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		log.Printf("Error listing PaymentIntents for reconciliation: %s\n", err.Error())
		return
	}
	d := db.GetDb()
	for _, pi := range intents {
		if pi.Metadata["service"] != "hangarhub" {
			continue
		}
		if pi.Status != stripe.PaymentIntentStatusRequiresPaymentMethod &&
			pi.Status != stripe.PaymentIntentStatusRequiresConfirmation {
			continue
		}
		created := time.Unix(pi.Created, 0)
		if time.Since(created) < config.BOOKING_IDEMPOTENCY_WINDOW {
			continue
		}
		var count int64
		if err := d.
			Model(&models.Booking{}).
			Where("payment_intent_id = ?", pi.ID).
			Count(&count).
			Error; err != nil {
			log.Printf("Error checking Booking for PaymentIntent [%s]: %s\n", pi.ID, err.Error())
			continue
		}
		if count > 0 {
			continue
		}
		log.Printf("PaymentIntent [%s] has no Booking row, cancelling\n", pi.ID)
		if _, err := gw.CancelIntent(ctx, pi.ID); err != nil {
			log.Printf("Error cancelling orphaned PaymentIntent [%s]: %s\n", pi.ID, err.Error())
		}
	}
}
