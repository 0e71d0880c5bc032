package main

import (
	"encoding/json"
	"hangarhub/src/db"
	"hangarhub/src/lib"
	"hangarhub/src/models"
	"hangarhub/src/types"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"
)

// stripeWebhookRoute reconciles gateway-side payment state with the
// booking ledger. The metadata written at intent creation makes the
// events attributable without any extra lookup table.
func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "payment_intent.succeeded":
			var pi stripe.PaymentIntent
			err := json.Unmarshal(event.Data.Raw, &pi)
			if err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				break
			}
			log.Printf("[PaymentIntent] ID: %s %s\n", pi.ID, pi.Status)
			if pi.Metadata["service"] != "hangarhub" {
				break
			}
			go func() {
				db := db.GetDb()
				err := db.Transaction(func(tx *gorm.DB) error {
					var booking models.Booking
					if err := tx.
						Where("payment_intent_id = ?", pi.ID).
						First(&booking).
						Error; err != nil {
						log.Printf("No Booking for PaymentIntent [%s]: %s\n", pi.ID, err.Error())
						return err
					}
					method := "card"
					if pi.LatestCharge != nil && pi.LatestCharge.PaymentMethodDetails != nil {
						method = string(pi.LatestCharge.PaymentMethodDetails.Type)
					}
					if err := tx.
						Model(&models.Booking{}).
						Where("id = ?", booking.ID).
						Update("payment_method", method).
						Error; err != nil {
						return err
					}
					return nil
				})
				if err != nil {
					log.Printf("Error reconciling PaymentIntent [%s]: %s\n", pi.ID, err.Error())
				}
			}()
		case "payment_intent.payment_failed":
			var pi stripe.PaymentIntent
			err := json.Unmarshal(event.Data.Raw, &pi)
			if err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				break
			}
			log.Printf("[PaymentIntent] ID: %s %s\n", pi.ID, pi.Status)
			if pi.Metadata["service"] != "hangarhub" {
				break
			}
			lib.MonitorPaymentEvent("failed", map[string]any{
				"payment_intent_id": pi.ID,
				"reason":            "payment_failed",
			})
			// A failed payment must stop blocking the calendar.
			go func() {
				db := db.GetDb()
				err := db.
					Model(&models.Booking{}).
					Where("payment_intent_id = ? AND status = ?", pi.ID, types.BOOKING_CONFIRMED).
					Update("status", types.BOOKING_CANCELED).
					Error
				if err != nil {
					log.Printf("Error cancelling Booking for failed PaymentIntent [%s]: %s\n", pi.ID, err.Error())
				}
			}()
		case "charge.refunded":
			var ch stripe.Charge
			if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
				log.Printf("[Stripe] Error parsing Charge: %s\n", err.Error())
				break
			}
			log.Printf("[Charge] %s refunded: %d\n", ch.ID, ch.AmountRefunded)
		default:
			log.Printf("[StripeEvent] Unhandled event type: %s\n", event.Type)
		}
		ctx.Status(http.StatusOK)
	})
	return apiv1
}
