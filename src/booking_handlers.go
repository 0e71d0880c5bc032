package main

import (
	"errors"
	"hangarhub/src/config"
	"hangarhub/src/db"
	"hangarhub/src/models"
	"hangarhub/src/types"
	"hangarhub/src/utils"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// responseError keeps raw failure detail in the server log while the
// caller only ever sees a message string and a status code.
func responseError(err error) (int, string) {
	status := types.StatusFor(err)
	var re *types.RequestError
	if errors.As(err, &re) {
		return status, re.Message
	}
	return status, "Error while processing request"
}

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/bookings", func(ctx *gin.Context) {
			var body types.ConfirmBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			result, err := utils.ConfirmBooking(ctx.Copy(), &body)
			if err != nil {
				log.Printf("Could not confirm booking %+v: %s\n", body, err.Error())
				status, msg := responseError(err)
				ctx.JSON(status, gin.H{"error": msg})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"success": true,
				"booking": result.Summary(),
				"payment": types.PaymentSummary{
					ClientSecret:    result.Intent.ClientSecret,
					PaymentIntentId: result.Intent.ID,
					PublishableKey:  config.StripePublishableKey(),
				},
			})
		}).
		GET("/bookings", func(ctx *gin.Context) {
			var query struct {
				UserID uint `form:"userId" binding:"required"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var bookings []models.Booking
			if err := db.
				Model(&models.Booking{}).
				Where("user_id = ?", query.UserID).
				Preload("Hangar").
				Order("created_at DESC").
				Limit(50).
				Find(&bookings).
				Error; err != nil {
				log.Printf("Error retrieving Bookings for user [%d]: %s\n", query.UserID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error while processing request"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		PUT("/bookings/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			booking, err := utils.CancelBooking(ctx.Copy(), params.ID)
			if err != nil {
				log.Printf("Could not cancel Booking [%d]: %s\n", params.ID, err.Error())
				status, msg := responseError(err)
				ctx.JSON(status, gin.H{"error": msg})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		})
	return g
}
