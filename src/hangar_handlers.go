package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hangarhub/src/config"
	"hangarhub/src/db"
	"hangarhub/src/lib"
	"hangarhub/src/models"
	"hangarhub/src/types"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type calendarEntry struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

func hangarHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/hangars", func(ctx *gin.Context) {
			db := db.GetDb()
			var hangars []models.Hangar
			if err := db.
				Where(&models.Hangar{Available: true}).
				Order("airport_code, hangar_number").
				Find(&hangars).
				Error; err != nil {
				log.Printf("Error retrieving Hangars: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error while processing request"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": hangars, "count": len(hangars)})
		}).
		// Unlocked, eventually-consistent snapshot of booked ranges;
		// browse traffic is allowed to see slightly stale data, the
		// reservation protocol re-checks under its lock.
		GET("/hangars/:id/calendar", func(ctx *gin.Context) {
			var params types.HangarCalendarURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			cacheKey := fmt.Sprintf("hangar::%d:calendar", params.HangarID)
			rd := lib.GetRedisClient()
			if rd != nil {
				cached, err := rd.Get(context.Background(), cacheKey).Result()
				if err != nil && !errors.Is(err, redis.Nil) {
					log.Printf("Error reading from cache: %s\n", err.Error())
				}
				if cached != "" {
					var entries []calendarEntry
					if err := json.Unmarshal([]byte(cached), &entries); err == nil {
						ctx.JSON(http.StatusOK, gin.H{"id": params.HangarID, "booked": entries, "cached": true})
						return
					}
				}
			}

			d := db.GetDb()
			var hangar models.Hangar
			if err := d.
				Where("id = ?", params.HangarID).
				First(&hangar).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "Hangar not found"})
				return
			}
			holdCutoff := time.Now().Add(-config.BOOKING_HOLD_WINDOW)
			var bookings []models.Booking
			if err := d.
				Model(&models.Booking{}).
				Where("hangar_id = ?", params.HangarID).
				Where("status = ? OR (status = ? AND created_at >= ?)", types.BOOKING_CONFIRMED, types.BOOKING_PENDING, holdCutoff).
				Order("check_in").
				Find(&bookings).
				Error; err != nil {
				log.Printf("Error retrieving calendar for Hangar [%d]: %s\n", params.HangarID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error while processing request"})
				return
			}
			entries := make([]calendarEntry, 0, len(bookings))
			for _, b := range bookings {
				entries = append(entries, calendarEntry{CheckIn: b.CheckIn, CheckOut: b.CheckOut})
			}
			if rd != nil {
				if payload, err := json.Marshal(entries); err == nil {
					rd.SetEx(context.Background(), cacheKey, string(payload), time.Minute)
				}
			}
			ctx.JSON(http.StatusOK, gin.H{"id": params.HangarID, "booked": entries, "cached": false})
		})
	return g
}
