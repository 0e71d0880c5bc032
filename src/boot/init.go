package boot

import (
	"hangarhub/src/db"
	"hangarhub/src/lib"
	"hangarhub/src/models"
	"hangarhub/src/utils"
	"log"
	"time"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Hangar{},
		&models.Booking{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	// Periodic sweep for gateway authorizations that never got a
	// local booking row.
	id, err := lib.CreateCronJob(utils.ReconcileOrphanedIntents, 15*time.Minute)
	if err != nil {
		log.Printf("Error scheduling reconciliation job: %s\n", err.Error())
	} else {
		log.Printf("Scheduled reconciliation job: %s\n", *id)
	}
	sched.Start()
}
