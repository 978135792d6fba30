package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"studymate.dev/studymate-backend/database"
	"studymate.dev/studymate-backend/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	firebasePath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if firebasePath == "" {
		log.Fatal("FIREBASE_CREDENTIALS_PATH not set")
	}
	if err := services.InitFirebase(firebasePath); err != nil {
		log.Printf("ReminderCheck: Firebase init failed: %v", err)
	}

	db, err := database.ConnectDB()
	if err != nil {
		log.Fatal("ReminderCheck: DB connection failed:", err)
	}
	defer db.Close()

	dispatcher := services.NewDispatcher(services.NewFCMSender())
	scheduler := services.NewReminderScheduler(services.NewReminderStore(db), dispatcher)

	log.Println("⏰ Running reminder check")
	if err := scheduler.RunCycleOnce(context.Background()); err != nil {
		log.Fatal("ReminderCheck: cycle failed:", err)
	}
	log.Println("✅ Reminder check finished")
}
