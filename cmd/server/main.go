package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"studymate.dev/studymate-backend/database"
	"studymate.dev/studymate-backend/handlers"
	"studymate.dev/studymate-backend/routes"
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
		log.Printf("Server: Firebase init failed: %v", err)
	}

	db, err := database.ConnectDB()
	if err != nil {
		log.Fatal("Server: DB connection failed:", err)
	}
	defer db.Close()

	if err := database.EnsureSchema(db); err != nil {
		log.Fatal("Server: schema init failed:", err)
	}

	dispatcher := services.NewDispatcher(services.NewFCMSender())
	store := services.NewReminderStore(db)
	scheduler := services.NewReminderScheduler(store, dispatcher)
	scheduler.Start()
	defer scheduler.Stop()

	ai := services.NewAIClientFromEnv()

	router := mux.NewRouter()
	routes.CreateAuthRoutes(db, router)

	protected := router.PathPrefix("/").Subrouter()
	protected.Use(handlers.RequireAuth)
	routes.CreateUserRoutes(db, protected)
	routes.CreateReminderRoutes(db, scheduler, protected)
	routes.CreateChatRoutes(db, ai, dispatcher, protected)
	routes.CreateQuizRoutes(db, ai, dispatcher, protected)
	routes.CreateUploadRoutes(db, dispatcher, protected)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("✅ Server stopped")
}
