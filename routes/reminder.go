package routes

import (
	"database/sql"

	"github.com/gorilla/mux"
	"studymate.dev/studymate-backend/handlers"
	"studymate.dev/studymate-backend/services"
)

func CreateReminderRoutes(db *sql.DB, scheduler *services.ReminderScheduler, router *mux.Router) *mux.Router {
	router.HandleFunc("/reminders/check", handlers.TriggerReminderCheck(scheduler)).Methods("POST")
	router.HandleFunc("/reminders/reset-notifications", handlers.ResetNotifications(scheduler)).Methods("POST")
	router.HandleFunc("/reminders", handlers.CreateReminder(db)).Methods("POST")
	router.HandleFunc("/reminders", handlers.GetReminders(db)).Methods("GET")
	router.HandleFunc("/reminders/{id}", handlers.DeleteReminder(db)).Methods("DELETE")

	return router
}
