package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"studymate.dev/studymate-backend/models"
	"studymate.dev/studymate-backend/services"
)

func CreateReminder(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromRequest(r)

		var req struct {
			Title string    `json:"title"`
			DueAt time.Time `json:"due_at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Title == "" {
			http.Error(w, "Title is required", http.StatusBadRequest)
			return
		}
		if req.DueAt.IsZero() {
			http.Error(w, "due_at is required", http.StatusBadRequest)
			return
		}

		reminder := models.Reminder{
			UserID: userID,
			Title:  req.Title,
			DueAt:  req.DueAt,
		}
		err := db.QueryRow(`
			INSERT INTO reminders (user_id, title, due_at, notified, created_at)
			VALUES ($1, $2, $3, FALSE, NOW())
			RETURNING id, created_at`,
			userID, req.Title, req.DueAt,
		).Scan(&reminder.ID, &reminder.CreatedAt)
		if err != nil {
			http.Error(w, "Failed to create reminder", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(reminder)
	}
}

func GetReminders(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromRequest(r)

		rows, err := db.Query(`
			SELECT id, user_id, title, due_at, notified, created_at
			FROM reminders
			WHERE user_id = $1
			ORDER BY due_at`,
			userID)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Printf("GetReminders error: %v", err)
			return
		}
		defer rows.Close()

		var reminders []models.Reminder
		for rows.Next() {
			var rem models.Reminder
			if err := rows.Scan(&rem.ID, &rem.UserID, &rem.Title, &rem.DueAt, &rem.Notified, &rem.CreatedAt); err != nil {
				http.Error(w, "Error scanning reminders", http.StatusInternalServerError)
				log.Printf("GetReminders scan error: %v", err)
				return
			}
			reminders = append(reminders, rem)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating reminders", http.StatusInternalServerError)
			log.Printf("GetReminders rows error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reminders)
	}
}

func DeleteReminder(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromRequest(r)

		vars := mux.Vars(r)
		id, err := strconv.Atoi(vars["id"])
		if err != nil {
			http.Error(w, "Invalid reminder ID", http.StatusBadRequest)
			return
		}

		res, err := db.Exec(`DELETE FROM reminders WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			http.Error(w, "Failed to delete reminder", http.StatusInternalServerError)
			log.Println(err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "Reminder not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Reminder deleted successfully"})
	}
}

// TriggerReminderCheck runs one scan cycle immediately, bypassing the timer.
func TriggerReminderCheck(scheduler *services.ReminderScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := scheduler.RunCycleOnce(r.Context()); err != nil {
			http.Error(w, "Reminder check failed", http.StatusInternalServerError)
			log.Printf("TriggerReminderCheck error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Reminder check completed"})
	}
}

// ResetNotifications bulk-clears the notified flag. Administrative endpoint.
func ResetNotifications(scheduler *services.ReminderScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := scheduler.ResetAllNotifications()
		if err != nil {
			http.Error(w, "Failed to reset notifications", http.StatusInternalServerError)
			log.Printf("ResetNotifications error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "Notifications reset",
			"count":   n,
		})
	}
}
