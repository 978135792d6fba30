package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
	"studymate.dev/studymate-backend/models"
)

func GetUserById(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		id := vars["id"]

		var u models.User
		err := db.QueryRow(
			`SELECT id, username, email, created_at FROM users WHERE id = $1`, id,
		).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "User not found", http.StatusNotFound)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println(err)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(u)
	}
}

func UpdateUser(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		id, err := strconv.Atoi(vars["id"])
		if err != nil || id != UserIDFromRequest(r) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		var u models.User
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		setClauses := []string{}
		args := []interface{}{}
		i := 1

		if u.Username != "" {
			setClauses = append(setClauses, "username = $"+strconv.Itoa(i))
			args = append(args, u.Username)
			i++
		}
		if u.Email != "" {
			setClauses = append(setClauses, "email = $"+strconv.Itoa(i))
			args = append(args, u.Email)
			i++
		}
		if u.Password != "" {
			hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if err != nil {
				http.Error(w, "Failed to hash password", http.StatusInternalServerError)
				return
			}
			setClauses = append(setClauses, "password = $"+strconv.Itoa(i))
			args = append(args, string(hashed))
			i++
		}

		if len(setClauses) == 0 {
			http.Error(w, "Nothing to update", http.StatusBadRequest)
			return
		}

		args = append(args, id)
		query := "UPDATE users SET "
		for j, clause := range setClauses {
			if j > 0 {
				query += ", "
			}
			query += clause
		}
		query += " WHERE id = $" + strconv.Itoa(i)

		if _, err := db.Exec(query, args...); err != nil {
			http.Error(w, "Failed to update user", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "User updated successfully"})
	}
}

func DeleteUser(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		id, err := strconv.Atoi(vars["id"])
		if err != nil || id != UserIDFromRequest(r) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		res, err := db.Exec("DELETE FROM users WHERE id = $1", id)
		if err != nil {
			http.Error(w, "Failed to delete user", http.StatusInternalServerError)
			log.Println(err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "User deleted successfully"})
	}
}

type TokenRequest struct {
	Token string `json:"token"`
}

func RegisterDeviceToken(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromRequest(r)

		var req TokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if req.Token == "" {
			http.Error(w, "Device token is required", http.StatusBadRequest)
			return
		}

		_, err := db.Exec(`
			INSERT INTO device_tokens (user_id, token, created_at, updated_at)
			VALUES ($1, $2, NOW(), NOW())
			ON CONFLICT (user_id, token)
			DO UPDATE SET updated_at = NOW()`,
			userID, req.Token)
		if err != nil {
			http.Error(w, "Failed to register device token", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message": "Device token registered successfully",
		})
	}
}
