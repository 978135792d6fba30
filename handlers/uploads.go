package handlers

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"studymate.dev/studymate-backend/models"
	"studymate.dev/studymate-backend/services"
)

const maxUploadBytes = 20 << 20 // 20 MiB

func uploadDir() string {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "uploads"
	}
	return dir
}

func UploadFile(db *sql.DB, dispatcher services.EventDispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromRequest(r)

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "File too large or malformed form", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file field is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "Failed to read file", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		if err := os.MkdirAll(uploadDir(), 0o755); err != nil {
			http.Error(w, "Failed to store file", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		storedPath := filepath.Join(uploadDir(), uuid.NewString()+filepath.Ext(header.Filename))
		if err := os.WriteFile(storedPath, data, 0o644); err != nil {
			http.Error(w, "Failed to store file", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		extracted := services.ExtractText(data, header.Filename)

		upload := models.Upload{
			UserID:        userID,
			Filename:      header.Filename,
			StoredPath:    storedPath,
			SizeBytes:     int64(len(data)),
			ExtractedText: extracted,
		}
		err = db.QueryRow(`
			INSERT INTO uploads (user_id, filename, stored_path, size_bytes, extracted_text, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			RETURNING id, created_at`,
			userID, upload.Filename, upload.StoredPath, upload.SizeBytes, upload.ExtractedText,
		).Scan(&upload.ID, &upload.CreatedAt)
		if err != nil {
			http.Error(w, "Failed to save upload", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		notifyUser(db, dispatcher, userID, services.KindNewUpload, services.NewUploadPayload{
			Filename:  upload.Filename,
			SizeBytes: upload.SizeBytes,
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(upload)
	}
}

func GetUploads(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromRequest(r)

		rows, err := db.Query(`
			SELECT id, user_id, filename, size_bytes, created_at
			FROM uploads
			WHERE user_id = $1
			ORDER BY created_at DESC`,
			userID)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Printf("GetUploads error: %v", err)
			return
		}
		defer rows.Close()

		var uploads []models.Upload
		for rows.Next() {
			var u models.Upload
			if err := rows.Scan(&u.ID, &u.UserID, &u.Filename, &u.SizeBytes, &u.CreatedAt); err != nil {
				http.Error(w, "Error scanning uploads", http.StatusInternalServerError)
				log.Printf("GetUploads scan error: %v", err)
				return
			}
			uploads = append(uploads, u)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating uploads", http.StatusInternalServerError)
			log.Printf("GetUploads rows error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(uploads)
	}
}

func GetUploadById(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromRequest(r)

		vars := mux.Vars(r)
		id, err := strconv.Atoi(vars["id"])
		if err != nil {
			http.Error(w, "Invalid upload ID", http.StatusBadRequest)
			return
		}

		var u models.Upload
		err = db.QueryRow(`
			SELECT id, user_id, filename, stored_path, size_bytes, extracted_text, created_at
			FROM uploads
			WHERE id = $1 AND user_id = $2`,
			id, userID,
		).Scan(&u.ID, &u.UserID, &u.Filename, &u.StoredPath, &u.SizeBytes, &u.ExtractedText, &u.CreatedAt)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Upload not found", http.StatusNotFound)
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
