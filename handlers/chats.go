package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"studymate.dev/studymate-backend/models"
	"studymate.dev/studymate-backend/services"
)

func CreateChat(db *sql.DB, ai services.TextGenerator, dispatcher services.EventDispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromRequest(r)

		var req struct {
			Title  string `json:"title"`
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Prompt == "" {
			http.Error(w, "Prompt is required", http.StatusBadRequest)
			return
		}
		if req.Title == "" {
			req.Title = req.Prompt
			if len(req.Title) > 60 {
				req.Title = req.Title[:57] + "..."
			}
		}

		var chat models.Chat
		chat.UserID = userID
		chat.Title = req.Title
		err := db.QueryRow(`
			INSERT INTO chats (user_id, title, created_at)
			VALUES ($1, $2, NOW())
			RETURNING id, created_at`,
			userID, req.Title,
		).Scan(&chat.ID, &chat.CreatedAt)
		if err != nil {
			http.Error(w, "Failed to create chat", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		reply, err := ai.GenerateText(r.Context(), req.Prompt)
		if err != nil {
			http.Error(w, "AI generation failed", http.StatusBadGateway)
			log.Printf("CreateChat AI error: %v", err)
			return
		}

		messages := []models.ChatMessage{
			{ChatID: chat.ID, Role: "user", Content: req.Prompt},
			{ChatID: chat.ID, Role: "assistant", Content: reply},
		}
		for i := range messages {
			err := db.QueryRow(`
				INSERT INTO chat_messages (chat_id, role, content, created_at)
				VALUES ($1, $2, $3, NOW())
				RETURNING id, created_at`,
				messages[i].ChatID, messages[i].Role, messages[i].Content,
			).Scan(&messages[i].ID, &messages[i].CreatedAt)
			if err != nil {
				http.Error(w, "Failed to store message", http.StatusInternalServerError)
				log.Println(err)
				return
			}
		}

		notifyUser(db, dispatcher, userID, services.KindNewChat, services.NewChatPayload{
			Title:     chat.Title,
			CreatedAt: chat.CreatedAt,
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.ChatWithMessages{Chat: chat, Messages: messages})
	}
}

func GetChats(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromRequest(r)

		rows, err := db.Query(`
			SELECT id, user_id, title, created_at
			FROM chats
			WHERE user_id = $1
			ORDER BY created_at DESC`,
			userID)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Printf("GetChats error: %v", err)
			return
		}
		defer rows.Close()

		var chats []models.Chat
		for rows.Next() {
			var c models.Chat
			if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt); err != nil {
				http.Error(w, "Error scanning chats", http.StatusInternalServerError)
				log.Printf("GetChats scan error: %v", err)
				return
			}
			chats = append(chats, c)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating chats", http.StatusInternalServerError)
			log.Printf("GetChats rows error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chats)
	}
}

func GetChatById(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromRequest(r)

		vars := mux.Vars(r)
		chatID, err := strconv.Atoi(vars["id"])
		if err != nil {
			http.Error(w, "Invalid chat ID", http.StatusBadRequest)
			return
		}

		var chat models.Chat
		err = db.QueryRow(`
			SELECT id, user_id, title, created_at
			FROM chats
			WHERE id = $1 AND user_id = $2`,
			chatID, userID,
		).Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.CreatedAt)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Chat not found", http.StatusNotFound)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println(err)
			}
			return
		}

		rows, err := db.Query(`
			SELECT id, chat_id, role, content, created_at
			FROM chat_messages
			WHERE chat_id = $1
			ORDER BY created_at, id`,
			chatID)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println(err)
			return
		}
		defer rows.Close()

		var messages []models.ChatMessage
		for rows.Next() {
			var m models.ChatMessage
			if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
				http.Error(w, "Error scanning messages", http.StatusInternalServerError)
				log.Println(err)
				return
			}
			messages = append(messages, m)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating messages", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.ChatWithMessages{Chat: chat, Messages: messages})
	}
}

func CreateChatMessage(db *sql.DB, ai services.TextGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromRequest(r)

		vars := mux.Vars(r)
		chatID, err := strconv.Atoi(vars["id"])
		if err != nil {
			http.Error(w, "Invalid chat ID", http.StatusBadRequest)
			return
		}

		var owner int
		err = db.QueryRow(`SELECT user_id FROM chats WHERE id = $1`, chatID).Scan(&owner)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Chat not found", http.StatusNotFound)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println(err)
			}
			return
		}
		if owner != userID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		var req struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
			http.Error(w, "Message content is required", http.StatusBadRequest)
			return
		}

		reply, err := ai.GenerateText(r.Context(), req.Content)
		if err != nil {
			http.Error(w, "AI generation failed", http.StatusBadGateway)
			log.Printf("CreateChatMessage AI error: %v", err)
			return
		}

		messages := []models.ChatMessage{
			{ChatID: chatID, Role: "user", Content: req.Content},
			{ChatID: chatID, Role: "assistant", Content: reply},
		}
		for i := range messages {
			err := db.QueryRow(`
				INSERT INTO chat_messages (chat_id, role, content, created_at)
				VALUES ($1, $2, $3, NOW())
				RETURNING id, created_at`,
				messages[i].ChatID, messages[i].Role, messages[i].Content,
			).Scan(&messages[i].ID, &messages[i].CreatedAt)
			if err != nil {
				http.Error(w, "Failed to store message", http.StatusInternalServerError)
				log.Println(err)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(messages)
	}
}
