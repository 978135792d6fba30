package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"studymate.dev/studymate-backend/models"
	"studymate.dev/studymate-backend/services"
)

func CreateQuiz(db *sql.DB, ai services.TextGenerator, dispatcher services.EventDispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromRequest(r)

		var req struct {
			Topic         string `json:"topic"`
			Difficulty    string `json:"difficulty"`
			QuestionCount int    `json:"question_count"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Topic == "" {
			http.Error(w, "Topic is required", http.StatusBadRequest)
			return
		}
		if req.Difficulty == "" {
			req.Difficulty = "medium"
		}
		if req.QuestionCount <= 0 || req.QuestionCount > 20 {
			req.QuestionCount = 5
		}

		prompt := fmt.Sprintf(
			`Generate a %s-difficulty quiz about %q with exactly %d multiple-choice questions. `+
				`Respond with only a JSON array, each element shaped as `+
				`{"question": "...", "options": ["...","...","...","..."], "answer": "..."}.`,
			req.Difficulty, req.Topic, req.QuestionCount)

		raw, err := ai.GenerateText(r.Context(), prompt)
		if err != nil {
			http.Error(w, "AI generation failed", http.StatusBadGateway)
			log.Printf("CreateQuiz AI error: %v", err)
			return
		}

		questions, err := parseQuizQuestions(raw)
		if err != nil {
			http.Error(w, "AI returned malformed quiz", http.StatusBadGateway)
			log.Printf("CreateQuiz parse error: %v", err)
			return
		}

		questionsJSON, err := json.Marshal(questions)
		if err != nil {
			http.Error(w, "Failed to encode questions", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		quiz := models.Quiz{
			UserID:        userID,
			Topic:         req.Topic,
			Difficulty:    req.Difficulty,
			QuestionCount: len(questions),
			Questions:     questionsJSON,
		}
		err = db.QueryRow(`
			INSERT INTO quizzes (user_id, topic, difficulty, question_count, questions, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			RETURNING id, created_at`,
			userID, quiz.Topic, quiz.Difficulty, quiz.QuestionCount, string(questionsJSON),
		).Scan(&quiz.ID, &quiz.CreatedAt)
		if err != nil {
			http.Error(w, "Failed to create quiz", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		notifyUser(db, dispatcher, userID, services.KindNewQuiz, services.NewQuizPayload{
			Topic:         quiz.Topic,
			Difficulty:    quiz.Difficulty,
			QuestionCount: quiz.QuestionCount,
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(quiz)
	}
}

// parseQuizQuestions tolerates the model wrapping its JSON in a code fence.
func parseQuizQuestions(raw string) ([]models.QuizQuestion, error) {
	raw = strings.TrimSpace(raw)
	if start := strings.Index(raw, "["); start >= 0 {
		if end := strings.LastIndex(raw, "]"); end > start {
			raw = raw[start : end+1]
		}
	}

	var questions []models.QuizQuestion
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions in AI output")
	}
	return questions, nil
}

func GetQuizzes(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromRequest(r)

		rows, err := db.Query(`
			SELECT id, user_id, topic, difficulty, question_count, created_at
			FROM quizzes
			WHERE user_id = $1
			ORDER BY created_at DESC`,
			userID)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Printf("GetQuizzes error: %v", err)
			return
		}
		defer rows.Close()

		var quizzes []models.Quiz
		for rows.Next() {
			var q models.Quiz
			if err := rows.Scan(&q.ID, &q.UserID, &q.Topic, &q.Difficulty, &q.QuestionCount, &q.CreatedAt); err != nil {
				http.Error(w, "Error scanning quizzes", http.StatusInternalServerError)
				log.Printf("GetQuizzes scan error: %v", err)
				return
			}
			quizzes = append(quizzes, q)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating quizzes", http.StatusInternalServerError)
			log.Printf("GetQuizzes rows error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(quizzes)
	}
}

func GetQuizById(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromRequest(r)

		vars := mux.Vars(r)
		quizID, err := strconv.Atoi(vars["id"])
		if err != nil {
			http.Error(w, "Invalid quiz ID", http.StatusBadRequest)
			return
		}

		var q models.Quiz
		err = db.QueryRow(`
			SELECT id, user_id, topic, difficulty, question_count, questions, created_at
			FROM quizzes
			WHERE id = $1 AND user_id = $2`,
			quizID, userID,
		).Scan(&q.ID, &q.UserID, &q.Topic, &q.Difficulty, &q.QuestionCount, &q.Questions, &q.CreatedAt)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Quiz not found", http.StatusNotFound)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println(err)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(q)
	}
}
