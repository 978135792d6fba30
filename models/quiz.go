package models

import (
	"encoding/json"
	"time"
)

type Quiz struct {
	ID            int             `json:"id"`
	UserID        int             `json:"user_id"`
	Topic         string          `json:"topic"`
	Difficulty    string          `json:"difficulty"`
	QuestionCount int             `json:"question_count"`
	Questions     json.RawMessage `json:"questions"`
	CreatedAt     time.Time       `json:"created_at"`
}

type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}
