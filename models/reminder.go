package models

import "time"

type Reminder struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Title     string    `json:"title"`
	DueAt     time.Time `json:"due_at"`
	Notified  bool      `json:"notified"`
	CreatedAt time.Time `json:"created_at"`
}
