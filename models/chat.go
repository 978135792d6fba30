package models

import "time"

type Chat struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatMessage struct {
	ID        int       `json:"id"`
	ChatID    int       `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatWithMessages struct {
	Chat
	Messages []ChatMessage `json:"messages"`
}
