package models

import "time"

type Upload struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	Filename      string    `json:"filename"`
	StoredPath    string    `json:"stored_path,omitempty"`
	SizeBytes     int64     `json:"size_bytes"`
	ExtractedText string    `json:"extracted_text,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
