package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"studymate.dev/studymate-backend/models"
)

// ErrNoDeviceToken means the owning user has no registered device to
// deliver to. The caller skips the reminder; it is not fatal to a cycle.
var ErrNoDeviceToken = errors.New("reminders: user has no device token")

// ReminderStore wraps the reminders and device_tokens tables with the few
// operations the notification cycle needs.
type ReminderStore struct {
	db *sql.DB
}

func NewReminderStore(db *sql.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

// DueUnnotified returns reminders due within the lookahead window that have
// not been notified yet, ordered by due_at then id so cycles are
// reproducible. Overdue reminders whose flag is still unset are included:
// the notified flag, not elapsed time, decides whether a reminder is done,
// which is what lets ResetAllNotifications recover from mass-marking.
func (s *ReminderStore) DueUnnotified(now time.Time, window time.Duration) ([]models.Reminder, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, title, due_at, notified, created_at
		FROM reminders
		WHERE notified = FALSE
		  AND due_at <= $1
		ORDER BY due_at, id`,
		now.Add(window))
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	defer rows.Close()

	var due []models.Reminder
	for rows.Next() {
		var r models.Reminder
		if err := rows.Scan(&r.ID, &r.UserID, &r.Title, &r.DueAt, &r.Notified, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan due reminder: %w", err)
		}
		due = append(due, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due reminders: %w", err)
	}

	return due, nil
}

// MarkNotified flips the notified flag, but only if it is still unset.
// Returns false when zero rows were affected (already notified or deleted
// since the scan), which callers treat as a benign no-op. This conditional
// update is the only safeguard against double notification when a manual
// check overlaps a timer cycle.
func (s *ReminderStore) MarkNotified(id int) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE reminders SET notified = TRUE
		WHERE id = $1 AND notified = FALSE`,
		id)
	if err != nil {
		return false, fmt.Errorf("mark reminder %d notified: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark reminder %d notified: %w", id, err)
	}
	return affected == 1, nil
}

// ResetAllNotifications clears the notified flag on every reminder.
// Administrative operation for test fixtures and recovery.
func (s *ReminderStore) ResetAllNotifications() (int64, error) {
	res, err := s.db.Exec(`UPDATE reminders SET notified = FALSE WHERE notified = TRUE`)
	if err != nil {
		return 0, fmt.Errorf("reset notifications: %w", err)
	}
	return res.RowsAffected()
}

// LatestTokenForUser resolves the recipient address for a user: the most
// recently registered device token.
func (s *ReminderStore) LatestTokenForUser(userID int) (string, error) {
	var token string
	err := s.db.QueryRow(`
		SELECT token FROM device_tokens
		WHERE user_id = $1 AND token != ''
		ORDER BY updated_at DESC, id DESC
		LIMIT 1`,
		userID).Scan(&token)
	if err == sql.ErrNoRows {
		return "", ErrNoDeviceToken
	}
	if err != nil {
		return "", fmt.Errorf("resolve token for user %d: %w", userID, err)
	}
	return token, nil
}
