package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"studymate.dev/studymate-backend/services"
)

// notifyUser pushes an activity notification to the user's latest device
// after a successful write. Best-effort: failures are logged and never
// surfaced to the request that triggered them.
func notifyUser(db *sql.DB, dispatcher services.EventDispatcher, userID int, kind services.NotificationKind, payload any) {
	if dispatcher == nil {
		return
	}

	token, err := services.NewReminderStore(db).LatestTokenForUser(userID)
	if err != nil {
		if errors.Is(err, services.ErrNoDeviceToken) {
			log.Printf("[Notify] No device token for user %d, skipping %s", userID, kind)
		} else {
			log.Printf("[Notify] Token lookup failed for user %d: %v", userID, err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := dispatcher.Dispatch(ctx, token, kind, payload); err != nil {
		log.Printf("[Notify] Dispatch %s failed for user %d: %v", kind, userID, err)
	}
}
