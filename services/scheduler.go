package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"studymate.dev/studymate-backend/models"
)

// Fixed scan policy. The window is wider than the cadence so every reminder
// is seen by at least one scan before it becomes overdue.
const (
	ScanInterval    = 1 * time.Minute
	LookaheadWindow = 5 * time.Minute
)

// ReminderSource is the slice of the reminder store the scheduler consumes.
type ReminderSource interface {
	DueUnnotified(now time.Time, window time.Duration) ([]models.Reminder, error)
	MarkNotified(id int) (bool, error)
	ResetAllNotifications() (int64, error)
	LatestTokenForUser(userID int) (string, error)
}

// EventDispatcher sends one notification per call. Implemented by Dispatcher.
type EventDispatcher interface {
	Dispatch(ctx context.Context, address string, kind NotificationKind, payload any) error
}

// ReminderScheduler owns the recurring scan-dispatch-mark cycle for due
// reminders. One instance per process; Start is idempotent and Stop does not
// preempt a cycle already in flight.
type ReminderScheduler struct {
	store      ReminderSource
	dispatcher EventDispatcher

	interval time.Duration
	window   time.Duration
	now      func() time.Time

	mu   sync.Mutex // guards cron lifecycle
	cron *cron.Cron

	cycleMu sync.Mutex // one cycle in flight, timer or manual
}

func NewReminderScheduler(store ReminderSource, dispatcher EventDispatcher) *ReminderScheduler {
	return &ReminderScheduler{
		store:      store,
		dispatcher: dispatcher,
		interval:   ScanInterval,
		window:     LookaheadWindow,
		now:        time.Now,
	}
}

// Start begins the periodic trigger. Calling Start on a running scheduler
// logs and does nothing.
func (s *ReminderScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		log.Println("[Scheduler] Start called but scheduler is already running")
		return
	}

	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		if err := s.RunCycleOnce(context.Background()); err != nil {
			log.Printf("[Scheduler] Cycle failed: %v", err)
		}
	})
	if err != nil {
		log.Printf("[Scheduler][ERROR] Failed to register cycle job: %v", err)
		return
	}

	c.Start()
	s.cron = c
	log.Printf("[Scheduler] Started | interval=%s window=%s", s.interval, s.window)
}

// Stop prevents future ticks. A cycle already dispatching runs to completion.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	s.cron.Stop()
	s.cron = nil
	log.Println("[Scheduler] Stopped")
}

// RunCycleOnce executes a single scan-dispatch-mark pass, independent of the
// timer. Concurrent calls (manual check racing a timer tick) are serialized.
//
// A scan failure aborts the whole cycle: it is the shared precondition for
// every reminder and the next tick retries from scratch. Failures local to a
// single reminder are logged and skipped so the rest of the batch still gets
// its attempt; the skipped reminder stays unnotified and is re-selected on
// the next scan while it remains inside the lookahead window.
func (s *ReminderScheduler) RunCycleOnce(ctx context.Context) error {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	now := s.now()

	due, err := s.store.DueUnnotified(now, s.window)
	if err != nil {
		return fmt.Errorf("scan due reminders: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	log.Printf("[Scheduler] Cycle found %d due reminder(s)", len(due))

	for _, reminder := range due {
		s.processReminder(ctx, reminder)
	}
	return nil
}

func (s *ReminderScheduler) processReminder(ctx context.Context, reminder models.Reminder) {
	token, err := s.store.LatestTokenForUser(reminder.UserID)
	if err != nil {
		if errors.Is(err, ErrNoDeviceToken) {
			log.Printf("[Scheduler] Skipping reminder %d: user %d has no device token", reminder.ID, reminder.UserID)
		} else {
			log.Printf("[Scheduler] Skipping reminder %d: token lookup failed: %v", reminder.ID, err)
		}
		return
	}

	err = s.dispatcher.Dispatch(ctx, token, KindReminderDue, ReminderDuePayload{
		Title: reminder.Title,
		DueAt: reminder.DueAt,
	})
	if err != nil {
		// Left unnotified on purpose: the next cycle retries while the
		// reminder is still inside the lookahead window.
		log.Printf("[Scheduler] Dispatch failed for reminder %d: %v", reminder.ID, err)
		return
	}

	marked, err := s.store.MarkNotified(reminder.ID)
	if err != nil {
		log.Printf("[Scheduler] Failed to mark reminder %d notified: %v", reminder.ID, err)
		return
	}
	if !marked {
		// Already notified by an overlapping cycle, or deleted mid-cycle.
		log.Printf("[Scheduler] Mark for reminder %d affected no rows", reminder.ID)
		return
	}

	log.Printf("[Scheduler] Reminder %d notified | user=%d due_at=%s",
		reminder.ID, reminder.UserID, reminder.DueAt.Format(time.RFC3339))
}

// ResetAllNotifications clears the notified flag on every reminder so past
// reminders inside the window become eligible again.
func (s *ReminderScheduler) ResetAllNotifications() (int64, error) {
	n, err := s.store.ResetAllNotifications()
	if err != nil {
		return 0, err
	}
	log.Printf("[Scheduler] Reset notified flag on %d reminder(s)", n)
	return n, nil
}
