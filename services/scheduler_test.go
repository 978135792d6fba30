package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studymate.dev/studymate-backend/models"
)

// --- fakes ---

type fakeStore struct {
	mu        sync.Mutex
	reminders []models.Reminder
	tokens    map[int]string

	scanErr  error
	tokenErr error
	markErr  error
}

func (f *fakeStore) DueUnnotified(now time.Time, window time.Duration) ([]models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	var due []models.Reminder
	for _, r := range f.reminders {
		if !r.Notified && !r.DueAt.After(now.Add(window)) {
			due = append(due, r)
		}
	}
	return due, nil
}

func (f *fakeStore) MarkNotified(id int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return false, f.markErr
	}
	for i := range f.reminders {
		if f.reminders[i].ID == id && !f.reminders[i].Notified {
			f.reminders[i].Notified = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ResetAllNotifications() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.reminders {
		if f.reminders[i].Notified {
			f.reminders[i].Notified = false
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) LatestTokenForUser(userID int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	token, ok := f.tokens[userID]
	if !ok {
		return "", ErrNoDeviceToken
	}
	return token, nil
}

func (f *fakeStore) notified(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reminders {
		if r.ID == id {
			return r.Notified
		}
	}
	return false
}

type dispatchCall struct {
	address string
	kind    NotificationKind
	payload any
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	// failFor maps a reminder title to the error its dispatch returns.
	failFor map[string]error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, address string, kind NotificationKind, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatchCall{address: address, kind: kind, payload: payload})
	if p, ok := payload.(ReminderDuePayload); ok {
		if err, ok := f.failFor[p.Title]; ok {
			return err
		}
	}
	return nil
}

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestScheduler(store *fakeStore, dispatcher *fakeDispatcher, now time.Time) *ReminderScheduler {
	s := NewReminderScheduler(store, dispatcher)
	s.now = func() time.Time { return now }
	return s
}

// --- tests ---

func TestRunCycleOnce_DispatchesAndMarksOnce(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		reminders: []models.Reminder{
			{ID: 1, UserID: 7, Title: "Stand-up", DueAt: now.Add(2 * time.Minute)},
		},
		tokens: map[int]string{7: "token-7"},
	}
	dispatcher := &fakeDispatcher{}
	s := newTestScheduler(store, dispatcher, now)

	require.NoError(t, s.RunCycleOnce(context.Background()))

	require.Equal(t, 1, dispatcher.callCount())
	call := dispatcher.calls[0]
	assert.Equal(t, "token-7", call.address)
	assert.Equal(t, KindReminderDue, call.kind)
	assert.Equal(t, ReminderDuePayload{Title: "Stand-up", DueAt: now.Add(2 * time.Minute)}, call.payload)
	assert.True(t, store.notified(1))

	// Second cycle with no time advance: nothing left to dispatch.
	require.NoError(t, s.RunCycleOnce(context.Background()))
	assert.Equal(t, 1, dispatcher.callCount())
}

func TestRunCycleOnce_ExcludesFarFutureReminders(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		reminders: []models.Reminder{
			{ID: 1, UserID: 7, Title: "Soon", DueAt: now.Add(3 * time.Minute)},
			{ID: 2, UserID: 7, Title: "Later", DueAt: now.Add(6 * time.Minute)},
		},
		tokens: map[int]string{7: "token-7"},
	}
	dispatcher := &fakeDispatcher{}
	s := newTestScheduler(store, dispatcher, now)

	require.NoError(t, s.RunCycleOnce(context.Background()))

	require.Equal(t, 1, dispatcher.callCount())
	assert.True(t, store.notified(1))
	assert.False(t, store.notified(2))
}

func TestRunCycleOnce_ScanFailureAbortsCycle(t *testing.T) {
	store := &fakeStore{scanErr: errors.New("store unavailable")}
	dispatcher := &fakeDispatcher{}
	s := newTestScheduler(store, dispatcher, time.Now())

	err := s.RunCycleOnce(context.Background())
	require.Error(t, err)
	assert.Zero(t, dispatcher.callCount())
}

func TestRunCycleOnce_PartialFailureIsolation(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		reminders: []models.Reminder{
			{ID: 1, UserID: 7, Title: "first", DueAt: now.Add(1 * time.Minute)},
			{ID: 2, UserID: 7, Title: "second", DueAt: now.Add(2 * time.Minute)},
			{ID: 3, UserID: 7, Title: "third", DueAt: now.Add(3 * time.Minute)},
		},
		tokens: map[int]string{7: "token-7"},
	}
	dispatcher := &fakeDispatcher{failFor: map[string]error{"second": ErrTransportFailure}}
	s := newTestScheduler(store, dispatcher, now)

	require.NoError(t, s.RunCycleOnce(context.Background()))

	assert.Equal(t, 3, dispatcher.callCount())
	assert.True(t, store.notified(1))
	assert.False(t, store.notified(2), "failed dispatch must leave the reminder pending")
	assert.True(t, store.notified(3))

	// Next cycle retries only the failed one.
	delete(dispatcher.failFor, "second")
	require.NoError(t, s.RunCycleOnce(context.Background()))
	assert.Equal(t, 4, dispatcher.callCount())
	assert.True(t, store.notified(2))
}

func TestRunCycleOnce_SkipsUserWithoutDeviceToken(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		reminders: []models.Reminder{
			{ID: 1, UserID: 7, Title: "no device", DueAt: now.Add(1 * time.Minute)},
			{ID: 2, UserID: 8, Title: "has device", DueAt: now.Add(2 * time.Minute)},
		},
		tokens: map[int]string{8: "token-8"},
	}
	dispatcher := &fakeDispatcher{}
	s := newTestScheduler(store, dispatcher, now)

	require.NoError(t, s.RunCycleOnce(context.Background()))

	require.Equal(t, 1, dispatcher.callCount())
	assert.Equal(t, "token-8", dispatcher.calls[0].address)
	assert.False(t, store.notified(1), "skipped reminder stays pending")
	assert.True(t, store.notified(2))
}

func TestRunCycleOnce_MarkFailureLeavesPending(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		reminders: []models.Reminder{
			{ID: 1, UserID: 7, Title: "r", DueAt: now},
		},
		tokens:  map[int]string{7: "token-7"},
		markErr: errors.New("write failed"),
	}
	dispatcher := &fakeDispatcher{}
	s := newTestScheduler(store, dispatcher, now)

	require.NoError(t, s.RunCycleOnce(context.Background()))
	assert.Equal(t, 1, dispatcher.callCount())
	assert.False(t, store.notified(1))
}

func TestRunCycleOnce_ConcurrentManualAndTimerCyclesNoDuplicates(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		reminders: []models.Reminder{
			{ID: 1, UserID: 7, Title: "once only", DueAt: now.Add(time.Minute)},
		},
		tokens: map[int]string{7: "token-7"},
	}
	dispatcher := &fakeDispatcher{}
	s := newTestScheduler(store, dispatcher, now)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.RunCycleOnce(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, dispatcher.callCount(), "dispatch attempted at most once while unnotified")
	assert.True(t, store.notified(1))
}

func TestResetAllNotifications_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		reminders: []models.Reminder{
			{ID: 1, UserID: 7, Title: "past due", DueAt: now.Add(-10 * time.Minute)},
		},
		tokens: map[int]string{7: "token-7"},
	}
	dispatcher := &fakeDispatcher{}
	s := newTestScheduler(store, dispatcher, now)

	require.NoError(t, s.RunCycleOnce(context.Background()))
	require.True(t, store.notified(1))
	require.Equal(t, 1, dispatcher.callCount())

	n, err := s.ResetAllNotifications()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// The flag, not any log, is authoritative: the reminder is selected again.
	require.NoError(t, s.RunCycleOnce(context.Background()))
	assert.Equal(t, 2, dispatcher.callCount())
	assert.True(t, store.notified(1))
}

func TestStartIsIdempotentAndStopIsSafe(t *testing.T) {
	store := &fakeStore{}
	s := newTestScheduler(store, &fakeDispatcher{}, time.Now())

	s.Start()
	first := s.cron
	require.NotNil(t, first)

	s.Start()
	assert.Same(t, first, s.cron, "second Start must not replace the running timer")

	s.Stop()
	assert.Nil(t, s.cron)

	// Stop on a stopped scheduler is a no-op.
	s.Stop()
}
