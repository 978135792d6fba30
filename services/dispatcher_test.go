package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sendCall struct {
	token string
	title string
	body  string
	data  map[string]string
}

type fakeSender struct {
	calls []sendCall
	err   error
}

func (f *fakeSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	f.calls = append(f.calls, sendCall{token: token, title: title, body: body, data: data})
	return f.err
}

func TestDispatch_RendersEachKindDistinctly(t *testing.T) {
	dueAt := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		kind     NotificationKind
		payload  any
		dataType string
	}{
		{
			name:     "reminder due",
			kind:     KindReminderDue,
			payload:  ReminderDuePayload{Title: "Dentist", DueAt: dueAt},
			dataType: "reminder_due",
		},
		{
			name:     "new chat",
			kind:     KindNewChat,
			payload:  NewChatPayload{Title: "Thermodynamics help", CreatedAt: dueAt},
			dataType: "new_chat",
		},
		{
			name:     "new quiz",
			kind:     KindNewQuiz,
			payload:  NewQuizPayload{Topic: "Go", Difficulty: "hard", QuestionCount: 5},
			dataType: "new_quiz",
		},
		{
			name:     "new upload",
			kind:     KindNewUpload,
			payload:  NewUploadPayload{Filename: "notes.txt", SizeBytes: 512},
			dataType: "new_upload",
		},
	}

	seenTitles := map[string]bool{}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sender := &fakeSender{}
			d := NewDispatcher(sender)

			require.NoError(t, d.Dispatch(context.Background(), "token-1", tc.kind, tc.payload))
			require.Len(t, sender.calls, 1, "exactly one send attempt per dispatch")

			call := sender.calls[0]
			assert.Equal(t, "token-1", call.token)
			assert.NotEmpty(t, call.title)
			assert.NotEmpty(t, call.body)
			assert.Equal(t, tc.dataType, call.data["type"])
			assert.False(t, seenTitles[call.title], "each kind renders distinct content")
			seenTitles[call.title] = true
		})
	}
}

func TestDispatch_EmptyAddressRejectedWithoutSend(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender)

	err := d.Dispatch(context.Background(), "", KindNewChat, NewChatPayload{Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Empty(t, sender.calls)
}

func TestDispatch_MismatchedPayloadRejectedWithoutSend(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender)

	err := d.Dispatch(context.Background(), "token-1", KindReminderDue, NewChatPayload{Title: "wrong"})
	assert.Error(t, err)
	assert.Empty(t, sender.calls)
}

func TestDispatch_UnknownKindRejected(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender)

	err := d.Dispatch(context.Background(), "token-1", NotificationKind("mystery"), nil)
	assert.Error(t, err)
	assert.Empty(t, sender.calls)
}

func TestDispatch_TransportErrorsPropagate(t *testing.T) {
	for _, sentinel := range []error{ErrInvalidAddress, ErrRateLimited, ErrTransportFailure} {
		sender := &fakeSender{err: sentinel}
		d := NewDispatcher(sender)

		err := d.Dispatch(context.Background(), "token-1", KindNewUpload, NewUploadPayload{Filename: "a.pdf", SizeBytes: 1})
		assert.ErrorIs(t, err, sentinel)
		assert.Len(t, sender.calls, 1, "no internal retry on failure")
	}
}

func TestDispatch_LongBodyTruncated(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender)

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	require.NoError(t, d.Dispatch(context.Background(), "token-1", KindNewChat, NewChatPayload{
		Title:     string(long),
		CreatedAt: time.Now(),
	}))

	require.Len(t, sender.calls, 1)
	assert.LessOrEqual(t, len(sender.calls[0].body), 100)
}
