package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Typed delivery failures reported by the transport. The dispatcher never
// retries; callers decide whether a failed notification is attempted again.
var (
	ErrInvalidAddress   = errors.New("notification: invalid recipient address")
	ErrRateLimited      = errors.New("notification: rate limited")
	ErrTransportFailure = errors.New("notification: transport failure")
)

// PushSender is the outbound transport consumed by the dispatcher.
// Exactly one send attempt per call.
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

type NotificationKind string

const (
	KindReminderDue NotificationKind = "reminder_due"
	KindNewChat     NotificationKind = "new_chat"
	KindNewQuiz     NotificationKind = "new_quiz"
	KindNewUpload   NotificationKind = "new_upload"
)

type ReminderDuePayload struct {
	Title string
	DueAt time.Time
}

type NewChatPayload struct {
	Title     string
	CreatedAt time.Time
}

type NewQuizPayload struct {
	Topic         string
	Difficulty    string
	QuestionCount int
}

type NewUploadPayload struct {
	Filename  string
	SizeBytes int64
}

// Dispatcher turns a domain event into a single outbound push notification.
type Dispatcher struct {
	sender PushSender
}

func NewDispatcher(sender PushSender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// Dispatch renders the notification for the given kind and performs exactly
// one send attempt to the given address. The payload must be the struct
// matching the kind; a mismatch is an invalid-address-class programming error
// surfaced immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, address string, kind NotificationKind, payload any) error {
	if address == "" {
		return ErrInvalidAddress
	}

	title, body, data, err := renderNotification(kind, payload)
	if err != nil {
		return err
	}

	return d.sender.Send(ctx, address, title, body, data)
}

func renderNotification(kind NotificationKind, payload any) (title, body string, data map[string]string, err error) {
	switch kind {
	case KindReminderDue:
		p, ok := payload.(ReminderDuePayload)
		if !ok {
			return "", "", nil, fmt.Errorf("dispatch %s: unexpected payload %T", kind, payload)
		}
		title = "Reminder: " + p.Title
		body = "Due at " + p.DueAt.Local().Format("15:04")
		data = map[string]string{
			"type":   string(kind),
			"due_at": p.DueAt.UTC().Format(time.RFC3339),
		}

	case KindNewChat:
		p, ok := payload.(NewChatPayload)
		if !ok {
			return "", "", nil, fmt.Errorf("dispatch %s: unexpected payload %T", kind, payload)
		}
		title = "New chat started"
		body = p.Title
		data = map[string]string{
			"type":       string(kind),
			"created_at": p.CreatedAt.UTC().Format(time.RFC3339),
		}

	case KindNewQuiz:
		p, ok := payload.(NewQuizPayload)
		if !ok {
			return "", "", nil, fmt.Errorf("dispatch %s: unexpected payload %T", kind, payload)
		}
		title = "Your quiz is ready"
		body = fmt.Sprintf("%s (%s, %d questions)", p.Topic, p.Difficulty, p.QuestionCount)
		data = map[string]string{
			"type":           string(kind),
			"topic":          p.Topic,
			"difficulty":     p.Difficulty,
			"question_count": strconv.Itoa(p.QuestionCount),
		}

	case KindNewUpload:
		p, ok := payload.(NewUploadPayload)
		if !ok {
			return "", "", nil, fmt.Errorf("dispatch %s: unexpected payload %T", kind, payload)
		}
		title = "File processed"
		body = fmt.Sprintf("%s (%d bytes)", p.Filename, p.SizeBytes)
		data = map[string]string{
			"type":     string(kind),
			"filename": p.Filename,
			"size":     strconv.FormatInt(p.SizeBytes, 10),
		}

	default:
		return "", "", nil, fmt.Errorf("dispatch: unknown notification kind %q", kind)
	}

	if len(body) > 100 {
		body = body[:97] + "..."
	}
	return title, body, data, nil
}
