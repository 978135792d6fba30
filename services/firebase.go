package services

import (
	"context"
	"log"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var (
	messagingClient *messaging.Client
	once            sync.Once
	initError       error
)

func InitFirebase(credentialsPath string) error {
	once.Do(func() {
		ctx := context.Background()

		log.Printf("[FCM] Initializing Firebase with credentials: %s", credentialsPath)

		opt := option.WithCredentialsFile(credentialsPath)
		app, err := firebase.NewApp(ctx, nil, opt)
		if err != nil {
			initError = err
			log.Printf("[FCM][ERROR] Failed to init Firebase app: %v", err)
			return
		}

		messagingClient, err = app.Messaging(ctx)
		if err != nil {
			initError = err
			log.Printf("[FCM][ERROR] Failed to get messaging client: %v", err)
			return
		}

		log.Println("[FCM] Firebase Messaging client initialized successfully")
	})

	return initError
}

// FCMSender sends push notifications through Firebase Cloud Messaging.
// The recipient address is an FCM device token.
type FCMSender struct{}

func NewFCMSender() *FCMSender {
	return &FCMSender{}
}

func (s *FCMSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	client := messagingClient
	if client == nil {
		log.Printf("[FCM][ERROR] Messaging client is nil (initError=%v)", initError)
		return ErrTransportFailure
	}

	message := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:  data,
		Token: token,
	}

	response, err := client.Send(ctx, message)
	if err != nil {
		log.Printf("[FCM][ERROR] Send failed | token=%s... err=%v", tokenPrefix(token), err)
		switch {
		case messaging.IsUnregistered(err) || errorutils.IsInvalidArgument(err):
			return ErrInvalidAddress
		case errorutils.IsResourceExhausted(err):
			return ErrRateLimited
		default:
			return ErrTransportFailure
		}
	}

	log.Printf("[FCM] Successfully sent message: %s", response)
	return nil
}

// tokenPrefix truncates a device token for logging.
func tokenPrefix(token string) string {
	if len(token) > 10 {
		return token[:10]
	}
	return token
}
