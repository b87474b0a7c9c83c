package services

import (
	"context"
	"io"
	"time"

	"clean-cloak/internal/models"
	"clean-cloak/internal/realtime"
	"clean-cloak/internal/utils/intasend"
)

type PayoutGateway interface {
	Transfer(ctx context.Context, req intasend.TransferRequest) (*intasend.TransferResponse, error)
}

type CollectionGateway interface {
	STKPush(ctx context.Context, req intasend.STKPushRequest) (*intasend.STKPushResponse, error)
}

type PushSender interface {
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error)
}

type SMSSender interface {
	Send(to, body string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev realtime.Event) error
}

type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// Notifier fans an event out to a user's live connections, inbox and devices.
type Notifier interface {
	Send(ctx context.Context, n Notice)
	SendToParticipants(ctx context.Context, booking *models.Booking, eventType string, payload map[string]interface{})
}

type PayoutDispatcher interface {
	Dispatch(ctx context.Context, booking *models.Booking, amount float64) error
}
