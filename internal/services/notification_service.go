package services

import (
	"context"
	"log"

	"clean-cloak/internal/models"
	"clean-cloak/internal/realtime"
	"clean-cloak/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notice is one event addressed to one user.
type Notice struct {
	UserID    string
	Type      string
	BookingID string
	Preview   string
	Payload   map[string]interface{}
}

type NotificationService struct {
	repo   repository.NotificationRepository
	users  repository.UserRepository
	events EventPublisher
	push   PushSender
}

// NewNotificationService builds the fan-out. push may be nil when Firebase is not configured.
func NewNotificationService(repo repository.NotificationRepository, users repository.UserRepository, events EventPublisher, push PushSender) *NotificationService {
	return &NotificationService{repo: repo, users: users, events: events, push: push}
}

// Send is best-effort: failures are logged and never surface to the caller.
func (s *NotificationService) Send(ctx context.Context, n Notice) {
	if n.UserID == "" {
		return
	}

	err := s.events.Publish(ctx, realtime.Event{UserID: n.UserID, Type: n.Type, Payload: n.Payload})
	if err != nil {
		log.Printf("[NOTIFY] Realtime publish of %s to %s failed: %v", n.Type, n.UserID, err)
	}

	content, ok := models.PushContentFor(n.Type, n.Preview)
	if !ok {
		return
	}

	if s.repo != nil {
		notif := &models.Notification{
			UserID:    n.UserID,
			Type:      n.Type,
			Title:     content.Title,
			Message:   content.Body,
			BookingID: n.BookingID,
		}
		if err := s.repo.Create(ctx, notif); err != nil {
			log.Printf("[NOTIFY] Failed to store %s for %s: %v", n.Type, n.UserID, err)
		}
	}

	s.sendPush(ctx, n, content)
}

func (s *NotificationService) SendToParticipants(ctx context.Context, booking *models.Booking, eventType string, payload map[string]interface{}) {
	bookingID := booking.ID.Hex()
	s.Send(ctx, Notice{UserID: booking.ClientID, Type: eventType, BookingID: bookingID, Payload: payload})
	if booking.CleanerID != nil {
		s.Send(ctx, Notice{UserID: *booking.CleanerID, Type: eventType, BookingID: bookingID, Payload: payload})
	}
}

func (s *NotificationService) sendPush(ctx context.Context, n Notice, content models.PushContent) {
	if s.push == nil || s.users == nil {
		return
	}
	user, err := s.users.GetByID(ctx, n.UserID)
	if err != nil {
		log.Printf("[PUSH] Cannot load user %s: %v", n.UserID, err)
		return
	}
	if len(user.DeviceTokens) == 0 {
		return
	}

	data := map[string]string{"type": n.Type}
	if n.BookingID != "" {
		data["booking_id"] = n.BookingID
	}
	stale, err := s.push.SendMulticast(ctx, user.DeviceTokens, content.Title, content.Body, data)
	if err != nil {
		log.Printf("[PUSH] Send %s to %s failed: %v", n.Type, n.UserID, err)
		return
	}
	if len(stale) > 0 {
		if err := s.users.RemoveDeviceTokens(ctx, n.UserID, stale); err != nil {
			log.Printf("[PUSH] Failed to prune %d tokens of %s: %v", len(stale), n.UserID, err)
		}
	}
}

func (s *NotificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.repo.List(ctx, userID, 50)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrInvalidID
	}
	return s.repo.MarkAsRead(ctx, oid, userID)
}

// Broadcast sends the same notice to several users.
func (s *NotificationService) Broadcast(ctx context.Context, userIDs []string, n Notice) {
	for _, id := range userIDs {
		n.UserID = id
		s.Send(ctx, n)
	}
}
