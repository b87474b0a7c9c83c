package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"clean-cloak/internal/models"
	"clean-cloak/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatService struct {
	chats    repository.ChatRepository
	bookings repository.BookingRepository
	notifier Notifier
	now      func() time.Time
}

func NewChatService(chats repository.ChatRepository, bookings repository.BookingRepository, notifier Notifier) *ChatService {
	return &ChatService{chats: chats, bookings: bookings, notifier: notifier, now: time.Now}
}

// CreateRoom opens the chat room of a booking that has an assigned cleaner.
// An existing room is returned as is.
func (s *ChatService) CreateRoom(ctx context.Context, userID, bookingID string) (*models.ChatRoom, error) {
	oid, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		return nil, models.ErrInvalidID
	}
	booking, err := s.bookings.GetByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if !booking.IsParticipant(userID) {
		return nil, models.ErrForbidden
	}
	if booking.CleanerID == nil {
		return nil, fmt.Errorf("%w: booking has no cleaner yet", models.ErrInvalidState)
	}

	existing, err := s.chats.GetByBookingID(ctx, bookingID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	room := models.NewChatRoom(booking)
	now := s.now()
	room.CreatedAt = now
	room.UpdatedAt = now
	if err := s.chats.Create(ctx, room); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return s.chats.GetByBookingID(ctx, bookingID)
		}
		return nil, err
	}
	return room, nil
}

func (s *ChatService) List(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	return s.chats.ListForUser(ctx, userID)
}

// Open returns the room and marks the other side's messages as read by userID.
func (s *ChatService) Open(ctx context.Context, userID, bookingID string) (*models.ChatRoom, error) {
	room, role, err := s.room(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	unread := unreadFor(room, role)
	if room.MarkAsRead(role) > 0 || unread > 0 {
		if err := s.chats.MarkRead(ctx, bookingID, role); err != nil {
			log.Printf("[CHAT] Mark read in %s failed: %v", bookingID, err)
		}
	}
	return room, nil
}

// Send appends a message from userID and notifies the counterpart.
func (s *ChatService) Send(ctx context.Context, userID, bookingID string, input models.ChatMessageInput) (*models.ChatMessage, error) {
	room, role, err := s.room(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if !room.Active {
		return nil, fmt.Errorf("%w: chat is closed", models.ErrInvalidState)
	}
	msg, err := room.AddMessage(userID, role, input.Message, input.ImageURL, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.chats.AppendMessage(ctx, bookingID, *msg); err != nil {
		return nil, err
	}

	preview := msg.Message
	if preview == "" {
		preview = "Sent an image"
	}
	s.notifier.Send(ctx, Notice{
		UserID:    room.Counterpart(role),
		Type:      models.EventNewMessage,
		BookingID: bookingID,
		Preview:   preview,
		Payload: map[string]interface{}{
			"booking_id": bookingID,
			"message":    msg,
		},
	})
	return msg, nil
}

func (s *ChatService) room(ctx context.Context, userID, bookingID string) (*models.ChatRoom, models.Role, error) {
	room, err := s.chats.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	role, ok := room.RoleOf(userID)
	if !ok {
		return nil, "", models.ErrForbidden
	}
	return room, role, nil
}

func unreadFor(room *models.ChatRoom, role models.Role) int {
	if role == models.RoleClient {
		return room.UnreadClientCount
	}
	return room.UnreadCleanerCount
}
