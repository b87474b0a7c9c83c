package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxMessageLength = 1000

type Role string

const (
	RoleClient     Role = "client"
	RoleCleaner    Role = "cleaner"
	RoleAdmin      Role = "admin"
	RoleTeamLeader Role = "team_leader"
)

type ChatMessage struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	SenderID      string             `bson:"sender_id" json:"sender_id"`
	SenderRole    Role               `bson:"sender_role" json:"sender_role"`
	Message       string             `bson:"message" json:"message"`
	ImageURL      string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	ReadByClient  bool               `bson:"read_by_client" json:"read_by_client"`
	ReadByCleaner bool               `bson:"read_by_cleaner" json:"read_by_cleaner"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
}

type ChatRoom struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookingID          string             `bson:"booking_id" json:"booking_id"`
	ClientID           string             `bson:"client_id" json:"client_id"`
	CleanerID          string             `bson:"cleaner_id" json:"cleaner_id"`
	Messages           []ChatMessage      `bson:"messages" json:"messages"`
	LastMessage        string             `bson:"last_message,omitempty" json:"last_message,omitempty"`
	LastMessageTime    *time.Time         `bson:"last_message_time,omitempty" json:"last_message_time,omitempty"`
	UnreadClientCount  int                `bson:"unread_client_count" json:"unread_client_count"`
	UnreadCleanerCount int                `bson:"unread_cleaner_count" json:"unread_cleaner_count"`
	Active             bool               `bson:"active" json:"active"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

func NewChatRoom(b *Booking) *ChatRoom {
	return &ChatRoom{
		BookingID: b.ID.Hex(),
		ClientID:  b.ClientID,
		CleanerID: b.CleanerIDValue(),
		Messages:  []ChatMessage{},
		Active:    true,
	}
}

// RoleOf returns the chat role of userID in this room.
func (r *ChatRoom) RoleOf(userID string) (Role, bool) {
	switch userID {
	case r.ClientID:
		return RoleClient, true
	case r.CleanerID:
		return RoleCleaner, true
	}
	return "", false
}

// Counterpart returns the user on the other side of role.
func (r *ChatRoom) Counterpart(role Role) string {
	if role == RoleClient {
		return r.CleanerID
	}
	return r.ClientID
}

// AddMessage appends a sanitized message and bumps the recipient's unread counter.
func (r *ChatRoom) AddMessage(senderID string, role Role, text, imageURL string, at time.Time) (*ChatMessage, error) {
	if role != RoleClient && role != RoleCleaner {
		return nil, fmt.Errorf("%w: sender role must be client or cleaner", ErrValidation)
	}
	clean := SanitizeMessage(text)
	if clean == "" && imageURL == "" {
		return nil, fmt.Errorf("%w: message cannot be empty", ErrValidation)
	}

	msg := ChatMessage{
		ID:            primitive.NewObjectID(),
		SenderID:      senderID,
		SenderRole:    role,
		Message:       clean,
		ImageURL:      imageURL,
		ReadByClient:  role == RoleClient,
		ReadByCleaner: role == RoleCleaner,
		Timestamp:     at,
	}
	r.Messages = append(r.Messages, msg)

	if role == RoleClient {
		r.UnreadCleanerCount++
	} else {
		r.UnreadClientCount++
	}
	r.LastMessage = clean
	if r.LastMessage == "" {
		r.LastMessage = "[image]"
	}
	r.LastMessageTime = &at
	r.UpdatedAt = at
	return &r.Messages[len(r.Messages)-1], nil
}

// MarkAsRead flips the reader's flag on messages authored by the other side
// and resets the reader's unread counter. It returns how many messages changed.
func (r *ChatRoom) MarkAsRead(reader Role) int {
	changed := 0
	for i := range r.Messages {
		m := &r.Messages[i]
		switch {
		case reader == RoleCleaner && m.SenderRole == RoleClient && !m.ReadByCleaner:
			m.ReadByCleaner = true
			changed++
		case reader == RoleClient && m.SenderRole == RoleCleaner && !m.ReadByClient:
			m.ReadByClient = true
			changed++
		}
	}
	if reader == RoleCleaner {
		r.UnreadCleanerCount = 0
	} else if reader == RoleClient {
		r.UnreadClientCount = 0
	}
	return changed
}

var (
	scriptBlock  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	htmlTag      = regexp.MustCompile(`<[^>]*>`)
	eventHandler = regexp.MustCompile(`(?i)\bon\w+\s*=`)
	jsScheme     = regexp.MustCompile(`(?i)javascript:`)
)

// SanitizeMessage strips markup and script vectors and caps the text at MaxMessageLength runes.
func SanitizeMessage(s string) string {
	s = scriptBlock.ReplaceAllString(s, "")
	s = htmlTag.ReplaceAllString(s, "")
	s = eventHandler.ReplaceAllString(s, "")
	s = jsScheme.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxMessageLength {
		s = string([]rune(s)[:MaxMessageLength])
	}
	return s
}

type ChatMessageInput struct {
	Message  string `json:"message"`
	ImageURL string `json:"image_url"`
}

type ChatRoomInput struct {
	BookingID string `json:"booking_id" validate:"required"`
}
