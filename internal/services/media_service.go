package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"clean-cloak/internal/models"
	"clean-cloak/internal/repository"
)

const maxUploadSize = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

type MediaService struct {
	store    ObjectStore
	cleaners repository.CleanerRepository
	chats    repository.ChatRepository
}

func NewMediaService(store ObjectStore, cleaners repository.CleanerRepository, chats repository.ChatRepository) *MediaService {
	return &MediaService{store: store, cleaners: cleaners, chats: chats}
}

// UploadDocument stores a verification or profile document and links it to the cleaner's profile.
func (s *MediaService) UploadDocument(ctx context.Context, userID string, kind models.DocumentKind, filename string, r io.Reader, size int64, contentType string) (string, error) {
	field, list, ok := kind.Field()
	if !ok {
		return "", fmt.Errorf("%w: unknown document type %q", models.ErrValidation, kind)
	}
	if err := checkUpload(size, contentType); err != nil {
		return "", err
	}
	if _, err := s.cleaners.GetByUserID(ctx, userID); err != nil {
		return "", err
	}

	key := objectKey(fmt.Sprintf("cleaners/%s/%s", userID, kind), filename)
	url, err := s.store.Put(ctx, key, r, size, contentType)
	if err != nil {
		return "", err
	}
	if err := s.cleaners.SetDocument(ctx, userID, field, list, url); err != nil {
		return "", err
	}
	return url, nil
}

// UploadChatImage stores an image for a chat the user takes part in and returns its URL.
func (s *MediaService) UploadChatImage(ctx context.Context, userID, bookingID, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if err := checkUpload(size, contentType); err != nil {
		return "", err
	}
	if contentType == "application/pdf" {
		return "", fmt.Errorf("%w: only images can be sent in chat", models.ErrValidation)
	}
	room, err := s.chats.GetByBookingID(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if _, ok := room.RoleOf(userID); !ok {
		return "", models.ErrForbidden
	}
	return s.store.Put(ctx, objectKey("chats/"+bookingID, filename), r, size, contentType)
}

func checkUpload(size int64, contentType string) error {
	if size <= 0 || size > maxUploadSize {
		return fmt.Errorf("%w: file must be between 1 byte and 10MB", models.ErrValidation)
	}
	if !allowedImageTypes[contentType] {
		return fmt.Errorf("%w: unsupported content type %q", models.ErrValidation, contentType)
	}
	return nil
}

func objectKey(prefix, filename string) string {
	name := strings.ReplaceAll(filepath.Base(filename), " ", "_")
	return fmt.Sprintf("%s/%d_%s", prefix, time.Now().UnixNano(), name)
}
