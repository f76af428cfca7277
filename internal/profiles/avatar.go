package profiles

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/apperr"
	"github.com/hugh/hostel-hunter/internal/avatars"
)

const DefaultMaxAvatarBytes = 5 << 20

// allowedImages maps sniffed content types to the stored file extension.
var allowedImages = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
}

// UploadAvatar stores a new profile picture and points the profile at it.
// Unlike the provider avatar copied at first login, every failure here is
// returned to the caller.
func (s *Service) UploadAvatar(ctx context.Context, userID uuid.UUID, filename, contentType string, body io.Reader) (string, error) {
	if s.avatars == nil {
		return "", apperr.Precondition("Avatar uploads are not enabled")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", apperr.Validation("avatar", "Upload a JPEG, PNG or WebP image")
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxAvatarBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading avatar: %w", err)
	}
	if int64(len(data)) > s.maxAvatarBytes {
		return "", apperr.Validation("avatar", fmt.Sprintf("Image must be %d MB or smaller", s.maxAvatarBytes>>20))
	}
	if len(data) == 0 {
		return "", apperr.Validation("avatar", "The uploaded file is empty")
	}

	// The declared type is the client's claim; the bytes decide.
	sniffed := http.DetectContentType(data)
	storedExt, ok := allowedImages[sniffed]
	if !ok {
		s.log.Debug("avatar rejected", "user_id", userID, "declared", contentType, "sniffed", sniffed)
		return "", apperr.Validation("avatar", "Upload a JPEG, PNG or WebP image")
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}

	key := avatars.Key(userID, storedExt)
	url, err := s.avatars.Put(ctx, key, sniffed, data)
	if err != nil {
		return "", apperr.TransientExternal("Could not store the avatar, try again", err)
	}

	if err := s.store.UpdateProfile(ctx, userID, map[string]interface{}{
		"avatar_key": key,
		"avatar_url": url,
	}); err != nil {
		_ = s.avatars.Delete(ctx, key)
		return "", err
	}

	if profile.AvatarKey != "" {
		if err := s.avatars.Delete(ctx, profile.AvatarKey); err != nil {
			s.log.Warn("failed to delete old avatar", "user_id", userID, "key", profile.AvatarKey, "error", err)
		}
	}
	s.log.Info("avatar updated", "user_id", userID, "bytes", len(data))
	return url, nil
}
