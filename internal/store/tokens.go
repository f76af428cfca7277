package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"gorm.io/gorm"
)

func (s *GormStore) CreateInvitation(ctx context.Context, inv *models.ReviewInvitation) error {
	return translate(s.db.WithContext(ctx).Omit("Hostel").Create(inv).Error)
}

func (s *GormStore) GetInvitationByToken(ctx context.Context, token string) (*models.ReviewInvitation, error) {
	var inv models.ReviewInvitation
	if err := s.db.WithContext(ctx).
		Preload("Hostel").
		Where("token = ?", token).
		First(&inv).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (s *GormStore) MarkInvitationUsed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.ReviewInvitation{}).
		Where("id = ? AND used = ?", id, false).
		Updates(map[string]interface{}{"used": true, "used_at": at})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *GormStore) ListInvitations(ctx context.Context, hostelID *uuid.UUID, offset, limit int) ([]models.ReviewInvitation, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ReviewInvitation{})
	if hostelID != nil {
		query = query.Where("hostel_id = ?", *hostelID)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invs []models.ReviewInvitation
	err := query.Preload("Hostel").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&invs).Error
	return invs, total, err
}

func (s *GormStore) CreateEmailChange(ctx context.Context, req *models.EmailChangeRequest) error {
	return translate(s.db.WithContext(ctx).Create(req).Error)
}

func (s *GormStore) GetEmailChangeByToken(ctx context.Context, token string) (*models.EmailChangeRequest, error) {
	var req models.EmailChangeRequest
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&req).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (s *GormStore) ListPendingEmailChanges(ctx context.Context, userID uuid.UUID) ([]models.EmailChangeRequest, error) {
	var reqs []models.EmailChangeRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND verified = ?", userID, false).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (s *GormStore) DeleteUnverifiedEmailChanges(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND verified = ?", userID, false).
		Delete(&models.EmailChangeRequest{})
	return result.RowsAffected, result.Error
}

func (s *GormStore) DeleteEmailChangesExcept(ctx context.Context, userID, keep uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND id <> ?", userID, keep).
		Delete(&models.EmailChangeRequest{})
	return result.RowsAffected, result.Error
}

func (s *GormStore) MarkEmailChangeVerified(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.EmailChangeRequest{}).
		Where("id = ? AND verified = ?", id, false).
		Updates(map[string]interface{}{"verified": true, "verified_at": at})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// PurgeExpiredEmailChanges deletes unverified requests whose link can no
// longer be used.
func (s *GormStore) PurgeExpiredEmailChanges(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("verified = ? AND expires_at < ?", false, now).
		Delete(&models.EmailChangeRequest{})
	return result.RowsAffected, result.Error
}
