package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"gorm.io/gorm"
)

func (s *GormStore) CreateContactInquiry(ctx context.Context, inq *models.ContactInquiry) error {
	return translate(s.db.WithContext(ctx).Create(inq).Error)
}

func (s *GormStore) ListContactInquiries(ctx context.Context, offset, limit int) ([]models.ContactInquiry, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ContactInquiry{}).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.ContactInquiry
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

func (s *GormStore) DeleteContactInquiry(ctx context.Context, id uuid.UUID) error {
	return deleteByID(s, ctx, &models.ContactInquiry{}, id)
}

func (s *GormStore) CreateHostelInquiry(ctx context.Context, inq *models.HostelInquiry) error {
	return translate(s.db.WithContext(ctx).Omit("Hostel").Create(inq).Error)
}

func (s *GormStore) ListHostelInquiries(ctx context.Context, hostelID *uuid.UUID, offset, limit int) ([]models.HostelInquiry, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.HostelInquiry{})
	if hostelID != nil {
		query = query.Where("hostel_id = ?", *hostelID)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.HostelInquiry
	err := query.Preload("Hostel").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, total, err
}

func (s *GormStore) DeleteHostelInquiry(ctx context.Context, id uuid.UUID) error {
	return deleteByID(s, ctx, &models.HostelInquiry{}, id)
}

func (s *GormStore) CreatePropertyListing(ctx context.Context, listing *models.PropertyListing) error {
	return translate(s.db.WithContext(ctx).Create(listing).Error)
}

func (s *GormStore) GetPropertyListing(ctx context.Context, id uuid.UUID) (*models.PropertyListing, error) {
	var listing models.PropertyListing
	if err := s.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &listing, nil
}

func (s *GormStore) ListPropertyListings(ctx context.Context, offset, limit int) ([]models.PropertyListing, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.PropertyListing{}).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.PropertyListing
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

func (s *GormStore) ReplyToPropertyListing(ctx context.Context, id uuid.UUID, reply string, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.PropertyListing{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"reply": reply, "replied_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeletePropertyListing(ctx context.Context, id uuid.UUID) error {
	return deleteByID(s, ctx, &models.PropertyListing{}, id)
}

func deleteByID(s *GormStore, ctx context.Context, model interface{}, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
