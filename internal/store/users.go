package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"gorm.io/gorm"
)

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Profile").First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) UsernameExists(ctx context.Context, username string, exclude uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? AND id <> ?", username, exclude).
		Count(&count).Error
	return count > 0, err
}

// EmailInUse reports whether email belongs to any account other than
// exclude, either as its login email or as a verified secondary address.
func (s *GormStore) EmailInUse(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).
		Where("email = ? AND id <> ?", email, exclude).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	if err := db.Model(&models.EmailAddress{}).
		Where("email = ? AND verified = ? AND user_id <> ?", email, true, exclude).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the account and everything it owns. Property listings
// the user submitted survive with the owner cleared.
func (s *GormStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []interface{}{
			&models.EmailAddress{},
			&models.SocialAccount{},
			&models.Profile{},
			&models.RoommateProfile{},
			&models.EmailChangeRequest{},
			&models.Favorite{},
		}
		for _, m := range owned {
			if err := tx.Where("user_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.PropertyListing{}).
			Where("user_id = ?", id).
			Update("user_id", nil).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SetPrimaryEmail makes email the user's only primary address, creating the
// row if needed. An address never goes from verified back to unverified.
func (s *GormStore) SetPrimaryEmail(ctx context.Context, userID uuid.UUID, email string, verified bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.EmailAddress{}).
			Where("user_id = ? AND email <> ?", userID, email).
			Update("is_primary", false).Error; err != nil {
			return err
		}

		var addr models.EmailAddress
		err := tx.Where("user_id = ? AND email = ?", userID, email).First(&addr).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			addr = models.EmailAddress{
				UserID:   userID,
				Email:    email,
				Verified: verified,
				Primary:  true,
			}
			return translate(tx.Create(&addr).Error)
		}
		if err != nil {
			return err
		}

		return tx.Model(&addr).Updates(map[string]interface{}{
			"is_primary": true,
			"verified":   addr.Verified || verified,
		}).Error
	})
}

func (s *GormStore) DeleteEmailAddressesExcept(ctx context.Context, userID uuid.UUID, keep string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND email <> ?", userID, keep).
		Delete(&models.EmailAddress{}).Error
}

func (s *GormStore) ListEmailAddresses(ctx context.Context, userID uuid.UUID) ([]models.EmailAddress, error) {
	var addrs []models.EmailAddress
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&addrs).Error
	return addrs, err
}

func (s *GormStore) GetSocialAccount(ctx context.Context, provider, subject string) (*models.SocialAccount, error) {
	var acct models.SocialAccount
	if err := s.db.WithContext(ctx).
		Where("provider = ? AND subject = ?", provider, subject).
		First(&acct).Error; err != nil {
		return nil, translate(err)
	}
	return &acct, nil
}

func (s *GormStore) CreateSocialAccount(ctx context.Context, account *models.SocialAccount) error {
	return translate(s.db.WithContext(ctx).Create(account).Error)
}

func (s *GormStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	return translate(s.db.WithContext(ctx).Create(profile).Error)
}

func (s *GormStore) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (s *GormStore) UpdateProfile(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).Updates(fields)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) GetRoommateProfile(ctx context.Context, userID uuid.UUID) (*models.RoommateProfile, error) {
	var rp models.RoommateProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&rp).Error; err != nil {
		return nil, translate(err)
	}
	return &rp, nil
}

// SaveRoommateProfile inserts or fully replaces the user's roommate profile.
func (s *GormStore) SaveRoommateProfile(ctx context.Context, profile *models.RoommateProfile) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.RoommateProfile
		err := tx.Where("user_id = ?", profile.UserID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return translate(tx.Create(profile).Error)
		}
		if err != nil {
			return err
		}
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
		return tx.Model(&existing).Updates(map[string]interface{}{
			"place_of_stay":  profile.PlaceOfStay,
			"rent":           profile.Rent,
			"contact_number": profile.ContactNumber,
			"is_active":      profile.IsActive,
		}).Error
	})
}
