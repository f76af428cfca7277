package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SearchTerm is one whitespace-separated word of a free-text query. A hostel
// matches the term when any text column contains it, when its category is
// one of Categories, or when its price lies within PriceLow..PriceHigh.
type SearchTerm struct {
	Text       string
	Categories []models.HostelCategory
	PriceLow   *int64
	PriceHigh  *int64
}

// HostelQuery filters hostels. Terms are ANDed together.
type HostelQuery struct {
	Terms         []SearchTerm
	Categories    []models.HostelCategory
	Location      string
	MinPrice      *int64
	MaxPrice      *int64
	OnlyAvailable bool
	Offset        int
	Limit         int
}

var searchColumns = []string{"name", "address", "location", "description"}

func (s *GormStore) CreateHostel(ctx context.Context, hostel *models.Hostel) error {
	return translate(s.db.WithContext(ctx).Omit("Amenities").Create(hostel).Error)
}

func (s *GormStore) GetHostel(ctx context.Context, id uuid.UUID) (*models.Hostel, error) {
	var hostel models.Hostel
	if err := s.db.WithContext(ctx).Preload("Amenities").First(&hostel, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &hostel, nil
}

func (s *GormStore) GetHostelBySlug(ctx context.Context, slug string) (*models.Hostel, error) {
	var hostel models.Hostel
	if err := s.db.WithContext(ctx).Preload("Amenities").Where("slug = ?", slug).First(&hostel).Error; err != nil {
		return nil, translate(err)
	}
	return &hostel, nil
}

func (s *GormStore) UpdateHostel(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.Hostel{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteHostel removes a hostel together with its reviews, invitations,
// favorites and inquiries.
func (s *GormStore) DeleteHostel(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		hostel := models.Hostel{Base: models.Base{ID: id}}
		if err := tx.Model(&hostel).Association("Amenities").Clear(); err != nil {
			return err
		}
		owned := []interface{}{
			&models.Review{},
			&models.ReviewInvitation{},
			&models.Favorite{},
			&models.HostelInquiry{},
		}
		for _, m := range owned {
			if err := tx.Where("hostel_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		result := tx.Where("id = ?", id).Delete(&models.Hostel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *GormStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Hostel{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// SearchHostels returns one page of matching hostels, newest first, along
// with the total match count.
func (s *GormStore) SearchHostels(ctx context.Context, q HostelQuery) ([]models.Hostel, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Hostel{})

	if q.OnlyAvailable {
		query = query.Where("available_slots > 0")
	}
	if len(q.Categories) > 0 {
		query = query.Where("category IN ?", categoryStrings(q.Categories))
	}
	if q.Location != "" {
		query = query.Where(`LOWER(location) LIKE ? ESCAPE '\'`, likePattern(q.Location))
	}
	if q.MinPrice != nil {
		query = query.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		query = query.Where("price <= ?", *q.MaxPrice)
	}
	for _, term := range q.Terms {
		cond, args := termCondition(term)
		query = query.Where(cond, args...)
	}

	base := query.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var hostels []models.Hostel
	find := base.Order("created_at DESC").Order("id DESC")
	if q.Limit > 0 {
		find = find.Offset(q.Offset).Limit(q.Limit)
	}
	if err := find.Find(&hostels).Error; err != nil {
		return nil, 0, err
	}
	return hostels, total, nil
}

func termCondition(term SearchTerm) (string, []interface{}) {
	var parts []string
	var args []interface{}

	pattern := likePattern(term.Text)
	for _, col := range searchColumns {
		parts = append(parts, "LOWER("+col+`) LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}
	if len(term.Categories) > 0 {
		parts = append(parts, "category IN ?")
		args = append(args, categoryStrings(term.Categories))
	}
	if term.PriceLow != nil && term.PriceHigh != nil {
		parts = append(parts, "price BETWEEN ? AND ?")
		args = append(args, *term.PriceLow, *term.PriceHigh)
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

func categoryStrings(cats []models.HostelCategory) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

// SetHostelAmenities replaces the hostel's amenities, creating any that do
// not exist yet.
func (s *GormStore) SetHostelAmenities(ctx context.Context, hostel *models.Hostel, names []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		amenities := make([]models.Amenity, 0, len(names))
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			a := models.Amenity{Name: name}
			if err := tx.Where(models.Amenity{Name: name}).FirstOrCreate(&a).Error; err != nil {
				return translate(err)
			}
			amenities = append(amenities, a)
		}
		if err := tx.Model(hostel).Association("Amenities").Replace(amenities); err != nil {
			return err
		}
		hostel.Amenities = amenities
		return nil
	})
}

func (s *GormStore) DecrementSlots(ctx context.Context, hostelID uuid.UUID) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.Hostel{}).
		Where("id = ? AND available_slots > 0", hostelID).
		UpdateColumn("available_slots", gorm.Expr("available_slots - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *GormStore) CreateReview(ctx context.Context, review *models.Review) error {
	return translate(s.db.WithContext(ctx).Create(review).Error)
}

func (s *GormStore) ListReviews(ctx context.Context, hostelID uuid.UUID, limit int) ([]models.Review, error) {
	var reviews []models.Review
	query := s.db.WithContext(ctx).Where("hostel_id = ?", hostelID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&reviews).Error
	return reviews, err
}

// AverageRatings computes the mean rating per hostel in one query. Hostels
// without reviews are absent from the result.
func (s *GormStore) AverageRatings(ctx context.Context, hostelIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	out := make(map[uuid.UUID]float64, len(hostelIDs))
	if len(hostelIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		HostelID  uuid.UUID
		AvgRating float64
	}
	err := s.db.WithContext(ctx).Model(&models.Review{}).
		Select("hostel_id, AVG(rating) AS avg_rating").
		Where("hostel_id IN ?", hostelIDs).
		Group("hostel_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.HostelID] = r.AvgRating
	}
	return out, nil
}

func (s *GormStore) AddFavorite(ctx context.Context, userID, hostelID uuid.UUID) error {
	fav := models.Favorite{UserID: userID, HostelID: hostelID}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&fav).Error
}

func (s *GormStore) RemoveFavorite(ctx context.Context, userID, hostelID uuid.UUID) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND hostel_id = ?", userID, hostelID).
		Delete(&models.Favorite{})
	return result.RowsAffected > 0, result.Error
}

func (s *GormStore) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Hostel, error) {
	var favs []models.Favorite
	err := s.db.WithContext(ctx).
		Preload("Hostel").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favs).Error
	if err != nil {
		return nil, err
	}
	hostels := make([]models.Hostel, 0, len(favs))
	for _, f := range favs {
		if f.Hostel != nil {
			hostels = append(hostels, *f.Hostel)
		}
	}
	return hostels, nil
}
