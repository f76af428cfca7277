package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with UUID primary key and timestamps. Rows are hard-deleted;
// nothing in this domain keeps tombstones.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&EmailAddress{},
		&SocialAccount{},
		&Profile{},
		&RoommateProfile{},
		&Amenity{},
		&Hostel{},
		&Review{},
		&ReviewInvitation{},
		&EmailChangeRequest{},
		&Favorite{},
		&PropertyListing{},
		&ContactInquiry{},
		&HostelInquiry{},
	}
}
