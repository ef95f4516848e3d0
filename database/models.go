package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kbukum/fieldcrypt/fieldcrypt"
)

// BaseModel contains common fields for all database models. It embeds
// fieldcrypt.Tracked so an encrypted model keeps one identity across
// sessions. Value copies get their own identity.
type BaseModel struct {
	fieldcrypt.Tracked `gorm:"-"`

	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// BeforeCreate generates a UUID if not already set.
func (b *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
