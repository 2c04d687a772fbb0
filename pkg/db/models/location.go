package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a place where matches are played.
type Location struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatedByID uuid.UUID `gorm:"column:created_by_id;type:uuid;not null;index"`
	Name        string    `gorm:"column:name;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
