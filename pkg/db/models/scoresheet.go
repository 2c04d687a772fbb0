package models

import (
	"time"

	"github.com/google/uuid"
)

// Scoresheet is a scoring template attached to a game. Every game carries a
// default scoresheet; additional sheets are optional.
type Scoresheet struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	GameID    uuid.UUID `gorm:"column:game_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	IsDefault bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
