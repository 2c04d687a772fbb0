package models

import (
	"time"

	"github.com/google/uuid"
)

// Match is a played session of a game.
type Match struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	GameID       uuid.UUID  `gorm:"column:game_id;type:uuid;not null;index"`
	LocationID   *uuid.UUID `gorm:"column:location_id;type:uuid"`
	ScoresheetID *uuid.UUID `gorm:"column:scoresheet_id;type:uuid"`
	Name         string     `gorm:"column:name;not null"`
	PlayedAt     time.Time  `gorm:"column:played_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
