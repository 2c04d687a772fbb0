package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchPlayer joins a player into a match.
type MatchPlayer struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MatchID   uuid.UUID `gorm:"column:match_id;type:uuid;not null;uniqueIndex:idx_match_player"`
	PlayerID  uuid.UUID `gorm:"column:player_id;type:uuid;not null;uniqueIndex:idx_match_player"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
