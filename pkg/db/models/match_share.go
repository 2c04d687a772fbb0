package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Gravender/boardgames-backend/pkg/enums"
)

// MatchShare is the durable grant for one match. It always references the
// GameShare it depends on, and the LocationShare when the match has a
// location that was shared alongside it.
type MatchShare struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID         uuid.UUID             `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:uq_match_share"`
	SharedWithID    uuid.UUID             `gorm:"column:shared_with_id;type:uuid;not null;uniqueIndex:uq_match_share"`
	MatchID         uuid.UUID             `gorm:"column:match_id;type:uuid;not null;uniqueIndex:uq_match_share"`
	GameShareID     uuid.UUID             `gorm:"column:game_share_id;type:uuid;not null"`
	LocationShareID *uuid.UUID            `gorm:"column:location_share_id;type:uuid"`
	Permission      enums.SharePermission `gorm:"column:permission;type:share_permission_enum;not null;default:view"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
