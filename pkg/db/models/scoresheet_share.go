package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Gravender/boardgames-backend/pkg/enums"
)

// ScoresheetShare is the durable grant for one scoresheet, tied to the
// GameShare of the game the sheet belongs to.
type ScoresheetShare struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID      uuid.UUID             `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:uq_scoresheet_share"`
	SharedWithID uuid.UUID             `gorm:"column:shared_with_id;type:uuid;not null;uniqueIndex:uq_scoresheet_share"`
	ScoresheetID uuid.UUID             `gorm:"column:scoresheet_id;type:uuid;not null;uniqueIndex:uq_scoresheet_share"`
	GameShareID  uuid.UUID             `gorm:"column:game_share_id;type:uuid;not null"`
	Permission   enums.SharePermission `gorm:"column:permission;type:share_permission_enum;not null;default:view"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
